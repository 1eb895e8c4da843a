package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/irenchen/auth2/internal/auth"
	"github.com/irenchen/auth2/internal/db"
)

// Postgres stores accounts in the accounts/identities tables created
// by the keystone migration. The identities_provider_external_unique
// constraint is what turns concurrent duplicate signups into
// ErrConflict instead of duplicate accounts.
type Postgres struct {
	db *db.DB
}

func NewPostgres(db *db.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) FindByIdentity(
	ctx context.Context,
	kind auth.ProviderKind,
	externalID string,
) (*auth.Account, error) {

	var accountID string
	err := p.db.QueryRowContext(ctx, `
		SELECT account_id
		FROM identities
		WHERE provider = $1
		  AND external_id = $2
	`, string(kind), externalID).Scan(&accountID)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: identity lookup: %w", err)
	}

	return p.load(ctx, accountID)
}

func (p *Postgres) FindByID(ctx context.Context, id string) (*auth.Account, error) {
	return p.load(ctx, id)
}

func (p *Postgres) Create(
	ctx context.Context,
	kind auth.ProviderKind,
	ident *auth.Identity,
) (*auth.Account, error) {

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin create: %w", err)
	}
	defer tx.Rollback()

	accountID := uuid.NewString()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id) VALUES ($1)
	`, accountID); err != nil {
		return nil, fmt.Errorf("store: insert account: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities
			(account_id, provider, external_id, secret, display_name, email)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, accountID, string(kind), ident.ExternalID,
		ident.Secret, ident.DisplayName, ident.Email)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("store: insert identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("store: commit create: %w", err)
	}

	account := &auth.Account{ID: accountID}
	cp := *ident
	account.SetIdentity(kind, &cp)
	return account, nil
}

func (p *Postgres) Persist(ctx context.Context, account *auth.Account) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin persist: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, account.ID); err != nil {
		return fmt.Errorf("store: upsert account: %w", err)
	}

	for _, kind := range auth.Kinds() {
		ident := account.Identity(kind)
		if ident == nil {
			continue
		}

		// One row per slot: drop a stale row left by a previous
		// external_id before upserting the current one.
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM identities
			WHERE account_id = $1
			  AND provider = $2
			  AND external_id <> $3
		`, account.ID, string(kind), ident.ExternalID); err != nil {
			return fmt.Errorf("store: clear stale slot: %w", err)
		}

		// ON CONFLICT reassigns a row held by another account; that
		// is the link-overwrite behavior the resolver documents.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO identities
				(account_id, provider, external_id, secret, display_name, email)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (provider, external_id) DO UPDATE SET
				account_id   = EXCLUDED.account_id,
				secret       = EXCLUDED.secret,
				display_name = EXCLUDED.display_name,
				email        = EXCLUDED.email,
				updated_at   = NOW()
		`, account.ID, string(kind), ident.ExternalID,
			ident.Secret, ident.DisplayName, ident.Email); err != nil {
			return fmt.Errorf("store: upsert identity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit persist: %w", err)
	}
	return nil
}

func (p *Postgres) load(ctx context.Context, accountID string) (*auth.Account, error) {
	var id string
	err := p.db.QueryRowContext(ctx, `
		SELECT id FROM accounts WHERE id = $1
	`, accountID).Scan(&id)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: account lookup: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT provider, external_id, secret, display_name, email
		FROM identities
		WHERE account_id = $1
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("store: load identities: %w", err)
	}
	defer rows.Close()

	account := &auth.Account{ID: id}
	for rows.Next() {
		var (
			provider string
			ident    auth.Identity
		)
		if err := rows.Scan(
			&provider,
			&ident.ExternalID,
			&ident.Secret,
			&ident.DisplayName,
			&ident.Email,
		); err != nil {
			return nil, fmt.Errorf("store: scan identity: %w", err)
		}
		account.SetIdentity(auth.ProviderKind(provider), &ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate identities: %w", err)
	}

	return account, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
