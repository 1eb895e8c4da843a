package db

import (
	"context"
	"database/sql"
)

// DB wraps the shared sql handle so packages depend on this type
// rather than database/sql directly.
type DB struct {
	*sql.DB
}

const keystoneMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS accounts (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS identities (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    account_id uuid NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    provider text NOT NULL,
    external_id text NOT NULL,
    secret text NOT NULL DEFAULT '',
    display_name text NOT NULL DEFAULT '',
    email text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT identities_provider_external_unique
        UNIQUE (provider, external_id)
);

CREATE INDEX IF NOT EXISTS identities_account_id_idx
ON identities (account_id);
`

// RunKeystoneMigration creates the accounts and identities tables.
// The (provider, external_id) unique constraint is load-bearing: the
// resolver depends on it to collapse concurrent duplicate signups.
func RunKeystoneMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, keystoneMigration)
	return err
}
