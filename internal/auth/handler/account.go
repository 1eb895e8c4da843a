package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irenchen/auth2/internal/auth"
	"github.com/irenchen/auth2/internal/auth/store"
	"github.com/irenchen/auth2/internal/middleware"
)

// identityView is the redacted render of one identity slot. Secrets
// (password hashes, access tokens) never leave the service.
type identityView struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Linked      bool   `json:"linked"`
}

func renderAccount(account *auth.Account) gin.H {
	identities := make(map[string]identityView, len(account.Identities))
	for kind, ident := range account.Identities {
		identities[string(kind)] = identityView{
			ExternalID:  ident.ExternalID,
			DisplayName: ident.DisplayName,
			Email:       ident.Email,
			Linked:      ident.Linked(),
		}
	}
	return gin.H{
		"account_id": account.ID,
		"identities": identities,
	}
}

func (h *Handler) Profile(c *gin.Context) {
	account, ok := h.requireAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, renderAccount(account))
}

func (h *Handler) Unlink(c *gin.Context) {
	account, ok := h.requireAccount(c)
	if !ok {
		return
	}

	kind := auth.ProviderKind(c.Param("provider"))
	if !knownKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider"})
		return
	}

	account, err := h.resolver.Unlink(c.Request.Context(), account, kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unlink failed"})
		return
	}

	c.JSON(http.StatusOK, renderAccount(account))
}

// requireAccount loads the account the auth middleware resolved.
// Routes using it must sit behind GinRequireAuth.
func (h *Handler) requireAccount(c *gin.Context) (*auth.Account, bool) {
	accountID, ok := middleware.AccountIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	account, err := h.accounts.FindByID(c.Request.Context(), accountID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return nil, false
	}

	return account, true
}

func knownKind(kind auth.ProviderKind) bool {
	for _, k := range auth.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
