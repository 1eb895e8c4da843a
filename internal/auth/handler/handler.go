package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irenchen/auth2/internal/auth"
	"github.com/irenchen/auth2/internal/auth/provider"
	"github.com/irenchen/auth2/internal/auth/resolver"
	"github.com/irenchen/auth2/internal/auth/store"
	"github.com/irenchen/auth2/internal/logger"
	"github.com/irenchen/auth2/internal/session"
)

const sessionTTL = 24 * time.Hour

type Handler struct {
	providers *provider.Registry
	sessions  session.Store
	resolver  resolver.Resolver
	accounts  store.Store
}

func New(
	registry *provider.Registry,
	sessions session.Store,
	res resolver.Resolver,
	accounts store.Store,
) *Handler {
	return &Handler{
		providers: registry,
		sessions:  sessions,
		resolver:  res,
		accounts:  accounts,
	}
}

// RegisterRoutes wires the public authentication routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.GET("/oauth/login/:provider", h.oauthLogin)
	r.GET("/oauth/callback/:provider", h.oauthCallback)
	r.POST("/auth/logout", h.Logout)
}

// RegisterProtectedRoutes wires routes that require a live session.
func (h *Handler) RegisterProtectedRoutes(g *gin.RouterGroup) {
	g.GET("/profile", h.Profile)
	g.POST("/unlink/:provider", h.Unlink)
}

func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	authURL := p.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

// oauthCallback finishes the provider flow. An anonymous caller is
// logged in (or signed up); a caller with a live session gets the
// provider linked onto their account instead.
func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	errParam := c.Query("error")
	if errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.Redirect(http.StatusFound, "/login")
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oauth callback missing code and error", nil)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}

	profile, err := p.ExchangeCode(c.Request.Context(), code, codeVerifier)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	current, ok := h.currentAccount(c)
	if !ok {
		return // response already written
	}

	account, err := h.resolver.ResolveOAuth(c.Request.Context(), profile, current)
	if err != nil {
		if errors.Is(err, resolver.ErrMalformedProfile) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "provider returned malformed profile",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to resolve account",
		})
		return
	}

	if current == nil {
		if !h.establishSession(c, account.ID) {
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "authenticated",
		"account_id": account.ID,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	// Best-effort: drop the server-side session if the cookie is there.
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		_ = h.sessions.Delete(c.Request.Context(), cookie.Value)
	}

	session.ClearCookie(c.Writer, session.CookieOptions{
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// Idempotent response
	c.Status(http.StatusNoContent)
}

// establishSession creates a server-side session and sets the cookie.
// On failure it writes the error response and returns false.
func (h *Handler) establishSession(c *gin.Context, accountID string) bool {
	sessionID, err := session.GenerateID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to create session",
		})
		return false
	}

	now := time.Now()
	expiresAt := now.Add(sessionTTL)

	err = h.sessions.Create(c.Request.Context(), session.Session{
		ID:        sessionID,
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to persist session",
		})
		return false
	}

	session.SetCookie(c.Writer, sessionID, expiresAt, session.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	logger.Info("session established", map[string]any{
		"account_id": accountID,
		"ip":         c.ClientIP(),
	})

	return true
}

// currentAccount loads the caller's account when a live session cookie
// is presented, or nil for anonymous callers. A store fault writes a
// 500 and returns ok=false.
func (h *Handler) currentAccount(c *gin.Context) (*auth.Account, bool) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, true
	}

	sess, err := h.sessions.Get(c.Request.Context(), cookie.Value)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to load session",
		})
		return nil, false
	}
	if sess == nil || time.Now().After(sess.ExpiresAt) {
		return nil, true
	}

	account, err := h.accounts.FindByID(c.Request.Context(), sess.AccountID)
	if errors.Is(err, store.ErrNotFound) {
		// Stale session pointing at an unknown account; treat as anonymous.
		return nil, true
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to load account",
		})
		return nil, false
	}

	return account, true
}
