package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	fboauth "golang.org/x/oauth2/facebook"

	"github.com/irenchen/auth2/internal/auth"
	"github.com/irenchen/auth2/internal/logger"
)

const (
	providerName = "facebook"
	userInfoURL  = "https://graph.facebook.com/v19.0/me?fields=id,name,email"
)

// Provider implements OAuth authentication against Facebook. Facebook
// issues no id_token, so the profile is fetched from the Graph API
// with the exchanged access token. It returns profile facts only; no
// account or session decisions are made here.
type Provider struct {
	oauthConfig *oauth2.Config
}

func New(
	clientID string,
	clientSecret string,
	redirectURL string,
) (*Provider, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("facebook oauth config missing required fields")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     fboauth.Endpoint,
		Scopes: []string{
			"email",
			"public_profile",
		},
	}

	return &Provider{oauthConfig: oauthCfg}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode exchanges the authorization code and fetches the user's
// Graph profile. Email is best-effort: Facebook omits it for accounts
// registered by phone number, and the profile then carries none.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Profile, error) {

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		logger.Error("facebook token exchange failed", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	client := p.oauthConfig.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("facebook userinfo request failed: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebook userinfo fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook userinfo returned status %d", resp.StatusCode)
	}

	var me struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("facebook userinfo parse failed: %w", err)
	}

	if me.ID == "" {
		return nil, errors.New("facebook userinfo missing id")
	}

	logger.Info("facebook profile fetched", map[string]any{
		"name_present":  me.Name != "",
		"email_present": me.Email != "",
	})

	return &auth.Profile{
		Kind:        auth.KindFacebook,
		ExternalID:  me.ID,
		DisplayName: me.Name,
		Email:       me.Email,
		AccessToken: token.AccessToken,
	}, nil
}
