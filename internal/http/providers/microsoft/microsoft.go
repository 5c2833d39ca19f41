// Package microsoft implements the Microsoft identity platform OAuth2
// provider client. The "common" tenant accepts both personal and work/school
// accounts.
package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/punchline-api/punchline/internal/http/providers"
)

const ProviderName = "microsoft"

const (
	defaultAuthEndpoint     = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	defaultTokenEndpoint    = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
	defaultUserInfoEndpoint = "https://graph.microsoft.com/v1.0/me"
)

// Provider is the Microsoft OAuth2 client.
type Provider struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	AuthEndpoint     string
	TokenEndpoint    string
	UserInfoEndpoint string

	http *http.Client
}

// Factory creates a Microsoft provider from config.
func Factory(cfg providers.Config) (providers.Provider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("microsoft: client_id required")
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email", "User.Read"}
	}
	return &Provider{
		ClientID:         cfg.ClientID,
		ClientSecret:     cfg.ClientSecret,
		RedirectURI:      cfg.RedirectURI,
		Scopes:           scopes,
		AuthEndpoint:     defaultAuthEndpoint,
		TokenEndpoint:    defaultTokenEndpoint,
		UserInfoEndpoint: defaultUserInfoEndpoint,
		http:             &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) AuthorizeURL(state string) string {
	u, _ := url.Parse(p.AuthEndpoint)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", p.RedirectURI)
	q.Set("scope", strings.Join(p.Scopes, " "))
	q.Set("state", state)
	q.Set("response_mode", "query")
	u.RawQuery = q.Encode()
	return u.String()
}

func (p *Provider) Exchange(ctx context.Context, code string) (*providers.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", p.ClientID)
	form.Set("client_secret", p.ClientSecret)
	form.Set("redirect_uri", p.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &providers.ExternalServiceError{Provider: ProviderName, Op: "exchange", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, &providers.ExternalServiceError{Provider: ProviderName, Op: "exchange", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var body struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, &providers.ExternalServiceError{
			Provider: ProviderName,
			Op:       "exchange",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s %s", body.Error, body.ErrorDescription),
		}
	}

	var ts providers.TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&ts); err != nil {
		return nil, &providers.ExternalServiceError{Provider: ProviderName, Op: "exchange", Err: err}
	}
	if ts.AccessToken == "" {
		return nil, &providers.ExternalServiceError{
			Provider: ProviderName,
			Op:       "exchange",
			Err:      fmt.Errorf("no access_token in response"),
		}
	}
	return &ts, nil
}

// graphUser is the Microsoft Graph /me payload. Personal accounts often have
// an empty mail field; userPrincipalName is the fallback.
type graphUser struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

func (p *Provider) UserInfo(ctx context.Context, accessToken string) (*providers.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoEndpoint, nil)
	if err != nil {
		return nil, &providers.ExternalServiceError{Provider: ProviderName, Op: "userinfo", Err: err}
	}
	// Authorization is request-scoped: the client is shared across requests.
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, &providers.ExternalServiceError{Provider: ProviderName, Op: "userinfo", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &providers.ExternalServiceError{Provider: ProviderName, Op: "userinfo", Status: resp.StatusCode}
	}

	var info graphUser
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, &providers.ExternalServiceError{Provider: ProviderName, Op: "userinfo", Err: err}
	}

	email := info.Mail
	if email == "" {
		email = info.UserPrincipalName
	}

	// Graph does not expose an avatar URL on /me; Picture stays empty and the
	// resolver keeps whatever the user already has.
	return &providers.Profile{
		ProviderID: info.ID,
		Email:      email,
		Name:       info.DisplayName,
		Provider:   ProviderName,
	}, nil
}
