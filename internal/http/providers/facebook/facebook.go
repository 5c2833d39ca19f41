// Package facebook implements the Facebook Graph OAuth2 provider client.
package facebook

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

const ProviderName = "facebook"

const (
	defaultAuthEndpoint     = "https://www.facebook.com/v18.0/dialog/oauth"
	defaultTokenEndpoint    = "https://graph.facebook.com/v18.0/oauth/access_token"
	defaultUserInfoEndpoint = "https://graph.facebook.com/v18.0/me"
)

// Provider is the Facebook OAuth2 client.
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

// Factory creates a Facebook provider from config.
func Factory(cfg providers.Config) (providers.Provider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("facebook: client_id required")
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"email", "public_profile"}
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
	q.Set("scope", strings.Join(p.Scopes, ","))
	q.Set("state", state)
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
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    int    `json:"code"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, &providers.ExternalServiceError{
			Provider: ProviderName,
			Op:       "exchange",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s %s", body.Error.Type, body.Error.Message),
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

// graphProfile is the Graph API /me payload with the fields we request. The
// avatar URL is nested under picture.data.
type graphProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func (p *Provider) UserInfo(ctx context.Context, accessToken string) (*providers.Profile, error) {
	u, err := url.Parse(p.UserInfoEndpoint)
	if err != nil {
		return nil, &providers.ExternalServiceError{Provider: ProviderName, Op: "userinfo", Err: err}
	}
	q := u.Query()
	q.Set("fields", "id,name,email,picture.width(256)")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
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

	var info graphProfile
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, &providers.ExternalServiceError{Provider: ProviderName, Op: "userinfo", Err: err}
	}

	return &providers.Profile{
		ProviderID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		Picture:    info.Picture.Data.URL,
		Provider:   ProviderName,
	}, nil
}
