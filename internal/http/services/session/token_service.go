// Package session implements the application's own session token lifecycle:
// issue, read, validate and invalidate. Tokens are self-contained HS256 JWTs;
// no server-side session registry exists.
package session

import (
	"errors"
	"net/http"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/punchline-api/punchline/internal/http/helpers"
)

// DefaultCookieName is the fixed session cookie name.
const DefaultCookieName = "punchline_session"

// sessionExpiry is the maximum representable instant: sessions do not expire
// on their own. Logout invalidates the cookie copy only; see Invalidate.
var sessionExpiry = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Config holds the signing and cookie settings.
type Config struct {
	Issuer     string
	Audience   string
	SigningKey []byte

	CookieName   string
	CookieDomain string
	CookieTTL    time.Duration // finite cookie lifetime, independent of token exp
	Secure       bool
}

// Input carries the identity data baked into a new token.
type Input struct {
	UserID   string
	Name     string
	Email    string
	Provider string
	IP       string
}

// Claims is the decoded session claim set.
type Claims struct {
	UserID   string
	Name     string
	Email    string
	Provider string
	IP       string
	JTI      string
	IssuedAt time.Time
}

// Service issues and verifies session tokens and builds the transport
// cookies. All methods are safe for unbounded concurrent use.
type Service struct {
	cfg Config
	now func() time.Time
}

var ErrTokenInvalid = errors.New("session: token invalid")

// NewService creates a token service. CookieName and CookieTTL default to
// DefaultCookieName and 180 days.
func NewService(cfg Config) *Service {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.CookieTTL == 0 {
		cfg.CookieTTL = 180 * 24 * time.Hour
	}
	return &Service{cfg: cfg, now: time.Now}
}

// Generate builds and signs a session token for the given identity.
func (s *Service) Generate(in Input) (string, error) {
	now := s.now().UTC()
	claims := jwtv5.MapClaims{
		"iss":      s.cfg.Issuer,
		"aud":      s.cfg.Audience,
		"sub":      in.UserID,
		"name":     in.Name,
		"email":    in.Email,
		"provider": in.Provider,
		"ip":       in.IP,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      sessionExpiry.Unix(),
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	return tk.SignedString(s.cfg.SigningKey)
}

// FromRequest reads the token from the session cookie, falling back to a
// Bearer Authorization header.
func (s *Service) FromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(s.cfg.CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	if tok := helpers.BearerToken(r); tok != "" {
		return tok, true
	}
	return "", false
}

// Validate reports whether the token's signature, issuer, audience and
// lifetime check out. Any parse failure means false; it never panics or
// returns an error to the caller.
func (s *Service) Validate(token string) bool {
	_, err := s.parse(token, false)
	return err == nil
}

// DecodeClaims parses and verifies the token, returning the typed claim set.
func (s *Service) DecodeClaims(token string) (*Claims, error) {
	mc, err := s.parse(token, false)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	c := &Claims{
		UserID:   strClaim(mc, "sub"),
		Name:     strClaim(mc, "name"),
		Email:    strClaim(mc, "email"),
		Provider: strClaim(mc, "provider"),
		IP:       strClaim(mc, "ip"),
		JTI:      strClaim(mc, "jti"),
	}
	if iat, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	return c, nil
}

// Invalidate re-signs the token's claims with an expiration in the past and
// returns the resulting token. Writing that value into the cookie (and then
// deleting the cookie) is the only logout mechanism: copies of the original
// token held outside the cookie jar remain valid.
func (s *Service) Invalidate(token string) (string, error) {
	mc, err := s.parse(token, true)
	if err != nil {
		return "", ErrTokenInvalid
	}

	mc["exp"] = s.now().UTC().Add(-24 * time.Hour).Unix()

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, mc)
	tk.Header["typ"] = "JWT"
	return tk.SignedString(s.cfg.SigningKey)
}

// SessionCookie builds the HttpOnly, Secure, SameSite=Strict cookie carrying
// the token.
func (s *Service) SessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   s.cfg.CookieDomain,
		MaxAge:   int(s.cfg.CookieTTL.Seconds()),
		Expires:  s.now().Add(s.cfg.CookieTTL),
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// DeletionCookie builds a cookie that clears the session cookie.
func (s *Service) DeletionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.cfg.CookieDomain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// parse verifies the signature and, unless skipValidation is set, the
// standard claims against the signing configuration.
func (s *Service) parse(token string, skipValidation bool) (jwtv5.MapClaims, error) {
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{"HS256"}),
	}
	if skipValidation {
		opts = append(opts, jwtv5.WithoutClaimsValidation())
	} else {
		opts = append(opts,
			jwtv5.WithIssuer(s.cfg.Issuer),
			jwtv5.WithAudience(s.cfg.Audience),
			jwtv5.WithExpirationRequired(),
		)
	}

	tok, err := jwtv5.Parse(token, func(t *jwtv5.Token) (any, error) {
		return s.cfg.SigningKey, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return nil, ErrTokenInvalid
	}

	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	return mc, nil
}

func strClaim(m jwtv5.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}
