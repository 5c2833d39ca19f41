package core

import "time"

// Known provider names. Provider link columns on User map 1:1 to these.
const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"
	ProviderFacebook  = "facebook"
)

// KnownProviders lists every provider a link column exists for.
var KnownProviders = []string{ProviderGoogle, ProviderMicrosoft, ProviderFacebook}

// User is the durable account record. Created and mutated only by the
// identity resolver; at most one row per email.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PictureURL   string     `json:"pictureUrl,omitempty"`
	GoogleID     *string    `json:"googleId,omitempty"`
	MicrosoftID  *string    `json:"microsoftId,omitempty"`
	FacebookID   *string    `json:"facebookId,omitempty"`
	LastProvider string     `json:"lastProvider,omitempty"`
	RoleID       string     `json:"roleId"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	ModifiedAt   time.Time  `json:"modifiedAt"`
}

// ProviderID returns the linked id for the given provider, or nil.
func (u *User) ProviderID(provider string) *string {
	switch provider {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderMicrosoft:
		return u.MicrosoftID
	case ProviderFacebook:
		return u.FacebookID
	}
	return nil
}

// SetProviderID sets the link column for the given provider. Unknown
// providers are ignored; the resolver only passes known ones.
func (u *User) SetProviderID(provider, id string) {
	switch provider {
	case ProviderGoogle:
		u.GoogleID = &id
	case ProviderMicrosoft:
		u.MicrosoftID = &id
	case ProviderFacebook:
		u.FacebookID = &id
	}
}

// Joke is a content item. The identity subsystem never touches jokes beyond
// gating access to them.
type Joke struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultRoleID is assigned to users created through social login.
const DefaultRoleID = "member"
