// Package dto holds the JSON response shapes of the public API.
package dto

import (
	"time"

	"github.com/punchline-api/punchline/internal/store/core"
)

// User is the public view of an account. Provider ids stay internal.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	PictureURL string    `json:"picture_url,omitempty"`
	Provider   string    `json:"provider"`
	RoleID     string    `json:"role_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserFromCore maps the domain user to its public view.
func UserFromCore(u *core.User) User {
	return User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		PictureURL: u.PictureURL,
		Provider:   u.LastProvider,
		RoleID:     u.RoleID,
		CreatedAt:  u.CreatedAt,
	}
}

// CallbackResponse is returned after a successful social login.
type CallbackResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// LogoutResponse confirms a logout.
type LogoutResponse struct {
	Message string `json:"message"`
}

// Joke is the public view of a content item.
type Joke struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JokeFromCore maps the domain joke to its public view.
func JokeFromCore(j *core.Joke) Joke {
	return Joke{ID: j.ID, Text: j.Text, Tags: j.Tags, CreatedAt: j.CreatedAt}
}

// JokeList wraps a page of jokes.
type JokeList struct {
	Jokes []Joke `json:"jokes"`
	Count int    `json:"count"`
}
