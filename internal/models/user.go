package models

import "time"

// User is a registered account. Token is the permanent bearer credential.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicUser is what validate and register expose about a user.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}
