// Package models defines server-side records persisted in the database.
package models

import "time"

// User is owned by the user store. PasswordHash is a bcrypt hash and must
// never leave the server; use Public for anything client-facing.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// PublicUser is the projection of User that is safe to return to clients.
type PublicUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
