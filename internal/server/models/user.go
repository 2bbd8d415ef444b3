// Package models defines server-side data models persisted in the database
// and the projections the services hand to the transport layer.
package models

import "time"

type User struct {
	ID           int64
	Email        string
	UserName     string
	FirstName    string
	LastName     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// UserProfile is a user as seen by a viewer.
type UserProfile struct {
	User
	IsSubscribed bool
}

// AuthorProfile is the subscription view of an author: the profile plus a
// (possibly limited) list of their newest recipes and the total count.
type AuthorProfile struct {
	UserProfile
	Recipes      []RecipeShort
	RecipesCount int
}

// AuthToken is a persisted, revocable token id. The signed token itself is
// never stored.
type AuthToken struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
}
