// Package common contains shared constants and sentinel errors used across
// Foodgram components.
package common

// AuthHeaderName is the HTTP header carrying the access token.
const AuthHeaderName = "Authorization"

// Accepted schemes of the Authorization header. "Token" is what the web
// frontend sends, "Bearer" is accepted for API clients.
const (
	AuthSchemeToken  = "Token"
	AuthSchemeBearer = "Bearer"
)

// AnonymousUserID is the viewer id used for requests without identity.
// Identity columns start at 1, so it never matches a stored row.
const AnonymousUserID int64 = 0
