// Package tokens stores the ids of issued auth tokens so that a token can be
// revoked on logout before it expires.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/foodgram/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.AuthToken) error
	// Find returns common.ErrorNotFound for unknown or revoked ids.
	Find(ctx context.Context, id string) (*models.AuthToken, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired purges rows whose expiry passed and returns how many went.
	DeleteExpired(ctx context.Context) (int64, error)
}
