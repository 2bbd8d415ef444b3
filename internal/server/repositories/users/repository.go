// Package users declares and implements storage of user accounts and the
// viewer-dependent user profiles.
package users

import (
	"context"

	"github.com/dmitrijs2005/foodgram/internal/server/models"
)

type Repository interface {
	// Create inserts a user. Taken email or username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, hash []byte) error

	// Profile returns user id as seen by viewerID (is_subscribed).
	Profile(ctx context.Context, viewerID, id int64) (*models.UserProfile, error)
	// Profiles returns the profiles of ids that exist, in no particular order.
	Profiles(ctx context.Context, viewerID int64, ids []int64) ([]models.UserProfile, error)
	// List returns a page of profiles, newest users first, and the total count.
	List(ctx context.Context, viewerID int64, limit, offset int) ([]models.UserProfile, int, error)
}
