// Package ingredients stores the ingredient catalogue.
package ingredients

import (
	"context"

	"github.com/dmitrijs2005/foodgram/internal/server/models"
)

type Repository interface {
	// Search lists ingredients whose name starts with prefix, ignoring case,
	// ordered by name. An empty prefix lists everything.
	Search(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetByID(ctx context.Context, id int64) (*models.Ingredient, error)
	CountExisting(ctx context.Context, ids []int64) (int, error)
	// Load inserts ingredients not present yet (by name and unit) and returns how many were added.
	Load(ctx context.Context, items []models.Ingredient) (int64, error)
}
