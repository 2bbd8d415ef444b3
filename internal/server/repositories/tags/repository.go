// Package tags stores the recipe tags.
package tags

import (
	"context"

	"github.com/dmitrijs2005/foodgram/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Tag, error)
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	// ForRecipes returns the tags of every recipe in ids, keyed by recipe id.
	ForRecipes(ctx context.Context, ids []int64) (map[int64][]models.Tag, error)
	// CountExisting reports how many of the distinct ids exist.
	CountExisting(ctx context.Context, ids []int64) (int, error)
	// Load inserts tags whose slug is not taken yet and returns how many were added.
	Load(ctx context.Context, items []models.Tag) (int64, error)
}
