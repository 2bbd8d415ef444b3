// Package recipes stores recipes together with their tag links and
// ingredient lines, and computes the shopping list aggregation.
package recipes

import (
	"context"

	"github.com/dmitrijs2005/foodgram/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	// Update overwrites name, text, image and cooking time.
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Recipe, error)
	GetShort(ctx context.Context, id int64) (*models.RecipeShort, error)

	// SetTags and SetIngredients replace the links of a recipe. They are
	// meant to run inside the transaction that created or updated it.
	SetTags(ctx context.Context, recipeID int64, tagIDs []int64) error
	SetIngredients(ctx context.Context, recipeID int64, lines []models.IngredientAmount) error

	// Get returns the recipe row and the viewer flags; author, tags and
	// ingredient lines are left for the caller to attach.
	Get(ctx context.Context, viewerID, id int64) (*models.RecipeDetails, error)
	List(ctx context.Context, filter models.RecipeFilter) ([]models.RecipeDetails, int, error)
	IngredientsFor(ctx context.Context, ids []int64) (map[int64][]models.RecipeIngredient, error)

	// ShortByAuthors returns up to limit newest recipes per author; limit <= 0 means all.
	ShortByAuthors(ctx context.Context, authorIDs []int64, limit int) (map[int64][]models.RecipeShort, error)
	CountByAuthors(ctx context.Context, authorIDs []int64) (map[int64]int, error)

	ShoppingList(ctx context.Context, userID int64) ([]models.ShoppingListItem, error)
}
