package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/repomanager"
)

// ShoppingListFileName is the attachment name of the rendered list.
const ShoppingListFileName = "shopping_cart.txt"

type ShoppingListService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewShoppingListService(db *sql.DB, m repomanager.RepositoryManager) *ShoppingListService {
	return &ShoppingListService{db: db, repomanager: m}
}

// Build aggregates the ingredient lines of every recipe in the user's cart:
// one item per (name, unit) with the amounts summed.
func (s *ShoppingListService) Build(ctx context.Context, userID int64) ([]models.ShoppingListItem, error) {
	return s.repomanager.Recipes(s.db).ShoppingList(ctx, userID)
}

// Render formats items as the downloadable text file.
func (s *ShoppingListService) Render(items []models.ShoppingListItem) string {
	var b strings.Builder
	b.WriteString("Shopping list:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "\n%s (%s) - %d", it.Name, it.MeasurementUnit, it.Amount)
	}
	return b.String()
}
