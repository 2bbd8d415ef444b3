package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/dbx"
	"github.com/dmitrijs2005/foodgram/internal/server/images"
	"github.com/dmitrijs2005/foodgram/internal/server/metrics"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/relations"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/repomanager"
)

// ToggleRequest links OwnerID to TargetID. RecipesLimit caps the recipe list
// of subscription projections; zero means no cap.
type ToggleRequest struct {
	OwnerID      int64
	TargetID     int64
	RecipesLimit int
}

// ToggleKind describes one user-owned pair relation.
type ToggleKind[T any] struct {
	Name     string
	Relation relations.Relation
	// NoSelf rejects owner == target.
	NoSelf bool
	// Exists returns common.ErrorNotFound when the target is missing.
	Exists func(ctx context.Context, tx dbx.DBTX, target int64) error
	// Project builds the response for a freshly added pair.
	Project func(ctx context.Context, tx dbx.DBTX, req ToggleRequest) (T, error)
}

// Toggle adds and removes pairs of one relation. The pair table's primary
// key decides races: of two concurrent identical adds one reports a duplicate.
type Toggle[T any] struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	kind        ToggleKind[T]
}

func NewToggle[T any](db *sql.DB, m repomanager.RepositoryManager, kind ToggleKind[T]) *Toggle[T] {
	return &Toggle[T]{db: db, repomanager: m, kind: kind}
}

// Add fails with common.ErrorSelfReference, common.ErrorNotFound for a
// missing target or common.ErrorAlreadyExists for an existing pair.
func (t *Toggle[T]) Add(ctx context.Context, req ToggleRequest) (T, error) {
	var out T
	err := t.add(ctx, req, &out)
	metrics.RecordToggle(t.kind.Name, "add", err)
	return out, err
}

func (t *Toggle[T]) add(ctx context.Context, req ToggleRequest, out *T) error {
	if t.kind.NoSelf && req.OwnerID == req.TargetID {
		return common.ErrorSelfReference
	}

	return dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := t.kind.Exists(ctx, tx, req.TargetID); err != nil {
			return err
		}
		if err := t.repomanager.Relations(tx, t.kind.Relation).Add(ctx, req.OwnerID, req.TargetID); err != nil {
			return err
		}
		v, err := t.kind.Project(ctx, tx, req)
		if err != nil {
			return err
		}
		*out = v
		return nil
	})
}

// Remove fails with common.ErrorNotFound for a missing target and
// common.ErrorRelationNotFound when the pair does not exist.
func (t *Toggle[T]) Remove(ctx context.Context, owner, target int64) error {
	err := t.remove(ctx, owner, target)
	metrics.RecordToggle(t.kind.Name, "remove", err)
	return err
}

func (t *Toggle[T]) remove(ctx context.Context, owner, target int64) error {
	if err := t.kind.Exists(ctx, t.db, target); err != nil {
		return err
	}
	return t.repomanager.Relations(t.db, t.kind.Relation).Remove(ctx, owner, target)
}

// recipeShort is the projection of favorites and the cart.
func recipeShort(m repomanager.RepositoryManager, store images.Store) func(context.Context, dbx.DBTX, ToggleRequest) (models.RecipeShort, error) {
	return func(ctx context.Context, tx dbx.DBTX, req ToggleRequest) (models.RecipeShort, error) {
		r, err := m.Recipes(tx).GetShort(ctx, req.TargetID)
		if err != nil {
			return models.RecipeShort{}, err
		}
		if r.ImageURL, err = store.URL(ctx, r.Image); err != nil {
			return models.RecipeShort{}, err
		}
		return *r, nil
	}
}

func recipeExists(m repomanager.RepositoryManager) func(context.Context, dbx.DBTX, int64) error {
	return func(ctx context.Context, tx dbx.DBTX, id int64) error {
		_, err := m.Recipes(tx).GetShort(ctx, id)
		return err
	}
}

// NewFavoriteService toggles recipes in the user's favorites.
func NewFavoriteService(db *sql.DB, m repomanager.RepositoryManager, store images.Store) *Toggle[models.RecipeShort] {
	return NewToggle(db, m, ToggleKind[models.RecipeShort]{
		Name:     "favorite",
		Relation: relations.Favorites,
		Exists:   recipeExists(m),
		Project:  recipeShort(m, store),
	})
}

// NewCartService toggles recipes in the user's shopping cart.
func NewCartService(db *sql.DB, m repomanager.RepositoryManager, store images.Store) *Toggle[models.RecipeShort] {
	return NewToggle(db, m, ToggleKind[models.RecipeShort]{
		Name:     "shopping_cart",
		Relation: relations.ShoppingCart,
		Exists:   recipeExists(m),
		Project:  recipeShort(m, store),
	})
}
