package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/foodgram/internal/dbx"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/repomanager"
	lru "github.com/hashicorp/golang-lru"
)

// CatalogService serves tags and ingredients, which only change through the
// loaders. Single tag lookups go through an LRU cache that every load purges.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tagCache    *lru.Cache
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, tagCacheSize int) (*CatalogService, error) {
	cache, err := lru.New(tagCacheSize)
	if err != nil {
		return nil, fmt.Errorf("tag cache: %w", err)
	}
	return &CatalogService{db: db, repomanager: m, tagCache: cache}, nil
}

func (s *CatalogService) Tags(ctx context.Context) ([]models.Tag, error) {
	return s.repomanager.Tags(s.db).List(ctx)
}

func (s *CatalogService) Tag(ctx context.Context, id int64) (*models.Tag, error) {
	if v, ok := s.tagCache.Get(id); ok {
		t := v.(models.Tag)
		return &t, nil
	}

	t, err := s.repomanager.Tags(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.tagCache.Add(id, *t)
	return t, nil
}

// Ingredients lists ingredients whose name starts with prefix, case-insensitively.
func (s *CatalogService) Ingredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	return s.repomanager.Ingredients(s.db).Search(ctx, prefix)
}

func (s *CatalogService) Ingredient(ctx context.Context, id int64) (*models.Ingredient, error) {
	return s.repomanager.Ingredients(s.db).GetByID(ctx, id)
}

// LoadTags inserts missing tags in one transaction; re-running a load is a no-op.
func (s *CatalogService) LoadTags(ctx context.Context, items []models.Tag) (int64, error) {
	var n int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = s.repomanager.Tags(tx).Load(ctx, items)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("error loading tags: %w", err)
	}
	s.tagCache.Purge()
	return n, nil
}

// LoadIngredients inserts ingredients not present yet by (name, unit).
func (s *CatalogService) LoadIngredients(ctx context.Context, items []models.Ingredient) (int64, error) {
	var n int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = s.repomanager.Ingredients(tx).Load(ctx, items)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("error loading ingredients: %w", err)
	}
	return n, nil
}
