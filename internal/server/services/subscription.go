package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/dbx"
	"github.com/dmitrijs2005/foodgram/internal/server/images"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/relations"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/repomanager"
)

// SubscriptionService follows and unfollows authors and lists the followed ones.
type SubscriptionService struct {
	*Toggle[models.AuthorProfile]
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      images.Store
}

func NewSubscriptionService(db *sql.DB, m repomanager.RepositoryManager, store images.Store) *SubscriptionService {
	s := &SubscriptionService{db: db, repomanager: m, images: store}
	s.Toggle = NewToggle(db, m, ToggleKind[models.AuthorProfile]{
		Name:     "subscription",
		Relation: relations.Subscriptions,
		NoSelf:   true,
		Exists: func(ctx context.Context, tx dbx.DBTX, id int64) error {
			_, err := m.Users(tx).GetByID(ctx, id)
			return err
		},
		Project: func(ctx context.Context, tx dbx.DBTX, req ToggleRequest) (models.AuthorProfile, error) {
			out, err := s.authorProfiles(ctx, tx, req.OwnerID, []int64{req.TargetID}, req.RecipesLimit)
			if err != nil {
				return models.AuthorProfile{}, err
			}
			if len(out) == 0 {
				return models.AuthorProfile{}, common.ErrorNotFound
			}
			return out[0], nil
		},
	})
	return s
}

// List returns the authors userID follows, most recently followed first.
func (s *SubscriptionService) List(ctx context.Context, userID int64, recipesLimit, limit, offset int) (*models.Page[models.AuthorProfile], error) {
	ids, count, err := s.repomanager.Relations(s.db, relations.Subscriptions).Targets(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	items, err := s.authorProfiles(ctx, s.db, userID, ids, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.AuthorProfile]{Count: count, Items: items}, nil
}

// authorProfiles builds profiles for ids in the given order with three
// queries regardless of len(ids). Ids missing from users are skipped.
func (s *SubscriptionService) authorProfiles(ctx context.Context, db dbx.DBTX, viewerID int64, ids []int64, recipesLimit int) ([]models.AuthorProfile, error) {
	out := make([]models.AuthorProfile, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	profiles, err := s.repomanager.Users(db).Profiles(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.UserProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	recipes := s.repomanager.Recipes(db)
	short, err := recipes.ShortByAuthors(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}
	counts, err := recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		list := nonNil(short[id])
		for i := range list {
			if list[i].ImageURL, err = s.images.URL(ctx, list[i].Image); err != nil {
				return nil, err
			}
		}
		out = append(out, models.AuthorProfile{UserProfile: p, Recipes: list, RecipesCount: counts[id]})
	}
	return out, nil
}
