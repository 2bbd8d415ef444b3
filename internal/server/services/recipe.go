package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/dbx"
	"github.com/dmitrijs2005/foodgram/internal/server/images"
	"github.com/dmitrijs2005/foodgram/internal/server/metrics"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/foodgram/internal/server/validation"
)

// RecipeInput is the writable part of a recipe. A nil Image on update keeps
// the stored one.
type RecipeInput struct {
	Name        string
	Text        string
	Image       *images.Image
	CookingTime int
	Tags        []int64
	Ingredients []models.IngredientAmount
}

// RecipeService composes recipes out of their row, tag links and ingredient
// lines. Writes replace all three inside one transaction.
type RecipeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      images.Store
}

func NewRecipeService(db *sql.DB, m repomanager.RepositoryManager, store images.Store) *RecipeService {
	return &RecipeService{db: db, repomanager: m, images: store}
}

func (s *RecipeService) Create(ctx context.Context, authorID int64, in RecipeInput) (*models.RecipeDetails, error) {
	if in.Image == nil {
		return nil, validation.NewError("image", "This field is required.")
	}
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	key, err := s.images.Save(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Text:        in.Text,
		Image:       key,
		CookingTime: in.CookingTime,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)
		if _, err := repo.Create(ctx, recipe); err != nil {
			return fmt.Errorf("error creating recipe: %w", err)
		}
		return s.writeLinks(ctx, tx, recipe.ID, in)
	})
	if err != nil {
		s.discardImage(ctx, key)
		return nil, err
	}

	metrics.RecordRecipeWrite("create")
	return s.Get(ctx, authorID, recipe.ID)
}

// Update replaces fields, tags and ingredient lines of a recipe owned by requesterID.
func (s *RecipeService) Update(ctx context.Context, requesterID, recipeID int64, in RecipeInput) (*models.RecipeDetails, error) {
	recipe, err := s.ownRecipe(ctx, requesterID, recipeID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	oldImage, newImage := recipe.Image, ""
	if in.Image != nil {
		newImage, err = s.images.Save(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		recipe.Image = newImage
	}
	recipe.Name = in.Name
	recipe.Text = in.Text
	recipe.CookingTime = in.CookingTime

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Recipes(tx).Update(ctx, recipe); err != nil {
			return fmt.Errorf("error updating recipe: %w", err)
		}
		return s.writeLinks(ctx, tx, recipe.ID, in)
	})
	if err != nil {
		s.discardImage(ctx, newImage)
		return nil, err
	}
	if newImage != "" {
		s.discardImage(ctx, oldImage)
	}

	metrics.RecordRecipeWrite("update")
	return s.Get(ctx, requesterID, recipe.ID)
}

// CheckOwner fails with common.ErrorNotFound or common.ErrorForbidden unless
// requesterID authored recipeID.
func (s *RecipeService) CheckOwner(ctx context.Context, requesterID, recipeID int64) error {
	_, err := s.ownRecipe(ctx, requesterID, recipeID)
	return err
}

// Delete removes a recipe owned by requesterID; links go with it.
func (s *RecipeService) Delete(ctx context.Context, requesterID, recipeID int64) error {
	recipe, err := s.ownRecipe(ctx, requesterID, recipeID)
	if err != nil {
		return err
	}
	if err := s.repomanager.Recipes(s.db).Delete(ctx, recipeID); err != nil {
		return err
	}
	s.discardImage(ctx, recipe.Image)
	return nil
}

// discardImage removes an object no row points at any more. A failure leaves
// an orphan in the bucket; the store counts it.
func (s *RecipeService) discardImage(ctx context.Context, key string) {
	_ = s.images.Delete(context.WithoutCancel(ctx), key)
}

func (s *RecipeService) Get(ctx context.Context, viewerID, recipeID int64) (*models.RecipeDetails, error) {
	d, err := s.repomanager.Recipes(s.db).Get(ctx, viewerID, recipeID)
	if err != nil {
		return nil, err
	}

	items := []models.RecipeDetails{*d}
	if err := s.attach(ctx, viewerID, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// List returns a filtered page of recipes, newest first, with everything attached.
func (s *RecipeService) List(ctx context.Context, filter models.RecipeFilter) (*models.Page[models.RecipeDetails], error) {
	items, count, err := s.repomanager.Recipes(s.db).List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.attach(ctx, filter.ViewerID, items); err != nil {
		return nil, err
	}
	return &models.Page[models.RecipeDetails]{Count: count, Items: items}, nil
}

// --- helpers below ---

func (s *RecipeService) ownRecipe(ctx context.Context, requesterID, recipeID int64) (*models.Recipe, error) {
	recipe, err := s.repomanager.Recipes(s.db).GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != requesterID {
		return nil, common.ErrorForbidden
	}
	return recipe, nil
}

func (s *RecipeService) validate(ctx context.Context, in RecipeInput) error {
	if in.CookingTime < 1 {
		return validation.NewError("cooking_time", "Ensure this value is greater than or equal to 1.")
	}

	if len(in.Tags) == 0 {
		return validation.NewError("tags", "At least one tag is required.")
	}
	if hasDuplicates(in.Tags) {
		return validation.NewError("tags", "Tags must be unique.")
	}

	if len(in.Ingredients) == 0 {
		return validation.NewError("ingredients", "At least one ingredient is required.")
	}
	ids := make([]int64, len(in.Ingredients))
	for i, l := range in.Ingredients {
		if l.Amount < 1 {
			return validation.NewError("ingredients", "Amount must be at least 1.")
		}
		ids[i] = l.IngredientID
	}
	if hasDuplicates(ids) {
		return validation.NewError("ingredients", "Ingredients must be unique.")
	}

	n, err := s.repomanager.Tags(s.db).CountExisting(ctx, in.Tags)
	if err != nil {
		return err
	}
	if n != len(in.Tags) {
		return validation.NewError("tags", "Unknown tag.")
	}

	n, err = s.repomanager.Ingredients(s.db).CountExisting(ctx, ids)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return validation.NewError("ingredients", "Unknown ingredient.")
	}

	return nil
}

func (s *RecipeService) writeLinks(ctx context.Context, tx dbx.DBTX, recipeID int64, in RecipeInput) error {
	repo := s.repomanager.Recipes(tx)
	if err := repo.SetTags(ctx, recipeID, in.Tags); err != nil {
		return fmt.Errorf("error setting tags: %w", err)
	}
	if err := repo.SetIngredients(ctx, recipeID, in.Ingredients); err != nil {
		return fmt.Errorf("error setting ingredients: %w", err)
	}
	return nil
}

// attach loads tags, ingredient lines and authors for items with one query
// each, and resolves image urls.
func (s *RecipeService) attach(ctx context.Context, viewerID int64, items []models.RecipeDetails) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, len(items))
	authorIDs := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for i, it := range items {
		ids[i] = it.ID
		if !seen[it.AuthorID] {
			seen[it.AuthorID] = true
			authorIDs = append(authorIDs, it.AuthorID)
		}
	}

	tags, err := s.repomanager.Tags(s.db).ForRecipes(ctx, ids)
	if err != nil {
		return err
	}
	lines, err := s.repomanager.Recipes(s.db).IngredientsFor(ctx, ids)
	if err != nil {
		return err
	}
	profiles, err := s.repomanager.Users(s.db).Profiles(ctx, viewerID, authorIDs)
	if err != nil {
		return err
	}
	authors := make(map[int64]models.UserProfile, len(profiles))
	for _, p := range profiles {
		authors[p.ID] = p
	}

	for i := range items {
		it := &items[i]
		it.Tags = nonNil(tags[it.ID])
		it.Ingredients = nonNil(lines[it.ID])
		it.Author = authors[it.AuthorID]
		if it.ImageURL, err = s.images.URL(ctx, it.Image); err != nil {
			return err
		}
	}
	return nil
}

func hasDuplicates(ids []int64) bool {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
