package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/logging"
	"github.com/dmitrijs2005/foodgram/internal/server/config"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/dmitrijs2005/foodgram/internal/server/services"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// Tokens understood by stubUsers.Authenticate.
const (
	aliceToken = "alice-token"
	bobToken   = "bob-token"
	aliceID    = int64(1)
	bobID      = int64(2)
)

type stubUsers struct {
	registered []services.RegisterInput
	loggedOut  []services.Identity
	err        error
}

func (s *stubUsers) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.registered = append(s.registered, in)
	return &models.User{ID: 10, Email: in.Email, UserName: in.UserName, FirstName: in.FirstName, LastName: in.LastName}, nil
}

func (s *stubUsers) Login(ctx context.Context, email, password string) (string, error) {
	if email == "alice@example.com" && password == "pass" {
		return aliceToken, nil
	}
	return "", common.ErrorUnauthorized
}

func (s *stubUsers) Logout(ctx context.Context, id services.Identity) error {
	s.loggedOut = append(s.loggedOut, id)
	return nil
}

func (s *stubUsers) Authenticate(ctx context.Context, token string) (*services.Identity, error) {
	switch token {
	case aliceToken:
		return &services.Identity{UserID: aliceID, TokenID: "a"}, nil
	case bobToken:
		return &services.Identity{UserID: bobID, TokenID: "b"}, nil
	}
	return nil, common.ErrorUnauthorized
}

func (s *stubUsers) SetPassword(ctx context.Context, userID int64, current, next string) error {
	return s.err
}

func (s *stubUsers) Get(ctx context.Context, viewerID, id int64) (*models.UserProfile, error) {
	if id > bobID {
		return nil, common.ErrorNotFound
	}
	return &models.UserProfile{User: models.User{ID: id, UserName: "user"}, IsSubscribed: viewerID != id && viewerID != common.AnonymousUserID}, nil
}

func (s *stubUsers) List(ctx context.Context, viewerID int64, limit, offset int) (*models.Page[models.UserProfile], error) {
	all := []models.UserProfile{{User: models.User{ID: 3}}, {User: models.User{ID: 2}}, {User: models.User{ID: 1}}}
	offset = min(offset, len(all))
	end := min(offset+limit, len(all))
	return &models.Page[models.UserProfile]{Count: len(all), Items: all[offset:end]}, nil
}

type stubCatalog struct{}

func (stubCatalog) Tags(ctx context.Context) ([]models.Tag, error) {
	return []models.Tag{{ID: 1, Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}}, nil
}

func (stubCatalog) Tag(ctx context.Context, id int64) (*models.Tag, error) {
	if id != 1 {
		return nil, common.ErrorNotFound
	}
	return &models.Tag{ID: 1, Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}, nil
}

func (stubCatalog) Ingredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	return []models.Ingredient{{ID: 1, Name: prefix + "ar", MeasurementUnit: "g"}}, nil
}

func (stubCatalog) Ingredient(ctx context.Context, id int64) (*models.Ingredient, error) {
	return nil, common.ErrorNotFound
}

type stubRecipes struct {
	filter  models.RecipeFilter
	created services.RecipeInput
	updated bool
	deleted int64
}

func (s *stubRecipes) details(id, author int64) *models.RecipeDetails {
	return &models.RecipeDetails{
		Recipe:   models.Recipe{ID: id, AuthorID: author, Name: "Soup", Text: "Boil.", CookingTime: 5},
		ImageURL: "http://img/soup.png",
		Author:   models.UserProfile{User: models.User{ID: author, UserName: "alice"}},
		Tags:     []models.Tag{{ID: 1, Slug: "lunch"}},
		Ingredients: []models.RecipeIngredient{
			{RecipeID: id, IngredientID: 7, Name: "salt", MeasurementUnit: "g", Amount: 3},
		},
	}
}

func (s *stubRecipes) Create(ctx context.Context, authorID int64, in services.RecipeInput) (*models.RecipeDetails, error) {
	s.created = in
	return s.details(5, authorID), nil
}

func (s *stubRecipes) Update(ctx context.Context, requesterID, recipeID int64, in services.RecipeInput) (*models.RecipeDetails, error) {
	s.updated = true
	return s.details(recipeID, requesterID), nil
}

func (s *stubRecipes) CheckOwner(ctx context.Context, requesterID, recipeID int64) error {
	if recipeID != 5 {
		return common.ErrorNotFound
	}
	if requesterID != aliceID {
		return common.ErrorForbidden
	}
	return nil
}

func (s *stubRecipes) Delete(ctx context.Context, requesterID, recipeID int64) error {
	if err := s.CheckOwner(ctx, requesterID, recipeID); err != nil {
		return err
	}
	s.deleted = recipeID
	return nil
}

func (s *stubRecipes) Get(ctx context.Context, viewerID, recipeID int64) (*models.RecipeDetails, error) {
	if recipeID != 5 {
		return nil, common.ErrorNotFound
	}
	return s.details(5, aliceID), nil
}

func (s *stubRecipes) List(ctx context.Context, filter models.RecipeFilter) (*models.Page[models.RecipeDetails], error) {
	s.filter = filter
	return &models.Page[models.RecipeDetails]{Count: 1, Items: []models.RecipeDetails{*s.details(5, aliceID)}}, nil
}

// stubToggle keeps pairs in memory and treats target 5 as the only existing one.
type stubToggle struct {
	pairs map[[2]int64]bool
}

func newStubToggle() *stubToggle { return &stubToggle{pairs: map[[2]int64]bool{}} }

func (s *stubToggle) Add(ctx context.Context, req services.ToggleRequest) (models.RecipeShort, error) {
	if req.TargetID != 5 {
		return models.RecipeShort{}, common.ErrorNotFound
	}
	k := [2]int64{req.OwnerID, req.TargetID}
	if s.pairs[k] {
		return models.RecipeShort{}, common.ErrorAlreadyExists
	}
	s.pairs[k] = true
	return models.RecipeShort{ID: 5, Name: "Soup", ImageURL: "http://img/soup.png", CookingTime: 5}, nil
}

func (s *stubToggle) Remove(ctx context.Context, owner, target int64) error {
	if target != 5 {
		return common.ErrorNotFound
	}
	k := [2]int64{owner, target}
	if !s.pairs[k] {
		return common.ErrorRelationNotFound
	}
	delete(s.pairs, k)
	return nil
}

type stubSubscriptions struct {
	recipesLimit int
}

func (s *stubSubscriptions) Add(ctx context.Context, req services.ToggleRequest) (models.AuthorProfile, error) {
	if req.OwnerID == req.TargetID {
		return models.AuthorProfile{}, common.ErrorSelfReference
	}
	s.recipesLimit = req.RecipesLimit
	return models.AuthorProfile{
		UserProfile:  models.UserProfile{User: models.User{ID: req.TargetID, UserName: "bob"}, IsSubscribed: true},
		Recipes:      []models.RecipeShort{{ID: 9, Name: "Pie", ImageURL: "http://img/pie.png", CookingTime: 40}},
		RecipesCount: 4,
	}, nil
}

func (s *stubSubscriptions) Remove(ctx context.Context, owner, target int64) error {
	return common.ErrorRelationNotFound
}

func (s *stubSubscriptions) List(ctx context.Context, userID int64, recipesLimit, limit, offset int) (*models.Page[models.AuthorProfile], error) {
	s.recipesLimit = recipesLimit
	return &models.Page[models.AuthorProfile]{Count: 0, Items: nil}, nil
}

type stubShoppingList struct{}

func (stubShoppingList) Build(ctx context.Context, userID int64) ([]models.ShoppingListItem, error) {
	return []models.ShoppingListItem{{Name: "salt", MeasurementUnit: "g", Amount: 3}}, nil
}

func (stubShoppingList) Render(items []models.ShoppingListItem) string {
	return "Shopping list:\n\nsalt (g) - 3"
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(ctx context.Context) error { return p.err }

type testEnv struct {
	handler       http.Handler
	users         *stubUsers
	recipes       *stubRecipes
	favorites     *stubToggle
	cart          *stubToggle
	subscriptions *stubSubscriptions
	pinger        *stubPinger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:         &stubUsers{},
		recipes:       &stubRecipes{},
		favorites:     newStubToggle(),
		cart:          newStubToggle(),
		subscriptions: &stubSubscriptions{},
		pinger:        &stubPinger{},
	}
	cfg := &config.Config{PageSize: 2, AuthRateLimit: 1000, CORSAllowedOrigins: []string{"http://localhost:3000"}}
	srv := NewHTTPServer(cfg, logging.Nop(), Services{
		Users:         env.users,
		Catalog:       stubCatalog{},
		Recipes:       env.recipes,
		Favorites:     env.favorites,
		Cart:          env.cart,
		Subscriptions: env.subscriptions,
		ShoppingList:  stubShoppingList{},
	}, env.pinger)
	env.handler = srv.Handler()
	return env
}

// do sends a request; token may be empty for anonymous calls.
func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set(common.AuthHeaderName, common.AuthSchemeToken+" "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func newRequest(method, path, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	return httptest.NewRequest(method, path, rd)
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}
