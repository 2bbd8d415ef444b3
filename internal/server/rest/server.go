// Package rest exposes the Foodgram services over a JSON HTTP API built on
// chi. Authentication is token based: "Authorization: Token <jwt>".
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/foodgram/internal/logging"
	"github.com/dmitrijs2005/foodgram/internal/server/config"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/dmitrijs2005/foodgram/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, id services.Identity) error
	Authenticate(ctx context.Context, token string) (*services.Identity, error)
	SetPassword(ctx context.Context, userID int64, current, next string) error
	Get(ctx context.Context, viewerID, id int64) (*models.UserProfile, error)
	List(ctx context.Context, viewerID int64, limit, offset int) (*models.Page[models.UserProfile], error)
}

type CatalogService interface {
	Tags(ctx context.Context) ([]models.Tag, error)
	Tag(ctx context.Context, id int64) (*models.Tag, error)
	Ingredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	Ingredient(ctx context.Context, id int64) (*models.Ingredient, error)
}

type RecipeService interface {
	Create(ctx context.Context, authorID int64, in services.RecipeInput) (*models.RecipeDetails, error)
	Update(ctx context.Context, requesterID, recipeID int64, in services.RecipeInput) (*models.RecipeDetails, error)
	Delete(ctx context.Context, requesterID, recipeID int64) error
	CheckOwner(ctx context.Context, requesterID, recipeID int64) error
	Get(ctx context.Context, viewerID, recipeID int64) (*models.RecipeDetails, error)
	List(ctx context.Context, filter models.RecipeFilter) (*models.Page[models.RecipeDetails], error)
}

// RecipeToggle is implemented by the favorite and shopping cart services.
type RecipeToggle interface {
	Add(ctx context.Context, req services.ToggleRequest) (models.RecipeShort, error)
	Remove(ctx context.Context, owner, target int64) error
}

type SubscriptionService interface {
	Add(ctx context.Context, req services.ToggleRequest) (models.AuthorProfile, error)
	Remove(ctx context.Context, owner, target int64) error
	List(ctx context.Context, userID int64, recipesLimit, limit, offset int) (*models.Page[models.AuthorProfile], error)
}

type ShoppingListService interface {
	Build(ctx context.Context, userID int64) ([]models.ShoppingListItem, error)
	Render(items []models.ShoppingListItem) string
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services bundles what the handlers call into.
type Services struct {
	Users         UserService
	Catalog       CatalogService
	Recipes       RecipeService
	Favorites     RecipeToggle
	Cart          RecipeToggle
	Subscriptions SubscriptionService
	ShoppingList  ShoppingListService
}

type HTTPServer struct {
	address       string
	logger        logging.Logger
	svc           Services
	db            Pinger
	pageSize      int
	corsOrigins   []string
	authRateLimit int
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, svc Services, db Pinger) *HTTPServer {
	return &HTTPServer{
		address:       cfg.EndpointAddrHTTP,
		logger:        l.With("module", "http_server"),
		svc:           svc,
		db:            db,
		pageSize:      cfg.PageSize,
		corsOrigins:   cfg.CORSAllowedOrigins,
		authRateLimit: cfg.AuthRateLimit,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
