// Package server initializes and runs the Foodgram API server.
// It opens the database and applies migrations, connects the image storage,
// wires the services and serves HTTP until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/foodgram/internal/logging"
	"github.com/dmitrijs2005/foodgram/internal/server/config"
	"github.com/dmitrijs2005/foodgram/internal/server/images"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/foodgram/internal/server/rest"
	"github.com/dmitrijs2005/foodgram/internal/server/services"
)

// tokenPurgeInterval is how often expired auth tokens are deleted.
const tokenPurgeInterval = time.Hour

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	httpServer  *rest.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := images.NewS3Store(ctx, images.S3Config{
		Region:       c.S3Region,
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("image storage init error: %w", err)
	}

	catalog, err := services.NewCatalogService(db, m, c.TagCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	us := services.NewUserService(db, m, c)
	svc := rest.Services{
		Users:         us,
		Catalog:       catalog,
		Recipes:       services.NewRecipeService(db, m, store),
		Favorites:     services.NewFavoriteService(db, m, store),
		Cart:          services.NewCartService(db, m, store),
		Subscriptions: services.NewSubscriptionService(db, m, store),
		ShoppingList:  services.NewShoppingListService(db, m),
	}

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		userService: us,
		httpServer:  rest.NewHTTPServer(c, logger, svc, db),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// purgeTokens drops expired auth tokens until ctx is done.
func (app *App) purgeTokens(ctx context.Context) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.userService.PurgeExpiredTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "token purge failed", "error", err)
				continue
			}
			app.logger.Debug(ctx, "expired tokens purged", "count", n)
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeTokens(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
