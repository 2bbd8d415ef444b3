// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/foodgram/internal/dbx"
	"github.com/dmitrijs2005/foodgram/internal/server/migrations"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/ingredients"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/relations"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/tags"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return tokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Tags(db dbx.DBTX) tags.Repository {
	return tags.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Ingredients(db dbx.DBTX) ingredients.Repository {
	return ingredients.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Recipes(db dbx.DBTX) recipes.Repository {
	return recipes.NewPostgresRepository(db)
}

// Relations returns the pair repository for rel (favorites, cart or subscriptions).
func (m *PostgresRepositoryManager) Relations(db dbx.DBTX, rel relations.Relation) relations.Repository {
	return relations.NewPostgresRepository(db, rel)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
