package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/foodgram/internal/dbx"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/ingredients"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/relations"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/tags"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Tags(db dbx.DBTX) tags.Repository
	Ingredients(db dbx.DBTX) ingredients.Repository
	Recipes(db dbx.DBTX) recipes.Repository
	Relations(db dbx.DBTX, rel relations.Relation) relations.Repository
}
