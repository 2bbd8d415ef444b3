package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/dbx"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color, slug FROM tags ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	t := &models.Tag{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, color, slug FROM tags WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Color, &t.Slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ForRecipes(ctx context.Context, ids []int64) (map[int64][]models.Tag, error) {
	result := make(map[int64][]models.Tag, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query :=
		`SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		 FROM recipe_tags rt
		 JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id = ANY($1)
		 ORDER BY rt.recipe_id, t.id`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int64
		var t models.Tag
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, err
		}
		result[recipeID] = append(result[recipeID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountExisting(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM tags WHERE id = ANY($1)`, ids).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Load inserts the tags in one statement, skipping slugs that already exist.
func (r *PostgresRepository) Load(ctx context.Context, items []models.Tag) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	names := make([]string, len(items))
	colors := make([]string, len(items))
	slugs := make([]string, len(items))
	for i, t := range items {
		names[i], colors[i], slugs[i] = t.Name, t.Color, t.Slug
	}

	query :=
		`INSERT INTO tags (name, color, slug)
		 SELECT * FROM unnest($1::text[], $2::text[], $3::text[])
		 ON CONFLICT (slug) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, names, colors, slugs)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
