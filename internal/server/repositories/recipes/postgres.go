package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

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

// mapWriteError turns constraint failures caused by the caller's input into
// validation errors.
func mapWriteError(err error) error {
	switch {
	case dbx.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: unknown reference", common.ErrorValidation)
	case dbx.IsCheckViolation(err):
		return fmt.Errorf("%w: value out of range", common.ErrorValidation)
	case dbx.IsUniqueViolation(err):
		return fmt.Errorf("%w: duplicate item", common.ErrorValidation)
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	query :=
		`INSERT INTO recipes (author_id, name, text, image, cooking_time)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, pub_date`

	err := r.db.QueryRowContext(ctx, query, recipe.AuthorID, recipe.Name, recipe.Text, recipe.Image, recipe.CookingTime).
		Scan(&recipe.ID, &recipe.PubDate)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return recipe, nil
}

func (r *PostgresRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	query :=
		`UPDATE recipes
		 SET name = $2, text = $3, image = $4, cooking_time = $5
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, recipe.ID, recipe.Name, recipe.Text, recipe.Image, recipe.CookingTime)
	if err != nil {
		return mapWriteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	query :=
		`SELECT id, author_id, name, text, image, cooking_time, pub_date
		 FROM recipes
		 WHERE id = $1`

	rec := &models.Recipe{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.AuthorID, &rec.Name, &rec.Text,
		&rec.Image, &rec.CookingTime, &rec.PubDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) GetShort(ctx context.Context, id int64) (*models.RecipeShort, error) {
	s := &models.RecipeShort{}
	err := r.db.QueryRowContext(ctx, `SELECT id, author_id, name, image, cooking_time FROM recipes WHERE id = $1`, id).
		Scan(&s.ID, &s.AuthorID, &s.Name, &s.Image, &s.CookingTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) SetTags(ctx context.Context, recipeID int64, tagIDs []int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	query :=
		`INSERT INTO recipe_tags (recipe_id, tag_id)
		 SELECT $1, unnest($2::bigint[])
		 ON CONFLICT DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, recipeID, tagIDs); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *PostgresRepository) SetIngredients(ctx context.Context, recipeID int64, lines []models.IngredientAmount) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	ids := make([]int64, len(lines))
	amounts := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.IngredientID
		amounts[i] = int64(l.Amount)
	}
	query :=
		`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount)
		 SELECT $1, unnest($2::bigint[]), unnest($3::int[])`

	if _, err := r.db.ExecContext(ctx, query, recipeID, ids, amounts); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// detailColumns expects the viewer placeholder to be substituted twice.
const detailColumns = `r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.pub_date,
	EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = %[1]s),
	EXISTS (SELECT 1 FROM shopping_cart c WHERE c.recipe_id = r.id AND c.user_id = %[1]s)`

type scanner interface {
	Scan(dest ...any) error
}

func scanDetails(s scanner) (models.RecipeDetails, error) {
	var d models.RecipeDetails
	err := s.Scan(&d.ID, &d.AuthorID, &d.Name, &d.Text, &d.Image, &d.CookingTime, &d.PubDate,
		&d.IsFavorited, &d.IsInShoppingCart)
	return d, err
}

func (r *PostgresRepository) Get(ctx context.Context, viewerID, id int64) (*models.RecipeDetails, error) {
	query := `SELECT ` + fmt.Sprintf(detailColumns, "$1") + ` FROM recipes r WHERE r.id = $2`

	d, err := scanDetails(r.db.QueryRowContext(ctx, query, viewerID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &d, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter models.RecipeFilter) ([]models.RecipeDetails, int, error) {
	b := buildFilter(filter)
	where := b.sql()

	var count int
	countArgs := slices.Clone(b.args)
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM recipes r`+where, countArgs...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	viewer := b.viewer()
	limit := b.arg(filter.Limit)
	offset := b.arg(filter.Offset)

	query := `SELECT ` + fmt.Sprintf(detailColumns, viewer) + ` FROM recipes r` + where +
		` ORDER BY r.pub_date DESC, r.id DESC LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := r.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.RecipeDetails{}
	for rows.Next() {
		d, err := scanDetails(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, count, nil
}

func (r *PostgresRepository) IngredientsFor(ctx context.Context, ids []int64) (map[int64][]models.RecipeIngredient, error) {
	result := make(map[int64][]models.RecipeIngredient, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query :=
		`SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ANY($1)
		 ORDER BY ri.recipe_id, i.name`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ri models.RecipeIngredient
		if err := rows.Scan(&ri.RecipeID, &ri.IngredientID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return nil, err
		}
		result[ri.RecipeID] = append(result[ri.RecipeID], ri)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ShortByAuthors(ctx context.Context, authorIDs []int64, limit int) (map[int64][]models.RecipeShort, error) {
	result := make(map[int64][]models.RecipeShort, len(authorIDs))
	if len(authorIDs) == 0 {
		return result, nil
	}

	query :=
		`SELECT id, author_id, name, image, cooking_time
		 FROM (
			SELECT r.id, r.author_id, r.name, r.image, r.cooking_time, r.pub_date,
				row_number() OVER (PARTITION BY r.author_id ORDER BY r.pub_date DESC, r.id DESC) AS rn
			FROM recipes r
			WHERE r.author_id = ANY($2)
		 ) x
		 WHERE $1::int <= 0 OR x.rn <= $1::int
		 ORDER BY x.author_id, x.rn`

	rows, err := r.db.QueryContext(ctx, query, limit, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.RecipeShort
		if err := rows.Scan(&s.ID, &s.AuthorID, &s.Name, &s.Image, &s.CookingTime); err != nil {
			return nil, err
		}
		result[s.AuthorID] = append(result[s.AuthorID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountByAuthors(ctx context.Context, authorIDs []int64) (map[int64]int, error) {
	result := make(map[int64]int, len(authorIDs))
	if len(authorIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT author_id, count(*) FROM recipes WHERE author_id = ANY($1) GROUP BY author_id`, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		result[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ShoppingList sums the amounts of every ingredient over the recipes in the
// user's cart. Lines with the same name and unit collapse into one; the order
// follows the ingredient catalogue.
func (r *PostgresRepository) ShoppingList(ctx context.Context, userID int64) ([]models.ShoppingListItem, error) {
	query :=
		`SELECT i.name, i.measurement_unit, SUM(ri.amount) AS amount
		 FROM shopping_cart sc
		 JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE sc.user_id = $1
		 GROUP BY i.name, i.measurement_unit
		 ORDER BY MIN(i.id), i.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.ShoppingListItem{}
	for rows.Next() {
		var it models.ShoppingListItem
		if err := rows.Scan(&it.Name, &it.MeasurementUnit, &it.Amount); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
