package ingredients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/dbx"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Search(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query :=
		`SELECT id, name, measurement_unit
		 FROM ingredients
		 WHERE name ILIKE $1 ESCAPE '\'
		 ORDER BY name DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, likeEscaper.Replace(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Ingredient{}
	for rows.Next() {
		var i models.Ingredient
		if err := rows.Scan(&i.ID, &i.Name, &i.MeasurementUnit); err != nil {
			return nil, err
		}
		result = append(result, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	i := &models.Ingredient{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`, id).
		Scan(&i.ID, &i.Name, &i.MeasurementUnit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return i, nil
}

func (r *PostgresRepository) CountExisting(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM ingredients WHERE id = ANY($1)`, ids).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Load(ctx context.Context, items []models.Ingredient) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	names := make([]string, len(items))
	units := make([]string, len(items))
	for i, it := range items {
		names[i], units[i] = it.Name, it.MeasurementUnit
	}

	query :=
		`INSERT INTO ingredients (name, measurement_unit)
		 SELECT * FROM unnest($1::text[], $2::text[])
		 ON CONFLICT ON CONSTRAINT ingredients_name_unit_key DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, names, units)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
