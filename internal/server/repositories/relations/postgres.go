package relations

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/dbx"
)

type PostgresRepository struct {
	db  dbx.DBTX
	rel Relation
}

func NewPostgresRepository(db dbx.DBTX, rel Relation) *PostgresRepository {
	return &PostgresRepository{db: db, rel: rel}
}

// Add relies on the primary key: a concurrent duplicate either hits
// ON CONFLICT and affects no rows, or loses the race with a unique violation.
func (r *PostgresRepository) Add(ctx context.Context, owner, target int64) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		r.rel.Table, r.rel.OwnerColumn, r.rel.TargetColumn)

	res, err := r.db.ExecContext(ctx, query, owner, target)
	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err):
			return common.ErrorAlreadyExists
		case dbx.IsCheckViolation(err):
			return common.ErrorSelfReference
		case dbx.IsForeignKeyViolation(err):
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, owner, target int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		r.rel.Table, r.rel.OwnerColumn, r.rel.TargetColumn)

	res, err := r.db.ExecContext(ctx, query, owner, target)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorRelationNotFound
	}
	return nil
}

func (r *PostgresRepository) Targets(ctx context.Context, owner int64, limit, offset int) ([]int64, int, error) {
	var count int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s = $1`, r.rel.Table, r.rel.OwnerColumn)
	if err := r.db.QueryRowContext(ctx, countQuery, owner).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY created_at DESC, %s DESC LIMIT $2 OFFSET $3`,
		r.rel.TargetColumn, r.rel.Table, r.rel.OwnerColumn, r.rel.TargetColumn)

	rows, err := r.db.QueryContext(ctx, query, owner, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return ids, count, nil
}
