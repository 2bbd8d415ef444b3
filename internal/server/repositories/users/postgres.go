package users

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

const profileColumns = `u.id, u.email, u.username, u.first_name, u.last_name,
		EXISTS (SELECT 1 FROM subscriptions s WHERE s.user_id = $1 AND s.author_id = u.id)`

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, username, first_name, last_name, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.UserName, user.FirstName, user.LastName, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query :=
		`SELECT id, email, username, first_name, last_name, password_hash, created_at
		 FROM users
		 WHERE ` + where

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Email, &user.UserName,
		&user.FirstName, &user.LastName, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, hash []byte) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
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

func scanProfiles(rows *sql.Rows) ([]models.UserProfile, error) {
	var result []models.UserProfile
	for rows.Next() {
		var p models.UserProfile
		if err := rows.Scan(&p.ID, &p.Email, &p.UserName, &p.FirstName, &p.LastName, &p.IsSubscribed); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Profile(ctx context.Context, viewerID, id int64) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users u WHERE u.id = $2`

	p := &models.UserProfile{}
	err := r.db.QueryRowContext(ctx, query, viewerID, id).Scan(&p.ID, &p.Email, &p.UserName,
		&p.FirstName, &p.LastName, &p.IsSubscribed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Profiles(ctx context.Context, viewerID int64, ids []int64) ([]models.UserProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + profileColumns + ` FROM users u WHERE u.id = ANY($2)`

	rows, err := r.db.QueryContext(ctx, query, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanProfiles(rows)
}

func (r *PostgresRepository) List(ctx context.Context, viewerID int64, limit, offset int) ([]models.UserProfile, int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := `SELECT ` + profileColumns + ` FROM users u ORDER BY u.id DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, viewerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result, err := scanProfiles(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, count, nil
}
