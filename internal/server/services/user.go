// Package services contains server-side business logic. This file implements
// UserService, which handles registration, token login/logout, request
// authentication and the user profile queries.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/server/auth"
	"github.com/dmitrijs2005/foodgram/internal/server/config"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/foodgram/internal/server/validation"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Registration input as accepted by Register.
type RegisterInput struct {
	Email     string
	UserName  string
	FirstName string
	LastName  string
	Password  string
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID  int64
	TokenID string
}

// UserService provides account and authentication operations:
// - Register: create users with bcrypt-hashed passwords
// - Login / Logout: issue and revoke tokens
// - Authenticate: resolve a presented token to an Identity
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	jwtSecret     []byte
	tokenValidity time.Duration
	hashCost      int
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.AccessTokenValidityDuration,
		hashCost:      bcrypt.DefaultCost,
	}
}

// Register creates a user. A taken email or username yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.ValidateUsername(in.UserName); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	user := &models.User{
		Email:        in.Email,
		UserName:     in.UserName,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks the credentials and returns a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// same work as a wrong password, so timing does not tell which it was
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", common.ErrorUnauthorized
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", common.ErrorUnauthorized
	}

	return s.issueToken(ctx, user.ID)
}

// Logout revokes the token the request was made with.
func (s *UserService) Logout(ctx context.Context, id Identity) error {
	return s.repomanager.Tokens(s.db).Delete(ctx, id.TokenID)
}

// Authenticate verifies a presented token: signature, expiry and that its id
// was not revoked.
func (s *UserService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}

	stored, err := s.repomanager.Tokens(s.db).Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: token revoked", common.ErrorUnauthorized)
		}
		return nil, err
	}

	if stored.UserID != claims.UserID || stored.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrorUnauthorized
	}

	return &Identity{UserID: claims.UserID, TokenID: claims.ID}, nil
}

// SetPassword replaces the password after checking the current one.
func (s *UserService) SetPassword(ctx context.Context, userID int64, current, next string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(current)); err != nil {
		return validation.NewError("current_password", "Invalid password.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.hashCost)
	if err != nil {
		return validation.NewError("new_password", err.Error())
	}

	return repo.UpdatePassword(ctx, userID, hash)
}

// Get returns user id as seen by viewerID.
func (s *UserService) Get(ctx context.Context, viewerID, id int64) (*models.UserProfile, error) {
	return s.repomanager.Users(s.db).Profile(ctx, viewerID, id)
}

// List returns a page of users, newest first.
func (s *UserService) List(ctx context.Context, viewerID int64, limit, offset int) (*models.Page[models.UserProfile], error) {
	items, count, err := s.repomanager.Users(s.db).List(ctx, viewerID, limit, offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.UserProfile{}
	}
	return &models.Page[models.UserProfile]{Count: count, Items: items}, nil
}

// PurgeExpiredTokens drops expired token rows.
func (s *UserService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repomanager.Tokens(s.db).DeleteExpired(ctx)
}

// --- helpers below ---

// dummyHash is compared against when the email is unknown.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("foodgram-dummy-password"), bcrypt.DefaultCost)

func (s *UserService) issueToken(ctx context.Context, userID int64) (string, error) {
	record := &models.AuthToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.tokenValidity),
	}

	if err := s.repomanager.Tokens(s.db).Create(ctx, record); err != nil {
		return "", fmt.Errorf("error storing token: %w", err)
	}

	token, err := auth.GenerateToken(userID, record.ID, s.jwtSecret, record.ExpiresAt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, nil
}
