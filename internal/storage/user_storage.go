package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Varun5711/easywedding/internal/database"
	usermodel "github.com/Varun5711/easywedding/internal/models/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

type PostgresUserStorage struct {
	db *database.DBManager
}

func NewPostgresUserStorage(db *database.DBManager) *PostgresUserStorage {
	return &PostgresUserStorage{db: db}
}

func (s *PostgresUserStorage) Insert(ctx context.Context, u *usermodel.User) (string, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, is_guest, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Write().Exec(ctx, query,
		u.ID,
		u.Email,
		u.Name,
		u.PasswordHash,
		u.IsGuest,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicateEmail
		}
		return "", fmt.Errorf("failed to insert user: %w", err)
	}

	return u.ID, nil
}

// FindByEmail reads from the primary: a login straight after registration must see
// the new row even when replicas lag.
func (s *PostgresUserStorage) FindByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	query := `
		SELECT id, email, name, password_hash, is_guest, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	return scanUser(s.db.Primary().QueryRow(ctx, query, email))
}

func (s *PostgresUserStorage) FindByID(ctx context.Context, id string) (*usermodel.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	query := `
		SELECT id, email, name, password_hash, is_guest, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return scanUser(s.db.Read().QueryRow(ctx, query, id))
}

func scanUser(row pgx.Row) (*usermodel.User, error) {
	var user usermodel.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsGuest,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
