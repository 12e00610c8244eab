package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Varun5711/easywedding/internal/migrations"
	"github.com/Varun5711/easywedding/internal/models/invitation"
	usermodel "github.com/Varun5711/easywedding/internal/models/user"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// OpenSQLite opens (creating if needed) an embedded database and applies the schema.
// Writes are serialised through a single connection.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := migrations.UpSQLite(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(1)
	return db, nil
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type SQLiteUserStorage struct {
	db *sql.DB
}

func NewSQLiteUserStorage(db *sql.DB) *SQLiteUserStorage {
	return &SQLiteUserStorage{db: db}
}

func (s *SQLiteUserStorage) Insert(ctx context.Context, u *usermodel.User) (string, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	query := `INSERT INTO users (id, email, name, password_hash, is_guest, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.PasswordHash, u.IsGuest,
		u.CreatedAt.UnixNano(), u.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return "", ErrDuplicateEmail
		}
		return "", fmt.Errorf("failed to insert user: %w", err)
	}

	return u.ID, nil
}

func (s *SQLiteUserStorage) FindByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	query := `SELECT id, email, name, password_hash, is_guest, created_at, updated_at
		FROM users WHERE email = ?`
	return s.scan(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteUserStorage) FindByID(ctx context.Context, id string) (*usermodel.User, error) {
	query := `SELECT id, email, name, password_hash, is_guest, created_at, updated_at
		FROM users WHERE id = ?`
	return s.scan(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLiteUserStorage) scan(row *sql.Row) (*usermodel.User, error) {
	var user usermodel.User
	var createdAt, updatedAt int64

	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsGuest, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = time.Unix(0, createdAt).UTC()
	user.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &user, nil
}

type SQLiteInvitationStorage struct {
	db *sql.DB
}

func NewSQLiteInvitationStorage(db *sql.DB) *SQLiteInvitationStorage {
	return &SQLiteInvitationStorage{db: db}
}

func (s *SQLiteInvitationStorage) Create(ctx context.Context, inv *invitation.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.Photos == nil {
		inv.Photos = []string{}
	}

	photos, err := json.Marshal(inv.Photos)
	if err != nil {
		return fmt.Errorf("failed to encode photos: %w", err)
	}

	query := `INSERT INTO invitations (` + invitationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		inv.ID, inv.UUID, inv.UserID, inv.GroomName, inv.BrideName, inv.WeddingDate, inv.WeddingTime,
		inv.VenueName, inv.VenueAddress, inv.VenueMapLink, inv.ContactInfo, inv.Message, string(photos),
		string(inv.Theme), inv.IsActive, inv.ViewCount,
		inv.ExpiresAt.UnixNano(), inv.CreatedAt.UnixNano(), inv.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrDuplicateUUID
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (s *SQLiteInvitationStorage) GetByUUID(ctx context.Context, id string) (*invitation.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE uuid = ?`

	inv, err := scanSQLiteInvitation(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

func (s *SQLiteInvitationStorage) ListByUser(ctx context.Context, userID string) ([]*invitation.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	invitations := []*invitation.Invitation{}
	for rows.Next() {
		inv, err := scanSQLiteInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return invitations, nil
}

func (s *SQLiteInvitationStorage) IncrementViews(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, count := range counts {
		if _, err := tx.ExecContext(ctx, `UPDATE invitations SET view_count = view_count + ? WHERE uuid = ?`, count, id); err != nil {
			return fmt.Errorf("failed to increment views: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteInvitationStorage) DeactivateExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`UPDATE invitations SET is_active = 0, updated_at = ? WHERE is_active = 1 AND expires_at <= ? RETURNING uuid`,
		now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate invitations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan uuid: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteInvitation(row rowScanner) (*invitation.Invitation, error) {
	var inv invitation.Invitation
	var theme, photos string
	var expiresAt, createdAt, updatedAt int64

	err := row.Scan(
		&inv.ID, &inv.UUID, &inv.UserID, &inv.GroomName, &inv.BrideName, &inv.WeddingDate, &inv.WeddingTime,
		&inv.VenueName, &inv.VenueAddress, &inv.VenueMapLink, &inv.ContactInfo, &inv.Message, &photos,
		&theme, &inv.IsActive, &inv.ViewCount, &expiresAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(photos), &inv.Photos); err != nil {
		return nil, fmt.Errorf("failed to decode photos: %w", err)
	}
	inv.Theme = invitation.Theme(theme)
	inv.ExpiresAt = time.Unix(0, expiresAt).UTC()
	inv.CreatedAt = time.Unix(0, createdAt).UTC()
	inv.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &inv, nil
}
