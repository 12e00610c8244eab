package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Varun5711/easywedding/internal/database"
	"github.com/Varun5711/easywedding/internal/models/invitation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const invitationColumns = `
	id, uuid, user_id, groom_name, bride_name, wedding_date, wedding_time,
	venue_name, venue_address, venue_map_link, contact_info, message, photos,
	theme, is_active, view_count, expires_at, created_at, updated_at`

type PostgresInvitationStorage struct {
	db *database.DBManager
}

func NewPostgresInvitationStorage(db *database.DBManager) *PostgresInvitationStorage {
	return &PostgresInvitationStorage{db: db}
}

func (s *PostgresInvitationStorage) Create(ctx context.Context, inv *invitation.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.Photos == nil {
		inv.Photos = []string{}
	}

	query := `INSERT INTO invitations (` + invitationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := s.db.Write().Exec(ctx, query,
		inv.ID, inv.UUID, inv.UserID, inv.GroomName, inv.BrideName, inv.WeddingDate, inv.WeddingTime,
		inv.VenueName, inv.VenueAddress, inv.VenueMapLink, inv.ContactInfo, inv.Message, inv.Photos,
		string(inv.Theme), inv.IsActive, inv.ViewCount, inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUUID
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (s *PostgresInvitationStorage) GetByUUID(ctx context.Context, id string) (*invitation.Invitation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE uuid = $1`

	inv, err := scanInvitation(s.db.Read().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

func (s *PostgresInvitationStorage) ListByUser(ctx context.Context, userID string) ([]*invitation.Invitation, error) {
	query := `SELECT ` + invitationColumns + `
		FROM invitations
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.Read().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	invitations := []*invitation.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		invitations = append(invitations, inv)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return invitations, nil
}

func (s *PostgresInvitationStorage) IncrementViews(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.Write().Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for id, count := range counts {
		query := `
			UPDATE invitations
			SET view_count = view_count + $1
			WHERE uuid = $2
		`
		if _, err := tx.Exec(ctx, query, count, id); err != nil {
			return fmt.Errorf("failed to increment views: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresInvitationStorage) DeactivateExpired(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		UPDATE invitations
		SET is_active = FALSE, updated_at = $1
		WHERE is_active AND expires_at <= $1
		RETURNING uuid
	`

	rows, err := s.db.Write().Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate invitations: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate invitations: %w", err)
	}
	return ids, nil
}

func scanInvitation(row pgx.Row) (*invitation.Invitation, error) {
	var inv invitation.Invitation
	var theme string
	err := row.Scan(
		&inv.ID, &inv.UUID, &inv.UserID, &inv.GroomName, &inv.BrideName, &inv.WeddingDate, &inv.WeddingTime,
		&inv.VenueName, &inv.VenueAddress, &inv.VenueMapLink, &inv.ContactInfo, &inv.Message, &inv.Photos,
		&theme, &inv.IsActive, &inv.ViewCount, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Theme = invitation.Theme(theme)
	return &inv, nil
}
