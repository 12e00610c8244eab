package clickhouse

import (
	"context"
	"fmt"

	"github.com/Varun5711/easywedding/internal/models/invitation"
)

// DeviceBreakdown groups the recorded views of one invitation by device, browser and OS.
func (c *Client) DeviceBreakdown(ctx context.Context, invitationUUID string) ([]invitation.DeviceStat, error) {
	query := `
		SELECT device_type, browser, os, uniqExact(event_id) AS views
		FROM ` + c.table() + `
		WHERE invitation_uuid = ?
		GROUP BY device_type, browser, os
		ORDER BY views DESC
		LIMIT 50
	`

	rows, err := c.conn.Query(ctx, query, invitationUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device stats: %w", err)
	}
	defer rows.Close()

	var stats []invitation.DeviceStat
	for rows.Next() {
		var s invitation.DeviceStat
		if err := rows.Scan(&s.DeviceType, &s.Browser, &s.OS, &s.Views); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return stats, nil
}
