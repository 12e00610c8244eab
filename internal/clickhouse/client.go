package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/Varun5711/easywedding/internal/config"
)

type Client struct {
	conn     driver.Conn
	database string
}

func NewClient(ctx context.Context, cfg config.ClickHouseConfig) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      time.Second * 30,
		MaxOpenConns:     cfg.MaxConns,
		MaxIdleConns:     cfg.MaxConns / 2,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return &Client{conn: conn, database: cfg.Database}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) table() string {
	return c.database + ".invitation_views"
}

// EnsureSchema creates the view table when it does not exist yet. Rows are keyed by
// event_id so a redelivered batch collapses onto the rows it already wrote.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + c.table() + ` (
		event_id        String,
		invitation_uuid String,
		viewed_at       DateTime64(3, 'UTC'),
		ip_address      String,
		network         LowCardinality(String),
		user_agent      String,
		browser         LowCardinality(String),
		browser_version String,
		os              LowCardinality(String),
		device_type     LowCardinality(String),
		referer         String
	) ENGINE = ReplacingMergeTree
	ORDER BY (invitation_uuid, viewed_at, event_id)`

	if err := c.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create invitation_views: %w", err)
	}
	return nil
}

type ViewRow struct {
	EventID        string
	InvitationUUID string
	ViewedAt       time.Time
	IPAddress      string
	Network        string
	UserAgent      string
	Browser        string
	BrowserVersion string
	OS             string
	DeviceType     string
	Referer        string
}

func (c *Client) InsertViews(ctx context.Context, rows []ViewRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `INSERT INTO `+c.table()+` (
		event_id, invitation_uuid, viewed_at, ip_address, network,
		user_agent, browser, browser_version, os, device_type, referer
	)`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, r := range rows {
		err := batch.Append(
			r.EventID,
			r.InvitationUUID,
			r.ViewedAt,
			r.IPAddress,
			r.Network,
			r.UserAgent,
			r.Browser,
			r.BrowserVersion,
			r.OS,
			r.DeviceType,
			r.Referer,
		)
		if err != nil {
			return fmt.Errorf("failed to append view: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}
