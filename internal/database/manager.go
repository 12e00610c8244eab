package database

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Varun5711/easywedding/internal/config"
	"github.com/Varun5711/easywedding/internal/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBManager owns the process-wide Postgres pools. It is built once at startup and
// shared by every store; writes go to the primary, reads rotate over replicas.
type DBManager struct {
	primaryDSN   string
	primary      *pgxpool.Pool
	replicas     []*pgxpool.Pool
	replicaIndex uint32
}

type Config struct {
	PrimaryDSN  string
	ReplicaDSNs []string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func ConfigFrom(cfg config.DatabaseConfig) Config {
	return Config{
		PrimaryDSN:      cfg.PrimaryDSN,
		ReplicaDSNs:     cfg.ReplicaDSNs,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
	}
}

func newPool(ctx context.Context, dsn string, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return pool, nil
}

func NewDBManager(ctx context.Context, cfg Config) (*DBManager, error) {
	primaryPool, err := newPool(ctx, cfg.PrimaryDSN, cfg)
	if err != nil {
		return nil, fmt.Errorf("primary: %w", err)
	}

	replicas := make([]*pgxpool.Pool, 0, len(cfg.ReplicaDSNs))
	for i, dsn := range cfg.ReplicaDSNs {
		replicaPool, err := newPool(ctx, dsn, cfg)
		if err != nil {
			primaryPool.Close()
			closeReplicas(replicas)
			return nil, fmt.Errorf("replica %d: %w", i, err)
		}
		replicas = append(replicas, replicaPool)
	}

	return &DBManager{
		primaryDSN: cfg.PrimaryDSN,
		primary:    primaryPool,
		replicas:   replicas,
	}, nil
}

// Migrate applies the embedded schema migrations to the primary.
func (m *DBManager) Migrate(ctx context.Context) error {
	return migrations.UpPostgres(ctx, m.primaryDSN)
}

func (m *DBManager) Write() *pgxpool.Pool {
	return m.primary
}

func (m *DBManager) Read() *pgxpool.Pool {
	if len(m.replicas) == 0 {
		return m.primary
	}

	idx := atomic.AddUint32(&m.replicaIndex, 1) % uint32(len(m.replicas))
	return m.replicas[idx]
}

func (m *DBManager) Primary() *pgxpool.Pool {
	return m.primary
}

func (m *DBManager) Ping(ctx context.Context) error {
	return m.primary.Ping(ctx)
}

func closeReplicas(replicas []*pgxpool.Pool) {
	for _, pool := range replicas {
		if pool != nil {
			pool.Close()
		}
	}
}

func (m *DBManager) Close() {
	if m.primary != nil {
		m.primary.Close()
	}
	closeReplicas(m.replicas)
}

type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
}

func poolStats(p *pgxpool.Pool) PoolStats {
	s := p.Stat()
	return PoolStats{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
	}
}

func (m *DBManager) Stats() map[string]interface{} {
	stats := make(map[string]interface{})

	if m.primary != nil {
		stats["primary"] = poolStats(m.primary)
	}

	replicaStats := make([]PoolStats, len(m.replicas))
	for i, replica := range m.replicas {
		replicaStats[i] = poolStats(replica)
	}
	stats["replicas"] = replicaStats

	return stats
}
