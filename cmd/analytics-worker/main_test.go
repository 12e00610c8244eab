package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Varun5711/easywedding/internal/clickhouse"
	"github.com/Varun5711/easywedding/internal/config"
	"github.com/Varun5711/easywedding/internal/events"
	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/models/invitation"
	"github.com/Varun5711/easywedding/internal/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStream   = "invitation-views:stream"
	testGroup    = "analytics-group"
	testInviteID = "6f1c2a8e-3f7b-4c1d-9a2e-1b2c3d4e5f60"
	chromeAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	botAgent     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

// flakySink fails the first failures inserts, then stores rows.
type flakySink struct {
	failures int
	rows     []clickhouse.ViewRow
}

func (s *flakySink) InsertViews(_ context.Context, rows []clickhouse.ViewRow) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("clickhouse down")
	}
	s.rows = append(s.rows, rows...)
	return nil
}

type harness struct {
	worker   *worker
	client   *redis.Client
	store    *storage.MemoryInvitationStorage
	sink     *flakySink
	producer *events.ViewProducer
}

func newHarness(t *testing.T, failures int) *harness {
	t.Helper()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	consumer := events.NewViewConsumer(client, testStream, testGroup, "worker-1")
	require.NoError(t, consumer.EnsureGroup(ctx))

	store := storage.NewMemoryInvitationStorage()
	now := time.Now().UTC()
	require.NoError(t, store.Create(ctx, &invitation.Invitation{
		UUID:      testInviteID,
		UserID:    "user-1",
		Theme:     invitation.ThemeSimple,
		IsActive:  true,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}))

	sink := &flakySink{failures: failures}
	return &harness{
		worker: &worker{
			consumer:     consumer,
			counts:       store,
			sink:         sink,
			batchSize:    10,
			blockTime:    10 * time.Millisecond,
			pollInterval: time.Millisecond,
			log:          logger.NewWithWriter("test", io.Discard, logger.DEBUG),
		},
		client:   client,
		store:    store,
		sink:     sink,
		producer: events.NewViewProducer(client, testStream),
	}
}

func (h *harness) publish(t *testing.T, userAgent string) {
	t.Helper()
	require.NoError(t, h.producer.Publish(context.Background(), &events.ViewEvent{
		InvitationUUID: testInviteID,
		ViewedAt:       time.Now().UTC(),
		IP:             "203.0.113.7",
		UserAgent:      userAgent,
	}))
}

func (h *harness) pending(t *testing.T) int64 {
	t.Helper()
	p, err := h.client.XPending(context.Background(), testStream, testGroup).Result()
	require.NoError(t, err)
	return p.Count
}

func (h *harness) viewCount(t *testing.T) int64 {
	t.Helper()
	inv, err := h.store.GetByUUID(context.Background(), testInviteID)
	require.NoError(t, err)
	return inv.ViewCount
}

func TestWorker_FailedBatchIsRetried(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	h.publish(t, chromeAgent)

	err := h.worker.step(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clickhouse down")
	assert.Equal(t, int64(1), h.pending(t))
	assert.Equal(t, int64(0), h.viewCount(t))

	require.NoError(t, h.worker.step(ctx))
	require.Len(t, h.sink.rows, 1)
	assert.Equal(t, testInviteID, h.sink.rows[0].InvitationUUID)
	assert.Equal(t, "desktop", h.sink.rows[0].DeviceType)
	assert.Equal(t, "public", h.sink.rows[0].Network)
	assert.NotEmpty(t, h.sink.rows[0].EventID)
	assert.Equal(t, int64(1), h.viewCount(t))
	assert.Equal(t, int64(0), h.pending(t))

	require.NoError(t, h.worker.step(ctx))
	assert.Len(t, h.sink.rows, 1)
	assert.Equal(t, int64(1), h.viewCount(t))
}

func TestWorker_PendingFromEarlierRunIsProcessedFirst(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	h.publish(t, chromeAgent)

	// Deliver without processing, as a worker that crashed before acking would.
	delivered, err := h.worker.consumer.Read(ctx, 10, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, delivered, 1)

	h.publish(t, chromeAgent)

	require.NoError(t, h.worker.step(ctx))
	require.Len(t, h.sink.rows, 1)
	assert.Equal(t, delivered[0].Event.EventID, h.sink.rows[0].EventID)

	require.NoError(t, h.worker.step(ctx))
	assert.Len(t, h.sink.rows, 2)
	assert.Equal(t, int64(2), h.viewCount(t))
	assert.Equal(t, int64(0), h.pending(t))
}

func TestWorker_BotsStoredButNotCounted(t *testing.T) {
	h := newHarness(t, 0)
	h.publish(t, botAgent)

	require.NoError(t, h.worker.step(context.Background()))
	require.Len(t, h.sink.rows, 1)
	assert.Equal(t, "bot", h.sink.rows[0].DeviceType)
	assert.Equal(t, int64(0), h.viewCount(t))
}

func TestWorker_UndecodableMessageIsAcked(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	require.NoError(t, h.client.XAdd(ctx, &redis.XAddArgs{
		Stream: testStream,
		Values: map[string]interface{}{"short_code": "abc"},
	}).Err())

	require.NoError(t, h.worker.step(ctx))
	assert.Empty(t, h.sink.rows)
	assert.Equal(t, int64(0), h.pending(t))
}

func TestCheckStoreDriver(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.StoreDriverMemory}}
	assert.Error(t, checkStoreDriver(cfg))

	for _, driver := range []string{config.StoreDriverPostgres, config.StoreDriverSQLite} {
		cfg.Store.Driver = driver
		assert.NoError(t, checkStoreDriver(cfg), driver)
	}
}
