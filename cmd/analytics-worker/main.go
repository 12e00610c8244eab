package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Varun5711/easywedding/internal/clickhouse"
	"github.com/Varun5711/easywedding/internal/config"
	"github.com/Varun5711/easywedding/internal/enrichment"
	"github.com/Varun5711/easywedding/internal/events"
	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/redis"
	"github.com/Varun5711/easywedding/internal/storage"
)

// viewSink stores enriched rows. The ClickHouse client satisfies it.
type viewSink interface {
	InsertViews(ctx context.Context, rows []clickhouse.ViewRow) error
}

type worker struct {
	consumer     *events.ViewConsumer
	counts       storage.InvitationStore
	sink         viewSink
	batchSize    int
	blockTime    time.Duration
	pollInterval time.Duration
	log          *logger.Logger
}

func main() {
	log := logger.New("analytics-worker")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: %v", err)
	}
	for _, warning := range cfg.Diagnostics() {
		log.Warn("%s", warning)
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if errors.Is(err, redis.ErrDisabled) {
		log.Fatal("analytics-worker requires REDIS_ADDR")
	}
	if err != nil {
		log.Fatal("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	if err := checkStoreDriver(cfg); err != nil {
		log.Fatal("%v", err)
	}

	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer stores.Close()

	w := &worker{
		consumer:     events.NewViewConsumer(redisClient.Raw(), cfg.Redis.StreamName, cfg.Analytics.ConsumerGroup, cfg.Analytics.ConsumerName),
		counts:       stores.Invitations,
		batchSize:    cfg.Analytics.BatchSize,
		blockTime:    cfg.Analytics.BlockTime,
		pollInterval: cfg.Analytics.PollInterval,
		log:          log,
	}

	if cfg.ClickHouse.Addr != "" {
		ch, err := clickhouse.NewClient(ctx, cfg.ClickHouse)
		if err != nil {
			log.Fatal("Failed to connect to ClickHouse: %v", err)
		}
		defer ch.Close()
		if err := ch.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare ClickHouse schema: %v", err)
		}
		w.sink = ch
	}

	if err := w.consumer.EnsureGroup(ctx); err != nil {
		log.Fatal("Failed to create consumer group: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.run(ctx)
	}()

	log.Info("Processing view events from %s", cfg.Redis.StreamName)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down")
	cancel()
	<-done
}

// checkStoreDriver refuses the memory store: counts written to this process's own
// map would never reach the gateway.
func checkStoreDriver(cfg *config.Config) error {
	if cfg.Store.Driver == config.StoreDriverMemory {
		return errors.New("analytics-worker needs a shared store, STORE_DRIVER=memory is not supported")
	}
	return nil
}

func (w *worker) run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := w.step(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error("%v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pollInterval):
			}
		}
	}
}

// step retries this consumer's unacknowledged messages before taking new ones, so
// a failed batch is processed again instead of being stranded in the pending list.
func (w *worker) step(ctx context.Context) error {
	messages, err := w.consumer.ReadPending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to read pending views: %w", err)
	}
	if len(messages) > 0 {
		w.log.Info("Retrying %d pending view events", len(messages))
	} else {
		messages, err = w.consumer.Read(ctx, w.batchSize, w.blockTime)
		if err != nil {
			return fmt.Errorf("failed to read from stream: %w", err)
		}
	}
	if len(messages) == 0 {
		return nil
	}

	if err := w.process(ctx, messages); err != nil {
		return fmt.Errorf("failed to process batch: %w", err)
	}
	return nil
}

// process enriches a batch, writes it out and acknowledges it. Undecodable entries
// are acknowledged without being counted.
func (w *worker) process(ctx context.Context, messages []events.Message) error {
	ids := make([]string, 0, len(messages))
	rows := make([]clickhouse.ViewRow, 0, len(messages))
	counts := make(map[string]int64)

	for _, msg := range messages {
		ids = append(ids, msg.ID)
		if msg.Event == nil {
			w.log.Warn("Invalid message format: %s", msg.ID)
			continue
		}

		ev := msg.Event
		if ev.EventID == "" {
			ev.EventID = msg.ID
		}
		ua := enrichment.ParseUserAgent(ev.UserAgent)
		rows = append(rows, clickhouse.ViewRow{
			EventID:        ev.EventID,
			InvitationUUID: ev.InvitationUUID,
			ViewedAt:       ev.ViewedAt,
			IPAddress:      ev.IP,
			Network:        enrichment.NetworkClass(ev.IP),
			UserAgent:      ev.UserAgent,
			Browser:        ua.Browser,
			BrowserVersion: ua.BrowserVersion,
			OS:             ua.OS,
			DeviceType:     ua.DeviceType,
			Referer:        ev.Referer,
		})
		if ua.DeviceType != enrichment.DeviceBot {
			counts[ev.InvitationUUID]++
		}
	}

	if w.sink != nil && len(rows) > 0 {
		if err := w.sink.InsertViews(ctx, rows); err != nil {
			return err
		}
	}
	if len(counts) > 0 {
		if err := w.counts.IncrementViews(ctx, counts); err != nil {
			return err
		}
	}

	w.log.Debug("Processed %d events for %d invitations", len(ids), len(counts))
	return w.consumer.Ack(ctx, ids...)
}
