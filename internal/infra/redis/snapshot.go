package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/servostack/paydesk/internal/platform/watch"
	"github.com/servostack/paydesk/pkg/logger"
)

const (
	// SnapshotKey holds the latest pending queue snapshot
	SnapshotKey = "pending:snapshot"

	// DefaultTTL lets a stale snapshot expire if the watcher dies. It spans
	// several poll intervals so one slow poll does not blank the summary.
	DefaultTTL = 5 * time.Minute
)

// SnapshotStore is the Redis-backed store for the pending queue snapshot.
// Each write fully replaces the previous snapshot.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewSnapshotStore creates a new snapshot store
func NewSnapshotStore(client *redis.Client, log *logger.Logger) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		ttl:    DefaultTTL,
		logger: log.WithField("component", "snapshot_store"),
	}
}

// Replace overwrites the stored snapshot with the given one
func (s *SnapshotStore) Replace(ctx context.Context, snap *watch.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, SnapshotKey, data, s.ttl).Err(); err != nil {
		s.logger.Error("snapshot store error", "operation", "replace", "error", err)
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	return nil
}

// Get retrieves the latest snapshot. The second return is false when no
// snapshot has been stored yet or the last one has expired.
func (s *SnapshotStore) Get(ctx context.Context) (*watch.Snapshot, bool, error) {
	val, err := s.client.Get(ctx, SnapshotKey).Result()
	if err == redis.Nil {
		s.logger.Debug("no pending snapshot stored")
		return nil, false, nil
	}
	if err != nil {
		s.logger.Error("snapshot store error", "operation", "get", "error", err)
		return nil, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap watch.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, true, nil
}
