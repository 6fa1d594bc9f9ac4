package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
	"github.com/redis/go-redis/v9"
)

// SnapshotTTL bounds how long a stale board survives if refreshes stop.
// Consumers fall back to an explicit "no data" state once it lapses.
const SnapshotTTL = 48 * time.Hour

// SnapshotStore persists the latest annotated board per sport. Each refresh
// fully overwrites the previous snapshot; readers always get a complete,
// consistent board or nothing.
type SnapshotStore struct {
	client *redis.Client
}

// NewSnapshotStore creates a snapshot store
func NewSnapshotStore(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{
		client: client,
	}
}

// Write stores the annotated games for a sport, stamping the refresh time in
// epoch milliseconds. The SET replaces the whole value atomically.
func (s *SnapshotStore) Write(ctx context.Context, sportKey string, games []models.Game) error {
	snapshot := models.Snapshot{
		Data:        games,
		LastUpdated: time.Now().UnixMilli(),
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	key := snapshotKey(sportKey)
	if err := s.client.Set(ctx, key, data, SnapshotTTL).Err(); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", key, err)
	}

	return nil
}

// Read returns the latest snapshot for a sport. A missing key surfaces
// redis.Nil so callers can distinguish "no data yet" from a real failure.
func (s *SnapshotStore) Read(ctx context.Context, sportKey string) (*models.Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(sportKey)).Result()
	if err != nil {
		return nil, err
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	return &snapshot, nil
}

// Ping checks store connectivity (health endpoint)
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func snapshotKey(sportKey string) string {
	return fmt.Sprintf("odds:latest:%s", sportKey)
}
