package refresher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/pipeline"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
	"github.com/google/uuid"
)

// OddsProvider fetches the raw odds board for one sport
type OddsProvider interface {
	FetchOdds(ctx context.Context, sportKey string) ([]models.Game, error)
}

// SnapshotWriter persists an annotated board
type SnapshotWriter interface {
	Write(ctx context.Context, sportKey string, games []models.Game) error
}

// Refresher drives the fetch → annotate → store cycle for every configured
// sport. Sports are fetched sequentially with a fixed delay to respect the
// vendor's rate limit; a failed sport is logged and skipped, never aborting
// the cycle.
type Refresher struct {
	provider   OddsProvider
	pipeline   *pipeline.Pipeline
	store      SnapshotWriter
	sports     []string
	interval   time.Duration
	fetchDelay time.Duration
}

// New creates a refresher
func New(provider OddsProvider, p *pipeline.Pipeline, store SnapshotWriter, sports []string, interval, fetchDelay time.Duration) *Refresher {
	return &Refresher{
		provider:   provider,
		pipeline:   p,
		store:      store,
		sports:     sports,
		interval:   interval,
		fetchDelay: fetchDelay,
	}
}

// Run refreshes immediately, then on every interval tick until ctx is done
func (r *Refresher) Run(ctx context.Context) {
	r.RefreshAll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("refresher stopped")
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll runs one cycle over every configured sport
func (r *Refresher) RefreshAll(ctx context.Context) {
	runID := uuid.NewString()[:8]
	log.Printf("[%s] refresh cycle started for %d sports", runID, len(r.sports))

	for i, sport := range r.sports {
		if i > 0 && r.fetchDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.fetchDelay):
			}
		}

		count, err := r.RefreshSport(ctx, sport)
		if err != nil {
			log.Printf("[%s] %s: refresh failed, continuing: %v", runID, sport, err)
			continue
		}

		log.Printf("[%s] %s: stored %d games", runID, sport, count)
	}

	log.Printf("[%s] refresh cycle complete", runID)
}

// RefreshSport fetches, annotates, and stores one sport's board. Returns the
// number of games stored. Also serves the manual/admin trigger so every call
// site goes through the same pipeline.
func (r *Refresher) RefreshSport(ctx context.Context, sportKey string) (int, error) {
	games, err := r.provider.FetchOdds(ctx, sportKey)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", sportKey, err)
	}

	games = r.pipeline.Run(games)

	if err := r.store.Write(ctx, sportKey, games); err != nil {
		return 0, fmt.Errorf("storing %s: %w", sportKey, err)
	}

	return len(games), nil
}
