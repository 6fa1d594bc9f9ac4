package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// SnapshotReader reads the latest stored board for a sport
type SnapshotReader interface {
	Read(ctx context.Context, sportKey string) (*models.Snapshot, error)
	Ping(ctx context.Context) error
}

// SportRefresher triggers an on-demand refresh for one sport
type SportRefresher interface {
	RefreshSport(ctx context.Context, sportKey string) (int, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	store     SnapshotReader
	refresher SportRefresher
}

// NewHandler creates a new handler with dependencies
func NewHandler(store SnapshotReader, refresher SportRefresher) *Handler {
	return &Handler{
		store:     store,
		refresher: refresher,
	}
}

// HealthCheck returns service health
// GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store unhealthy")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "ev-engine",
		"timestamp": time.Now().UTC(),
	})
}

// GetOdds returns the latest annotated snapshot for a sport
// GET /api/v1/odds/{sportKey}
func (h *Handler) GetOdds(w http.ResponseWriter, r *http.Request) {
	sportKey := chi.URLParam(r, "sportKey")
	if sportKey == "" {
		respondError(w, http.StatusBadRequest, "sportKey is required")
		return
	}

	snapshot, err := h.store.Read(r.Context(), sportKey)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("no odds stored for %s", sportKey))
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to read snapshot")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// GetOpportunities returns annotated outcomes flattened into a ranked list,
// best expected value first. Width acts as a market-quality filter.
// GET /api/v1/ev/{sportKey}?min_ev=&max_width=&limit=
func (h *Handler) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	sportKey := chi.URLParam(r, "sportKey")
	if sportKey == "" {
		respondError(w, http.StatusBadRequest, "sportKey is required")
		return
	}

	minEV := parseFloatParam(r, "min_ev", 0.0)
	maxWidth := parseFloatParam(r, "max_width", 0.0)
	limit := parseIntParam(r, "limit", 100)
	if limit > 500 {
		limit = 500
	}

	snapshot, err := h.store.Read(r.Context(), sportKey)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("no odds stored for %s", sportKey))
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to read snapshot")
		return
	}

	opportunities := flattenOpportunities(snapshot.Data, minEV, maxWidth)

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].ExpectedValue > opportunities[j].ExpectedValue
	})

	if len(opportunities) > limit {
		opportunities = opportunities[:limit]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sport":         sportKey,
		"last_updated":  snapshot.LastUpdated,
		"opportunities": opportunities,
		"count":         len(opportunities),
	})
}

// TriggerRefresh runs an on-demand refresh for one sport
// POST /api/v1/refresh/{sportKey}
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	sportKey := chi.URLParam(r, "sportKey")
	if sportKey == "" {
		respondError(w, http.StatusBadRequest, "sportKey is required")
		return
	}

	count, err := h.refresher.RefreshSport(r.Context(), sportKey)
	if err != nil {
		respondError(w, http.StatusBadGateway, fmt.Sprintf("refresh failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sport":        sportKey,
		"games_stored": count,
		"refreshed_at": time.Now().UTC(),
	})
}

// flattenOpportunities extracts every annotated outcome that clears the
// filters. minEV applies always; maxWidth only filters when positive.
func flattenOpportunities(games []models.Game, minEV, maxWidth float64) []models.Opportunity {
	opportunities := []models.Opportunity{}

	for _, game := range games {
		for _, bm := range game.Bookmakers {
			for _, market := range bm.Markets {
				for _, o := range market.Outcomes {
					if !o.Annotated() || *o.ExpectedValue < minEV {
						continue
					}
					if maxWidth > 0 && o.MarketWidth != nil && *o.MarketWidth > maxWidth {
						continue
					}

					opportunities = append(opportunities, models.Opportunity{
						GameID:        game.ID,
						SportKey:      game.SportKey,
						HomeTeam:      game.HomeTeam,
						AwayTeam:      game.AwayTeam,
						CommenceTime:  game.CommenceTime,
						BookKey:       bm.Key,
						BookTitle:     bm.Title,
						MarketKey:     market.Key,
						OutcomeName:   o.Name,
						Price:         o.Price,
						Point:         o.Point,
						SharpPrice:    *o.SharpPrice,
						ExpectedValue: *o.ExpectedValue,
						MarketWidth:   o.MarketWidth,
					})
				}
			}
		}
	}

	return opportunities
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func parseIntParam(r *http.Request, name string, defaultValue int) int {
	if value := r.URL.Query().Get(name); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseFloatParam(r *http.Request, name string, defaultValue float64) float64 {
	if value := r.URL.Query().Get(name); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
