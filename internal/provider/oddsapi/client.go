package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

const (
	BaseURL = "https://api.the-odds-api.com/v4/sports"

	// Featured markets requested on every fetch
	DefaultMarkets = "h2h,spreads,totals"
)

// Client handles The Odds API requests. One GET per sport returns every
// game with all bookmaker quotes for the featured markets.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	regions    string
}

// New creates an odds API client
func New(apiKey, regions string) *Client {
	if regions == "" {
		regions = "us"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: BaseURL,
		apiKey:  apiKey,
		regions: regions,
	}
}

// NewWithBaseURL creates a client pointed at a custom endpoint (tests)
func NewWithBaseURL(apiKey, regions, baseURL string) *Client {
	c := New(apiKey, regions)
	c.baseURL = baseURL
	return c
}

// FetchOdds fetches the current odds board for one sport
func (c *Client) FetchOdds(ctx context.Context, sportKey string) ([]models.Game, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.regions)
	params.Set("markets", DefaultMarkets)
	params.Set("oddsFormat", "american")

	endpoint := fmt.Sprintf("%s/%s/odds?%s", c.baseURL, sportKey, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("odds API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var games []models.Game
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return games, nil
}
