package models

import "time"

// Market keys as delivered by the odds vendor
const (
	MarketH2H     = "h2h"     // Moneyline
	MarketSpreads = "spreads" // Point spread
	MarketTotals  = "totals"  // Over/under
)

// Game represents a single sporting event with quotes from every bookmaker
// the vendor returned. Matches the vendor's v4 odds payload.
type Game struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title,omitempty"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one quote source within a game
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update,omitempty"`
	Markets    []Market  `json:"markets"`
}

// Market is one bet type scoped to a single bookmaker
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is one side of a market. Price is American odds (signed, never 0).
// Point is present only for spreads/totals.
//
// The Sharp*/Book*/ExpectedValue/MarketWidth fields are derived annotations
// written by the EV pipeline for non-sharp books whose outcome matched the
// sharp book's line. They are nil wherever no match was possible.
type Outcome struct {
	Name  string   `json:"name"`
	Price int      `json:"price"`
	Point *float64 `json:"point,omitempty"`

	SharpPrice       *int     `json:"sharp_price,omitempty"`
	SharpPoint       *float64 `json:"sharp_point,omitempty"`
	SharpNoVig       *float64 `json:"sharp_novig,omitempty"`
	BookNoVig        *float64 `json:"book_novig,omitempty"`
	SharpEarnings    *float64 `json:"sharp_earnings,omitempty"`
	BookEarnings     *float64 `json:"book_earnings,omitempty"`
	SharpCounterOdds *float64 `json:"sharp_counter_odds,omitempty"`
	ExpectedValue    *float64 `json:"expected_value,omitempty"`
	MarketWidth      *float64 `json:"market_width,omitempty"`
}

// Annotated reports whether the EV pipeline wrote derived fields onto this outcome
func (o *Outcome) Annotated() bool {
	return o.ExpectedValue != nil
}

// ClearAnnotations removes all derived fields so a re-run recomputes from scratch
func (o *Outcome) ClearAnnotations() {
	o.SharpPrice = nil
	o.SharpPoint = nil
	o.SharpNoVig = nil
	o.BookNoVig = nil
	o.SharpEarnings = nil
	o.BookEarnings = nil
	o.SharpCounterOdds = nil
	o.ExpectedValue = nil
	o.MarketWidth = nil
}

// Snapshot is the stored unit per sport: the annotated games plus the epoch-ms
// timestamp of the refresh that produced them
type Snapshot struct {
	Data        []Game `json:"data"`
	LastUpdated int64  `json:"last_updated"`
}

// Opportunity is one annotated outcome flattened for the ranked EV listing
type Opportunity struct {
	GameID       string    `json:"game_id"`
	SportKey     string    `json:"sport_key"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	BookKey      string    `json:"book_key"`
	BookTitle    string    `json:"book_title,omitempty"`
	MarketKey    string    `json:"market_key"`
	OutcomeName  string    `json:"outcome_name"`
	Price        int       `json:"price"`
	Point        *float64  `json:"point,omitempty"`

	SharpPrice    int      `json:"sharp_price"`
	ExpectedValue float64  `json:"expected_value"`
	MarketWidth   *float64 `json:"market_width,omitempty"`
}
