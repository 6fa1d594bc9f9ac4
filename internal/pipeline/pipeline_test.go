package pipeline_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/books"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/pipeline"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

func fptr(v float64) *float64 { return &v }

func newPipeline(priority ...string) *pipeline.Pipeline {
	return pipeline.New(books.NewRegistry(priority), pipeline.Config{})
}

// gameFixture builds a game where the sharp side quotes -110 on every
// outcome and the soft book quotes the provided prices
func gameFixture(sharpKey, softKey string) models.Game {
	return models.Game{
		ID:           "evt-001",
		SportKey:     "basketball_nba",
		CommenceTime: time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC),
		HomeTeam:     "Lakers",
		AwayTeam:     "Celtics",
		Bookmakers: []models.Bookmaker{
			{
				Key: sharpKey,
				Markets: []models.Market{
					{Key: models.MarketH2H, Outcomes: []models.Outcome{
						{Name: "Lakers", Price: -110},
						{Name: "Celtics", Price: -110},
					}},
					{Key: models.MarketSpreads, Outcomes: []models.Outcome{
						{Name: "Lakers", Price: -110, Point: fptr(-4)},
						{Name: "Celtics", Price: -110, Point: fptr(4)},
					}},
				},
			},
			{
				Key: softKey,
				Markets: []models.Market{
					{Key: models.MarketH2H, Outcomes: []models.Outcome{
						{Name: "Lakers", Price: 105},
						{Name: "Celtics", Price: -125},
					}},
					{Key: models.MarketSpreads, Outcomes: []models.Outcome{
						{Name: "Lakers", Price: -110, Point: fptr(-3.5)},
						{Name: "Celtics", Price: -110, Point: fptr(4)},
					}},
				},
			},
		},
	}
}

func TestReferencePriorityOrder(t *testing.T) {
	// lowvig outranks fanduel in the priority list, so with both present the
	// resolver must pick lowvig even though fanduel appears in the game too
	p := newPipeline("pinnacle", "lowvig", "williamhill_us", "fanduel")
	games := []models.Game{gameFixture("lowvig", "fanduel")}

	games = p.Run(games)

	outcome := games[0].Bookmakers[1].Markets[0].Outcomes[0]
	if !outcome.Annotated() {
		t.Fatal("fanduel outcome should be annotated against lowvig")
	}
	if *outcome.SharpPrice != -110 {
		t.Errorf("sharp price = %d, want lowvig's -110", *outcome.SharpPrice)
	}

	// lowvig's own quotes stay untouched
	for _, market := range games[0].Bookmakers[0].Markets {
		for _, o := range market.Outcomes {
			if o.Annotated() {
				t.Errorf("sharp book outcome %s/%s should not be annotated", market.Key, o.Name)
			}
		}
	}
}

func TestPointMismatchSkipsOutcome(t *testing.T) {
	p := newPipeline("pinnacle", "lowvig")
	games := p.Run([]models.Game{gameFixture("pinnacle", "fanduel")})

	spreads := games[0].Bookmakers[1].Markets[1].Outcomes

	// Lakers -3.5 vs sharp -4: line disagreement, no annotation
	if spreads[0].Annotated() {
		t.Error("outcome with mismatched point should pass through unannotated")
	}

	// Celtics +4 matches the sharp line exactly
	if !spreads[1].Annotated() {
		t.Error("outcome with matching point should be annotated")
	}
	if *spreads[1].SharpPoint != 4 {
		t.Errorf("sharp point = %f, want 4", *spreads[1].SharpPoint)
	}
}

func TestNoReferencePassthrough(t *testing.T) {
	p := newPipeline("pinnacle", "lowvig")
	games := p.Run([]models.Game{gameFixture("draftkings", "fanduel")})

	for _, bm := range games[0].Bookmakers {
		for _, market := range bm.Markets {
			for _, o := range market.Outcomes {
				if o.Annotated() {
					t.Fatalf("game without a sharp book should pass through; %s/%s/%s was annotated",
						bm.Key, market.Key, o.Name)
				}
			}
		}
	}
}

func TestIdempotence(t *testing.T) {
	p := newPipeline("pinnacle")
	games := []models.Game{gameFixture("pinnacle", "fanduel")}

	once, err := json.Marshal(p.Run(games))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	twice, err := json.Marshal(p.Run(games))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(once) != string(twice) {
		t.Error("re-running the pipeline on an annotated batch changed the output")
	}
}

func TestBatchShapePreserved(t *testing.T) {
	p := newPipeline("pinnacle")
	in := []models.Game{
		gameFixture("pinnacle", "fanduel"),
		gameFixture("nobody", "fanduel"),
	}
	in[1].ID = "evt-002"

	out := p.Run(in)

	if len(out) != 2 {
		t.Fatalf("batch length changed: %d", len(out))
	}
	if out[0].ID != "evt-001" || out[1].ID != "evt-002" {
		t.Error("game order or identity fields changed")
	}
}

func TestDerivedValues(t *testing.T) {
	p := newPipeline("pinnacle")
	games := p.Run([]models.Game{gameFixture("pinnacle", "fanduel")})

	h2h := games[0].Bookmakers[1].Markets[0].Outcomes

	// Lakers +105 against sharp -110 (prob 0.523810):
	// EV = (105*0.523810 - 100*0.476190)/100
	lakers := h2h[0]
	if !lakers.Annotated() {
		t.Fatal("moneyline outcome should be annotated without any point requirement")
	}

	wantEV := (105.0*(110.0/210.0) - 100.0*(100.0/210.0)) / 100.0
	if math.Abs(*lakers.ExpectedValue-wantEV) > 1e-9 {
		t.Errorf("expected value = %f, want %f", *lakers.ExpectedValue, wantEV)
	}
	if math.Abs(*lakers.BookEarnings-105) > 1e-9 {
		t.Errorf("book earnings = %f, want 105", *lakers.BookEarnings)
	}
	if math.Abs(*lakers.SharpEarnings-10000.0/110.0) > 1e-9 {
		t.Errorf("sharp earnings = %f, want %f", *lakers.SharpEarnings, 10000.0/110.0)
	}
	if lakers.MarketWidth == nil {
		t.Fatal("market width missing")
	}

	// Width of a -110 sharp line vs its +93.73 synthetic counter
	wantWidth := 110.0 - (100.0/((1.04)-(110.0/210.0)) - 100.0)
	if math.Abs(*lakers.MarketWidth-wantWidth) > 1e-9 {
		t.Errorf("market width = %f, want %f", *lakers.MarketWidth, wantWidth)
	}
}

func TestSharpKeyAliasResolved(t *testing.T) {
	// The feed delivers "pinnacle_us"; the priority list says "pinnacle".
	// Key normalization must bridge the two.
	p := newPipeline("pinnacle")
	games := p.Run([]models.Game{gameFixture("pinnacle_us", "fanduel")})

	if !games[0].Bookmakers[1].Markets[0].Outcomes[0].Annotated() {
		t.Error("suffixed sharp key should resolve via the alias table")
	}
}

func TestZeroPriceSkippedNotFatal(t *testing.T) {
	p := newPipeline("pinnacle")
	g := gameFixture("pinnacle", "fanduel")
	g.Bookmakers[1].Markets[0].Outcomes[1].Price = 0 // corrupt one record

	games := p.Run([]models.Game{g})

	h2h := games[0].Bookmakers[1].Markets[0].Outcomes
	if h2h[1].Annotated() {
		t.Error("zero-price outcome should be skipped, not computed")
	}
	if !h2h[0].Annotated() {
		t.Error("one bad record should not stop the rest of the batch")
	}
}

func TestProbabilityFormulaVariant(t *testing.T) {
	p := pipeline.New(books.NewRegistry([]string{"pinnacle"}), pipeline.Config{
		Formula: pipeline.FormulaProbability,
	})
	games := p.Run([]models.Game{gameFixture("pinnacle", "fanduel")})

	lakers := games[0].Bookmakers[1].Markets[0].Outcomes[0]
	if !lakers.Annotated() {
		t.Fatal("outcome should be annotated")
	}

	sharpProb := 110.0 / 210.0
	bookProb := 100.0 / 205.0
	want := (sharpProb - bookProb) / bookProb

	if math.Abs(*lakers.ExpectedValue-want) > 1e-9 {
		t.Errorf("probability-variant EV = %f, want %f", *lakers.ExpectedValue, want)
	}
}
