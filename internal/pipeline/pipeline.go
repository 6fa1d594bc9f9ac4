package pipeline

import (
	"log"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/books"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/oddsmath"
)

// Formula selects how expected value is computed
type Formula string

const (
	// FormulaEarnings is the per-$100-stake EV against the sharp no-vig
	// probability. Default.
	FormulaEarnings Formula = "earnings"

	// FormulaProbability is the legacy probability-differencing variant
	FormulaProbability Formula = "probability"
)

// Config parameterizes a pipeline. Zero values fall back to the registry's
// priority list, DefaultTargetVig, and FormulaEarnings.
type Config struct {
	TargetVig float64
	Formula   Formula
}

// Pipeline annotates batches of games with expected value against a sharp
// reference book. It holds no mutable state of its own: every Run derives
// only from its input batch, so concurrent Runs on distinct batches are safe.
type Pipeline struct {
	registry  *books.Registry
	targetVig float64
	formula   Formula
}

// New creates a pipeline bound to a book registry
func New(registry *books.Registry, cfg Config) *Pipeline {
	if registry == nil {
		registry = books.NewRegistry(nil)
	}
	if cfg.TargetVig == 0 {
		cfg.TargetVig = oddsmath.DefaultTargetVig
	}
	if cfg.Formula == "" {
		cfg.Formula = FormulaEarnings
	}

	return &Pipeline{
		registry:  registry,
		targetVig: cfg.TargetVig,
		formula:   cfg.Formula,
	}
}

// Run annotates every game in the batch in place and returns the same slice:
// same order, same length, same identity fields. Games without a sharp book
// pass through untouched. Running twice on the same batch yields identical
// output — annotations are cleared and recomputed from scratch each time.
func (p *Pipeline) Run(games []models.Game) []models.Game {
	for i := range games {
		p.annotateGame(&games[i])
	}
	return games
}

// annotateGame resolves the sharp book for one game and annotates every other
// bookmaker's outcomes against it
func (p *Pipeline) annotateGame(g *models.Game) {
	// Drop stale annotations first so a re-run never accumulates old fields
	for bi := range g.Bookmakers {
		for mi := range g.Bookmakers[bi].Markets {
			outcomes := g.Bookmakers[bi].Markets[mi].Outcomes
			for oi := range outcomes {
				outcomes[oi].ClearAnnotations()
			}
		}
	}

	sharpKey, ref := p.resolveReference(g)
	if sharpKey == "" {
		log.Printf("game %s: no sharp book among %d bookmakers, passing through", g.ID, len(g.Bookmakers))
		return
	}

	for bi := range g.Bookmakers {
		bm := &g.Bookmakers[bi]
		if p.registry.Normalize(bm.Key) == sharpKey {
			continue // never annotate the sharp book's own quotes
		}

		for mi := range bm.Markets {
			market := &bm.Markets[mi]
			for oi := range market.Outcomes {
				p.annotateOutcome(g.ID, market.Key, &market.Outcomes[oi], ref)
			}
		}
	}
}

// annotateOutcome matches one book outcome against the sharp lookup and, when
// the lines agree, writes the derived fields onto it
func (p *Pipeline) annotateOutcome(gameID, marketKey string, o *models.Outcome, ref map[refKey]refEntry) {
	entry, ok := ref[refKey{market: marketKey, outcome: o.Name}]
	if !ok {
		return // sharp book doesn't offer this outcome
	}

	// Spread/total comparisons are only valid at the exact same line
	if marketKey == models.MarketSpreads || marketKey == models.MarketTotals {
		if o.Point == nil || entry.point == nil || *o.Point != *entry.point {
			return
		}
	}

	sharpProb, err := oddsmath.ImpliedProbability(entry.price)
	if err != nil {
		log.Printf("game %s %s/%s: bad sharp price %d, skipping outcome", gameID, marketKey, o.Name, entry.price)
		return
	}

	bookProb, err := oddsmath.ImpliedProbability(o.Price)
	if err != nil {
		log.Printf("game %s %s/%s: bad book price %d, skipping outcome", gameID, marketKey, o.Name, o.Price)
		return
	}

	// Earnings cannot fail once the probability conversion accepted the price
	sharpEarnings, _ := oddsmath.Earnings(entry.price)
	bookEarnings, _ := oddsmath.Earnings(o.Price)

	counter := oddsmath.CounterOdds(entry.price, sharpProb, p.targetVig)

	var ev float64
	switch p.formula {
	case FormulaProbability:
		ev = oddsmath.ExpectedValueProbability(sharpProb, bookProb)
	default:
		ev = oddsmath.ExpectedValue(bookEarnings, sharpProb)
	}

	width := oddsmath.Width(float64(entry.price), counter)

	sharpPrice := entry.price
	o.SharpPrice = &sharpPrice
	if entry.point != nil {
		sharpPoint := *entry.point
		o.SharpPoint = &sharpPoint
	}
	o.SharpNoVig = &sharpProb
	o.BookNoVig = &bookProb
	o.SharpEarnings = &sharpEarnings
	o.BookEarnings = &bookEarnings
	o.SharpCounterOdds = &counter
	o.ExpectedValue = &ev
	o.MarketWidth = &width
}
