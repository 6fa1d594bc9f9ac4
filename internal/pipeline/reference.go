package pipeline

import "github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"

// refKey identifies one sharp quote within a game
type refKey struct {
	market  string
	outcome string
}

// refEntry is the sharp book's price and line for one outcome
type refEntry struct {
	price int
	point *float64
}

// resolveReference walks the sharp priority list in order and selects the
// first bookmaker present in the game. Returns the selected book's canonical
// key and its (market, outcome) lookup, or "" when no candidate matches —
// a valid state, not an error.
//
// The lookup is rebuilt per game and scoped to this call; nothing is cached
// across games.
func (p *Pipeline) resolveReference(g *models.Game) (string, map[refKey]refEntry) {
	for _, candidate := range p.registry.SharpPriority() {
		for i := range g.Bookmakers {
			if p.registry.Normalize(g.Bookmakers[i].Key) != candidate {
				continue
			}

			return candidate, buildLookup(&g.Bookmakers[i])
		}
	}

	return "", nil
}

// buildLookup indexes every outcome the sharp book offers. If the feed
// repeats a (market, outcome) pair, the first quote wins.
func buildLookup(bm *models.Bookmaker) map[refKey]refEntry {
	lookup := make(map[refKey]refEntry)

	for _, market := range bm.Markets {
		for _, outcome := range market.Outcomes {
			key := refKey{market: market.Key, outcome: outcome.Name}
			if _, exists := lookup[key]; exists {
				continue
			}

			lookup[key] = refEntry{price: outcome.Price, point: outcome.Point}
		}
	}

	return lookup
}
