package books

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// DefaultSharpPriority is the fallback reference-book priority order used
// when neither configuration nor the books table provides one. First match
// in a game's bookmaker list wins.
var DefaultSharpPriority = []string{"pinnacle", "lowvig", "williamhill_us", "fanduel"}

// keyAliases maps the vendor key variants observed across feeds onto one
// canonical form. The vendor ships some books with and without a regional
// suffix; every key comparison in the engine goes through NormalizeKey so
// the variants never leak into matching logic.
var keyAliases = map[string]string{
	"pinnacle_us":   "pinnacle",
	"lowvig_eu":     "lowvig",
	"williamhill":   "williamhill_us",
	"betonline":     "betonlineag",
	"pointsbetus":   "pointsbet_us",
	"superbook_us":  "superbook",
	"betfair_ex_us": "betfair",
	"unibet":        "unibet_us",
}

// NormalizeKey maps a bookmaker key to its canonical form. Unknown keys pass
// through unchanged.
func NormalizeKey(key string) string {
	if canonical, ok := keyAliases[key]; ok {
		return canonical
	}
	return key
}

// Registry resolves bookmaker key aliases and holds the sharp priority list.
// Configured priority wins; otherwise an optional books table provides it;
// otherwise DefaultSharpPriority applies.
type Registry struct {
	mu            sync.RWMutex
	sharpPriority []string
	aliases       map[string]string
}

// NewRegistry creates a registry with the given priority list, or the default
// when the list is empty
func NewRegistry(sharpPriority []string) *Registry {
	if len(sharpPriority) == 0 {
		sharpPriority = DefaultSharpPriority
	}

	aliases := make(map[string]string, len(keyAliases))
	for k, v := range keyAliases {
		aliases[k] = v
	}

	return &Registry{
		sharpPriority: sharpPriority,
		aliases:       aliases,
	}
}

// SharpPriority returns the priority-ordered sharp book keys (canonical form)
func (r *Registry) SharpPriority() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.sharpPriority))
	copy(out, r.sharpPriority)
	return out
}

// Normalize maps a key through the registry's alias table
func (r *Registry) Normalize(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if canonical, ok := r.aliases[key]; ok {
		return canonical
	}
	return key
}

// IsSharp reports whether the (normalized) key appears in the priority list
func (r *Registry) IsSharp(key string) bool {
	canonical := r.Normalize(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, k := range r.sharpPriority {
		if k == canonical {
			return true
		}
	}
	return false
}

// LoadFromDB overlays aliases and sharp priority from the books table.
// Configured priority (passed to NewRegistry) is kept if the caller set one;
// only an empty/default priority is replaced by the table's ordering.
//
// Expected schema:
//
//	books(book_key text, alias_of text, sharp_priority int, active bool)
//
// Rows with alias_of set extend the alias table; active rows with a positive
// sharp_priority form the priority list, lowest number first.
func (r *Registry) LoadFromDB(ctx context.Context, db *sql.DB, keepConfigured bool) error {
	aliasQuery := `
		SELECT book_key, alias_of
		FROM books
		WHERE alias_of IS NOT NULL AND alias_of <> ''
	`

	rows, err := db.QueryContext(ctx, aliasQuery)
	if err != nil {
		return fmt.Errorf("failed to query book aliases: %w", err)
	}
	defer rows.Close()

	loaded := make(map[string]string)
	for rows.Next() {
		var key, aliasOf string
		if err := rows.Scan(&key, &aliasOf); err != nil {
			return fmt.Errorf("failed to scan alias row: %w", err)
		}
		loaded[key] = aliasOf
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating alias rows: %w", err)
	}

	var priority []string
	if !keepConfigured {
		priorityQuery := `
			SELECT book_key
			FROM books
			WHERE active = true AND sharp_priority > 0
			ORDER BY sharp_priority ASC
		`

		prows, err := db.QueryContext(ctx, priorityQuery)
		if err != nil {
			return fmt.Errorf("failed to query sharp priority: %w", err)
		}
		defer prows.Close()

		for prows.Next() {
			var key string
			if err := prows.Scan(&key); err != nil {
				return fmt.Errorf("failed to scan priority row: %w", err)
			}
			priority = append(priority, key)
		}
		if err := prows.Err(); err != nil {
			return fmt.Errorf("error iterating priority rows: %w", err)
		}
	}

	r.mu.Lock()
	for k, v := range loaded {
		r.aliases[k] = v
	}
	if len(priority) > 0 {
		r.sharpPriority = priority
	}
	r.mu.Unlock()

	return nil
}
