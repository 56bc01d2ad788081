package identity

import "github.com/guttosm/tradejournal/internal/domain/models"

// Guard tracks the fingerprints seen in one batch.
// It is not safe for concurrent use.
type Guard struct {
	seen map[string]string
}

// NewGuard returns an empty guard.
func NewGuard() *Guard {
	return &Guard{seen: make(map[string]string)}
}

// Check registers t and reports whether it was already seen.
//
// Behavior:
//   - first time an ID is seen: duplicate=false, err=nil.
//   - same ID and same fingerprint: duplicate=true (idempotent re-derivation).
//   - same ID, different fingerprint: *CollisionError; the first trade is kept.
func (g *Guard) Check(t models.Trade) (duplicate bool, err error) {
	fp, ok := g.seen[t.ID]
	if !ok {
		g.seen[t.ID] = t.Fingerprint
		return false, nil
	}
	if fp == t.Fingerprint {
		return true, nil
	}
	return false, &CollisionError{ID: t.ID, Existing: fp, Incoming: t.Fingerprint}
}

// Len returns the number of distinct IDs registered.
func (g *Guard) Len() int { return len(g.seen) }
