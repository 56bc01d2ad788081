package matching

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

// Group splits fills into independent (account, contract) groups. Keys are
// returned in a stable order.
func Group(fills []models.NormalizedFill) ([]models.GroupKey, map[models.GroupKey][]models.NormalizedFill) {
	groups := make(map[models.GroupKey][]models.NormalizedFill)
	for _, f := range fills {
		k := f.Key()
		groups[k] = append(groups[k], f)
	}

	keys := make([]models.GroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].AccountNumber != keys[j].AccountNumber {
			return keys[i].AccountNumber < keys[j].AccountNumber
		}
		return keys[i].Contract < keys[j].Contract
	})
	return keys, groups
}

// Match groups fills and matches every group sequentially.
func Match(fills []models.NormalizedFill) Result {
	out, _ := MatchParallel(context.Background(), fills, 1)
	return out
}

// MatchParallel matches each group on its own goroutine, at most parallel at a
// time (parallel <= 0 means unbounded). Results are merged in group key order so
// the output does not depend on scheduling. The only error is ctx's.
func MatchParallel(ctx context.Context, fills []models.NormalizedFill, parallel int) (Result, error) {
	keys, groups := Group(fills)
	results := make([]Result, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, k := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = MatchGroup(groups[k])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var out Result
	for _, r := range results {
		out.Trades = append(out.Trades, r.Trades...)
		out.Unmatched = append(out.Unmatched, r.Unmatched...)
		out.Flips += r.Flips
	}
	return out, nil
}
