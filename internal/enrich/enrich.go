// Package enrich resolves foreign references on a list of parent records.
//
// Each parent names at most one foreign key. Lookups run concurrently under
// a bound and fail independently: a failed lookup is reported in that
// parent's Result and never fails the batch. Results come back in parent
// order regardless of completion order.
package enrich

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit bounds concurrent lookups when Options.Limit is not set.
const DefaultLimit = 8

// Options tunes a Resolve call.
type Options struct {
	// Limit is the maximum number of lookups in flight.
	Limit int
	// Dedup issues one lookup per distinct key and shares its outcome
	// between every parent referencing that key.
	Dedup bool
}

// Result is the outcome of resolving one parent's reference.
type Result[F any] struct {
	Value F
	Err   error
	// Skipped is set when the parent carried no reference.
	Skipped bool
}

// OK reports whether the reference was looked up successfully.
func (r Result[F]) OK() bool { return !r.Skipped && r.Err == nil }

// Resolve looks up the reference of every parent. ref returns the parent's
// key and false when there is nothing to resolve.
//
// The returned error is non-nil only when ctx ends before all lookups have
// settled; partial results are discarded in that case.
func Resolve[P any, K comparable, F any](
	ctx context.Context,
	parents []P,
	ref func(P) (K, bool),
	fetch func(context.Context, K) (F, error),
	opts Options,
) ([]Result[F], error) {
	results := make([]Result[F], len(parents))

	type lookup struct {
		key   K
		slots []int
	}
	var lookups []*lookup
	byKey := make(map[K]*lookup)

	for i, p := range parents {
		key, ok := ref(p)
		if !ok {
			results[i].Skipped = true
			continue
		}
		if opts.Dedup {
			if l, seen := byKey[key]; seen {
				l.slots = append(l.slots, i)
				continue
			}
		}
		l := &lookup{key: key, slots: []int{i}}
		lookups = append(lookups, l)
		if opts.Dedup {
			byKey[key] = l
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, l := range lookups {
		l := l
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := fetch(gctx, l.key)
			for _, i := range l.slots {
				results[i] = Result[F]{Value: v, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
