// Package resolve maps human-friendly organization and competition keys to
// upstream numeric IDs, deduplicating concurrent lookups through the
// single-flight cache so repeated UI calls amortize to one upstream fetch
// per organization.
package resolve

import (
	"context"
	"errors"
	"strings"

	"github.com/matchday-hq/matchday/internal/cache"
	"github.com/matchday-hq/matchday/internal/metrics"
	"github.com/matchday-hq/matchday/internal/upstream"
)

// ErrNotFound is returned when the organization's competition list does not
// contain the requested key. Shape failures upstream surface as not-found
// too: UI-facing code always gets "no data", never a crash.
var ErrNotFound = errors.New("competition not found")

// CompetitionResolver resolves (orgKey, compKey) pairs to competition IDs.
type CompetitionResolver struct {
	cache   *cache.Keyed[[]upstream.Competition]
	metrics *metrics.Metrics
}

// NewCompetitionResolver creates a resolver backed by the upstream client.
// metrics may be nil.
func NewCompetitionResolver(client upstream.Client, m *metrics.Metrics) *CompetitionResolver {
	return &CompetitionResolver{
		cache: cache.NewKeyed(func(ctx context.Context, orgKey string) ([]upstream.Competition, error) {
			return client.CompetitionsByOrg(ctx, orgKey)
		}),
		metrics: m,
	}
}

// ResolveCompetitionID returns the upstream ID of the competition identified
// by compKey within orgKey. The per-organization competition list is fetched
// once and cached for the process lifetime; concurrent calls for the same
// organization share one upstream request. Resolution failures propagate to
// the caller; a fetched list that simply lacks the key is ErrNotFound.
func (r *CompetitionResolver) ResolveCompetitionID(ctx context.Context, orgKey, compKey string) (int, error) {
	if r.metrics != nil {
		if _, cached := r.cache.Peek(orgKey); cached {
			r.metrics.ResolveCacheHits.Inc()
		} else {
			r.metrics.ResolveCacheMisses.Inc()
		}
	}

	comps, err := r.cache.Resolve(ctx, orgKey)
	if err != nil {
		if errors.Is(err, upstream.ErrBadShape) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	for _, comp := range comps {
		if strings.EqualFold(comp.Key, compKey) {
			return comp.ID, nil
		}
	}
	return 0, ErrNotFound
}

// Invalidate clears the cached competition lists; the next resolution for
// any organization refetches.
func (r *CompetitionResolver) Invalidate() {
	r.cache.Invalidate()
}
