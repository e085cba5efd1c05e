// internal/search/resolver.go
//
// Sub-agency choice resolution.
//
// Context
// -------
// The sub-agency select depends on the parent agency: its choices are the
// distinct federal agencies that publish programs under the chosen prefix.
// Resolution is the first half of a two-step protocol.  Resolve queries the
// repository and returns a plain value; the validator then builds its field
// descriptions from that value.  The resolver caches nothing; operators who
// want memoization wrap the source in a CachedSource.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yanizio/distiller/internal/agency"
	"github.com/yanizio/distiller/internal/form"
	"github.com/yanizio/distiller/internal/metrics"
)

// ErrSearchUnavailable marks failures of the listing store.  Handlers map it
// to a generic "search unavailable" response.
var ErrSearchUnavailable = errors.New("search unavailable")

// SubAgencySource is the one query the resolver needs.  *listing.Repository
// satisfies it.
type SubAgencySource interface {
	DistinctSubAgencies(ctx context.Context, prefix string) ([]string, error)
}

// SubAgencyChoices is the resolved choice set for one agency prefix.
type SubAgencyChoices struct {
	Prefix   string        // prefix actually queried
	Choices  []form.Choice // "all" sentinel first
	Disabled bool          // nothing to choose among
}

// Resolver computes sub-agency choices.
type Resolver struct {
	catalog agency.Catalog
	source  SubAgencySource
}

// NewResolver returns a Resolver reading from source.
func NewResolver(catalog agency.Catalog, source SubAgencySource) *Resolver {
	return &Resolver{catalog: catalog, source: source}
}

// Resolve returns the choices for agencyPrefix.  An empty prefix means no
// agency was chosen and falls back to the catalog's default entry.
func (r *Resolver) Resolve(ctx context.Context, agencyPrefix string) (SubAgencyChoices, error) {
	if agencyPrefix == "" {
		agencyPrefix = r.catalog.Default().Prefix
	}

	metrics.SubAgencyLookups.Inc()
	start := time.Now()
	subs, err := r.source.DistinctSubAgencies(ctx, agencyPrefix)
	metrics.SubAgencyLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubAgencyLookupErrors.Inc()
		return SubAgencyChoices{}, fmt.Errorf("%w: %w", ErrSearchUnavailable, err)
	}

	choices := make([]form.Choice, 0, len(subs)+1)
	choices = append(choices, form.Choice{}) // all sub-agencies under this prefix
	seen := make(map[string]struct{}, len(subs))
	for _, s := range subs {
		if _, dup := seen[s]; dup || s == "" {
			continue
		}
		seen[s] = struct{}{}
		choices = append(choices, form.Choice{Value: s, Label: s})
	}

	return SubAgencyChoices{
		Prefix:   agencyPrefix,
		Choices:  choices,
		Disabled: len(choices) == 1,
	}, nil
}
