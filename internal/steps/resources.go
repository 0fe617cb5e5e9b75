package steps

import (
	"context"
	"fmt"

	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

// defaultMaxResources caps how many resources a session collects.
const defaultMaxResources = 6

// ResourceFinder retrieves supporting material for the topic. Zero results
// are a valid outcome; the step only fails when the retriever itself
// errors. Without a retriever it produces an empty set.
type ResourceFinder struct {
	deps       Dependencies
	maxResults int
}

func NewResourceFinder(deps Dependencies) *ResourceFinder {
	return &ResourceFinder{deps: deps, maxResults: defaultMaxResources}
}

func (r *ResourceFinder) Name() string { return StepRetrieve }

func (r *ResourceFinder) Run(ctx context.Context, state *domain.SessionState) error {
	if r.deps.Retriever == nil {
		state.Resources = domain.ResourceSet{}
		return nil
	}

	set, err := cached(ctx, r.deps, "resources", state, func(ctx context.Context) (domain.ResourceSet, error) {
		level := state.TeachingLevel()
		query := fmt.Sprintf("%s tutorial %s", state.Topic, level)
		results, err := r.deps.Retriever.Search(ctx, query, ports.SearchFilters{
			Subject:    state.Subject(),
			Level:      level,
			MaxResults: r.maxResults,
		})
		if err != nil {
			return nil, err
		}
		set := domain.ResourceSet{}
		if len(results) > 0 {
			set["articles"] = results
		}
		return set, nil
	})
	if err != nil {
		return fmt.Errorf("retrieve resources for %q: %w", state.Topic, err)
	}
	state.Resources = set
	return nil
}

// Degrade leaves an empty set so the summary reports zero resources rather
// than a missing field.
func (r *ResourceFinder) Degrade(state *domain.SessionState) {
	state.Resources = domain.ResourceSet{}
}
