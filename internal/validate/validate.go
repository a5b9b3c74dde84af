// Package validate checks object-type identifiers against the set of
// types a space actually defines, caching the set per space for the
// lifetime of the process.
package validate

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"anybridge/internal/anytype"
	"anybridge/pkg/apierr"
	"anybridge/pkg/logging"
)

// globalKey is the cache key used when no space id is supplied.
const globalKey = "global"

// typesLister is the slice of the domain client the validator needs.
type typesLister interface {
	ListTypes(ctx context.Context, spaceID string, limit, offset int, token string) (anytype.TypeList, error)
}

// TypeValidator caches, per space, the set of valid type ids. Entries
// never expire and are never invalidated by upstream mutation; a type
// added upstream is invisible until process restart. That staleness is
// intentional and documented, not a gap to fix silently.
type TypeValidator struct {
	client typesLister

	mu    sync.Mutex
	cache map[string]map[string]struct{}
	group singleflight.Group
}

// NewTypeValidator creates a validator backed by the given client.
func NewTypeValidator(client typesLister) *TypeValidator {
	return &TypeValidator{
		client: client,
		cache:  make(map[string]map[string]struct{}),
	}
}

// Validate checks the given type ids against the space's type set and
// returns them unchanged when all are known. A nil or empty input
// short-circuits to nil without an upstream call; validation is opt-in
// per call site. Two tolerance cases pass the input through unvalidated:
// an upstream "type not found" failure and a space reporting zero types
// (the space may not have finished initializing, and caching an empty
// set would permanently reject everything).
func (v *TypeValidator) Validate(ctx context.Context, types []string, spaceID, token string) ([]string, error) {
	if len(types) == 0 {
		return nil, nil
	}

	key := spaceID
	if key == "" {
		key = globalKey
	}

	known, ok := v.lookup(key)
	if !ok {
		// Concurrent misses for the same space collapse into one fetch.
		// The cache is re-checked inside the flight so a caller arriving
		// just after a completed flight reuses its result instead of
		// fetching again.
		fetched, err, _ := v.group.Do(key, func() (any, error) {
			if set, ok := v.lookup(key); ok {
				return set, nil
			}
			set, err := v.fetch(ctx, spaceID, token)
			if err != nil {
				return nil, err
			}
			if len(set) > 0 {
				v.store(key, set)
			}
			return set, nil
		})
		if err != nil {
			if isTypeNotFound(err) {
				logging.Debug("Validator", "type listing unavailable for space %q, passing through", key)
				return types, nil
			}
			return nil, err
		}
		set := fetched.(map[string]struct{})
		if len(set) == 0 {
			logging.Debug("Validator", "space %q reports no types, passing through", key)
			return types, nil
		}
		known = set
	}

	var invalid []string
	for _, t := range types {
		if _, ok := known[t]; !ok {
			invalid = append(invalid, t)
		}
	}
	if len(invalid) > 0 {
		valid := make([]string, 0, len(known))
		for id := range known {
			valid = append(valid, id)
		}
		sort.Strings(valid)
		return nil, &apierr.InvalidTypesError{Invalid: invalid, Valid: valid}
	}
	return types, nil
}

func (v *TypeValidator) lookup(key string) (map[string]struct{}, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	set, ok := v.cache[key]
	return set, ok
}

func (v *TypeValidator) store(key string, set map[string]struct{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache[key] = set
}

func (v *TypeValidator) fetch(ctx context.Context, spaceID, token string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	offset := 0
	for {
		list, err := v.client.ListTypes(ctx, spaceID, anytype.MaxPageSize, offset, token)
		if err != nil {
			return nil, err
		}
		for _, t := range list.Types {
			set[t.ID] = struct{}{}
			if t.Key != "" {
				set[t.Key] = struct{}{}
			}
		}
		if !list.Pagination.HasMore || len(list.Types) == 0 {
			return set, nil
		}
		offset += len(list.Types)
	}
}

// isTypeNotFound matches the upstream failure reported for spaces that
// do not support type listing yet.
func isTypeNotFound(err error) bool {
	var upstream *apierr.UpstreamError
	if errors.As(err, &upstream) {
		return strings.Contains(strings.ToLower(upstream.Message), "type not found")
	}
	return false
}
