package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/rshade/youseo/internal/logging"
)

// FetchFunc loads a value from the upstream API after a cache miss.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Fetch is the read-through path used by API clients: it serves a valid
// cached value, or calls fetch and caches its result for ttlSeconds
// (UseDefaultTTL for the namespace default). Concurrent misses for the same
// namespace and identifier share a single fetch. A failed cache write does
// not fail the call.
func Fetch[T any](
	ctx context.Context,
	m *Manager,
	ns Namespace,
	identifier string,
	ttlSeconds int,
	fetch FetchFunc[T],
) (T, error) {
	var zero T

	var cached T
	hit, err := m.GetInto(ctx, ns, identifier, &cached)
	switch {
	case errors.Is(err, ErrUnknownNamespace):
		return zero, err
	case err != nil:
		logging.FromContext(ctx).Debug().
			Str("component", "cache").
			Str("namespace", ns.String()).
			Err(err).
			Msg("cached payload unusable, refetching")
	case hit:
		return cached, nil
	}

	v, err, _ := m.group.Do(ns.String()+"\x00"+identifier, func() (any, error) {
		value, fetchErr := fetch(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		if ok, _ := m.SetWithTTL(ctx, ns, identifier, value, ttlSeconds); !ok && m.enabled {
			logging.FromContext(ctx).Debug().
				Str("component", "cache").
				Str("namespace", ns.String()).
				Msg("fetched value not cached")
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("fetch for %s returned %T", ns, v)
	}
	return value, nil
}
