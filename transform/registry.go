package transform

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrCycle reports a transform dependency graph containing a cycle.
	// Detected at registration time; evaluation never recurses infinitely.
	ErrCycle = errors.New("transform dependency cycle")

	// ErrUnknownTransform reports an evaluation or invalidation against a
	// handle never registered.
	ErrUnknownTransform = errors.New("unknown transform handle")

	// ErrNoResolver reports a bivariate evaluation without a reference
	// resolver.
	ErrNoResolver = errors.New("bivariate transform requires a reference resolver")
)

// IdentityHandle is the reserved handle evaluating as the identity
// transform. Channels without a calibration reference use it implicitly.
const IdentityHandle = 0

// Registry is an arena of transforms indexed by stable integer handles,
// with the dependency graph validated acyclic as it grows.
//
// Each handle also carries a generation counter. Re-registering a handle,
// or re-pointing a channel at a different handle, bumps the generation of
// the handle and of every transform that transitively depends on it;
// caches of calibrated values compare generations to decide staleness.
type Registry struct {
	mu         sync.RWMutex
	transforms map[int]Transform
	edges      map[int][]int // handle -> handles it depends on
	gens       map[int]uint64
}

// NewRegistry creates an empty registry. Handle 0 is reserved for the
// identity transform and is always registered.
func NewRegistry() *Registry {
	return &Registry{
		transforms: map[int]Transform{IdentityHandle: Identity{}},
		edges:      make(map[int][]int),
		gens:       make(map[int]uint64),
	}
}

// Register adds or replaces the transform at the given handle.
//
// The transform's dependencies are merged into the graph and the whole
// graph is re-validated: a cycle (including a transform that references
// itself) fails registration with ErrCycle and leaves the registry
// unchanged. Replacing an existing handle invalidates it and all its
// dependents.
func (r *Registry) Register(handle int, tr Transform) error {
	if handle == IdentityHandle {
		return fmt.Errorf("handle %d is reserved for the identity transform", IdentityHandle)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	deps := tr.dependsOn()
	if path := r.findCycle(handle, deps); path != nil {
		return fmt.Errorf("%w: %v", ErrCycle, path)
	}

	_, replacing := r.transforms[handle]
	r.transforms[handle] = tr
	r.edges[handle] = slices.Clone(deps)

	if replacing {
		r.invalidateLocked(handle)
	}

	return nil
}

// findCycle walks the dependency graph as it would look with handle's
// edges replaced by deps, returning a handle path that closes a cycle
// through handle, or nil.
func (r *Registry) findCycle(handle int, deps []int) []int {
	edgesOf := func(h int) []int {
		if h == handle {
			return deps
		}

		return r.edges[h]
	}

	var path []int
	var visit func(h int) bool
	visit = func(h int) bool {
		path = append(path, h)
		for _, next := range edgesOf(h) {
			if next == handle {
				path = append(path, next)
				return true
			}
			if visit(next) {
				return true
			}
		}
		path = path[:len(path)-1]

		return false
	}

	if visit(handle) {
		return path
	}

	return nil
}

// Get returns the transform registered at handle.
func (r *Registry) Get(handle int) (Transform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tr, ok := r.transforms[handle]

	return tr, ok
}

// Handles returns the registered handles in ascending order, the identity
// handle excluded.
func (r *Registry) Handles() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]int, 0, len(r.transforms)-1)
	for h := range r.transforms {
		if h != IdentityHandle {
			handles = append(handles, h)
		}
	}
	slices.Sort(handles)

	return handles
}

// Eval calibrates one raw value through the transform at handle.
func (r *Registry) Eval(handle int, x float64, t int64, res Resolver) (float64, error) {
	tr, ok := r.Get(handle)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownTransform, handle)
	}

	return tr.Eval(r, x, t, res)
}

// Generation returns the invalidation generation of handle. Callers that
// cache calibrated values record the generation at compute time and
// discard the cache when it moves.
func (r *Registry) Generation(handle int) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.gens[handle]
}

// Invalidate bumps the generation of handle and of every registered
// transform that transitively depends on it.
func (r *Registry) Invalidate(handle int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidateLocked(handle)
}

func (r *Registry) invalidateLocked(handle int) {
	stale := map[int]bool{handle: true}

	// Propagate along reverse edges until the stale set stops growing.
	for {
		grew := false
		for h, deps := range r.edges {
			if stale[h] {
				continue
			}
			for _, d := range deps {
				if stale[d] {
					stale[h] = true
					grew = true
					break
				}
			}
		}
		if !grew {
			break
		}
	}

	for h := range stale {
		r.gens[h]++
	}
}
