package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/seamdb/seam/pkg/engine"
)

// Union presents N heterogeneous sources as one logically paginated
// sequence, ordered first by priority and then by each source's natural row
// order, fetching only the rows each source must contribute.
type Union struct {
	sources       []*Source // registration order
	byName        map[string]*Source
	defaultOrder  []*Source // configured priority, falling back to registration order
	interceptors  []Interceptor
	requireTotals bool
}

// UnionOption configures a Union at construction time.
type UnionOption func(*Union)

// WithPriority sets the default priority order by source name. Sources not
// listed keep their registration order after the listed ones.
func WithPriority(names ...string) UnionOption {
	return func(u *Union) {
		u.defaultOrder = nil
		for _, name := range names {
			if src, ok := u.byName[name]; ok {
				u.defaultOrder = append(u.defaultOrder, src)
			}
		}
	}
}

// WithInterceptors adds union-wide interceptors. They wrap the select leg of
// every member source, outside that source's own interceptors.
func WithInterceptors(interceptors ...Interceptor) UnionOption {
	return func(u *Union) {
		u.interceptors = append(u.interceptors, interceptors...)
	}
}

// WithRequireTotals rejects, at registration time, sources that cannot
// report a total. Without it a source with no count query is treated as
// large enough to absorb the whole remaining budget, a degraded mode that
// can under-fill later sources and makes the aggregate total unknown.
func WithRequireTotals() UnionOption {
	return func(u *Union) {
		u.requireTotals = true
	}
}

// NewUnion registers an ordered list of sources as a union. Registration
// order is the default priority order.
func NewUnion(sources []*Source, opts ...UnionOption) (*Union, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("union has no sources")
	}

	u := &Union{
		sources: sources,
		byName:  make(map[string]*Source, len(sources)),
	}
	for _, src := range sources {
		if err := src.Validate(); err != nil {
			return nil, err
		}
		if _, dup := u.byName[src.Name]; dup {
			return nil, fmt.Errorf("duplicate source name %q", src.Name)
		}
		u.byName[src.Name] = src
	}

	for _, opt := range opts {
		opt(u)
	}
	u.defaultOrder = appendUnlisted(u.defaultOrder, u.sources)

	if u.requireTotals {
		for _, src := range sources {
			if !src.hasCount() {
				return nil, fmt.Errorf("source %q has no count query but totals are required", src.Name)
			}
		}
	}

	return u, nil
}

// Sources returns the member sources in registration order.
func (u *Union) Sources() []*Source {
	return u.sources
}

// Execute answers one union request: it counts every member, plans the
// minimal per-source fetch windows for the global limit/offset, fans the
// window fetches out concurrently, and stitches the results strictly in
// priority order. One failing member fails the whole request; partial
// unions are never returned.
func (u *Union) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	order, err := u.resolveOrder(req.Priority)
	if err != nil {
		return nil, err
	}

	// Count phase. Totals are independent of the pagination window, so every
	// countable source is consulted even when its fetch window ends up empty.
	counts := make([]*int64, len(order))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range order {
		if !src.hasCount() {
			continue
		}
		i, src := i, src
		g.Go(func() error {
			total, err := executeCount(gctx, src, req)
			if err != nil {
				return err
			}
			counts[i] = &total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, AsError(err)
	}

	windows := planWindows(counts, req.Limit, req.Offset)

	// Select phase: only sources with a nonzero window are queried for rows.
	results := make([]*Result, len(order))
	g, gctx = errgroup.WithContext(ctx)
	for i, w := range windows {
		if w.limit == 0 {
			continue
		}
		i, w := i, w
		src := order[i]
		g.Go(func() error {
			res, err := executeWindow(gctx, src, req, w.limit, w.offset, u.interceptors)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, AsError(err)
	}

	// Stitch in priority order, never arrival order.
	out := &Result{Rows: []engine.Row{}}
	var grand int64
	known := true
	for i := range order {
		if results[i] != nil {
			out.Rows = append(out.Rows, results[i].Rows...)
		}
		if counts[i] != nil {
			grand += *counts[i]
		} else {
			known = false
		}
	}
	if known {
		out.Total = &grand
	}
	return out, nil
}

// resolveOrder applies a request-time priority override: listed sources come
// first in the caller's order, unlisted ones follow in registration order. A
// name that matches no registered source is a client-input error, not a
// silent no-op.
func (u *Union) resolveOrder(override []string) ([]*Source, error) {
	if len(override) == 0 {
		return u.defaultOrder, nil
	}

	order := make([]*Source, 0, len(u.sources))
	seen := make(map[string]bool, len(override))
	for _, name := range override {
		src, ok := u.byName[name]
		if !ok {
			return nil, &Error{
				Kind:    KindUnknownPrioritySource,
				Message: fmt.Sprintf("unknown source %q in priority override", name),
			}
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		order = append(order, src)
	}
	return appendUnlisted(order, u.sources), nil
}

// appendUnlisted appends, in registration order, every source not already in
// the list.
func appendUnlisted(order []*Source, all []*Source) []*Source {
	listed := make(map[string]bool, len(order))
	for _, src := range order {
		listed[src.Name] = true
	}
	for _, src := range all {
		if !listed[src.Name] {
			order = append(order, src)
		}
	}
	return order
}

// window is one source's fetch window for one request, derived fresh from
// the global limit/offset and never persisted.
type window struct {
	limit  int
	offset int
}

// planWindows computes the minimal per-source fetch windows for a global
// window over sources in priority order. counts[i] is source i's total row
// count, nil when unknown; an unknown source is treated as large enough to
// absorb all remaining budget. The sum of returned limits never exceeds
// limit. The bookkeeping stays in int64 so a count beyond 2^31 never
// truncates, whatever the platform's int size.
func planWindows(counts []*int64, limit, offset int) []window {
	windows := make([]window, len(counts))
	cursor := int64(0) // rows logically consumed by higher-priority sources
	remaining := int64(limit)

	for i, c := range counts {
		if remaining == 0 {
			break
		}

		if c == nil {
			eff := int64(offset) - cursor
			if eff < 0 {
				eff = 0
			}
			windows[i] = window{limit: int(remaining), offset: int(eff)}
			remaining = 0
			break
		}

		total := *c
		if cursor+total <= int64(offset) {
			// Entirely skipped by the global offset.
			cursor += total
			continue
		}

		eff := int64(offset) - cursor
		if eff < 0 {
			eff = 0
		}
		available := total - eff
		n := remaining
		if available < n {
			n = available
		}
		// eff and n both fit in int: eff <= offset and n <= limit.
		windows[i] = window{limit: int(n), offset: int(eff)}
		remaining -= n
		cursor += eff + n
	}

	return windows
}
