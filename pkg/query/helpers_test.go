package query

import (
	"context"
	"fmt"
	"sync"

	"github.com/seamdb/seam/pkg/engine"
)

// fakeEngine serves a fixed in-memory dataset and interprets the trailing
// [limit, offset] parameters the default param function produces.
type fakeEngine struct {
	rows []engine.Row

	selectErr error
	countErr  error

	mu          sync.Mutex
	selectCalls int
	countCalls  int
}

func newFakeEngine(prefix string, n int) *fakeEngine {
	rows := make([]engine.Row, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, engine.Row{"id": fmt.Sprintf("%s-r%d", prefix, i)})
	}
	return &fakeEngine{rows: rows}
}

func (f *fakeEngine) Select(ctx context.Context, query string, params []any) ([]engine.Row, error) {
	f.mu.Lock()
	f.selectCalls++
	f.mu.Unlock()
	if f.selectErr != nil {
		return nil, f.selectErr
	}

	limit, offset := len(f.rows), 0
	if len(params) >= 2 {
		limit = asInt(params[len(params)-2])
		offset = asInt(params[len(params)-1])
	}
	if offset >= len(f.rows) {
		return []engine.Row{}, nil
	}
	end := offset + limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	out := make([]engine.Row, end-offset)
	copy(out, f.rows[offset:end])
	return out, nil
}

func (f *fakeEngine) Count(ctx context.Context, query string, params []any) (int64, error) {
	f.mu.Lock()
	f.countCalls++
	f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.rows)), nil
}

func (f *fakeEngine) Close() error { return nil }

func (f *fakeEngine) calls() (selects, counts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectCalls, f.countCalls
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func rowIDs(rows []engine.Row) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r["id"].(string))
	}
	return ids
}

func fakeSource(name string, eng *fakeEngine, withCount bool) *Source {
	src := &Source{
		Name:        name,
		Engine:      eng,
		SelectQuery: "SELECT id FROM rows LIMIT ? OFFSET ?",
	}
	if withCount {
		src.CountQuery = "SELECT COUNT(*) FROM rows"
	}
	return src
}
