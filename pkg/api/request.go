package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/seamdb/seam/pkg/httputil"
	"github.com/seamdb/seam/pkg/query"
)

// Reserved request fields. Everything else is an opaque filter handed to the
// source's query and parameter functions.
const (
	fieldLimit   = "limit"
	fieldOffset  = "offset"
	fieldSources = "sources"
)

// decodeRequest builds a query.Request from the wire. Query-string
// parameters apply to both methods; a POST body overrides them field by
// field. limit, offset and sources are reserved; all remaining fields become
// filters.
func decodeRequest(r *http.Request, defaultLimit int) (query.Request, error) {
	req := query.Request{Limit: defaultLimit}
	filters := make(map[string]any)

	for key, vals := range r.URL.Query() {
		switch key {
		case fieldLimit:
			n, err := strconv.Atoi(vals[0])
			if err != nil {
				return req, fmt.Errorf("invalid integer for query param %s: %s", key, vals[0])
			}
			req.Limit = n
		case fieldOffset:
			n, err := strconv.Atoi(vals[0])
			if err != nil {
				return req, fmt.Errorf("invalid integer for query param %s: %s", key, vals[0])
			}
			req.Offset = n
		case fieldSources:
			req.Priority = splitSources(vals[0])
		default:
			if len(vals) == 1 {
				filters[key] = vals[0]
			} else {
				filters[key] = vals
			}
		}
	}

	if r.Method == http.MethodPost && r.ContentLength != 0 {
		var body map[string]any
		if err := httputil.ParseJSON(r, &body); err != nil {
			return req, err
		}
		for key, val := range body {
			switch key {
			case fieldLimit:
				n, err := intFromJSON(key, val)
				if err != nil {
					return req, err
				}
				req.Limit = n
			case fieldOffset:
				n, err := intFromJSON(key, val)
				if err != nil {
					return req, err
				}
				req.Offset = n
			case fieldSources:
				names, err := sourcesFromJSON(val)
				if err != nil {
					return req, err
				}
				req.Priority = names
			default:
				filters[key] = val
			}
		}
	}

	req.Filters = filters
	return req, nil
}

// splitSources parses the comma-separated priority override, dropping empty
// segments.
func splitSources(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// intFromJSON accepts the integer encodings a JSON body can carry.
func intFromJSON(key string, val any) (int, error) {
	switch v := val.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}

// sourcesFromJSON accepts the priority override as a JSON array of names or
// a comma-separated string.
func sourcesFromJSON(val any) ([]string, error) {
	switch v := val.(type) {
	case string:
		return splitSources(v), nil
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("sources must be a list of source names")
			}
			names = append(names, name)
		}
		return names, nil
	default:
		return nil, fmt.Errorf("sources must be a list of source names")
	}
}
