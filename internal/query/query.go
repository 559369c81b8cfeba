// Package query parses the list-endpoint query parameters (where, sort,
// select, skip, limit, count) and applies field projections to outgoing
// records. Structural problems here are query errors, kept distinct from
// business validation failures.
package query

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/taskhub/taskhub/internal/store"
	"github.com/taskhub/taskhub/pkg/apperr"
)

// Values is the subset of url.Values the parser needs.
type Values interface {
	Get(key string) string
}

// ListParams is the parsed form of a list request.
type ListParams struct {
	Where      map[string]any
	Sort       []store.SortField
	Projection *Projection
	Skip       int
	Limit      int
	Count      bool
}

// StoreQuery converts the params into a store query.
func (p *ListParams) StoreQuery() store.Query {
	return store.Query{Where: p.Where, Sort: p.Sort, Skip: p.Skip, Limit: p.Limit}
}

// ParseList extracts and validates every supported parameter.
func ParseList(values Values) (*ListParams, error) {
	p := &ListParams{}

	if raw := values.Get("where"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Where); err != nil {
			return nil, apperr.Query("Invalid JSON for query parameter where")
		}
	}

	if raw := values.Get("sort"); raw != "" {
		fields, err := parseSort(raw)
		if err != nil {
			return nil, err
		}
		p.Sort = fields
	}

	proj, err := ParseProjection(values.Get("select"))
	if err != nil {
		return nil, err
	}
	p.Projection = proj

	if raw := values.Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, apperr.Query("Invalid skip parameter")
		}
		p.Skip = n
	}
	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, apperr.Query("Invalid limit parameter")
		}
		p.Limit = n
	}

	p.Count = values.Get("count") == "true"
	return p, nil
}

// parseSort accepts a document of field -> direction, with 1 ascending and
// -1 descending. Fields are applied in name order since JSON objects carry
// no reliable ordering across the wire.
func parseSort(raw string) ([]store.SortField, error) {
	var doc map[string]float64
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, apperr.Query("Invalid JSON for query parameter sort")
	}
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]store.SortField, 0, len(names))
	for _, name := range names {
		fields = append(fields, store.SortField{Field: name, Desc: doc[name] < 0})
	}
	return fields, nil
}
