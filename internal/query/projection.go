package query

import (
	"encoding/json"

	"github.com/taskhub/taskhub/pkg/apperr"
)

// Projection is a mongo-style select document: either a set of fields to
// include or a set to exclude. The identifier is returned unless
// explicitly excluded.
type Projection struct {
	fields     map[string]bool
	excludeID  bool
	includeSet bool
}

// ParseProjection parses the raw select parameter. An empty string yields
// a nil projection, meaning the full record.
func ParseProjection(raw string) (*Projection, error) {
	if raw == "" {
		return nil, nil
	}
	var doc map[string]float64
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, apperr.Query("Invalid JSON for query parameter select")
	}

	p := &Projection{fields: make(map[string]bool, len(doc))}
	for name, v := range doc {
		included := v != 0
		if name == "_id" {
			p.excludeID = !included
			continue
		}
		if included {
			p.includeSet = true
		}
		p.fields[name] = included
	}
	return p, nil
}

// Apply serializes record to a JSON object and strips fields per the
// projection. A nil projection returns the full document.
func (p *Projection) Apply(record any) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if p == nil {
		return doc, nil
	}

	out := make(map[string]any, len(doc))
	for name, v := range doc {
		if name == "_id" {
			if !p.excludeID {
				out[name] = v
			}
			continue
		}
		included, listed := p.fields[name]
		if p.includeSet {
			if listed && included {
				out[name] = v
			}
			continue
		}
		if listed && !included {
			continue
		}
		out[name] = v
	}
	return out, nil
}

// ApplyAll projects a slice of records.
func (p *Projection) ApplyAll(records []any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		doc, err := p.Apply(r)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}
