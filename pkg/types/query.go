package types

import (
	"fmt"
	"strings"
)

// FilterKey identifies a metadata field a search can filter on. The set is
// closed so that typos fail at query construction instead of silently
// matching nothing.
type FilterKey string

const (
	FilterDocumentID  FilterKey = "document_id"
	FilterRevision    FilterKey = "revision"
	FilterSection     FilterKey = "section"
	FilterContentType FilterKey = "content_type"
)

// Filters holds the metadata constraints for a search. Zero values mean
// "no constraint"; set fields are combined with AND semantics and matched
// by exact equality. Section matches the chunk's innermost heading.
type Filters struct {
	DocumentID  string
	Revision    string
	Section     string
	ContentType ContentType
}

// IsZero reports whether no filter field is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// ParseFilters builds Filters from a loosely typed key/value map, as
// received from MCP tool arguments or HTTP request bodies. Unknown keys
// are rejected with ErrInvalidQuery rather than ignored.
func ParseFilters(raw map[string]string) (Filters, error) {
	var f Filters
	for key, value := range raw {
		switch FilterKey(key) {
		case FilterDocumentID:
			f.DocumentID = value
		case FilterRevision:
			f.Revision = value
		case FilterSection:
			f.Section = value
		case FilterContentType:
			ct := ContentType(value)
			if !ct.Valid() {
				return Filters{}, fmt.Errorf("%w: content_type filter %q is not one of text, table, figure", ErrInvalidQuery, value)
			}
			f.ContentType = ct
		default:
			return Filters{}, fmt.Errorf("%w: unknown filter key %q", ErrInvalidQuery, key)
		}
	}
	return f, nil
}

// Match reports whether the chunk satisfies every set filter field.
func (f Filters) Match(c *Chunk) bool {
	if f.DocumentID != "" && c.DocumentID != f.DocumentID {
		return false
	}
	if f.Revision != "" && c.Revision != f.Revision {
		return false
	}
	if f.Section != "" && c.Section() != f.Section {
		return false
	}
	if f.ContentType != "" && c.ContentType != f.ContentType {
		return false
	}
	return true
}

// Query is the ephemeral input to a hybrid search. The embedding is
// computed by the calling layer; the search core never talks to an
// embedding model itself.
type Query struct {
	// Text drives the keyword search and the cross-encoder rerank.
	Text string

	// Embedding drives the vector search. May be nil when no vector index
	// is usable; search then degrades to keyword-only ranking.
	Embedding []float32

	Filters Filters

	// TopK is the requested result count. Must be positive.
	TopK int

	// RerankK bounds how many top fused candidates are sent to the
	// reranker. Zero means the service default.
	RerankK int
}

// Validate checks the query input. Failures carry ErrInvalidQuery.
func (q *Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: query text is empty", ErrInvalidQuery)
	}
	if q.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidQuery, q.TopK)
	}
	if q.RerankK < 0 {
		return fmt.Errorf("%w: rerank_k cannot be negative, got %d", ErrInvalidQuery, q.RerankK)
	}
	return nil
}
