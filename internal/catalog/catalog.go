// Package catalog defines the read contract the query router needs from the
// product catalog, plus the concrete stores that satisfy it.
package catalog

import (
	"context"
	"errors"
)

// Entry is one catalog product as seen by the router. The router only reads
// ID, Name and Synonyms; Attributes (brand, category, aisle location, ...)
// are opaque and passed through unchanged on a match.
type Entry struct {
	ID         string            `json:"id" yaml:"id"`
	Name       string            `json:"name" yaml:"name"`
	Synonyms   []string          `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// ErrUnavailable signals that the catalog could not be queried at all,
// as opposed to a query that matched nothing. Callers must be able to tell
// the two apart, so store implementations wrap backend failures with it.
var ErrUnavailable = errors.New("catalog unavailable")

// Lookup is the read interface the extractor depends on.
// Implementations must be safe for concurrent use. All name/synonym inputs
// are already normalized (see textnorm.Normalize).
type Lookup interface {
	// LookupExactName returns the entry whose normalized canonical name
	// equals name, or nil when no entry matches.
	LookupExactName(ctx context.Context, name string) (*Entry, error)

	// LookupExactSynonym returns every entry carrying the synonym.
	// Synonyms are not unique across products; an empty slice means no match.
	LookupExactSynonym(ctx context.Context, synonym string) ([]Entry, error)

	// ListCandidates returns entries worth scoring for similarity against the
	// normalized query text. Implementations may return the full catalog or a
	// pre-filtered subset; callers must not assume any size or ordering.
	ListCandidates(ctx context.Context, normalized string) ([]Entry, error)
}

// clone returns a deep copy so store internals never alias caller state.
func clone(e Entry) Entry {
	out := Entry{ID: e.ID, Name: e.Name}
	if len(e.Synonyms) > 0 {
		out.Synonyms = append([]string(nil), e.Synonyms...)
	}
	if len(e.Attributes) > 0 {
		out.Attributes = make(map[string]string, len(e.Attributes))
		for k, v := range e.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}
