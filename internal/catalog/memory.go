package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/retail-query-kernel/internal/textnorm"
)

// MemoryStore is an in-memory catalog keyed by normalized name and synonym.
// It backs tests and small deployments, and serves as the entry resolver
// behind the bleve candidate index.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]Entry
	byName    map[string]string   // normalized name -> product ID
	bySynonym map[string][]string // normalized synonym -> product IDs
	logger    *zap.Logger
}

// NewMemoryStore creates an empty in-memory catalog.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		byID:      make(map[string]Entry),
		byName:    make(map[string]string),
		bySynonym: make(map[string][]string),
		logger:    logger.Named("catalog"),
	}
}

// Put adds or replaces an entry. Name and synonyms are indexed by their
// normalized forms.
func (s *MemoryStore) Put(entry Entry) error {
	if entry.ID == "" {
		return fmt.Errorf("catalog entry missing id")
	}
	if entry.Name == "" {
		return fmt.Errorf("catalog entry %s missing name", entry.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byID[entry.ID]; ok {
		s.unindexLocked(old)
	}

	stored := clone(entry)
	s.byID[entry.ID] = stored
	s.byName[textnorm.Normalize(stored.Name)] = stored.ID
	for _, syn := range stored.Synonyms {
		key := textnorm.Normalize(syn)
		if key == "" {
			continue
		}
		s.bySynonym[key] = append(s.bySynonym[key], stored.ID)
	}

	s.logger.Debug("catalog entry stored",
		zap.String("id", stored.ID),
		zap.String("name", stored.Name),
		zap.Int("synonyms", len(stored.Synonyms)))
	return nil
}

func (s *MemoryStore) unindexLocked(e Entry) {
	delete(s.byName, textnorm.Normalize(e.Name))
	for _, syn := range e.Synonyms {
		key := textnorm.Normalize(syn)
		ids := s.bySynonym[key]
		for i, id := range ids {
			if id == e.ID {
				s.bySynonym[key] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(s.bySynonym[key]) == 0 {
			delete(s.bySynonym, key)
		}
	}
}

// Delete removes an entry by ID.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byID[id]; ok {
		s.unindexLocked(old)
		delete(s.byID, id)
	}
}

// Get returns the entry with the given ID, or nil.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.byID[id]; ok {
		out := clone(e)
		return &out
	}
	return nil
}

// Len returns the number of entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// LookupExactName implements Lookup.
func (s *MemoryStore) LookupExactName(ctx context.Context, name string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byName[name]; ok {
		out := clone(s.byID[id])
		return &out, nil
	}
	return nil, nil
}

// LookupExactSynonym implements Lookup.
func (s *MemoryStore) LookupExactSynonym(ctx context.Context, synonym string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.bySynonym[synonym]
	if !ok {
		return nil, nil
	}
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(s.byID[id]))
	}
	// Stable output regardless of insertion order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListCandidates implements Lookup with a full scan, ordered by ID so that
// downstream scoring is deterministic.
func (s *MemoryStore) ListCandidates(ctx context.Context, normalized string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, clone(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
