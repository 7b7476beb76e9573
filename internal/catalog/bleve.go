package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"
)

// IndexConfig holds configuration for the bleve candidate index.
type IndexConfig struct {
	IndexPath string // Path to store the index on disk
	InMemory  bool   // If true, the index lives in memory only
	Fuzziness int    // Levenshtein distance for fuzzy term matching
	MaxHits   int    // Upper bound on candidates returned per query
}

// DefaultIndexConfig returns sensible defaults.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		IndexPath: "./data/catalog.bleve",
		InMemory:  false,
		Fuzziness: 2,
		MaxHits:   25,
	}
}

// Index narrows ListCandidates from a full catalog scan to a bleve full-text
// pre-filter over product names and synonyms. Exact lookups and entry
// resolution are delegated to the wrapped store, so Index satisfies the full
// Lookup contract.
type Index struct {
	store  *MemoryStore
	index  bleve.Index
	config IndexConfig
	logger *zap.Logger
	mu     sync.RWMutex
}

// indexDoc is the shape indexed per product.
type indexDoc struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// NewIndex creates a candidate index over the given store.
func NewIndex(cfg IndexConfig, store *MemoryStore, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxHits <= 0 {
		cfg.MaxHits = DefaultIndexConfig().MaxHits
	}

	ix := &Index{
		store:  store,
		config: cfg,
		logger: logger.Named("catalog_index"),
	}

	var err error
	if cfg.InMemory {
		ix.index, err = bleve.NewMemOnly(ix.createMapping())
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(cfg.IndexPath), 0755); mkErr != nil {
			return nil, fmt.Errorf("create index directory: %w", mkErr)
		}
		var idx bleve.Index
		idx, err = bleve.Open(cfg.IndexPath)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(cfg.IndexPath, ix.createMapping())
		}
		ix.index = idx
	}
	if err != nil {
		return nil, fmt.Errorf("create/open catalog index: %w", err)
	}

	logger.Info("catalog index ready",
		zap.String("path", cfg.IndexPath),
		zap.Bool("in_memory", cfg.InMemory))
	return ix, nil
}

func (ix *Index) createMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Index = true
	textField.Store = false
	textField.IncludeInAll = true
	docMapping.AddFieldMappingsAt("text", textField)

	idField := bleve.NewTextFieldMapping()
	idField.Index = true
	idField.Store = true
	idField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("id", idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("product", docMapping)
	indexMapping.DefaultAnalyzer = "standard"
	return indexMapping
}

// Add stores the entry and indexes its name and synonyms for similarity
// pre-filtering.
func (ix *Index) Add(ctx context.Context, entry Entry) error {
	if err := ix.store.Put(entry); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	text := entry.Name
	if len(entry.Synonyms) > 0 {
		text += " " + strings.Join(entry.Synonyms, " ")
	}
	if err := ix.index.Index(entry.ID, indexDoc{ID: entry.ID, Text: text}); err != nil {
		return fmt.Errorf("index catalog entry %s: %w", entry.ID, err)
	}
	return nil
}

// AddBatch indexes multiple entries in one bleve batch.
func (ix *Index) AddBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if err := ix.store.Put(e); err != nil {
			return err
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	batch := ix.index.NewBatch()
	for _, e := range entries {
		text := e.Name
		if len(e.Synonyms) > 0 {
			text += " " + strings.Join(e.Synonyms, " ")
		}
		if err := batch.Index(e.ID, indexDoc{ID: e.ID, Text: text}); err != nil {
			ix.logger.Warn("failed to add entry to batch",
				zap.String("id", e.ID), zap.Error(err))
		}
	}
	if err := ix.index.Batch(batch); err != nil {
		return fmt.Errorf("execute catalog index batch: %w", err)
	}

	ix.logger.Info("batch indexed catalog entries", zap.Int("count", len(entries)))
	return nil
}

// Remove deletes an entry from the store and the index.
func (ix *Index) Remove(ctx context.Context, id string) error {
	ix.store.Delete(id)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.index.Delete(id); err != nil {
		return fmt.Errorf("delete catalog entry %s from index: %w", id, err)
	}
	return nil
}

// Get returns the entry with the given ID, or nil.
func (ix *Index) Get(id string) *Entry {
	return ix.store.Get(id)
}

// Len returns the number of stored entries.
func (ix *Index) Len() int {
	return ix.store.Len()
}

// LookupExactName implements Lookup via the wrapped store.
func (ix *Index) LookupExactName(ctx context.Context, name string) (*Entry, error) {
	return ix.store.LookupExactName(ctx, name)
}

// LookupExactSynonym implements Lookup via the wrapped store.
func (ix *Index) LookupExactSynonym(ctx context.Context, synonym string) ([]Entry, error) {
	return ix.store.LookupExactSynonym(ctx, synonym)
}

// ListCandidates implements Lookup. Instead of scanning the whole catalog it
// runs a fuzzy match over indexed names and synonyms and resolves the hits
// back to full entries, ordered by ID for deterministic downstream scoring.
func (ix *Index) ListCandidates(ctx context.Context, normalized string) ([]Entry, error) {
	if normalized == "" {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	matchQuery := bleve.NewMatchQuery(normalized)
	matchQuery.SetField("text")
	matchQuery.SetFuzziness(ix.config.Fuzziness)

	// A disjunction with a plain (non-fuzzy) match keeps exact-term hits
	// scoring even when fuzzy expansion is disabled.
	plainQuery := bleve.NewMatchQuery(normalized)
	plainQuery.SetField("text")
	finalQuery := query.NewDisjunctionQuery([]query.Query{matchQuery, plainQuery})

	searchRequest := bleve.NewSearchRequestOptions(finalQuery, ix.config.MaxHits, 0, false)
	searchRequest.Fields = []string{"id"}

	searchResult, err := ix.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: candidate search: %v", ErrUnavailable, err)
	}

	out := make([]Entry, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		if e := ix.store.Get(hit.ID); e != nil {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	ix.logger.Debug("candidate pre-filter",
		zap.String("query", normalized),
		zap.Int("hits", len(out)))
	return out, nil
}

// Close releases index resources.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}
