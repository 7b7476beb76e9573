package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/retail-query-kernel/internal/catalog"
)

func seedStore(t *testing.T, entries ...catalog.Entry) *catalog.MemoryStore {
	t.Helper()
	store := catalog.NewMemoryStore(zaptest.NewLogger(t))
	for _, e := range entries {
		require.NoError(t, store.Put(e))
	}
	return store
}

func newTestExtractor(t *testing.T, cfg Config, lookup catalog.Lookup) *Extractor {
	t.Helper()
	e, err := New(cfg, lookup, zaptest.NewLogger(t))
	require.NoError(t, err)
	return e
}

func TestExtractExactName(t *testing.T) {
	store := seedStore(t,
		catalog.Entry{ID: "P-001", Name: "Whole Milk"},
		catalog.Entry{ID: "P-020", Name: "Sourdough Bread"},
	)
	e := newTestExtractor(t, DefaultConfig(), store)

	got, err := e.Extract(context.Background(), "whole milk please")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "P-001", got[0].ProductID)
	assert.Equal(t, StrategyExactName, got[0].Strategy)
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestExtractPartialNameCounts(t *testing.T) {
	store := seedStore(t, catalog.Entry{ID: "P-001", Name: "Whole Milk"})
	e := newTestExtractor(t, DefaultConfig(), store)

	// "milk" covers half the words of "whole milk", enough for an exact hit
	// even though the query never spells the full name.
	got, err := e.Extract(context.Background(), "where is the milk")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P-001", got[0].ProductID)
	assert.Equal(t, StrategyExactName, got[0].Strategy)
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestExtractStopwordFragmentDoesNotMatch(t *testing.T) {
	store := seedStore(t, catalog.Entry{ID: "P-030", Name: "The Good Crisp"})
	e := newTestExtractor(t, DefaultConfig(), store)

	// "the" appears inside the name but covers only a third of its words.
	got, err := e.Extract(context.Background(), "the weather is nice")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractExactSynonym(t *testing.T) {
	store := seedStore(t, catalog.Entry{
		ID:       "P-004",
		Name:     "Sparkling Water",
		Synonyms: []string{"fizzy pop"},
	})
	e := newTestExtractor(t, DefaultConfig(), store)

	got, err := e.Extract(context.Background(), "do you have fizzy pop")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P-004", got[0].ProductID)
	assert.Equal(t, StrategyExactSynonym, got[0].Strategy)
	assert.Equal(t, 0.9, got[0].Confidence)
}

func TestExtractFuzzyTypo(t *testing.T) {
	store := seedStore(t, catalog.Entry{ID: "P-005", Name: "Bananas"})
	e := newTestExtractor(t, DefaultConfig(), store)

	got, err := e.Extract(context.Background(), "banannas")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P-005", got[0].ProductID)
	assert.Equal(t, StrategyFuzzy, got[0].Strategy)
	// similarity 0.875 scaled by the 0.8 fuzzy weight
	assert.InDelta(t, 0.7, got[0].Confidence, 1e-9)
}

func TestExtractTrigramWordOrder(t *testing.T) {
	store := seedStore(t, catalog.Entry{ID: "P-006", Name: "Peanut Butter"})
	cfg := DefaultConfig()
	// Disable the partial-name rule so the swapped word order can only be
	// recovered by shingle overlap.
	cfg.PartialNameCoverage = 0.95
	e := newTestExtractor(t, cfg, store)

	got, err := e.Extract(context.Background(), "butter peanut")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P-006", got[0].ProductID)
	assert.Equal(t, StrategyTrigram, got[0].Strategy)
	assert.Less(t, got[0].Confidence, 0.5)
}

func TestExtractDedupKeepsHighestConfidence(t *testing.T) {
	store := seedStore(t, catalog.Entry{
		ID:       "P-007",
		Name:     "Oat Milk",
		Synonyms: []string{"oat milk"},
	})
	e := newTestExtractor(t, DefaultConfig(), store)

	// The same phrase matches both the name (1.0) and the synonym (0.9);
	// only one candidate survives and it is the stronger one.
	got, err := e.Extract(context.Background(), "oat milk")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StrategyExactName, got[0].Strategy)
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestExtractOrderingAndTopN(t *testing.T) {
	store := seedStore(t,
		catalog.Entry{ID: "P-001", Name: "Whole Milk"},
		catalog.Entry{ID: "P-002", Name: "Almond Milk"},
		catalog.Entry{ID: "P-003", Name: "Oat Milk"},
		catalog.Entry{ID: "P-004", Name: "Soy Milk"},
	)
	e := newTestExtractor(t, DefaultConfig(), store)

	got, err := e.Extract(context.Background(), "milk")
	require.NoError(t, err)
	// All four tie at 1.0; the list is capped and ordered by product ID.
	require.Len(t, got, 3)
	assert.Equal(t, "P-001", got[0].ProductID)
	assert.Equal(t, "P-002", got[1].ProductID)
	assert.Equal(t, "P-003", got[2].ProductID)
}

func TestExtractDeterministic(t *testing.T) {
	store := seedStore(t,
		catalog.Entry{ID: "P-010", Name: "Greek Yogurt"},
		catalog.Entry{ID: "P-011", Name: "Greek Yogurt Lite"},
	)
	e := newTestExtractor(t, DefaultConfig(), store)

	first, err := e.Extract(context.Background(), "greek yogurt")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := e.Extract(context.Background(), "greek yogurt")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExtractEmptyQuery(t *testing.T) {
	e := newTestExtractor(t, DefaultConfig(), seedStore(t))

	got, err := e.Extract(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

type failingLookup struct{}

func (failingLookup) LookupExactName(ctx context.Context, name string) (*catalog.Entry, error) {
	return nil, nil
}

func (failingLookup) LookupExactSynonym(ctx context.Context, synonym string) ([]catalog.Entry, error) {
	return nil, nil
}

func (failingLookup) ListCandidates(ctx context.Context, normalized string) ([]catalog.Entry, error) {
	return nil, fmt.Errorf("%w: connection refused", catalog.ErrUnavailable)
}

func TestExtractPropagatesCatalogFailure(t *testing.T) {
	e := newTestExtractor(t, DefaultConfig(), failingLookup{})

	_, err := e.Extract(context.Background(), "whole milk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrUnavailable))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.FuzzyThreshold = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.TopN = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MaxPhraseWords = -1
	assert.Error(t, bad.Validate())

	_, err := New(bad, failingLookup{}, nil)
	assert.Error(t, err)

	_, err = New(DefaultConfig(), nil, nil)
	assert.Error(t, err)
}
