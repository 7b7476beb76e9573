package nlu

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/retail-query-kernel/internal/catalog"
	"github.com/retail-query-kernel/internal/classify"
	"github.com/retail-query-kernel/internal/keywords"
)

func testCatalog(t *testing.T) *catalog.MemoryStore {
	t.Helper()
	store := catalog.NewMemoryStore(zaptest.NewLogger(t))
	entries := []catalog.Entry{
		{ID: "P-001", Name: "Whole Milk", Attributes: map[string]string{"aisle": "4"}},
		{ID: "P-002", Name: "Almond Milk"},
		{ID: "P-010", Name: "Greek Yogurt"},
		{ID: "P-011", Name: "Greek Yogurt Lite"},
		{ID: "P-020", Name: "Sourdough Bread"},
	}
	for _, e := range entries {
		require.NoError(t, store.Put(e))
	}
	return store
}

func newTestRouter(t *testing.T, cfg Config, lookup catalog.Lookup) *Router {
	t.Helper()
	r, err := Build(cfg, keywords.NewHolder(keywords.Default()), lookup, zaptest.NewLogger(t))
	require.NoError(t, err)
	return r
}

func TestRouteLocationWithAmbiguousProduct(t *testing.T) {
	r := newTestRouter(t, DefaultConfig(), testCatalog(t))

	res, err := r.Route(context.Background(), "Where is the milk?")
	require.NoError(t, err)

	assert.Equal(t, classify.IntentLocation, res.Intent)
	assert.InDelta(t, 0.5, res.IntentConfidence, 1e-9)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "P-001", res.Candidates[0].ProductID)
	assert.Equal(t, "P-002", res.Candidates[1].ProductID)
	// Two full-confidence milk products are genuinely ambiguous.
	assert.True(t, res.DisambiguationNeeded)
}

func TestRouteLocationSingleProduct(t *testing.T) {
	r := newTestRouter(t, DefaultConfig(), testCatalog(t))

	res, err := r.Route(context.Background(), "What aisle is the bread in?")
	require.NoError(t, err)

	assert.Equal(t, classify.IntentLocation, res.Intent)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "P-020", res.Candidates[0].ProductID)
	assert.False(t, res.DisambiguationNeeded)
}

func TestRouteInformationCloseVariants(t *testing.T) {
	r := newTestRouter(t, DefaultConfig(), testCatalog(t))

	res, err := r.Route(context.Background(), "How many calories in greek yogurt?")
	require.NoError(t, err)

	assert.Equal(t, classify.IntentInformation, res.Intent)
	require.GreaterOrEqual(t, len(res.Candidates), 2)
	assert.Equal(t, "P-010", res.Candidates[0].ProductID)
	assert.Equal(t, "P-011", res.Candidates[1].ProductID)
	assert.True(t, res.DisambiguationNeeded)
}

func TestRouteNegatedQuery(t *testing.T) {
	r := newTestRouter(t, DefaultConfig(), testCatalog(t))

	res, err := r.Route(context.Background(), "Don't tell me where the milk is")
	require.NoError(t, err)

	// The negation penalty pushes the location score below the confidence
	// floor; product extraction still runs.
	assert.Equal(t, classify.IntentNone, res.Intent)
	assert.Equal(t, 0.0, res.IntentConfidence)
	assert.NotEmpty(t, res.Candidates)
}

func TestRouteNoSignal(t *testing.T) {
	r := newTestRouter(t, DefaultConfig(), testCatalog(t))

	res, err := r.Route(context.Background(), "2 plus 2")
	require.NoError(t, err)

	assert.Equal(t, classify.IntentNone, res.Intent)
	assert.Empty(t, res.Candidates)
	assert.False(t, res.DisambiguationNeeded)
}

func TestDisambiguationRequiresConfidentTop(t *testing.T) {
	// Two products share a synonym, so both match at SynonymConfidence.
	store := catalog.NewMemoryStore(zaptest.NewLogger(t))
	require.NoError(t, store.Put(catalog.Entry{ID: "A-1", Name: "Cheddar Block", Synonyms: []string{"zzqcheese"}}))
	require.NoError(t, store.Put(catalog.Entry{ID: "A-2", Name: "Gouda Wheel", Synonyms: []string{"zzqcheese"}}))

	confident := DefaultConfig()
	r := newTestRouter(t, confident, store)
	res, err := r.Route(context.Background(), "zzqcheese")
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.True(t, res.DisambiguationNeeded)

	// Same tie, but below the acceptance threshold: too weak to bother the
	// shopper with a follow-up question.
	weak := DefaultConfig()
	weak.Extractor.SynonymConfidence = 0.4
	weak.Extractor.FuzzyWeight = 0.45
	weak.Extractor.TrigramWeight = 0.45
	r = newTestRouter(t, weak, store)
	res, err = r.Route(context.Background(), "zzqcheese")
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.False(t, res.DisambiguationNeeded)
}

func TestDisambiguationRequiresCloseRunnerUp(t *testing.T) {
	store := catalog.NewMemoryStore(zaptest.NewLogger(t))
	require.NoError(t, store.Put(catalog.Entry{ID: "B-1", Name: "Sourdough Bread"}))
	require.NoError(t, store.Put(catalog.Entry{ID: "B-2", Name: "Rye Crackers", Synonyms: []string{"bread"}}))

	cfg := DefaultConfig()
	cfg.Extractor.SynonymConfidence = 0.6
	cfg.Extractor.FuzzyWeight = 0.6
	cfg.Extractor.TrigramWeight = 0.6
	r := newTestRouter(t, cfg, store)

	// B-1 matches at 1.0 via its name, B-2 at 0.6 via the synonym; the gap
	// is too wide to call it ambiguous.
	res, err := r.Route(context.Background(), "bread")
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "B-1", res.Candidates[0].ProductID)
	assert.False(t, res.DisambiguationNeeded)
}

func TestRouteBatch(t *testing.T) {
	r := newTestRouter(t, DefaultConfig(), testCatalog(t))

	results, err := r.RouteBatch(context.Background(), []string{
		"where is the milk",
		"how many calories in greek yogurt",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, classify.IntentLocation, results[0].Intent)
	assert.Equal(t, classify.IntentInformation, results[1].Intent)
}

func TestExplain(t *testing.T) {
	r := newTestRouter(t, DefaultConfig(), testCatalog(t))

	exp, err := r.Explain(context.Background(), "where is the milk")
	require.NoError(t, err)

	assert.Equal(t, classify.IntentLocation, exp.Result.Intent)
	assert.Contains(t, exp.LocationTerms, "where")
	assert.Empty(t, exp.InformationTerms)
	assert.False(t, exp.Negated)
	assert.InDelta(t, 1.0, exp.LocationScore, 1e-9)
}

type brokenLookup struct{}

func (brokenLookup) LookupExactName(ctx context.Context, name string) (*catalog.Entry, error) {
	return nil, fmt.Errorf("%w: timeout", catalog.ErrUnavailable)
}

func (brokenLookup) LookupExactSynonym(ctx context.Context, synonym string) ([]catalog.Entry, error) {
	return nil, fmt.Errorf("%w: timeout", catalog.ErrUnavailable)
}

func (brokenLookup) ListCandidates(ctx context.Context, normalized string) ([]catalog.Entry, error) {
	return nil, fmt.Errorf("%w: timeout", catalog.ErrUnavailable)
}

func TestRoutePropagatesCatalogFailure(t *testing.T) {
	r := newTestRouter(t, DefaultConfig(), brokenLookup{})

	_, err := r.Route(context.Background(), "where is the milk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrUnavailable))
	assert.Equal(t, int64(1), r.GetStats().CatalogErrors)
}

func TestStatsCounters(t *testing.T) {
	r := newTestRouter(t, DefaultConfig(), testCatalog(t))

	queries := []string{
		"where is the milk",
		"how many calories in greek yogurt",
		"2 plus 2",
	}
	for _, q := range queries {
		_, err := r.Route(context.Background(), q)
		require.NoError(t, err)
	}

	stats := r.GetStats()
	assert.Equal(t, int64(3), stats.TotalQueries)
	assert.Equal(t, int64(1), stats.LocationQueries)
	assert.Equal(t, int64(1), stats.InformationQueries)
	assert.Equal(t, int64(1), stats.UnroutedQueries)
	assert.Equal(t, int64(2), stats.DisambiguationAsked)
}

func TestConfidenceBounds(t *testing.T) {
	r := newTestRouter(t, DefaultConfig(), testCatalog(t))

	for _, q := range []string{
		"where is the milk", "greek yogurt", "what aisle has gluten-free bread",
		"", "!!!", "tell me about sourdough bread ingredients",
	} {
		res, err := r.Route(context.Background(), q)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.IntentConfidence, 0.0, "query %q", q)
		assert.LessOrEqual(t, res.IntentConfidence, 1.0, "query %q", q)
		for _, c := range res.Candidates {
			assert.Greater(t, c.Confidence, 0.0, "query %q", q)
			assert.LessOrEqual(t, c.Confidence, 1.0, "query %q", q)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.AcceptanceThreshold = -0.1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.ClosenessThreshold = 2
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Classifier.MinConfidence = 7
	assert.Error(t, bad.Validate())

	_, err := New(DefaultConfig(), nil, nil, nil, nil)
	assert.Error(t, err)
}
