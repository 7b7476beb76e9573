// Package nlu composes the intent classifier and product extractor into a
// single routing decision for a raw voice-assistant query.
package nlu

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/retail-query-kernel/internal/catalog"
	"github.com/retail-query-kernel/internal/classify"
	"github.com/retail-query-kernel/internal/extract"
	"github.com/retail-query-kernel/internal/keywords"
	"github.com/retail-query-kernel/internal/textnorm"
)

// Config bundles the tuning of both stages plus the disambiguation rule.
type Config struct {
	Classifier classify.Config
	Extractor  extract.Config
	// AcceptanceThreshold is the minimum top-candidate confidence before
	// a close runner-up is worth asking the shopper about.
	AcceptanceThreshold float64
	// ClosenessThreshold is the maximum gap between the top two candidate
	// confidences for the result to count as ambiguous.
	ClosenessThreshold float64
}

// DefaultConfig returns the tuned routing defaults.
func DefaultConfig() Config {
	return Config{
		Classifier:          classify.DefaultConfig(),
		Extractor:           extract.DefaultConfig(),
		AcceptanceThreshold: 0.5,
		ClosenessThreshold:  0.15,
	}
}

// Validate rejects out-of-range thresholds before any query is routed.
func (c Config) Validate() error {
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	if err := c.Extractor.Validate(); err != nil {
		return err
	}
	if c.AcceptanceThreshold < 0 || c.AcceptanceThreshold > 1 {
		return fmt.Errorf("acceptance threshold %v outside [0,1]", c.AcceptanceThreshold)
	}
	if c.ClosenessThreshold < 0 || c.ClosenessThreshold > 1 {
		return fmt.Errorf("closeness threshold %v outside [0,1]", c.ClosenessThreshold)
	}
	return nil
}

// Result is the full routing decision for one query.
type Result struct {
	Query                string              `json:"query"`
	NormalizedQuery      string              `json:"normalized_query"`
	Intent               classify.Intent     `json:"intent"`
	IntentConfidence     float64             `json:"intent_confidence"`
	Candidates           []extract.Candidate `json:"candidates"`
	DisambiguationNeeded bool                `json:"disambiguation_needed"`
}

// Explanation breaks a routing decision down into the signals behind it,
// for debugging vocabulary and threshold tuning.
type Explanation struct {
	Result           Result   `json:"result"`
	LocationTerms    []string `json:"location_terms"`
	InformationTerms []string `json:"information_terms"`
	Negated          bool     `json:"negated"`
	LocationScore    float64  `json:"location_score"`
	InformationScore float64  `json:"information_score"`
}

// Stats is a snapshot of routing counters since process start.
type Stats struct {
	TotalQueries        int64 `json:"total_queries"`
	LocationQueries     int64 `json:"location_queries"`
	InformationQueries  int64 `json:"information_queries"`
	UnroutedQueries     int64 `json:"unrouted_queries"`
	DisambiguationAsked int64 `json:"disambiguation_asked"`
	CatalogErrors       int64 `json:"catalog_errors"`
}

// Router runs classification and extraction over a shared vocabulary and
// catalog. Safe for concurrent use.
type Router struct {
	cfg        Config
	dict       *keywords.Holder
	classifier *classify.Classifier
	extractor  *extract.Extractor
	logger     *zap.Logger

	totalQueries        atomic.Int64
	locationQueries     atomic.Int64
	informationQueries  atomic.Int64
	unroutedQueries     atomic.Int64
	disambiguationAsked atomic.Int64
	catalogErrors       atomic.Int64
}

// New wires a Router from its two stages.
func New(cfg Config, dict *keywords.Holder, classifier *classify.Classifier, extractor *extract.Extractor, logger *zap.Logger) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("router config: %w", err)
	}
	if dict == nil || classifier == nil || extractor == nil {
		return nil, fmt.Errorf("router requires dictionary, classifier and extractor")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:        cfg,
		dict:       dict,
		classifier: classifier,
		extractor:  extractor,
		logger:     logger.Named("router"),
	}, nil
}

// Build constructs a Router plus its stages from a Config, a vocabulary and
// a catalog lookup. Convenience for callers that don't need to hold the
// stages separately.
func Build(cfg Config, dict *keywords.Holder, lookup catalog.Lookup, logger *zap.Logger) (*Router, error) {
	classifier, err := classify.New(cfg.Classifier, dict, logger)
	if err != nil {
		return nil, err
	}
	extractor, err := extract.New(cfg.Extractor, lookup, logger)
	if err != nil {
		return nil, err
	}
	return New(cfg, dict, classifier, extractor, logger)
}

// Route normalizes the raw query, classifies intent and extracts product
// candidates concurrently, then applies the disambiguation rule. Catalog
// failures abort the route with an error; they are never silently dropped.
func (r *Router) Route(ctx context.Context, raw string) (Result, error) {
	r.totalQueries.Add(1)
	normalized := textnorm.Normalize(raw)

	// Extraction hits the catalog; run it while classification scores the
	// text in this goroutine.
	type extraction struct {
		candidates []extract.Candidate
		err        error
	}
	extCh := make(chan extraction, 1)
	go func() {
		candidates, err := r.extractor.Extract(ctx, normalized)
		extCh <- extraction{candidates, err}
	}()

	cls := r.classifier.Classify(normalized)

	ext := <-extCh
	if ext.err != nil {
		r.catalogErrors.Add(1)
		return Result{}, fmt.Errorf("route query: %w", ext.err)
	}

	res := Result{
		Query:                raw,
		NormalizedQuery:      normalized,
		Intent:               cls.Intent,
		IntentConfidence:     cls.Confidence,
		Candidates:           ext.candidates,
		DisambiguationNeeded: r.needsDisambiguation(ext.candidates),
	}
	r.record(res)

	r.logger.Debug("routed query",
		zap.String("query", normalized),
		zap.String("intent", string(res.Intent)),
		zap.Float64("confidence", res.IntentConfidence),
		zap.Int("candidates", len(res.Candidates)),
		zap.Bool("disambiguation", res.DisambiguationNeeded))
	return res, nil
}

// RouteBatch routes each query in order. The first catalog failure aborts
// the batch so callers never see a partially trustworthy result set.
func (r *Router) RouteBatch(ctx context.Context, raws []string) ([]Result, error) {
	results := make([]Result, 0, len(raws))
	for _, raw := range raws {
		res, err := r.Route(ctx, raw)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Explain routes the query and additionally reports which vocabulary terms
// fired and the raw pre-normalization scores.
func (r *Router) Explain(ctx context.Context, raw string) (Explanation, error) {
	res, err := r.Route(ctx, raw)
	if err != nil {
		return Explanation{}, err
	}

	dict := r.dict.Get()
	stemmed := textnorm.StemTokens(textnorm.Tokens(res.NormalizedQuery))
	card := r.classifier.Classify(res.NormalizedQuery).Scorecard

	return Explanation{
		Result:           res,
		LocationTerms:    dict.MatchingTerms(keywords.SetLocation, res.NormalizedQuery, stemmed),
		InformationTerms: dict.MatchingTerms(keywords.SetInformation, res.NormalizedQuery, stemmed),
		Negated:          card.Negated,
		LocationScore:    card.LocationScore,
		InformationScore: card.InformationScore,
	}, nil
}

// needsDisambiguation applies the two-threshold rule: at least two
// candidates, a top candidate confident enough to be worth clarifying, and
// a runner-up close enough to genuinely compete.
func (r *Router) needsDisambiguation(candidates []extract.Candidate) bool {
	if len(candidates) < 2 {
		return false
	}
	top, second := candidates[0].Confidence, candidates[1].Confidence
	return top >= r.cfg.AcceptanceThreshold && top-second <= r.cfg.ClosenessThreshold
}

func (r *Router) record(res Result) {
	switch res.Intent {
	case classify.IntentLocation:
		r.locationQueries.Add(1)
	case classify.IntentInformation:
		r.informationQueries.Add(1)
	default:
		r.unroutedQueries.Add(1)
	}
	if res.DisambiguationNeeded {
		r.disambiguationAsked.Add(1)
	}
}

// GetStats returns routing counters since process start.
func (r *Router) GetStats() Stats {
	return Stats{
		TotalQueries:        r.totalQueries.Load(),
		LocationQueries:     r.locationQueries.Load(),
		InformationQueries:  r.informationQueries.Load(),
		UnroutedQueries:     r.unroutedQueries.Load(),
		DisambiguationAsked: r.disambiguationAsked.Load(),
		CatalogErrors:       r.catalogErrors.Load(),
	}
}
