// Package extract finds catalog products referenced by normalized query text
// using four matching strategies with calibrated confidence scores.
package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/retail-query-kernel/internal/catalog"
	"github.com/retail-query-kernel/internal/textnorm"
)

// Config holds extractor tuning knobs. All values are validated at
// construction so a bad threshold can never surface mid-query.
type Config struct {
	// SynonymConfidence is the fixed confidence of an exact synonym match;
	// slightly below the 1.0 of a canonical-name match.
	SynonymConfidence float64
	// FuzzyThreshold is the minimum token-level similarity to keep a fuzzy
	// candidate; FuzzyWeight scales the similarity into a confidence.
	FuzzyThreshold float64
	FuzzyWeight    float64
	// TrigramThreshold is the minimum shingle-overlap similarity to keep a
	// trigram candidate; TrigramWeight scales it.
	TrigramThreshold float64
	TrigramWeight    float64
	// PartialNameCoverage is the fraction of a canonical name's words a
	// query phrase must cover for a name-contains-phrase exact match
	// ("milk" covers half of "whole milk"). Keeps stopword fragments from
	// matching long product names.
	PartialNameCoverage float64
	// TopN caps the returned candidate list.
	TopN int
	// MaxPhraseWords bounds the word windows scanned for matches.
	MaxPhraseWords int
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		SynonymConfidence:   0.9,
		FuzzyThreshold:      0.7,
		FuzzyWeight:         0.8,
		TrigramThreshold:    0.6,
		TrigramWeight:       0.7,
		PartialNameCoverage: 0.5,
		TopN:                3,
		MaxPhraseWords:      4,
	}
}

// Validate rejects out-of-range thresholds and weights.
func (c Config) Validate() error {
	check := func(name string, v float64) error {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s %v outside (0,1]", name, v)
		}
		return nil
	}
	if err := check("synonym confidence", c.SynonymConfidence); err != nil {
		return err
	}
	if err := check("fuzzy threshold", c.FuzzyThreshold); err != nil {
		return err
	}
	if err := check("fuzzy weight", c.FuzzyWeight); err != nil {
		return err
	}
	if err := check("trigram threshold", c.TrigramThreshold); err != nil {
		return err
	}
	if err := check("trigram weight", c.TrigramWeight); err != nil {
		return err
	}
	if c.PartialNameCoverage < 0 || c.PartialNameCoverage > 1 {
		return fmt.Errorf("partial name coverage %v outside [0,1]", c.PartialNameCoverage)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top-n %d must be positive", c.TopN)
	}
	if c.MaxPhraseWords <= 0 {
		return fmt.Errorf("max phrase words %d must be positive", c.MaxPhraseWords)
	}
	return nil
}

// Extractor matches normalized query text against an injected catalog.
// It is stateless per call and safe for concurrent use.
type Extractor struct {
	cfg    Config
	lookup catalog.Lookup
	logger *zap.Logger
}

// New creates an Extractor over the given catalog lookup.
func New(cfg Config, lookup catalog.Lookup, logger *zap.Logger) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("extractor config: %w", err)
	}
	if lookup == nil {
		return nil, fmt.Errorf("extractor requires a catalog lookup")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		cfg:    cfg,
		lookup: lookup,
		logger: logger.Named("extract"),
	}, nil
}

// Extract returns product candidates for the normalized text, deduplicated
// per product (highest-confidence strategy wins), sorted by descending
// confidence with product-ID ascending as the tie-break, capped at TopN.
// A catalog failure is returned as an error, never as an empty result.
func (e *Extractor) Extract(ctx context.Context, normalized string) ([]Candidate, error) {
	if normalized == "" {
		return nil, nil
	}

	phrases := phraseWindows(textnorm.Tokens(normalized), e.cfg.MaxPhraseWords)
	merged := make(map[string]Candidate)

	if err := e.matchExactNames(ctx, phrases, merged); err != nil {
		return nil, err
	}
	if err := e.matchExactSynonyms(ctx, phrases, merged); err != nil {
		return nil, err
	}
	if err := e.matchSimilarity(ctx, normalized, phrases, merged); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > e.cfg.TopN {
		out = out[:e.cfg.TopN]
	}

	e.logger.Debug("extracted product candidates",
		zap.String("query", normalized),
		zap.Int("candidates", len(out)))
	return out, nil
}

func (e *Extractor) matchExactNames(ctx context.Context, phrases []string, merged map[string]Candidate) error {
	for _, phrase := range phrases {
		entry, err := e.lookup.LookupExactName(ctx, phrase)
		if err != nil {
			return fmt.Errorf("exact name lookup: %w", err)
		}
		if entry == nil {
			continue
		}
		keep(merged, Candidate{
			ProductID:   entry.ID,
			DisplayName: entry.Name,
			Strategy:    StrategyExactName,
			Confidence:  1.0,
			Attributes:  entry.Attributes,
		})
	}
	return nil
}

func (e *Extractor) matchExactSynonyms(ctx context.Context, phrases []string, merged map[string]Candidate) error {
	for _, phrase := range phrases {
		entries, err := e.lookup.LookupExactSynonym(ctx, phrase)
		if err != nil {
			return fmt.Errorf("exact synonym lookup: %w", err)
		}
		for _, entry := range entries {
			keep(merged, Candidate{
				ProductID:   entry.ID,
				DisplayName: entry.Name,
				Strategy:    StrategyExactSynonym,
				Confidence:  e.cfg.SynonymConfidence,
				Attributes:  entry.Attributes,
			})
		}
	}
	return nil
}

func (e *Extractor) matchSimilarity(ctx context.Context, normalized string, phrases []string, merged map[string]Candidate) error {
	entries, err := e.lookup.ListCandidates(ctx, normalized)
	if err != nil {
		return fmt.Errorf("similarity candidate listing: %w", err)
	}

	for _, entry := range entries {
		normName := textnorm.Normalize(entry.Name)
		targets := make([]string, 0, 1+len(entry.Synonyms))
		targets = append(targets, normName)
		for _, syn := range entry.Synonyms {
			targets = append(targets, textnorm.Normalize(syn))
		}

		// A phrase that is a word-boundary piece of the canonical name and
		// covers enough of it counts as an exact name hit: "milk" names
		// "Whole Milk" even though the text never spells the full name.
		if e.phraseNamesEntry(phrases, normName) {
			keep(merged, Candidate{
				ProductID:   entry.ID,
				DisplayName: entry.Name,
				Strategy:    StrategyExactName,
				Confidence:  1.0,
				Attributes:  entry.Attributes,
			})
		}

		if sim := bestSimilarity(fuzzyRatio, phrases, targets); sim >= e.cfg.FuzzyThreshold {
			keep(merged, Candidate{
				ProductID:   entry.ID,
				DisplayName: entry.Name,
				Strategy:    StrategyFuzzy,
				Confidence:  sim * e.cfg.FuzzyWeight,
				Attributes:  entry.Attributes,
			})
		}
		if sim := bestSimilarity(trigramSimilarity, phrases, targets); sim >= e.cfg.TrigramThreshold {
			keep(merged, Candidate{
				ProductID:   entry.ID,
				DisplayName: entry.Name,
				Strategy:    StrategyTrigram,
				Confidence:  sim * e.cfg.TrigramWeight,
				Attributes:  entry.Attributes,
			})
		}
	}
	return nil
}

// phraseNamesEntry reports whether any phrase window appears inside the
// normalized canonical name at word boundaries while covering at least
// PartialNameCoverage of the name's words.
func (e *Extractor) phraseNamesEntry(phrases []string, normName string) bool {
	nameWords := len(strings.Fields(normName))
	if nameWords == 0 {
		return false
	}
	padded := " " + normName + " "
	for _, phrase := range phrases {
		if !strings.Contains(padded, " "+phrase+" ") {
			continue
		}
		coverage := float64(len(strings.Fields(phrase))) / float64(nameWords)
		if coverage >= e.cfg.PartialNameCoverage {
			return true
		}
	}
	return false
}

// keep applies the dedup invariant: at most one candidate survives per
// product, the one the better comparison prefers.
func keep(merged map[string]Candidate, c Candidate) {
	if existing, ok := merged[c.ProductID]; ok && !better(c, existing) {
		return
	}
	merged[c.ProductID] = c
}

// bestSimilarity returns the maximum similarity between any phrase window
// and any target string.
func bestSimilarity(sim func(a, b string) float64, phrases, targets []string) float64 {
	best := 0.0
	for _, p := range phrases {
		for _, t := range targets {
			if t == "" {
				continue
			}
			if s := sim(p, t); s > best {
				best = s
			}
		}
	}
	return best
}

// phraseWindows generates every word n-gram of the tokens up to maxWords,
// in deterministic order. The full text is always included so multi-word
// product names longer than the window still match.
func phraseWindows(tokens []string, maxWords int) []string {
	var phrases []string
	for i := 0; i < len(tokens); i++ {
		limit := i + maxWords
		if limit > len(tokens) {
			limit = len(tokens)
		}
		for j := i + 1; j <= limit; j++ {
			phrases = append(phrases, strings.Join(tokens[i:j], " "))
		}
	}
	if full := strings.Join(tokens, " "); len(tokens) > maxWords {
		phrases = append(phrases, full)
	}
	return phrases
}
