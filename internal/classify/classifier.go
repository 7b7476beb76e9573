// Package classify scores normalized query text for location vs information
// intent using the weighted keyword dictionaries.
package classify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/retail-query-kernel/internal/keywords"
	"github.com/retail-query-kernel/internal/textnorm"
)

// Intent is the coarse category of what the user wants.
type Intent string

const (
	IntentLocation    Intent = "location"
	IntentInformation Intent = "information"
	IntentNone        Intent = "none"
)

// Config holds classifier tuning knobs.
type Config struct {
	// MinConfidence is the floor below which neither intent is trusted and
	// the query is labeled none.
	MinConfidence float64
	// NegationPenalty multiplies the stronger raw score when a negation cue
	// is present. Must be < 1.
	NegationPenalty float64
	// SmoothingK is the constant in the saturating map score/(score+k).
	SmoothingK float64
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.3,
		NegationPenalty: 0.3,
		SmoothingK:      1.0,
	}
}

// Validate rejects configurations that could only fail mid-query.
func (c Config) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence %v outside [0,1]", c.MinConfidence)
	}
	if c.NegationPenalty <= 0 || c.NegationPenalty >= 1 {
		return fmt.Errorf("negation penalty %v outside (0,1)", c.NegationPenalty)
	}
	if c.SmoothingK <= 0 {
		return fmt.Errorf("smoothing constant %v must be positive", c.SmoothingK)
	}
	return nil
}

// Scorecard is the explicit intermediate state of one classification:
// raw accumulated scores plus the flags that shaped them. It exists so the
// scoring algorithm can be tested in isolation and explained to callers.
type Scorecard struct {
	LocationScore    float64 `json:"location_score"`
	InformationScore float64 `json:"information_score"`
	Negated          bool    `json:"negated"`
}

// Result is the classifier output for one query.
type Result struct {
	Intent                Intent    `json:"intent"`
	Confidence            float64   `json:"confidence"`
	LocationConfidence    float64   `json:"location_confidence"`
	InformationConfidence float64   `json:"information_confidence"`
	Scorecard             Scorecard `json:"scorecard"`
}

// Classifier scores normalized text against a dictionary snapshot.
// It carries no per-call state and is safe for concurrent use.
type Classifier struct {
	cfg    Config
	dict   *keywords.Holder
	logger *zap.Logger
}

// New creates a Classifier. The configuration is validated up front;
// a bad threshold is reported here, never during a query.
func New(cfg Config, dict *keywords.Holder, logger *zap.Logger) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("classifier config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		cfg:    cfg,
		dict:   dict,
		logger: logger.Named("classify"),
	}, nil
}

// Classify scores normalized text and picks an intent.
// Empty input yields IntentNone with zero confidence.
func (c *Classifier) Classify(normalized string) Result {
	if normalized == "" {
		return Result{Intent: IntentNone}
	}

	dict := c.dict.Get()
	tokens := textnorm.Tokens(normalized)
	card := c.score(dict, normalized, tokens)

	locConf := saturate(card.LocationScore, c.cfg.SmoothingK)
	infoConf := saturate(card.InformationScore, c.cfg.SmoothingK)

	res := Result{
		LocationConfidence:    locConf,
		InformationConfidence: infoConf,
		Scorecard:             card,
	}

	switch {
	case locConf < c.cfg.MinConfidence && infoConf < c.cfg.MinConfidence:
		res.Intent = IntentNone
		res.Confidence = 0
	case infoConf > locConf:
		res.Intent = IntentInformation
		res.Confidence = infoConf
	default:
		// Location wins strict comparisons and exact ties: product lookup is
		// the cheaper, safer default for an ambiguous retail query.
		res.Intent = IntentLocation
		res.Confidence = locConf
	}

	c.logger.Debug("classified query",
		zap.String("intent", string(res.Intent)),
		zap.Float64("confidence", res.Confidence),
		zap.Float64("location_score", card.LocationScore),
		zap.Float64("information_score", card.InformationScore),
		zap.Bool("negated", card.Negated))

	return res
}

// score accumulates weighted keyword hits into a Scorecard.
func (c *Classifier) score(dict *keywords.Dictionary, normalized string, tokens []string) Scorecard {
	var card Scorecard

	for _, tok := range tokens {
		stem := textnorm.Stem(tok)
		// A token may legitimately contribute to both sets.
		if w, ok := dict.WordWeight(keywords.SetLocation, stem); ok {
			card.LocationScore += w
		}
		if w, ok := dict.WordWeight(keywords.SetInformation, stem); ok {
			card.InformationScore += w
		}
	}
	for _, w := range dict.PhraseHits(keywords.SetLocation, normalized) {
		card.LocationScore += w
	}
	for _, w := range dict.PhraseHits(keywords.SetInformation, normalized) {
		card.InformationScore += w
	}

	if dict.HasNegation(normalized, tokens) {
		card.Negated = true
		// Negation suppresses the apparently-stronger intent: "I don't want
		// the location" should not route as a confident location query.
		if card.LocationScore >= card.InformationScore {
			card.LocationScore *= c.cfg.NegationPenalty
		} else {
			card.InformationScore *= c.cfg.NegationPenalty
		}
	}

	return card
}

// saturate maps an unbounded accumulated score into [0,1).
func saturate(score, k float64) float64 {
	if score <= 0 {
		return 0
	}
	return score / (score + k)
}
