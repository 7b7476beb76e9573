package extract

// Strategy identifies which matching strategy produced a candidate.
// The set is closed: the extractor runs exactly these four, in this
// priority order, and merges their outputs per product.
type Strategy string

const (
	StrategyExactName    Strategy = "exact_name"
	StrategyExactSynonym Strategy = "exact_synonym"
	StrategyFuzzy        Strategy = "fuzzy"
	StrategyTrigram      Strategy = "trigram"
)

// priority orders strategies for tie-breaking when two strategies produce
// the same confidence for the same product; lower wins.
var priority = map[Strategy]int{
	StrategyExactName:    0,
	StrategyExactSynonym: 1,
	StrategyFuzzy:        2,
	StrategyTrigram:      3,
}

// Candidate is one catalog product the extractor believes the query might
// refer to. Attributes are copied through from the catalog entry untouched.
type Candidate struct {
	ProductID   string            `json:"product_id"`
	DisplayName string            `json:"display_name"`
	Strategy    Strategy          `json:"strategy"`
	Confidence  float64           `json:"confidence"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// better reports whether a should replace b as the surviving candidate for
// one product: higher confidence wins, equal confidence falls back to
// strategy priority. Candidates for the same product are never summed.
func better(a, b Candidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return priority[a.Strategy] < priority[b.Strategy]
}
