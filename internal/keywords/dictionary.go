// Package keywords holds the weighted term sets that drive intent
// classification. A Dictionary is immutable after construction and safe for
// unlimited concurrent readers; vocabulary changes are modeled as building a
// new Dictionary and atomically swapping the pointer, never as in-place edits.
package keywords

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/retail-query-kernel/internal/textnorm"
)

// Dictionary is a frozen snapshot of the three term sets.
// Single-word terms are stored by stem; multi-word phrase terms are matched
// by substring over normalized text. Phrases are kept as slices sorted at
// construction so every scan accumulates weights in the same order and
// repeated classifications are bit-identical.
type Dictionary struct {
	locationTerms   map[string]float64 // stem -> weight
	locationPhrases []phraseTerm
	infoTerms       map[string]float64
	infoPhrases     []phraseTerm
	negationTerms   map[string]struct{}
	negationPhrases []string
}

type phraseTerm struct {
	phrase string
	weight float64
}

// TermSet identifies one of the dictionaries.
type TermSet string

const (
	SetLocation    TermSet = "location"
	SetInformation TermSet = "information"
	SetNegation    TermSet = "negation"
)

// File is the on-disk YAML shape for vocabulary overrides.
type File struct {
	Location    map[string]float64 `yaml:"location"`
	Information map[string]float64 `yaml:"information"`
	Negation    []string           `yaml:"negation"`
}

// New builds a Dictionary from explicit term maps. Weights must be in (0, 1].
func New(location, information map[string]float64, negation []string) (*Dictionary, error) {
	d := &Dictionary{
		locationTerms: make(map[string]float64),
		infoTerms:     make(map[string]float64),
		negationTerms: make(map[string]struct{}),
	}

	if err := d.fill(SetLocation, location); err != nil {
		return nil, err
	}
	if err := d.fill(SetInformation, information); err != nil {
		return nil, err
	}
	for _, term := range negation {
		norm := textnorm.Normalize(term)
		if norm == "" {
			return nil, fmt.Errorf("negation term %q normalizes to empty", term)
		}
		if strings.Contains(norm, " ") {
			d.negationPhrases = append(d.negationPhrases, norm)
		} else {
			d.negationTerms[norm] = struct{}{}
		}
	}

	sortPhrases(d.locationPhrases)
	sortPhrases(d.infoPhrases)
	sort.Strings(d.negationPhrases)

	return d, nil
}

func sortPhrases(phrases []phraseTerm) {
	sort.Slice(phrases, func(i, j int) bool { return phrases[i].phrase < phrases[j].phrase })
}

func (d *Dictionary) fill(set TermSet, terms map[string]float64) error {
	words, phrases := d.locationTerms, &d.locationPhrases
	if set == SetInformation {
		words, phrases = d.infoTerms, &d.infoPhrases
	}

	for term, weight := range terms {
		if weight <= 0 || weight > 1 {
			return fmt.Errorf("%s term %q has weight %v, want (0, 1]", set, term, weight)
		}
		norm := textnorm.Normalize(term)
		if norm == "" {
			return fmt.Errorf("%s term %q normalizes to empty", set, term)
		}
		if strings.Contains(norm, " ") {
			*phrases = append(*phrases, phraseTerm{phrase: norm, weight: weight})
		} else {
			words[textnorm.Stem(norm)] = weight
		}
	}
	return nil
}

// Load reads a vocabulary file and builds a Dictionary from it.
// Missing sections fall back to the built-in defaults.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vocabulary file: %w", err)
	}

	if f.Location == nil {
		f.Location = defaultLocationTerms
	}
	if f.Information == nil {
		f.Information = defaultInformationTerms
	}
	if f.Negation == nil {
		f.Negation = defaultNegationTerms
	}

	return New(f.Location, f.Information, f.Negation)
}

// Default returns a Dictionary seeded with the built-in retail vocabulary.
func Default() *Dictionary {
	d, err := New(defaultLocationTerms, defaultInformationTerms, defaultNegationTerms)
	if err != nil {
		// Built-in tables are validated by tests; a failure here is a bug.
		panic(err)
	}
	return d
}

// WordWeight returns the weight of a stemmed token in the given set.
func (d *Dictionary) WordWeight(set TermSet, stem string) (float64, bool) {
	switch set {
	case SetLocation:
		w, ok := d.locationTerms[stem]
		return w, ok
	case SetInformation:
		w, ok := d.infoTerms[stem]
		return w, ok
	}
	return 0, false
}

// PhraseHits returns the weights of every phrase term of the set that occurs
// as a substring of the normalized text, in sorted phrase order so that
// downstream accumulation is order-stable.
func (d *Dictionary) PhraseHits(set TermSet, normalized string) []float64 {
	phrases := d.locationPhrases
	if set == SetInformation {
		phrases = d.infoPhrases
	}

	var hits []float64
	for _, p := range phrases {
		if strings.Contains(normalized, p.phrase) {
			hits = append(hits, p.weight)
		}
	}
	return hits
}

// HasNegation reports whether the token set or text carries a negation cue.
func (d *Dictionary) HasNegation(normalized string, tokens []string) bool {
	for _, t := range tokens {
		if _, ok := d.negationTerms[t]; ok {
			return true
		}
	}
	for _, phrase := range d.negationPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// MatchingTerms returns every term of the set that hits the given text,
// sorted lexically. Used for routing explanations, not for scoring.
func (d *Dictionary) MatchingTerms(set TermSet, normalized string, stemmedTokens []string) []string {
	words, phrases := d.locationTerms, d.locationPhrases
	if set == SetInformation {
		words, phrases = d.infoTerms, d.infoPhrases
	}

	seen := make(map[string]struct{})
	for _, tok := range stemmedTokens {
		if _, ok := words[tok]; ok {
			seen[tok] = struct{}{}
		}
	}
	for _, p := range phrases {
		if strings.Contains(normalized, p.phrase) {
			seen[p.phrase] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for term := range seen {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// Counts returns the number of terms per set, used by startup logging.
func (d *Dictionary) Counts() (location, information, negation int) {
	return len(d.locationTerms) + len(d.locationPhrases),
		len(d.infoTerms) + len(d.infoPhrases),
		len(d.negationTerms) + len(d.negationPhrases)
}

// Holder provides an atomically swappable Dictionary snapshot for callers
// that want vocabulary reload without restarting.
type Holder struct {
	current atomic.Pointer[Dictionary]
}

// NewHolder creates a Holder with an initial snapshot.
func NewHolder(d *Dictionary) *Holder {
	h := &Holder{}
	h.current.Store(d)
	return h
}

// Get returns the current snapshot.
func (h *Holder) Get() *Dictionary {
	return h.current.Load()
}

// Swap replaces the snapshot. Readers holding the old snapshot are unaffected.
func (h *Holder) Swap(d *Dictionary) {
	h.current.Store(d)
}
