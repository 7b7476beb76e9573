package textnorm

import "strings"

// irregularStems maps retail vocabulary whose plural does not reduce by
// suffix stripping alone.
var irregularStems = map[string]string{
	"shelves":    "shelf",
	"knives":     "knife",
	"loaves":     "loaf",
	"leaves":     "leaf",
	"berries":    "berry",
	"calories":   "calorie",
	"cherries":   "cherry",
	"groceries":  "grocery",
	"allergies":  "allergy",
	"batteries":  "battery",
	"categories": "category",
	"policies":   "policy",
	"pastries":   "pastry",
	"expiries":   "expiry",
	"warranties": "warranty",
	"children":   "child",
	"women":      "woman",
	"men":        "man",
}

// Stem reduces a word to a light stem by dropping common English suffixes.
// It is intentionally conservative: the goal is matching dictionary terms and
// catalog names ("aisles" -> "aisle", "calories" -> "calorie"), not full
// morphological analysis.
func Stem(word string) string {
	w := strings.ToLower(word)

	if stem, ok := irregularStems[w]; ok {
		return stem
	}

	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && strings.HasSuffix(w, "sses"):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "es"):
		// "boxes", "dishes" drop the whole suffix; "aisles", "sizes" keep the e.
		if strings.HasSuffix(w, "xes") || strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes") {
			return w[:len(w)-2]
		}
		return w[:len(w)-1]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us"):
		return w[:len(w)-1]
	}

	return w
}

// StemTokens applies Stem to every token, preserving order.
func StemTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = Stem(t)
	}
	return out
}
