package extract

import "strings"

// levenshtein computes the edit distance between two strings by rune.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// fuzzyRatio maps edit distance into a [0,1] similarity:
// 1.0 for identical strings, approaching 0 as they diverge.
func fuzzyRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

// trigrams returns the set of overlapping 3-character shingles of the text
// with spaces removed, so word boundaries don't fragment matches.
func trigrams(text string) map[string]struct{} {
	compact := strings.ReplaceAll(text, " ", "")
	runes := []rune(compact)
	if len(runes) < 3 {
		return nil
	}
	set := make(map[string]struct{}, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}
	return set
}

// trigramSimilarity computes the Jaccard coefficient over 3-character
// shingles. Robust to typos and partial words that token-level fuzzy
// matching misses.
func trigramSimilarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
