package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("milk", "milk"))
	assert.Equal(t, 1, levenshtein("milk", "mill"))
	assert.Equal(t, 4, levenshtein("", "milk"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}

func TestFuzzyRatio(t *testing.T) {
	assert.Equal(t, 1.0, fuzzyRatio("milk", "milk"))
	assert.InDelta(t, 0.875, fuzzyRatio("banannas", "bananas"), 1e-9)
	assert.Equal(t, 1.0, fuzzyRatio("", ""))
	assert.Less(t, fuzzyRatio("milk", "bread"), 0.3)
}

func TestTrigramSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, trigramSimilarity("whole milk", "whole milk"))

	// Spaces are removed before shingling, so word order degrades but does
	// not destroy similarity.
	sim := trigramSimilarity("butter peanut", "peanut butter")
	assert.Greater(t, sim, 0.6)
	assert.Less(t, sim, 1.0)

	assert.Equal(t, 0.0, trigramSimilarity("ab", "whole milk"))
	assert.Equal(t, 0.0, trigramSimilarity("xyz", "whole milk"))
}
