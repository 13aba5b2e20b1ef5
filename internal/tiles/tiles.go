package tiles

import (
	"math/rand"
	"time"
)

// Variant selects which letter distribution a session plays with.
type Variant string

const (
	Standard     Variant = "standard"
	ReducedVowel Variant = "reduced-vowel"
)

// Bananagrams-style distribution, 144 tiles total.
var standardDistribution = map[string]int{
	"A": 13, "B": 3, "C": 3, "D": 6, "E": 18, "F": 3, "G": 4,
	"H": 3, "I": 12, "J": 2, "K": 2, "L": 5, "M": 3, "N": 8,
	"O": 11, "P": 3, "Q": 2, "R": 9, "S": 6, "T": 9, "U": 6,
	"V": 3, "W": 3, "X": 2, "Y": 3, "Z": 2,
}

// Same total: twelve vowels swapped for common consonants to sharpen
// snatch play.
var reducedVowelDistribution = map[string]int{
	"A": 10, "B": 3, "C": 4, "D": 7, "E": 15, "F": 3, "G": 5,
	"H": 3, "I": 10, "J": 2, "K": 2, "L": 6, "M": 4, "N": 10,
	"O": 9, "P": 3, "Q": 2, "R": 11, "S": 7, "T": 11, "U": 4,
	"V": 3, "W": 3, "X": 2, "Y": 3, "Z": 2,
}

// letterOrder keeps Generate deterministic for a given rand source;
// map iteration order would defeat seeded tests.
var letterOrder = []string{
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
}

func distribution(v Variant) map[string]int {
	if v == ReducedVowel {
		return reducedVowelDistribution
	}
	return standardDistribution
}

// Generate builds the shuffled draw stack for a session. The rand
// source is replaceable so tests can pin the permutation; a nil rng
// gets a time-seeded one.
func Generate(v Variant, rng *rand.Rand) []string {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	dist := distribution(v)
	pool := make([]string, 0, TotalCount(v))
	for _, letter := range letterOrder {
		for i := 0; i < dist[letter]; i++ {
			pool = append(pool, letter)
		}
	}

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool
}

// TotalCount returns the fixed tile count for a variant without
// generating tiles.
func TotalCount(v Variant) int {
	total := 0
	for _, n := range distribution(v) {
		total += n
	}
	return total
}
