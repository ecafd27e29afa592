// Package search generates candidate feature combinations and keeps the ones
// that score well under a metric.
package search

import (
	"sort"
	"strings"
)

// Combination is a candidate list of features and its score.
type Combination struct {
	Features []string `json:"features"`
	Score    float64  `json:"score"`
}

// Key identifies a combination regardless of element order.
func (c Combination) Key() string {
	return strings.Join(Canonical(c.Features), "\x00")
}

// Canonical returns a sorted copy of combo.
func Canonical(combo []string) []string {
	out := append([]string(nil), combo...)
	sort.Strings(out)
	return out
}

// CompareTuples compares a and b element by element. The first differing
// element decides; a proper prefix sorts first.
func CompareTuples(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// SortByScore orders combinations by descending score. Ties keep smaller
// combinations first, then lexicographic order.
func SortByScore(combos []Combination) {
	sort.SliceStable(combos, func(i, j int) bool {
		a, b := combos[i], combos[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if len(a.Features) != len(b.Features) {
			return len(a.Features) < len(b.Features)
		}
		return CompareTuples(a.Features, b.Features) < 0
	})
}

// Join builds size k+1 candidates from size k itemsets. Itemsets are
// canonicalized and sorted; each run of consecutive itemsets sharing their
// first k-1 elements contributes every pair of its last elements.
func Join(itemsets [][]string) [][]string {
	sorted := make([][]string, len(itemsets))
	for i, s := range itemsets {
		sorted[i] = Canonical(s)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareTuples(sorted[i], sorted[j]) < 0
	})
	sorted = dedupe(sorted)

	var out [][]string
	for i := 0; i < len(sorted); {
		if len(sorted[i]) == 0 {
			i++
			continue
		}
		prefix := sorted[i][:len(sorted[i])-1]
		tails := []string{sorted[i][len(sorted[i])-1]}

		j := i + 1
		for ; j < len(sorted); j++ {
			next := sorted[j]
			if len(next) != len(sorted[i]) || CompareTuples(prefix, next[:len(next)-1]) != 0 {
				break
			}
			tails = append(tails, next[len(next)-1])
		}

		for a := 0; a < len(tails); a++ {
			for b := a + 1; b < len(tails); b++ {
				candidate := make([]string, 0, len(prefix)+2)
				candidate = append(candidate, prefix...)
				candidate = append(candidate, tails[a], tails[b])
				out = append(out, candidate)
			}
		}
		i = j
	}
	return out
}

// Prune drops every candidate with a subset one element smaller that is not
// among previous.
func Prune(previous, candidates [][]string) [][]string {
	known := make(map[string]struct{}, len(previous))
	for _, p := range previous {
		known[strings.Join(Canonical(p), "\x00")] = struct{}{}
	}

	var out [][]string
	for _, c := range candidates {
		keep := true
		for i := range c {
			sub := make([]string, 0, len(c)-1)
			sub = append(sub, c[:i]...)
			sub = append(sub, c[i+1:]...)
			if _, ok := known[strings.Join(Canonical(sub), "\x00")]; !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, c)
		}
	}
	return out
}

func dedupe(sorted [][]string) [][]string {
	out := make([][]string, 0, len(sorted))
	for _, s := range sorted {
		if len(out) > 0 && CompareTuples(out[len(out)-1], s) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}
