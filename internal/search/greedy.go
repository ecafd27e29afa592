package search

import (
	"context"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/combin"
)

// DefaultTopFeatures is how many single features seed both strategies.
const DefaultTopFeatures = 10

// GreedyConfig bounds the greedy search.
type GreedyConfig struct {
	TopFeatures int
}

// Greedy scores every available feature, keeps the best TopFeatures, then
// tries all their pairs and triples. Pairs must beat the mean single score
// and triples the mean surviving pair score. The surviving singles, pairs and
// triples are returned by descending score.
func Greedy(ctx context.Context, e *Evaluator, available []string, cfg GreedyConfig) ([]Combination, error) {
	if len(available) == 0 || !e.Applies() {
		return []Combination{}, nil
	}
	topN := cfg.TopFeatures
	if topN <= 0 {
		topN = DefaultTopFeatures
	}

	top, err := e.ScoreAll(ctx, singles(available))
	if err != nil {
		return nil, err
	}
	SortByScore(top)
	if len(top) > topN {
		top = top[:topN]
	}
	if len(top) == 0 {
		return []Combination{}, nil
	}

	names := make([]string, len(top))
	for i, c := range top {
		names[i] = c.Features[0]
	}

	threshold1 := meanScore(top)
	pairs, err := e.scoreAbove(ctx, choose(names, 2), threshold1)
	if err != nil {
		return nil, err
	}
	e.Logger.Debug("greedy: %d singles, %d pairs above %.6g", len(top), len(pairs), threshold1)

	var triples []Combination
	if len(pairs) > 0 {
		threshold2 := meanScore(pairs)
		triples, err = e.scoreAbove(ctx, choose(names, 3), threshold2)
		if err != nil {
			return nil, err
		}
		e.Logger.Debug("greedy: %d triples above %.6g", len(triples), threshold2)
	}

	out := make([]Combination, 0, len(top)+len(pairs)+len(triples))
	out = append(out, top...)
	out = append(out, pairs...)
	out = append(out, triples...)
	SortByScore(out)
	return out, nil
}

// SuggestNext returns the single available feature that scores best with the
// current selection. ok is false when nothing can be scored.
func SuggestNext(ctx context.Context, e *Evaluator, available []string) (best Combination, ok bool, err error) {
	if len(available) == 0 || !e.Applies() {
		return Combination{}, false, nil
	}
	scored, err := e.ScoreAll(ctx, singles(available))
	if err != nil {
		return Combination{}, false, err
	}
	if len(scored) == 0 {
		return Combination{}, false, nil
	}
	SortByScore(scored)
	return scored[0], true, nil
}

func (e *Evaluator) scoreAbove(ctx context.Context, candidates [][]string, threshold float64) ([]Combination, error) {
	scored, err := e.ScoreAll(ctx, candidates)
	if err != nil {
		return nil, err
	}
	kept := scored[:0]
	for _, c := range scored {
		if c.Score > threshold {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

// choose returns every k-element combination of names, preserving their
// order.
func choose(names []string, k int) [][]string {
	if k > len(names) {
		return nil
	}
	idx := combin.Combinations(len(names), k)
	out := make([][]string, len(idx))
	for i, set := range idx {
		combo := make([]string, k)
		for j, n := range set {
			combo[j] = names[n]
		}
		out[i] = combo
	}
	return out
}

func meanScore(combos []Combination) float64 {
	scores := make([]float64, len(combos))
	for i, c := range combos {
		scores[i] = c.Score
	}
	return stat.Mean(scores, nil)
}
