package search

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Defaults for the level-wise search.
const (
	DefaultPercent   = 0.75
	DefaultMaxLevels = 4
)

// LevelWiseConfig bounds the level-wise search.
type LevelWiseConfig struct {
	// TopFeatures caps the first level; it never exceeds half the available
	// features.
	TopFeatures int
	// Percent scales the lowest score of a level into the next level's cutoff.
	Percent float64
	// MaxLevels is the largest combination size.
	MaxLevels int
}

func (c LevelWiseConfig) withDefaults() LevelWiseConfig {
	if c.TopFeatures <= 0 {
		c.TopFeatures = DefaultTopFeatures
	}
	if c.Percent <= 0 || c.Percent > 1 {
		c.Percent = DefaultPercent
	}
	if c.MaxLevels <= 0 {
		c.MaxLevels = DefaultMaxLevels
	}
	return c
}

// LevelWise grows combinations one feature at a time in the manner of
// frequent itemset mining. The first level holds the best
// min(len(available)/2, TopFeatures) single features. Each following level
// joins the previous one, prunes candidates with a missing sub-combination
// and keeps those scoring above the previous level's lowest score times
// Percent. Every surviving combination is returned by descending score.
func LevelWise(ctx context.Context, e *Evaluator, available []string, cfg LevelWiseConfig) ([]Combination, error) {
	if len(available) == 0 || !e.Applies() {
		return []Combination{}, nil
	}
	cfg = cfg.withDefaults()

	scored, err := e.ScoreAll(ctx, singles(available))
	if err != nil {
		return nil, err
	}
	SortByScore(scored)
	size := min(len(available)/2, cfg.TopFeatures)
	if len(scored) > size {
		scored = scored[:size]
	}

	all := append([]Combination(nil), scored...)
	level := scored
	for k := 1; k < cfg.MaxLevels && len(level) > 0; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		threshold := lowestScore(level) * cfg.Percent
		itemsets := make([][]string, len(level))
		for i, c := range level {
			itemsets[i] = c.Features
		}
		candidates := Prune(itemsets, Join(itemsets))

		level, err = e.scoreAbove(ctx, candidates, threshold)
		if err != nil {
			return nil, err
		}
		e.Logger.Debug("level %d: %d candidates, %d above %.6g", k+1, len(candidates), len(level), threshold)
		all = append(all, level...)
	}

	SortByScore(all)
	e.Logger.Info("level-wise search kept %d combinations", len(all))
	return all, nil
}

func lowestScore(combos []Combination) float64 {
	if len(combos) == 0 {
		return math.Inf(1)
	}
	scores := make([]float64, len(combos))
	for i, c := range combos {
		scores[i] = c.Score
	}
	return floats.Min(scores)
}
