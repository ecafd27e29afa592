package search

import (
	"context"
	"runtime"

	"subsetlens/domain/dataset"
	"subsetlens/domain/feature"
	"subsetlens/internal"
	"subsetlens/internal/scoring"

	"golang.org/x/sync/errgroup"
)

// Evaluator scores candidate combinations appended to a fixed selection.
// Candidates are independent; they are scored concurrently by up to Workers
// goroutines.
type Evaluator struct {
	Metric   scoring.Metric
	Features feature.Set
	Selected []string
	Dataset  *dataset.Dataset
	Options  scoring.Options
	Workers  int
	Logger   *internal.Logger
}

func (e *Evaluator) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Applies reports whether the metric can score the dataset at all.
func (e *Evaluator) Applies() bool {
	return e.Metric.Type == e.Dataset.Kind
}

// ScoreAll scores every candidate and returns the scored ones in candidate
// order. Candidates the metric cannot score are left out. The context is
// checked before each candidate is evaluated.
func (e *Evaluator) ScoreAll(ctx context.Context, candidates [][]string) ([]Combination, error) {
	type result struct {
		combo Combination
		ok    bool
	}
	results := make([]result, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())

	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			selection := make([]string, 0, len(e.Selected)+len(candidate))
			selection = append(selection, e.Selected...)
			selection = append(selection, candidate...)

			score, ok, err := scoring.Evaluate(e.Metric, e.Features, selection, e.Dataset, e.Options)
			if err != nil {
				return err
			}
			results[i] = result{combo: Combination{Features: candidate, Score: score}, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Combination, 0, len(candidates))
	for _, r := range results {
		if r.ok {
			out = append(out, r.combo)
		}
	}
	e.Logger.Trace("scored %d of %d candidates", len(out), len(candidates))
	return out, nil
}

func singles(available []string) [][]string {
	out := make([][]string, len(available))
	for i, name := range available {
		out[i] = []string{name}
	}
	return out
}
