package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"subsetlens/internal"
	"subsetlens/internal/scoring"
	"subsetlens/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluator(t *testing.T, kind scoring.MetricKind, f testkit.Fixture) *Evaluator {
	t.Helper()
	metric, err := scoring.Lookup(kind)
	require.NoError(t, err)
	return &Evaluator{
		Metric:   metric,
		Features: f.Features,
		Dataset:  f.Dataset,
		Workers:  4,
		Logger:   internal.Discard(),
	}
}

func wideConfig() testkit.GeneratorConfig {
	config := testkit.DefaultGeneratorConfig()
	config.Rows = 300
	config.SignalFeatures = 3
	config.NoiseFeatures = 4
	config.CategoricalFeatures = 2
	return config
}

func TestScoreAllKeepsCandidateOrder(t *testing.T) {
	f := testkit.ClassificationFixture(t, wideConfig())
	e := evaluator(t, scoring.MetricEntropy, f)

	candidates := singles(f.Dataset.FeatureNames)
	got, err := e.ScoreAll(context.Background(), candidates)
	require.NoError(t, err)
	require.Len(t, got, len(candidates))
	for i, c := range got {
		assert.Equal(t, candidates[i], c.Features)
	}

	e.Workers = 1
	sequential, err := e.ScoreAll(context.Background(), candidates)
	require.NoError(t, err)
	assert.Equal(t, got, sequential)
}

func TestScoreAllStopsWhenCancelled(t *testing.T) {
	f := testkit.ClassificationFixture(t, wideConfig())
	e := evaluator(t, scoring.MetricEntropy, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.ScoreAll(ctx, singles(f.Dataset.FeatureNames))
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = LevelWise(ctx, e, f.Dataset.FeatureNames, LevelWiseConfig{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGreedy(t *testing.T) {
	f := testkit.ClassificationFixture(t, wideConfig())
	e := evaluator(t, scoring.MetricEntropy, f)

	combos, err := Greedy(context.Background(), e, f.Dataset.FeatureNames, GreedyConfig{})
	require.NoError(t, err)
	require.NotEmpty(t, combos)

	for i := 1; i < len(combos); i++ {
		assert.GreaterOrEqual(t, combos[i-1].Score, combos[i].Score)
	}
	sizes := map[int]int{}
	for _, c := range combos {
		sizes[len(c.Features)]++
		assert.LessOrEqual(t, len(c.Features), 3)
	}
	assert.Equal(t, len(f.Dataset.FeatureNames), sizes[1])

	best, ok, err := SuggestNext(context.Background(), e, f.Dataset.FeatureNames)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, []string{testkit.SignalName(0), testkit.SignalName(1), testkit.SignalName(2)}, best.Features[0])
}

func TestGreedyPairsBeatMeanSingle(t *testing.T) {
	f := testkit.ClassificationFixture(t, wideConfig())
	e := evaluator(t, scoring.MetricEntropy, f)

	combos, err := Greedy(context.Background(), e, f.Dataset.FeatureNames, GreedyConfig{TopFeatures: 4})
	require.NoError(t, err)

	var singleScores []float64
	for _, c := range combos {
		if len(c.Features) == 1 {
			singleScores = append(singleScores, c.Score)
		}
	}
	require.Len(t, singleScores, 4)
	mean := (singleScores[0] + singleScores[1] + singleScores[2] + singleScores[3]) / 4
	for _, c := range combos {
		if len(c.Features) == 2 {
			assert.Greater(t, c.Score, mean)
		}
	}
}

func TestLevelWiseAntiMonotone(t *testing.T) {
	f := testkit.ClassificationFixture(t, wideConfig())
	e := evaluator(t, scoring.MetricEntropy, f)

	combos, err := LevelWise(context.Background(), e, f.Dataset.FeatureNames, LevelWiseConfig{Percent: 0.9})
	require.NoError(t, err)
	require.NotEmpty(t, combos)

	survivors := map[string]bool{}
	singlesKept := 0
	for _, c := range combos {
		survivors[c.Key()] = true
		if len(c.Features) == 1 {
			singlesKept++
		}
		assert.LessOrEqual(t, len(c.Features), DefaultMaxLevels)
	}
	assert.Equal(t, len(f.Dataset.FeatureNames)/2, singlesKept)

	for _, c := range combos {
		if len(c.Features) < 2 {
			continue
		}
		for i := range c.Features {
			sub := append(append([]string{}, c.Features[:i]...), c.Features[i+1:]...)
			assert.True(t, survivors[Combination{Features: sub}.Key()], "%v is missing sub-combination %v", c.Features, sub)
		}
	}
}

func TestSearchWithSelectionScoresAppendedFeatures(t *testing.T) {
	f := testkit.ClassificationFixture(t, wideConfig())
	e := evaluator(t, scoring.MetricEntropy, f)
	e.Selected = []string{testkit.SignalName(0)}

	available := scoring.Available(f.Dataset, e.Selected)
	combos, err := Greedy(context.Background(), e, available, GreedyConfig{})
	require.NoError(t, err)
	for _, c := range combos {
		assert.NotContains(t, c.Features, testkit.SignalName(0))
	}
}

func TestSearchEdgeCases(t *testing.T) {
	f := testkit.ClassificationFixture(t, wideConfig())

	t.Run("no available features", func(t *testing.T) {
		e := evaluator(t, scoring.MetricEntropy, f)
		combos, err := Greedy(context.Background(), e, nil, GreedyConfig{})
		require.NoError(t, err)
		assert.Empty(t, combos)

		combos, err = LevelWise(context.Background(), e, []string{}, LevelWiseConfig{})
		require.NoError(t, err)
		assert.Empty(t, combos)

		_, ok, err := SuggestNext(context.Background(), e, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("regression metric on classification data", func(t *testing.T) {
		e := evaluator(t, scoring.MetricMSEDeviation, f)
		combos, err := Greedy(context.Background(), e, f.Dataset.FeatureNames, GreedyConfig{})
		require.NoError(t, err)
		assert.Empty(t, combos)

		combos, err = LevelWise(context.Background(), e, f.Dataset.FeatureNames, LevelWiseConfig{})
		require.NoError(t, err)
		assert.Empty(t, combos)
	})

	t.Run("unknown feature fails", func(t *testing.T) {
		e := evaluator(t, scoring.MetricEntropy, f)
		_, err := Greedy(context.Background(), e, []string{"missing"}, GreedyConfig{})
		assert.Error(t, err)
	})
}

func TestLevelWiseRegression(t *testing.T) {
	f := testkit.RegressionFixture(t, wideConfig())
	e := evaluator(t, scoring.MetricSimilarity, f)

	combos, err := LevelWise(context.Background(), e, f.Dataset.FeatureNames, LevelWiseConfig{})
	require.NoError(t, err)
	assert.NotEmpty(t, combos)
}

func TestLowestScore(t *testing.T) {
	assert.Equal(t, 0.25, lowestScore([]Combination{{Score: 0.5}, {Score: 0.25}, {Score: 0.75}}))
	assert.True(t, math.IsInf(lowestScore(nil), 1))
}
