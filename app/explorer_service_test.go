package app

import (
	"context"
	"testing"
	"time"

	"subsetlens/domain/dataset"
	"subsetlens/domain/subset"
	"subsetlens/internal"
	"subsetlens/internal/config"
	"subsetlens/internal/errors"
	"subsetlens/internal/scoring"
	"subsetlens/internal/testkit"
	"subsetlens/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, ds *dataset.Dataset) *ExplorerService {
	t.Helper()
	cfg := config.Default().Search
	cfg.Workers = 2
	svc, err := NewExplorerService(ds, cfg, internal.Discard())
	require.NoError(t, err)
	return svc
}

func classification(t *testing.T) *dataset.Dataset {
	t.Helper()
	return testkit.ClassificationFixture(t, testkit.DefaultGeneratorConfig()).Dataset
}

func totalSize(nodes []subset.Node) int {
	n := 0
	for _, node := range nodes {
		n += node.NodeSize()
	}
	return n
}

func TestAggregateUsesLoadedDataset(t *testing.T) {
	svc := newService(t, classification(t))

	resp, err := svc.Aggregate(context.Background(), ports.AggregateRequest{
		Selection: ports.Selection{Selected: []string{testkit.SignalName(0), testkit.SegmentName(0)}},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, dataset.KindClassification, resp.Type)
	assert.Equal(t, 500, resp.Size)
	assert.Equal(t, 500, totalSize(resp.Nodes))
	for i := 1; i < len(resp.Nodes); i++ {
		prev, cur := resp.Nodes[i-1].NodeSplits(), resp.Nodes[i].NodeSplits()
		sig := testkit.SignalName(0)
		assert.LessOrEqual(t, prev[sig], cur[sig])
	}
}

func TestAggregateAppliesFilters(t *testing.T) {
	svc := newService(t, classification(t))

	resp, err := svc.Aggregate(context.Background(), ports.AggregateRequest{
		Selection: ports.Selection{
			Selected: []string{testkit.SignalName(0)},
			Filters: []dataset.Filter{{
				Type: dataset.FilterQuantitative, Feature: testkit.SignalName(0), Min: 0, Max: 50,
			}},
		},
	})
	require.NoError(t, err)
	assert.Less(t, resp.Size, 500)
	assert.Equal(t, resp.Size, totalSize(resp.Nodes))
}

func TestAggregateErrors(t *testing.T) {
	svc := newService(t, classification(t))
	ctx := context.Background()

	_, err := svc.Aggregate(ctx, ports.AggregateRequest{Selection: ports.Selection{Selected: []string{"missing"}}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = svc.Aggregate(ctx, ports.AggregateRequest{
		Selection: ports.Selection{Selected: []string{testkit.SignalName(0), testkit.SignalName(0)}},
	})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.Aggregate(ctx, ports.AggregateRequest{
		Selection: ports.Selection{Filters: []dataset.Filter{{Type: dataset.FilterCategorical, Feature: testkit.SignalName(0)}}},
	})
	assert.Equal(t, errors.CodeKindMismatch, errors.GetCode(err))

	empty := newService(t, nil)
	_, err = empty.Aggregate(ctx, ports.AggregateRequest{})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestRequestDatasetOverridesLoaded(t *testing.T) {
	svc := newService(t, nil)
	ds := classification(t)

	resp, err := svc.Aggregate(context.Background(), ports.AggregateRequest{
		Selection: ports.Selection{Dataset: ds, Selected: []string{testkit.NoiseName(0)}},
	})
	require.NoError(t, err)
	assert.Equal(t, ds.Size(), totalSize(resp.Nodes))
}

func TestRequestDatasetWithShortColumnIsRejected(t *testing.T) {
	svc := newService(t, nil)
	ds := &dataset.Dataset{
		Name:           "short",
		Kind:           dataset.KindClassification,
		FeatureNames:   []string{"x"},
		Columns:        map[string]dataset.Column{"x": dataset.StringColumn([]string{"a"})},
		Classification: &dataset.ClassificationTarget{Labels: []string{"p", "q", "p"}},
	}
	ctx := context.Background()

	var err error
	assert.NotPanics(t, func() {
		_, err = svc.Aggregate(ctx, ports.AggregateRequest{
			Selection: ports.Selection{Dataset: ds, Selected: []string{"x"}},
		})
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	_, err = svc.RateFeatures(ctx, ports.RatingsRequest{Selection: ports.Selection{Dataset: ds}})
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	_, err = svc.Metrics(ctx, ports.MetricsRequest{Dataset: &dataset.Dataset{Kind: dataset.KindRegression}})
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestRateFeatures(t *testing.T) {
	svc := newService(t, classification(t))

	resp, err := svc.RateFeatures(context.Background(), ports.RatingsRequest{})
	require.NoError(t, err)
	assert.Equal(t, scoring.MetricEntropy, resp.Criterion)
	assert.Len(t, resp.Ratings, len(svc.Dataset().FeatureNames))
	for _, v := range resp.Ratings {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	best, bestValue := "", -1.0
	for name, v := range resp.Ratings {
		if v > bestValue {
			best, bestValue = name, v
		}
	}
	assert.Equal(t, 1.0, bestValue)
	assert.Contains(t, []string{testkit.SignalName(0), testkit.SignalName(1)}, best)

	none, err := svc.RateFeatures(context.Background(), ports.RatingsRequest{Criterion: scoring.MetricNone})
	require.NoError(t, err)
	assert.Empty(t, none.Ratings)

	_, err = svc.RateFeatures(context.Background(), ports.RatingsRequest{Criterion: "bogus"})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestSearchOperations(t *testing.T) {
	svc := newService(t, classification(t))
	ctx := context.Background()

	next, err := svc.SuggestNext(ctx, ports.SearchRequest{})
	require.NoError(t, err)
	require.Len(t, next.Combinations, 1)
	require.Len(t, next.Combinations[0].Features, 1)
	assert.Contains(t, []string{testkit.SignalName(0), testkit.SignalName(1)}, next.Combinations[0].Features[0])

	greedy, err := svc.SuggestCombinations(ctx, ports.SearchRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, greedy.Combinations)
	for i := 1; i < len(greedy.Combinations); i++ {
		assert.GreaterOrEqual(t, greedy.Combinations[i-1].Score, greedy.Combinations[i].Score)
	}

	selected := []string{testkit.SignalName(0)}
	levels, err := svc.FindSubsets(ctx, ports.SearchRequest{Selection: ports.Selection{Selected: selected}})
	require.NoError(t, err)
	require.NotEmpty(t, levels.Combinations)
	for _, c := range levels.Combinations {
		assert.NotContains(t, c.Features, testkit.SignalName(0))
	}

	none, err := svc.FindSubsets(ctx, ports.SearchRequest{Criterion: scoring.MetricNone})
	require.NoError(t, err)
	assert.Empty(t, none.Combinations)

	_, err = svc.FindSubsets(ctx, ports.SearchRequest{Percent: 1.5})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestSearchCancelled(t *testing.T) {
	svc := newService(t, classification(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.FindSubsets(ctx, ports.SearchRequest{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeCancelled, errors.GetCode(err))

	_, err = svc.Aggregate(ctx, ports.AggregateRequest{})
	assert.Equal(t, errors.CodeCancelled, errors.GetCode(err))
}

func TestSearchTimeout(t *testing.T) {
	svc := newService(t, classification(t))
	svc.cfg.Timeout = time.Nanosecond

	_, err := svc.FindSubsets(context.Background(), ports.SearchRequest{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeCancelled, errors.GetCode(err))
}

func TestMetrics(t *testing.T) {
	svc := newService(t, classification(t))

	resp, err := svc.Metrics(context.Background(), ports.MetricsRequest{})
	require.NoError(t, err)
	assert.Equal(t, scoring.MetricEntropy, resp.Default.Value)
	assert.NotEmpty(t, resp.Groups)

	resp, err = svc.Metrics(context.Background(), ports.MetricsRequest{ChooseNone: true})
	require.NoError(t, err)
	assert.Equal(t, scoring.MetricNone, resp.Default.Value)
}
