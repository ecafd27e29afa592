package subset

import (
	"errors"
	"testing"

	"subsetlens/domain/core"
	"subsetlens/domain/dataset"
	"subsetlens/domain/feature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// peopleRows is a 25 row classification fixture without predictions.
var peopleRows = []struct {
	age, favoriteNumber float64
	label               string
}{
	{12, 5, "no"}, {18, 20, "yes"}, {25, 29, "yes"}, {10, 45, "yes"}, {40, 0, "no"},
	{70, 90, "no"}, {35, 30, "yes"}, {30, 60, "no"}, {50, 10, "yes"}, {55, 75, "no"},
	{62, 33, "yes"}, {29, 88, "no"}, {22, 55, "yes"}, {45, 45, "no"}, {48, 15, "yes"},
	{33, 82, "no"}, {67, 5, "yes"}, {58, 58, "no"}, {15, 70, "yes"}, {42, 61, "no"},
	{38, 27, "yes"}, {52, 40, "no"}, {65, 66, "yes"}, {27, 31, "no"}, {44, 50, "yes"},
}

func people(t *testing.T, withPredictions bool) (*dataset.Dataset, feature.Set) {
	t.Helper()
	ages := make([]float64, len(peopleRows))
	favs := make([]float64, len(peopleRows))
	labels := make([]string, len(peopleRows))
	for i, r := range peopleRows {
		ages[i], favs[i], labels[i] = r.age, r.favoriteNumber, r.label
	}
	var predictions []string
	if withPredictions {
		predictions = make([]string, len(labels))
		for i := range predictions {
			predictions[i] = "yes"
		}
	}

	ds, err := dataset.NewClassification("people",
		[]string{"age", "favoriteNumber"},
		map[string]dataset.Column{
			"age":            dataset.NumericColumn(ages),
			"favoriteNumber": dataset.NumericColumn(favs),
		},
		labels, predictions)
	require.NoError(t, err)

	features, err := feature.Derive(ds)
	require.NoError(t, err)
	return ds, features
}

func findNode[N Node](nodes []N, splits Splits) (N, bool) {
	for _, n := range nodes {
		if len(n.NodeSplits()) != len(splits) {
			continue
		}
		match := true
		for k, v := range splits {
			if n.NodeSplits()[k] != v {
				match = false
				break
			}
		}
		if match {
			return n, true
		}
	}
	var zero N
	return zero, false
}

func TestAggregateClassificationFixture(t *testing.T) {
	ds, features := people(t, false)
	selected := []string{"age", "favoriteNumber"}

	nodes, err := AggregateClassification(features, selected, ds)
	require.NoError(t, err)

	node, ok := findNode(nodes, Splits{"age": 0, "favoriteNumber": 0})
	require.True(t, ok)
	assert.Equal(t, 3, node.Size)
	require.Len(t, node.GroundTruth, 2)
	assert.Equal(t, "no", node.GroundTruth[0].Label)
	assert.Equal(t, 1, node.GroundTruth[0].Size)
	assert.Equal(t, 0, node.GroundTruth[0].Offset)
	assert.Equal(t, "yes", node.GroundTruth[1].Label)
	assert.Equal(t, 2, node.GroundTruth[1].Size)
	assert.Equal(t, 1, node.GroundTruth[1].Offset)
	assert.InDelta(t, 1.0/3-12.0/25, node.GroundTruth[0].PctPtDiffFromWhole, 1e-12)
	assert.Nil(t, node.Predictions)
}

func TestAggregateConservesSizeAndOffsets(t *testing.T) {
	ds, features := people(t, true)

	for _, selected := range [][]string{{"age"}, {"favoriteNumber"}, {"age", "favoriteNumber"}} {
		nodes, err := AggregateClassification(features, selected, ds)
		require.NoError(t, err)

		total := 0
		for _, n := range nodes {
			total += n.Size

			sum := 0
			for _, c := range n.GroundTruth {
				assert.Equal(t, sum, c.Offset)
				sum += c.Size
			}
			assert.Equal(t, n.Size, sum)

			sum = 0
			for _, p := range n.Predictions {
				assert.Equal(t, sum, p.Offset)
				sum += p.Size
			}
			assert.Equal(t, n.Size, sum)
		}
		assert.Equal(t, ds.Size(), total)
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	ds, features := people(t, true)
	selected := []string{"favoriteNumber", "age"}

	a, err := Aggregate(features, selected, ds)
	require.NoError(t, err)
	b, err := Aggregate(features, selected, ds)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAggregateWithoutFeaturesReturnsRoot(t *testing.T) {
	ds, features := people(t, false)

	nodes, err := Aggregate(features, nil, ds)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, 25, nodes[0].NodeSize())
	assert.Empty(t, nodes[0].NodeSplits())
}

func TestPredictionOrdering(t *testing.T) {
	ds, err := dataset.NewClassification("p", nil, nil,
		[]string{"a", "b", "a", "b", "a"},
		[]string{"b", "b", "a", "a", "a"})
	require.NoError(t, err)

	nodes, err := AggregateClassification(feature.Set{}, nil, ds)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	got := nodes[0].Predictions
	require.Len(t, got, 4)
	assert.Equal(t, PredictionCount{Label: "a", Correct: false, Size: 1, Offset: 0}, withoutDiff(got[0]))
	assert.Equal(t, PredictionCount{Label: "a", Correct: true, Size: 2, Offset: 1}, withoutDiff(got[1]))
	assert.Equal(t, PredictionCount{Label: "b", Correct: false, Size: 1, Offset: 3}, withoutDiff(got[2]))
	assert.Equal(t, PredictionCount{Label: "b", Correct: true, Size: 1, Offset: 4}, withoutDiff(got[3]))
	assert.Equal(t, 2, nodes[0].IncorrectCount())
}

func withoutDiff(p PredictionCount) PredictionCount {
	p.PctPtDiffFromWhole = 0
	return p
}

func TestAggregateCategorical(t *testing.T) {
	ds, err := dataset.NewClassification("pets",
		[]string{"pet"},
		map[string]dataset.Column{"pet": dataset.StringColumn([]string{"dog", "cat", "dog", "fish"})},
		[]string{"x", "y", "x", "y"}, nil)
	require.NoError(t, err)

	features, err := feature.Derive(ds)
	require.NoError(t, err)
	pet := features["pet"].(*feature.Categorical)
	arena := feature.NewGroupArena()
	arena.Load(pet)
	require.NoError(t, arena.MoveValue("fish", 2, 0))
	arena.Apply(pet)

	nodes, err := AggregateClassification(features, []string{"pet"}, ds)
	require.NoError(t, err)
	SortBySplits(nodes, []string{"pet"})
	require.Len(t, nodes, 2)
	assert.Equal(t, 2, nodes[0].Size)
	assert.Equal(t, Splits{"pet": 1}, nodes[1].Splits)
}

func TestAggregateErrors(t *testing.T) {
	ds, features := people(t, false)

	_, err := Aggregate(features, []string{"height"}, ds)
	assert.True(t, errors.Is(err, core.ErrFeatureNotFound))

	_, err = AggregateRegression(features, nil, ds)
	assert.True(t, errors.Is(err, core.ErrKindMismatch))

	wrong := feature.Set{"age": feature.NewCategorical("age", []string{"x"})}
	_, err = Aggregate(wrong, []string{"age"}, ds)
	assert.True(t, errors.Is(err, core.ErrKindMismatch))
}

func TestAggregateRegression(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	labels := []float64{3, 5, 8, 13, 21, 34, 55, 89, 144, 233}
	predictions := []float64{4, 5, 6, 15, 20, 30, 60, 80, 150, 200}
	ds, err := dataset.NewRegression("fib",
		[]string{"x"},
		map[string]dataset.Column{"x": dataset.NumericColumn(x)},
		labels, predictions)
	require.NoError(t, err)
	features, err := feature.Derive(ds)
	require.NoError(t, err)

	nodes, err := AggregateRegression(features, []string{"x"}, ds)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	total := 0
	for _, n := range nodes {
		total += n.Size
		for _, hist := range [][]HistogramBin{n.GroundTruth, n.GroundTruthQuantiles, n.Predictions, n.PredictionsQuantiles} {
			sum := 0
			for _, b := range hist {
				assert.Equal(t, sum, b.Offset)
				sum += b.Size
			}
			assert.Equal(t, n.Size, sum)
		}
		assert.Len(t, n.Labels, n.Size)
		assert.Len(t, n.Residuals, n.Size)
		// every node shares the dataset-wide axis
		assert.Equal(t, ds.Regression.GroundTruthExtent[0], n.GroundTruth[0].X0)
		assert.Equal(t, len(nodes[0].GroundTruth), len(n.GroundTruth))
	}
	assert.Equal(t, 10, total)
}

func TestBinKeyAndSplits(t *testing.T) {
	assert.Equal(t, "0,2,1", BinKey([]int{0, 2, 1}))
	assert.Equal(t, "", BinKey(nil))

	splits, err := SplitsFromKey([]string{"a", "b"}, "3,-1")
	require.NoError(t, err)
	assert.Equal(t, Splits{"a": 3, "b": -1}, splits)

	_, err = SplitsFromKey([]string{"a"}, "1,2")
	assert.Error(t, err)
}

func TestFilterBySize(t *testing.T) {
	nodes := []Node{
		&ClassificationNode{Size: 1},
		&ClassificationNode{Size: 5},
	}
	assert.Len(t, FilterBySize(nodes, 2), 1)
	assert.Len(t, FilterBySize(nodes, 0), 2)
}
