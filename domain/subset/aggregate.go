package subset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"subsetlens/domain/binning"
	"subsetlens/domain/core"
	"subsetlens/domain/dataset"
	"subsetlens/domain/feature"
)

// keySeparator joins per-feature bin indices into a group key.
const keySeparator = ","

// binFunc returns the bin index of a row for one feature.
type binFunc func(row int) int

// BinKey joins bin indices into a group key, e.g. "0,2,1".
func BinKey(indices []int) string {
	var b strings.Builder
	for i, idx := range indices {
		if i > 0 {
			b.WriteString(keySeparator)
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// SplitsFromKey zips the indices of key with the selected features that
// built it.
func SplitsFromKey(selected []string, key string) (Splits, error) {
	splits := make(Splits, len(selected))
	if len(selected) == 0 {
		return splits, nil
	}
	parts := strings.Split(key, keySeparator)
	if len(parts) != len(selected) {
		return nil, fmt.Errorf("key %q has %d parts for %d features", key, len(parts), len(selected))
	}
	for i, p := range parts {
		idx, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		splits[selected[i]] = idx
	}
	return splits, nil
}

func binner(f feature.Feature, col dataset.Column) (binFunc, error) {
	switch f := f.(type) {
	case *feature.Quantitative:
		if !col.IsNumeric() {
			return nil, core.NewKindMismatchError("feature "+f.Name, "numeric column", "string column")
		}
		return func(row int) int { return f.Bin(col.Numbers[row]) }, nil
	case *feature.Categorical:
		if col.IsNumeric() {
			return nil, core.NewKindMismatchError("feature "+f.Name, "string column", "numeric column")
		}
		index := f.GroupIndex()
		return func(row int) int {
			if i, ok := index[col.Strings[row]]; ok {
				return i
			}
			return -1
		}, nil
	}
	return nil, fmt.Errorf("%w: unsupported feature %T", core.ErrInvalidFeature, f)
}

type group struct {
	key  string
	rows []int
}

// partition groups row indices by composite bin key. Groups appear in the
// order their first row appears; empty bin combinations produce no group.
func partition(features feature.Set, selected []string, ds *dataset.Dataset) ([]group, error) {
	binners := make([]binFunc, len(selected))
	for i, name := range selected {
		f, err := features.Get(name)
		if err != nil {
			return nil, err
		}
		col, err := ds.Column(name)
		if err != nil {
			return nil, err
		}
		if binners[i], err = binner(f, col); err != nil {
			return nil, err
		}
	}

	var groups []group
	positions := make(map[string]int)
	indices := make([]int, len(selected))
	for row := 0; row < ds.Size(); row++ {
		for i, bin := range binners {
			indices[i] = bin(row)
		}
		key := BinKey(indices)
		pos, ok := positions[key]
		if !ok {
			pos = len(groups)
			positions[key] = pos
			groups = append(groups, group{key: key})
		}
		groups[pos].rows = append(groups[pos].rows, row)
	}
	return groups, nil
}

// Aggregate partitions ds by the bins of the selected features and returns
// one node per observed bin combination. With no selected features the
// whole dataset forms a single node.
func Aggregate(features feature.Set, selected []string, ds *dataset.Dataset) ([]Node, error) {
	switch ds.Kind {
	case dataset.KindClassification:
		nodes, err := AggregateClassification(features, selected, ds)
		if err != nil {
			return nil, err
		}
		out := make([]Node, len(nodes))
		for i, n := range nodes {
			out[i] = n
		}
		return out, nil

	case dataset.KindRegression:
		nodes, err := AggregateRegression(features, selected, ds)
		if err != nil {
			return nil, err
		}
		out := make([]Node, len(nodes))
		for i, n := range nodes {
			out[i] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", core.ErrInvalidDataset, ds.Kind)
}

// AggregateClassification counts labels and predictions per subset of a
// classification dataset.
func AggregateClassification(features feature.Set, selected []string, ds *dataset.Dataset) ([]*ClassificationNode, error) {
	if ds.Kind != dataset.KindClassification {
		return nil, core.NewKindMismatchError("dataset "+ds.Name, string(dataset.KindClassification), string(ds.Kind))
	}
	groups, err := partition(features, selected, ds)
	if err != nil {
		return nil, err
	}

	target := ds.Classification
	nodes := make([]*ClassificationNode, len(groups))
	for i, g := range groups {
		splits, err := SplitsFromKey(selected, g.key)
		if err != nil {
			return nil, err
		}
		node := &ClassificationNode{
			Type:        dataset.KindClassification,
			Splits:      splits,
			Size:        len(g.rows),
			GroundTruth: countLabels(target, g.rows),
		}
		if target.Predictions != nil {
			node.Predictions = countPredictions(target, g.rows)
		}
		nodes[i] = node
	}
	return nodes, nil
}

func countLabels(target *dataset.ClassificationTarget, rows []int) []LabelCount {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[target.Labels[r]]++
	}

	out := make([]LabelCount, 0, len(counts))
	for label, size := range counts {
		out = append(out, LabelCount{Label: label, Size: size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })

	n := float64(len(rows))
	offset := 0
	for i := range out {
		out[i].Offset = offset
		offset += out[i].Size
		out[i].PctPtDiffFromWhole = float64(out[i].Size)/n - target.GroundTruthDistribution[out[i].Label]
	}
	return out
}

type predictionKey struct {
	label   string
	correct bool
}

func countPredictions(target *dataset.ClassificationTarget, rows []int) []PredictionCount {
	counts := make(map[predictionKey]int)
	for _, r := range rows {
		p := target.Predictions[r]
		counts[predictionKey{p, p == target.Labels[r]}]++
	}

	out := make([]PredictionCount, 0, len(counts))
	for k, size := range counts {
		out = append(out, PredictionCount{Label: k.label, Correct: k.correct, Size: size})
	}
	// by label, then incorrect before correct
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return !out[i].Correct && out[j].Correct
	})

	n := float64(len(rows))
	offset := 0
	for i := range out {
		out[i].Offset = offset
		offset += out[i].Size
		out[i].PctPtDiffFromWhole = float64(out[i].Size)/n - target.PredictionDistribution.Fraction(out[i].Label, out[i].Correct)
	}
	return out
}

// AggregateRegression bins the labels and residuals of each subset of a
// regression dataset with the dataset-wide thresholds, so every node shares
// the same axes.
func AggregateRegression(features feature.Set, selected []string, ds *dataset.Dataset) ([]*RegressionNode, error) {
	if ds.Kind != dataset.KindRegression {
		return nil, core.NewKindMismatchError("dataset "+ds.Name, string(dataset.KindRegression), string(ds.Kind))
	}
	groups, err := partition(features, selected, ds)
	if err != nil {
		return nil, err
	}

	target := ds.Regression
	nodes := make([]*RegressionNode, len(groups))
	for i, g := range groups {
		splits, err := SplitsFromKey(selected, g.key)
		if err != nil {
			return nil, err
		}

		labels := make([]float64, len(g.rows))
		for j, r := range g.rows {
			labels[j] = target.Labels[r]
		}
		node := &RegressionNode{
			Type:                 dataset.KindRegression,
			Splits:               splits,
			Size:                 len(g.rows),
			GroundTruth:          histogram(labels, target.GroundTruthExtent, target.GroundTruthThresholds),
			GroundTruthQuantiles: histogram(labels, target.GroundTruthExtent, target.GroundTruthQuantileThresholds),
			Labels:               labels,
		}

		if target.Predictions != nil {
			residuals := make([]float64, len(g.rows))
			for j, r := range g.rows {
				residuals[j] = target.Predictions[r] - target.Labels[r]
			}
			node.Predictions = histogram(residuals, target.DeltaExtent, target.DeltaThresholds)
			node.PredictionsQuantiles = histogram(residuals, target.DeltaExtent, target.DeltaQuantileThresholds)
			node.Residuals = residuals
		}
		nodes[i] = node
	}
	return nodes, nil
}

func histogram(values []float64, extent [2]float64, thresholds []float64) []HistogramBin {
	bins := binning.Histogram(values, extent, thresholds)
	out := make([]HistogramBin, len(bins))
	offset := 0
	for i, b := range bins {
		out[i] = HistogramBin{X0: b.X0, X1: b.X1, Size: b.Count, Offset: offset}
		offset += b.Count
	}
	return out
}
