// Package subset groups dataset rows by the bins of the selected features and
// summarises each non-empty group as a node.
package subset

import (
	"sort"

	"subsetlens/domain/dataset"
)

// Splits maps each selected feature to the bin index of a node.
type Splits map[string]int

// Node is either a *ClassificationNode or a *RegressionNode.
type Node interface {
	NodeKind() dataset.Kind
	NodeSize() int
	NodeSplits() Splits

	sealed()
}

// LabelCount is the number of rows in a node with one ground-truth label.
// Offset is the summed size of the preceding entries.
type LabelCount struct {
	Label              string  `json:"label"`
	Size               int     `json:"size"`
	Offset             int     `json:"offset"`
	PctPtDiffFromWhole float64 `json:"pctPtDiffFromWhole"`
}

// PredictionCount is the number of rows in a node predicted as Label,
// split by whether the prediction was correct.
type PredictionCount struct {
	Label              string  `json:"label"`
	Correct            bool    `json:"correct"`
	Size               int     `json:"size"`
	Offset             int     `json:"offset"`
	PctPtDiffFromWhole float64 `json:"pctPtDiffFromWhole"`
}

// HistogramBin is one bucket of a node histogram.
type HistogramBin struct {
	X0     float64 `json:"x0"`
	X1     float64 `json:"x1"`
	Size   int     `json:"size"`
	Offset int     `json:"offset"`
}

// ClassificationNode summarises the labels and predictions of one subset.
type ClassificationNode struct {
	Type        dataset.Kind      `json:"type"`
	Splits      Splits            `json:"splits"`
	Size        int               `json:"size"`
	GroundTruth []LabelCount      `json:"groundTruth"`
	Predictions []PredictionCount `json:"predictions,omitempty"`
}

// RegressionNode holds histograms of the labels and residuals of one subset
// over the dataset-wide thresholds. Labels and Residuals keep the raw values
// for re-binning.
type RegressionNode struct {
	Type                 dataset.Kind   `json:"type"`
	Splits               Splits         `json:"splits"`
	Size                 int            `json:"size"`
	GroundTruth          []HistogramBin `json:"groundTruth"`
	GroundTruthQuantiles []HistogramBin `json:"groundTruthQuantiles"`
	Labels               []float64      `json:"labels"`
	Predictions          []HistogramBin `json:"predictions,omitempty"`
	PredictionsQuantiles []HistogramBin `json:"predictionsQuantiles,omitempty"`
	Residuals            []float64      `json:"residuals,omitempty"`
}

func (n *ClassificationNode) NodeKind() dataset.Kind { return dataset.KindClassification }
func (n *ClassificationNode) NodeSize() int          { return n.Size }
func (n *ClassificationNode) NodeSplits() Splits     { return n.Splits }
func (*ClassificationNode) sealed()                  {}

func (n *RegressionNode) NodeKind() dataset.Kind { return dataset.KindRegression }
func (n *RegressionNode) NodeSize() int          { return n.Size }
func (n *RegressionNode) NodeSplits() Splits     { return n.Splits }
func (*RegressionNode) sealed()                  {}

// IncorrectCount returns the number of wrongly predicted rows, or 0 without
// predictions.
func (n *ClassificationNode) IncorrectCount() int {
	total := 0
	for _, p := range n.Predictions {
		if !p.Correct {
			total += p.Size
		}
	}
	return total
}

// SortBySplits orders nodes by their bin indices, comparing the features in
// selected order.
func SortBySplits[N Node](nodes []N, selected []string) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].NodeSplits(), nodes[j].NodeSplits()
		for _, f := range selected {
			if a[f] != b[f] {
				return a[f] < b[f]
			}
		}
		return false
	})
}

// FilterBySize returns the nodes with at least min rows.
func FilterBySize[N Node](nodes []N, min int) []N {
	if min <= 0 {
		return nodes
	}
	out := make([]N, 0, len(nodes))
	for _, n := range nodes {
		if n.NodeSize() >= min {
			out = append(out, n)
		}
	}
	return out
}
