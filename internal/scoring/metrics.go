// Package scoring reduces the subsets produced for a feature selection to a
// single comparable score and ranks candidate features by it.
package scoring

import (
	"fmt"
	"math"

	"subsetlens/domain/core"
	"subsetlens/domain/dataset"
	"subsetlens/domain/subset"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MetricKind names a scoring metric.
type MetricKind string

const (
	MetricNone           MetricKind = "none"
	MetricEntropy        MetricKind = "entropy"
	MetricErrorDeviation MetricKind = "errorDeviation"
	MetricErrorCount     MetricKind = "errorCount"
	MetricErrorPercent   MetricKind = "errorPercent"
	MetricMSEDeviation   MetricKind = "mseDeviation"
	MetricSimilarity     MetricKind = "similarity"
)

// ClassificationMetric scores the nodes of a classification aggregation.
type ClassificationMetric func(nodes []*subset.ClassificationNode) float64

// RegressionMetric scores the nodes of a regression aggregation.
type RegressionMetric func(nodes []*subset.RegressionNode) float64

// Metric is one entry of the metric table. Exactly one of Classification or
// Regression is set, matching Type.
type Metric struct {
	Kind                MetricKind
	Type                dataset.Kind
	Display             string
	RequiresPredictions bool
	Classification      ClassificationMetric
	Regression          RegressionMetric
}

var metrics = map[MetricKind]Metric{
	MetricEntropy: {
		Kind: MetricEntropy, Type: dataset.KindClassification, Display: "Purity",
		Classification: Entropy,
	},
	MetricErrorDeviation: {
		Kind: MetricErrorDeviation, Type: dataset.KindClassification, Display: "Error deviation",
		RequiresPredictions: true, Classification: ErrorDeviation,
	},
	MetricErrorCount: {
		Kind: MetricErrorCount, Type: dataset.KindClassification, Display: "Error count",
		RequiresPredictions: true, Classification: ErrorCount,
	},
	MetricErrorPercent: {
		Kind: MetricErrorPercent, Type: dataset.KindClassification, Display: "Error percent",
		RequiresPredictions: true, Classification: ErrorPercent,
	},
	MetricMSEDeviation: {
		Kind: MetricMSEDeviation, Type: dataset.KindRegression, Display: "MSE Deviation",
		RequiresPredictions: true, Regression: MSEDeviation,
	},
	MetricSimilarity: {
		Kind: MetricSimilarity, Type: dataset.KindRegression, Display: "Similarity",
		Regression: Similarity,
	},
}

// Lookup returns the table entry for kind.
func Lookup(kind MetricKind) (Metric, error) {
	m, ok := metrics[kind]
	if !ok {
		return Metric{}, fmt.Errorf("%w: %q", core.ErrUnknownMetric, kind)
	}
	return m, nil
}

// ParseMetricKind validates a metric name. "none" is accepted.
func ParseMetricKind(name string) (MetricKind, error) {
	kind := MetricKind(name)
	if kind == MetricNone {
		return kind, nil
	}
	if _, err := Lookup(kind); err != nil {
		return "", err
	}
	return kind, nil
}

// Score applies the metric to nodes. ok is false when the nodes are of the
// other dataset kind or there are none.
func (m Metric) Score(nodes []subset.Node) (value float64, ok bool) {
	if len(nodes) == 0 {
		return 0, false
	}
	switch m.Type {
	case dataset.KindClassification:
		typed := make([]*subset.ClassificationNode, 0, len(nodes))
		for _, n := range nodes {
			c, isClassification := n.(*subset.ClassificationNode)
			if !isClassification {
				return 0, false
			}
			typed = append(typed, c)
		}
		return m.Classification(typed), true

	case dataset.KindRegression:
		typed := make([]*subset.RegressionNode, 0, len(nodes))
		for _, n := range nodes {
			r, isRegression := n.(*subset.RegressionNode)
			if !isRegression {
				return 0, false
			}
			typed = append(typed, r)
		}
		return m.Regression(typed), true
	}
	return 0, false
}

// Entropy returns the negated size-weighted average of the base 2 entropy of
// each node's ground-truth labels. Purer splits score higher; 0 is the best
// possible value.
func Entropy(nodes []*subset.ClassificationNode) float64 {
	sizes := make([]float64, len(nodes))
	for i, n := range nodes {
		sizes[i] = float64(n.Size)
	}
	total := floats.Sum(sizes)
	if total == 0 {
		return 0
	}

	weighted := 0.0
	for i, n := range nodes {
		weighted += sizes[i] / total * nodeEntropy(n)
	}
	return -weighted
}

func nodeEntropy(n *subset.ClassificationNode) float64 {
	p := make([]float64, len(n.GroundTruth))
	for i, c := range n.GroundTruth {
		p[i] = float64(c.Size) / float64(n.Size)
	}
	return stat.Entropy(p) / math.Ln2
}

// ErrorCountForNode returns the number of incorrect predictions in n, or 0
// when it has no prediction data.
func ErrorCountForNode(n *subset.ClassificationNode) int {
	return n.IncorrectCount()
}

func errorRates(nodes []*subset.ClassificationNode) []float64 {
	rates := make([]float64, len(nodes))
	for i, n := range nodes {
		rates[i] = float64(ErrorCountForNode(n)) / float64(n.Size)
	}
	return rates
}

// ErrorCount returns the largest number of incorrect predictions in a node.
func ErrorCount(nodes []*subset.ClassificationNode) float64 {
	counts := make([]float64, len(nodes))
	for i, n := range nodes {
		counts[i] = float64(ErrorCountForNode(n))
	}
	highest, err := stats.Max(counts)
	if err != nil {
		return 0
	}
	return highest
}

// ErrorPercent returns the largest error rate of a node.
func ErrorPercent(nodes []*subset.ClassificationNode) float64 {
	highest, err := stats.Max(errorRates(nodes))
	if err != nil {
		return 0
	}
	return highest
}

// ErrorDeviation returns the population standard deviation of the node error
// rates, or 0 with fewer than two nodes.
func ErrorDeviation(nodes []*subset.ClassificationNode) float64 {
	if len(nodes) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationPopulation(errorRates(nodes))
	if err != nil {
		return 0
	}
	return sd
}

// MSEDeviation returns the sample standard deviation of the per-node mean
// squared residual, or 0 with fewer than two nodes with predictions.
func MSEDeviation(nodes []*subset.RegressionNode) float64 {
	mses := make([]float64, 0, len(nodes))
	for _, n := range nodes {
		if len(n.Residuals) == 0 {
			continue
		}
		squared := make([]float64, len(n.Residuals))
		for i, r := range n.Residuals {
			squared[i] = r * r
		}
		mean, err := stats.Mean(squared)
		if err != nil {
			continue
		}
		mses = append(mses, mean)
	}
	if len(mses) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(mses)
	if err != nil {
		return 0
	}
	return sd
}

// Similarity returns the negated mean of the per-node sample standard
// deviation of labels. Nodes with fewer than two rows are skipped.
func Similarity(nodes []*subset.RegressionNode) float64 {
	deviations := make([]float64, 0, len(nodes))
	for _, n := range nodes {
		if len(n.Labels) < 2 {
			continue
		}
		sd, err := stats.StandardDeviationSample(n.Labels)
		if err != nil {
			continue
		}
		deviations = append(deviations, sd)
	}
	if len(deviations) == 0 {
		return 0
	}
	mean, err := stats.Mean(deviations)
	if err != nil {
		return 0
	}
	return -mean
}
