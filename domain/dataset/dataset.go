package dataset

import (
	"fmt"
	"math"

	"subsetlens/domain/binning"
	"subsetlens/domain/core"

	"gonum.org/v1/gonum/floats"
)

// NewClassification builds a classification dataset and captures its
// ground-truth and prediction distributions. predictions may be nil.
func NewClassification(name string, featureNames []string, columns map[string]Column, labels, predictions []string) (*Dataset, error) {
	if err := validateColumns(featureNames, columns, len(labels)); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidDataset, err)
	}
	if predictions != nil && len(predictions) != len(labels) {
		return nil, fmt.Errorf("%w: %d predictions for %d labels", core.ErrInvalidDataset, len(predictions), len(labels))
	}

	target := &ClassificationTarget{
		Labels:                  labels,
		Predictions:             predictions,
		LabelValues:             uniqueSorted(labels),
		GroundTruthDistribution: GroundTruthDistribution(labels),
	}
	if predictions != nil {
		target.PredictionDistribution = NewPredictionDistribution(labels, predictions)
	}

	return &Dataset{
		Name:           name,
		Kind:           KindClassification,
		FeatureNames:   featureNames,
		Columns:        columns,
		Classification: target,
	}, nil
}

// NewRegression builds a regression dataset and fixes the histogram
// thresholds over labels and residuals that every subset is binned with.
// predictions may be nil.
func NewRegression(name string, featureNames []string, columns map[string]Column, labels, predictions []float64) (*Dataset, error) {
	if err := validateColumns(featureNames, columns, len(labels)); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidDataset, err)
	}
	if predictions != nil && len(predictions) != len(labels) {
		return nil, fmt.Errorf("%w: %d predictions for %d labels", core.ErrInvalidDataset, len(predictions), len(labels))
	}

	target := &RegressionTarget{
		Labels:        labels,
		Predictions:   predictions,
		ApproxNumBins: ApproxNumBins,
	}
	target.fixThresholds()

	return &Dataset{
		Name:         name,
		Kind:         KindRegression,
		FeatureNames: featureNames,
		Columns:      columns,
		Regression:   target,
	}, nil
}

// Rebuild checks a dataset that arrived from outside, for example in a request
// body, and builds it again from its columns, labels and predictions. Derived
// distributions and thresholds carried by d are discarded.
func (d *Dataset) Rebuild() (*Dataset, error) {
	switch d.Kind {
	case KindClassification:
		if d.Classification == nil || d.Regression != nil {
			return nil, fmt.Errorf("%w: classification dataset %q needs exactly a classification target", core.ErrInvalidDataset, d.Name)
		}
		return NewClassification(d.Name, d.FeatureNames, d.Columns, d.Classification.Labels, d.Classification.Predictions)
	case KindRegression:
		if d.Regression == nil || d.Classification != nil {
			return nil, fmt.Errorf("%w: regression dataset %q needs exactly a regression target", core.ErrInvalidDataset, d.Name)
		}
		return NewRegression(d.Name, d.FeatureNames, d.Columns, d.Regression.Labels, d.Regression.Predictions)
	}
	return nil, fmt.Errorf("%w: unknown kind %q", core.ErrInvalidDataset, d.Kind)
}

func (t *RegressionTarget) fixThresholds() {
	var lo, hi float64
	if len(t.Labels) > 0 {
		lo, hi = floats.Min(t.Labels), floats.Max(t.Labels)
	}
	t.GroundTruthExtent = binning.Nice(lo, hi, t.ApproxNumBins)
	t.GroundTruthThresholds = binning.InteriorTicks(t.GroundTruthExtent, t.ApproxNumBins)
	t.GroundTruthQuantileThresholds = binning.QuantileThresholds(t.Labels, t.ApproxNumBins/2)

	if t.Predictions == nil {
		return
	}

	residuals := t.Residuals()
	maxAbs := 0.0
	for _, r := range residuals {
		maxAbs = math.Max(maxAbs, math.Abs(r))
	}
	t.DeltaExtent = binning.Nice(-maxAbs, maxAbs, t.ApproxNumBins)
	t.DeltaThresholds = binning.InteriorTicks(t.DeltaExtent, t.ApproxNumBins)
	t.DeltaQuantileThresholds = binning.QuantileThresholds(residuals, t.ApproxNumBins/2)
}

// Subset returns a new dataset holding only the given rows. Classification
// distributions are recomputed; regression thresholds are kept from d so the
// subset shares d's axes.
func (d *Dataset) Subset(rows []int) (*Dataset, error) {
	columns := make(map[string]Column, len(d.Columns))
	for name, col := range d.Columns {
		columns[name] = col.pick(rows)
	}

	switch d.Kind {
	case KindClassification:
		src := d.Classification
		labels := make([]string, len(rows))
		var predictions []string
		if src.Predictions != nil {
			predictions = make([]string, len(rows))
		}
		for i, r := range rows {
			labels[i] = src.Labels[r]
			if predictions != nil {
				predictions[i] = src.Predictions[r]
			}
		}
		sub, err := NewClassification(d.Name, d.FeatureNames, columns, labels, predictions)
		if err != nil {
			return nil, err
		}
		// label values are those of the parent so colours and orderings stay stable
		sub.Classification.LabelValues = src.LabelValues
		return sub, nil

	case KindRegression:
		src := d.Regression
		target := *src
		target.Labels = make([]float64, len(rows))
		target.Predictions = nil
		if src.Predictions != nil {
			target.Predictions = make([]float64, len(rows))
		}
		for i, r := range rows {
			target.Labels[i] = src.Labels[r]
			if target.Predictions != nil {
				target.Predictions[i] = src.Predictions[r]
			}
		}
		return &Dataset{
			Name:         d.Name,
			Kind:         KindRegression,
			FeatureNames: d.FeatureNames,
			Columns:      columns,
			Regression:   &target,
		}, nil
	}

	return nil, fmt.Errorf("%w: unknown kind %q", core.ErrInvalidDataset, d.Kind)
}
