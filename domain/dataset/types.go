package dataset

import (
	"fmt"

	"subsetlens/domain/core"
)

// Kind discriminates classification from regression datasets.
type Kind string

const (
	KindClassification Kind = "classification"
	KindRegression     Kind = "regression"
)

// ApproxNumBins is the tick count used for the dataset-wide regression axes.
const ApproxNumBins = 20

// Reserved column names.
const (
	LabelColumn      = "label"
	PredictionColumn = "prediction"
)

// Column holds the values of one feature. Exactly one of Numbers or Strings
// is non-nil.
type Column struct {
	Numbers []float64 `json:"numbers,omitempty"`
	Strings []string  `json:"strings,omitempty"`
}

// NumericColumn wraps values as a quantitative column.
func NumericColumn(values []float64) Column { return Column{Numbers: values} }

// StringColumn wraps values as a categorical column.
func StringColumn(values []string) Column { return Column{Strings: values} }

// IsNumeric reports whether the column holds numbers.
func (c Column) IsNumeric() bool { return c.Numbers != nil }

// Len returns the number of values.
func (c Column) Len() int {
	if c.Numbers != nil {
		return len(c.Numbers)
	}
	return len(c.Strings)
}

func (c Column) pick(rows []int) Column {
	if c.Numbers != nil {
		out := make([]float64, len(rows))
		for i, r := range rows {
			out[i] = c.Numbers[r]
		}
		return Column{Numbers: out}
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = c.Strings[r]
	}
	return Column{Strings: out}
}

// Dataset is an immutable set of rows stored column-wise plus the target of a
// classification or regression model. Exactly one of Classification or
// Regression is set, matching Kind.
type Dataset struct {
	Name           string                `json:"name"`
	Kind           Kind                  `json:"type"`
	FeatureNames   []string              `json:"featureNames"`
	Columns        map[string]Column     `json:"columns"`
	Classification *ClassificationTarget `json:"classification,omitempty"`
	Regression     *RegressionTarget     `json:"regression,omitempty"`
}

// ClassificationTarget holds string labels, optional predictions and the
// whole-dataset distributions captured when the dataset was built.
type ClassificationTarget struct {
	Labels                  []string               `json:"labels"`
	Predictions             []string               `json:"predictions,omitempty"`
	LabelValues             []string               `json:"labelValues"`
	GroundTruthDistribution map[string]float64     `json:"groundTruthDistribution"`
	PredictionDistribution  PredictionDistribution `json:"predictionDistribution"`
}

// RegressionTarget holds numeric labels, optional predictions and the fixed
// histogram thresholds every subset is binned with.
type RegressionTarget struct {
	Labels                        []float64  `json:"labels"`
	Predictions                   []float64  `json:"predictions,omitempty"`
	ApproxNumBins                 int        `json:"approxNumBins"`
	GroundTruthExtent             [2]float64 `json:"groundTruthExtent"`
	GroundTruthThresholds         []float64  `json:"groundTruthThresholds"`
	GroundTruthQuantileThresholds []float64  `json:"groundTruthQuantileThresholds"`
	DeltaExtent                   [2]float64 `json:"deltaExtent"`
	DeltaThresholds               []float64  `json:"deltaThresholds,omitempty"`
	DeltaQuantileThresholds       []float64  `json:"deltaQuantileThresholds,omitempty"`
}

// Size returns the number of rows.
func (d *Dataset) Size() int {
	switch d.Kind {
	case KindClassification:
		return len(d.Classification.Labels)
	case KindRegression:
		return len(d.Regression.Labels)
	}
	return 0
}

// HasPredictions reports whether the dataset carries model predictions.
func (d *Dataset) HasPredictions() bool {
	switch d.Kind {
	case KindClassification:
		return d.Classification.Predictions != nil
	case KindRegression:
		return d.Regression.Predictions != nil
	}
	return false
}

// Column returns the named feature column.
func (d *Dataset) Column(name string) (Column, error) {
	col, ok := d.Columns[name]
	if !ok {
		return Column{}, fmt.Errorf("%w: %q in dataset %q", core.ErrFeatureNotFound, name, d.Name)
	}
	return col, nil
}

// Residuals returns prediction minus label for every row of a regression
// dataset with predictions.
func (t *RegressionTarget) Residuals() []float64 {
	if t.Predictions == nil {
		return nil
	}
	out := make([]float64, len(t.Labels))
	for i := range t.Labels {
		out[i] = t.Predictions[i] - t.Labels[i]
	}
	return out
}

func validateColumns(featureNames []string, columns map[string]Column, size int) error {
	for _, name := range featureNames {
		if _, ok := columns[name]; !ok {
			return fmt.Errorf("%w: %q has no column", core.ErrFeatureNotFound, name)
		}
	}
	for name, col := range columns {
		if col.Numbers != nil && col.Strings != nil {
			return fmt.Errorf("column %q holds both numbers and strings", name)
		}
		if col.Len() != size {
			return fmt.Errorf("column %q has %d values, expected %d", name, col.Len(), size)
		}
	}
	return nil
}
