package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"subsetlens/domain/core"
)

// numericDistinctThreshold is the number of distinct values a numeric column
// must exceed to be treated as quantitative.
const numericDistinctThreshold = 12

// Table is a raw string table with a header row.
type Table struct {
	Headers []string
	Records [][]string
}

// FromTable parses a string table into a dataset. The table must contain a
// "label" column and may contain a "prediction" column. A column is numeric
// when all its values parse as numbers and it has more than 12 distinct
// values; the dataset is a regression dataset when the label or prediction
// column is numeric.
func FromTable(name string, t Table) (*Dataset, error) {
	index := make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		index[h] = i
	}
	labelIdx, ok := index[LabelColumn]
	if !ok {
		return nil, fmt.Errorf("%w: table %q has no %q column", core.ErrInvalidDataset, name, LabelColumn)
	}
	predIdx, hasPredictions := index[PredictionColumn]

	raw := make([][]string, len(t.Headers))
	for c := range t.Headers {
		raw[c] = make([]string, len(t.Records))
	}
	for r, rec := range t.Records {
		for c := range t.Headers {
			if c < len(rec) {
				raw[c][r] = strings.TrimSpace(rec[c])
			}
		}
	}

	numeric := make([]bool, len(t.Headers))
	for c := range t.Headers {
		numeric[c] = isNumericColumn(raw[c])
	}

	featureNames := make([]string, 0, len(t.Headers))
	columns := make(map[string]Column, len(t.Headers))
	for c, h := range t.Headers {
		if h == LabelColumn || h == PredictionColumn {
			continue
		}
		featureNames = append(featureNames, h)
		if numeric[c] {
			values, err := parseNumbers(raw[c])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", h, err)
			}
			columns[h] = NumericColumn(values)
		} else {
			columns[h] = StringColumn(raw[c])
		}
	}

	isRegression := numeric[labelIdx] || (hasPredictions && numeric[predIdx])
	if isRegression {
		labels, err := parseNumbers(raw[labelIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: label column: %v", core.ErrInvalidDataset, err)
		}
		var predictions []float64
		if hasPredictions {
			predictions, err = parseNumbers(raw[predIdx])
			if err != nil {
				return nil, fmt.Errorf("%w: prediction column: %v", core.ErrInvalidDataset, err)
			}
		}
		return NewRegression(name, featureNames, columns, labels, predictions)
	}

	var predictions []string
	if hasPredictions {
		predictions = raw[predIdx]
	}
	return NewClassification(name, featureNames, columns, raw[labelIdx], predictions)
}

func isNumericColumn(values []string) bool {
	distinct := make(map[string]struct{})
	for _, v := range values {
		if _, ok := distinct[v]; ok {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
		distinct[v] = struct{}{}
	}
	return len(distinct) > numericDistinctThreshold
}

func parseNumbers(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %q is not a number", i+1, v)
		}
		out[i] = f
	}
	return out, nil
}
