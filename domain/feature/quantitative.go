package feature

import "subsetlens/domain/binning"

// AllowedBinNumbers are the bin counts a quantitative feature may be edited to.
var AllowedBinNumbers = []int{2, 3, 4, 5, 6}

// SetBins recomputes thresholds for the current split type and bin count.
// Interval and quantile splits are recomputed from scratch along with their
// labels. Custom splits append zero thresholds or drop trailing ones until
// there are Bins-1 of them; the caller fixes the values. The result reports
// whether the thresholds are valid.
func (q *Quantitative) SetBins(values []float64) bool {
	switch q.SplitType {
	case SplitInterval:
		q.Thresholds = binning.EqualIntervalThresholds(q.Extent, q.Bins)
		q.setLabels()
		return true

	case SplitQuantile:
		q.Thresholds = binning.QuantileThresholds(values, q.Bins)
		q.setLabels()
		return true

	case SplitCustom:
		want := q.Bins - 1
		if want < 0 {
			want = 0
		}
		switch {
		case want < len(q.Thresholds):
			q.Thresholds = q.Thresholds[:want]
		case want > len(q.Thresholds):
			q.Thresholds = append(q.Thresholds, make([]float64, want-len(q.Thresholds))...)
		}
		valid := q.AreThresholdsValid()
		if valid {
			q.setLabels()
		}
		return valid
	}
	return false
}

// IncreaseBins adds a bin unless the maximum allowed count is reached.
func (q *Quantitative) IncreaseBins(values []float64) bool {
	if q.Bins < AllowedBinNumbers[len(AllowedBinNumbers)-1] {
		q.Bins++
		return q.SetBins(values)
	}
	return q.thresholdsUsable()
}

// DecreaseBins removes a bin unless the minimum allowed count is reached.
func (q *Quantitative) DecreaseBins(values []float64) bool {
	if q.Bins > AllowedBinNumbers[0] {
		q.Bins--
		return q.SetBins(values)
	}
	return q.thresholdsUsable()
}

// SetSplitType switches the split strategy and recomputes the bins.
func (q *Quantitative) SetSplitType(split SplitType, values []float64) bool {
	q.SplitType = split
	return q.SetBins(values)
}

// SetCustomThresholds replaces the thresholds with user supplied ones and
// switches to a custom split. Labels are refreshed only when the thresholds
// are valid.
func (q *Quantitative) SetCustomThresholds(thresholds []float64) bool {
	q.SplitType = SplitCustom
	q.Thresholds = append([]float64(nil), thresholds...)
	q.Bins = len(thresholds) + 1
	valid := q.AreThresholdsValid()
	if valid {
		q.setLabels()
	}
	return valid
}

// AreThresholdsValid reports whether min, the thresholds and max form a
// strictly increasing sequence.
func (q *Quantitative) AreThresholdsValid() bool {
	return binning.AreThresholdsValid(q.Extent, q.Thresholds)
}

func (q *Quantitative) setLabels() {
	format, err := binning.ParseFormat(q.Format)
	if err != nil {
		format = binning.MustParseFormat(binning.DefaultFormatSpec)
	}
	q.Labels = binning.Labels(q.Extent, q.Thresholds, format)
}

// thresholdsUsable reports whether the feature can bin with its thresholds.
// Only custom thresholds must be strictly increasing inside the extent.
func (q *Quantitative) thresholdsUsable() bool {
	return q.SplitType != SplitCustom || q.AreThresholdsValid()
}
