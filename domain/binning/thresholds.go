// Package binning holds the numeric partitioning rules shared by features and
// datasets: threshold generation, right-biased bin assignment, fixed-threshold
// histograms, bin labels and tick generation for regression axes.
//
// Bins follow a half-open convention. Given an extent [min, max] and
// thresholds t0 < t1 < ... < tk the bins are
//
//	min  t0  t1  t2  t3  max
//	   b0  b1  b2  b3  b4
//
// with every lower bound inclusive and every upper bound exclusive except the
// last one, which is closed on the right.
package binning

import (
	"math"
	"sort"
)

// EqualIntervalThresholds returns numBins-1 evenly spaced thresholds inside
// extent, giving equal-width bins.
func EqualIntervalThresholds(extent [2]float64, numBins int) []float64 {
	if numBins < 2 {
		return []float64{}
	}

	min, max := extent[0], extent[1]
	width := (max - min) / float64(numBins)

	thresholds := make([]float64, 0, numBins-1)
	for i := 1; i < numBins; i++ {
		thresholds = append(thresholds, min+float64(i)*width)
	}
	return thresholds
}

// QuantileThresholds returns the numBins-1 empirical quantile cut points of
// values at fractions 1/numBins, 2/numBins, ... giving equal-frequency bins.
// NaN values are ignored. An empty input yields NaN cut points.
func QuantileThresholds(values []float64, numBins int) []float64 {
	if numBins < 2 {
		return []float64{}
	}

	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)

	thresholds := make([]float64, 0, numBins-1)
	for i := 1; i < numBins; i++ {
		thresholds = append(thresholds, quantileSorted(sorted, float64(i)/float64(numBins)))
	}
	return thresholds
}

// quantileSorted interpolates linearly between the closest ranks (R-7).
func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 || n < 2 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	i := float64(n-1) * p
	i0 := int(math.Floor(i))
	v0 := sorted[i0]
	v1 := sorted[i0+1]
	return v0 + (v1-v0)*(i-float64(i0))
}

// Bisect returns the insertion point for v in the sorted thresholds that comes
// after any existing entries equal to v. A value equal to a threshold
// therefore lands in the higher bin.
func Bisect(thresholds []float64, v float64) int {
	return sort.Search(len(thresholds), func(i int) bool {
		return thresholds[i] > v
	})
}

// AreThresholdsValid reports whether min, thresholds..., max is strictly
// increasing.
func AreThresholdsValid(extent [2]float64, thresholds []float64) bool {
	prev := extent[0]
	for _, t := range thresholds {
		if !(prev < t) {
			return false
		}
		prev = t
	}
	return prev < extent[1]
}
