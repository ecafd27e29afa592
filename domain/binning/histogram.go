package binning

// Bin is one bucket of a fixed-threshold histogram.
type Bin struct {
	X0    float64 `json:"x0"`
	X1    float64 `json:"x1"`
	Count int     `json:"count"`
}

// domainThresholds drops thresholds that fall outside the extent, keeping
// the first bin's lower bound at min and the last bin's upper bound at max.
func domainThresholds(extent [2]float64, thresholds []float64) []float64 {
	a, b := 0, len(thresholds)
	for a < b && thresholds[a] <= extent[0] {
		a++
	}
	for b > a && thresholds[b-1] > extent[1] {
		b--
	}
	return thresholds[a:b]
}

// Bounds returns the [x0, x1] bounds of each bin for the extent and
// thresholds.
func Bounds(extent [2]float64, thresholds []float64) [][2]float64 {
	tz := domainThresholds(extent, thresholds)
	m := len(tz)

	bounds := make([][2]float64, m+1)
	for i := 0; i <= m; i++ {
		x0, x1 := extent[0], extent[1]
		if i > 0 {
			x0 = tz[i-1]
		}
		if i < m {
			x1 = tz[i]
		}
		bounds[i] = [2]float64{x0, x1}
	}
	return bounds
}

// Histogram counts values into the bins defined by extent and thresholds.
// Values outside the extent are not counted.
func Histogram(values []float64, extent [2]float64, thresholds []float64) []Bin {
	tz := domainThresholds(extent, thresholds)
	bounds := Bounds(extent, thresholds)

	bins := make([]Bin, len(bounds))
	for i, b := range bounds {
		bins[i] = Bin{X0: b[0], X1: b[1]}
	}

	for _, v := range values {
		if v < extent[0] || v > extent[1] {
			continue
		}
		bins[Bisect(tz, v)].Count++
	}
	return bins
}

// Labels renders each bin as "[lo, hi)" with the final bin closed as
// "[lo, hi]".
func Labels(extent [2]float64, thresholds []float64, format Format) []string {
	bounds := Bounds(extent, thresholds)
	n := len(bounds)

	labels := make([]string, n)
	for i, b := range bounds {
		closing := ")"
		if i == n-1 {
			closing = "]"
		}
		labels[i] = "[" + format.Apply(b[0]) + ", " + format.Apply(b[1]) + closing
	}
	return labels
}
