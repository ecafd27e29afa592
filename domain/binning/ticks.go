package binning

import "math"

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// jsRound rounds half up, matching the rounding the tick rules were defined
// with.
func jsRound(x float64) float64 {
	return math.Floor(x + 0.5)
}

// TickIncrement returns the step for roughly count ticks between start and
// stop. Negative results encode the inverse of a fractional step.
func TickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / math.Max(0, float64(count))
	power := math.Floor(math.Log10(step))
	errRatio := step / math.Pow(10, power)

	factor := 1.0
	switch {
	case errRatio >= e10:
		factor = 10
	case errRatio >= e5:
		factor = 5
	case errRatio >= e2:
		factor = 2
	}

	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}

// Ticks returns roughly count round values spaced evenly within [start, stop].
func Ticks(start, stop float64, count int) []float64 {
	if start == stop && count > 0 {
		return []float64{start}
	}

	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}

	step := TickIncrement(start, stop, count)
	if step == 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return []float64{}
	}

	var ticks []float64
	if step > 0 {
		r0, r1 := jsRound(start/step), jsRound(stop/step)
		if r0*step < start {
			r0++
		}
		if r1*step > stop {
			r1--
		}
		for r := r0; r <= r1; r++ {
			ticks = append(ticks, r*step)
		}
	} else {
		step = -step
		r0, r1 := jsRound(start*step), jsRound(stop*step)
		if r0/step < start {
			r0++
		}
		if r1/step > stop {
			r1--
		}
		for r := r0; r <= r1; r++ {
			ticks = append(ticks, r/step)
		}
	}

	if reverse {
		for i, j := 0, len(ticks)-1; i < j; i, j = i+1, j-1 {
			ticks[i], ticks[j] = ticks[j], ticks[i]
		}
	}
	if ticks == nil {
		return []float64{}
	}
	return ticks
}

// Nice extends [start, stop] outward so that both ends fall on round tick
// values.
func Nice(start, stop float64, count int) [2]float64 {
	prestep := math.NaN()
	for {
		step := TickIncrement(start, stop, count)
		if step == prestep || step == 0 || math.IsInf(step, 0) || math.IsNaN(step) {
			return [2]float64{start, stop}
		}
		if step > 0 {
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		} else {
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		}
		prestep = step
	}
}

// InteriorTicks returns the ticks of extent that lie strictly inside it,
// suitable as histogram thresholds.
func InteriorTicks(extent [2]float64, count int) []float64 {
	all := Ticks(extent[0], extent[1], count)
	out := make([]float64, 0, len(all))
	for _, t := range all {
		if t > extent[0] && t < extent[1] {
			out = append(out, t)
		}
	}
	return out
}
