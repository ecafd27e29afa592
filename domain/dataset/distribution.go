package dataset

import "sort"

// PredictionDistribution holds the whole-dataset fraction of rows for each
// predicted label, split by whether the prediction was correct.
type PredictionDistribution struct {
	Correct   map[string]float64 `json:"correct"`
	Incorrect map[string]float64 `json:"incorrect"`
}

// Fraction returns the share of rows predicted as label with the given
// correctness.
func (p PredictionDistribution) Fraction(label string, correct bool) float64 {
	if correct {
		return p.Correct[label]
	}
	return p.Incorrect[label]
}

// GroundTruthDistribution returns the fraction of rows per label.
func GroundTruthDistribution(labels []string) map[string]float64 {
	dist := make(map[string]float64)
	if len(labels) == 0 {
		return dist
	}
	for _, l := range labels {
		dist[l]++
	}
	n := float64(len(labels))
	for l := range dist {
		dist[l] /= n
	}
	return dist
}

// NewPredictionDistribution returns the fraction of rows per
// (prediction, correct) pair.
func NewPredictionDistribution(labels, predictions []string) PredictionDistribution {
	dist := PredictionDistribution{
		Correct:   make(map[string]float64),
		Incorrect: make(map[string]float64),
	}
	if len(predictions) == 0 {
		return dist
	}
	for i, p := range predictions {
		if p == labels[i] {
			dist.Correct[p]++
		} else {
			dist.Incorrect[p]++
		}
	}
	n := float64(len(predictions))
	for l := range dist.Correct {
		dist.Correct[l] /= n
	}
	for l := range dist.Incorrect {
		dist.Incorrect[l] /= n
	}
	return dist
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
