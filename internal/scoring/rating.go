package scoring

import (
	"sort"

	"subsetlens/domain/dataset"
	"subsetlens/domain/feature"
	"subsetlens/domain/subset"

	"gonum.org/v1/gonum/floats"
)

// Rating is the score of one candidate feature.
type Rating struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// Options tune how candidate selections are scored.
type Options struct {
	// MinSubsetSize drops nodes with fewer rows before scoring.
	MinSubsetSize int
}

// Evaluate aggregates ds on selected and scores the nodes with metric. ok is
// false when the metric does not apply to the dataset kind or no node is
// left to score.
func Evaluate(metric Metric, features feature.Set, selected []string, ds *dataset.Dataset, opts Options) (value float64, ok bool, err error) {
	if metric.Type != ds.Kind {
		return 0, false, nil
	}
	nodes, err := subset.Aggregate(features, selected, ds)
	if err != nil {
		return 0, false, err
	}
	nodes = subset.FilterBySize(nodes, opts.MinSubsetSize)
	value, ok = metric.Score(nodes)
	return value, ok, nil
}

// Rate scores every available feature appended to selected. A metric that
// does not apply to the dataset kind yields no ratings.
func Rate(metric Metric, features feature.Set, selected []string, ds *dataset.Dataset, available []string, opts Options) ([]Rating, error) {
	if metric.Type != ds.Kind {
		return []Rating{}, nil
	}
	ratings := make([]Rating, 0, len(available))
	for _, name := range available {
		value, ok, err := Evaluate(metric, features, appendFeature(selected, name), ds, opts)
		if err != nil {
			return nil, err
		}
		if ok {
			ratings = append(ratings, Rating{Feature: name, Value: value})
		}
	}
	return ratings, nil
}

// Available returns the dataset features that are not selected, in dataset
// order.
func Available(ds *dataset.Dataset, selected []string) []string {
	taken := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		taken[s] = struct{}{}
	}
	out := make([]string, 0, len(ds.FeatureNames))
	for _, name := range ds.FeatureNames {
		if _, ok := taken[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// FeatureRatings rates every unselected feature of ds with the named metric
// and normalizes the ratings to [0, 1]. The "none" metric yields no ratings.
func FeatureRatings(kind MetricKind, features feature.Set, selected []string, ds *dataset.Dataset, opts Options) (map[string]float64, error) {
	if kind == MetricNone {
		return map[string]float64{}, nil
	}
	metric, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	ratings, err := Rate(metric, features, selected, ds, Available(ds, selected), opts)
	if err != nil {
		return nil, err
	}
	return Normalize(ratings), nil
}

// Normalize maps rating values linearly onto [0, 1]. When every value is the
// same each feature maps to 1.
func Normalize(ratings []Rating) map[string]float64 {
	out := make(map[string]float64, len(ratings))
	if len(ratings) == 0 {
		return out
	}

	values := make([]float64, len(ratings))
	for i, r := range ratings {
		values[i] = r.Value
	}
	lo, hi := floats.Min(values), floats.Max(values)

	diff := hi - lo
	for _, r := range ratings {
		if diff == 0 {
			out[r.Feature] = 1
		} else {
			out[r.Feature] = (r.Value - lo) / diff
		}
	}
	return out
}

// SortRatings orders ratings by descending value, then by feature name.
func SortRatings(ratings []Rating) {
	sort.SliceStable(ratings, func(i, j int) bool {
		if ratings[i].Value != ratings[j].Value {
			return ratings[i].Value > ratings[j].Value
		}
		return ratings[i].Feature < ratings[j].Feature
	})
}

func appendFeature(selected []string, name string) []string {
	out := make([]string, len(selected), len(selected)+1)
	copy(out, selected)
	return append(out, name)
}
