package scoring

import "subsetlens/domain/dataset"

// MetricInfo describes a metric option offered to the user.
type MetricInfo struct {
	Value               MetricKind   `json:"value"`
	Display             string       `json:"display"`
	Type                dataset.Kind `json:"type"`
	RequiresPredictions bool         `json:"requiresPredictions"`
}

// MetricGroup is a titled group of metric options.
type MetricGroup struct {
	Title               string       `json:"title"`
	RequiresPredictions bool         `json:"requiresPredictions"`
	Options             []MetricInfo `json:"options"`
}

var catalogue = map[dataset.Kind][]MetricGroup{
	dataset.KindClassification: {
		group("Ground Truth Metrics", false, MetricEntropy),
		group("Prediction Metrics", true, MetricErrorDeviation, MetricErrorCount, MetricErrorPercent),
		disableGroup(dataset.KindClassification),
	},
	dataset.KindRegression: {
		group("Ground Truth Metrics", false, MetricSimilarity),
		group("Prediction Metrics", true, MetricMSEDeviation),
		disableGroup(dataset.KindRegression),
	},
}

func group(title string, requiresPredictions bool, kinds ...MetricKind) MetricGroup {
	g := MetricGroup{Title: title, RequiresPredictions: requiresPredictions}
	for _, k := range kinds {
		m := metrics[k]
		g.Options = append(g.Options, MetricInfo{
			Value:               m.Kind,
			Display:             m.Display,
			Type:                m.Type,
			RequiresPredictions: m.RequiresPredictions,
		})
	}
	return g
}

func disableGroup(kind dataset.Kind) MetricGroup {
	return MetricGroup{
		Title:   "Disable Metrics",
		Options: []MetricInfo{{Value: MetricNone, Display: "Disable", Type: kind}},
	}
}

// ValidMetrics returns the metric groups usable on a dataset of the given
// kind and the default choice. Prediction metrics are left out when the
// dataset has no predictions. The default is the first option, or "none"
// when chooseNone is set.
func ValidMetrics(kind dataset.Kind, hasPredictions, chooseNone bool) ([]MetricGroup, MetricInfo) {
	var groups []MetricGroup
	for _, g := range catalogue[kind] {
		if hasPredictions || !g.RequiresPredictions {
			groups = append(groups, g)
		}
	}
	if len(groups) == 0 {
		return nil, MetricInfo{Value: MetricNone, Display: "Disable", Type: kind}
	}
	if chooseNone {
		return groups, groups[len(groups)-1].Options[0]
	}
	return groups, groups[0].Options[0]
}
