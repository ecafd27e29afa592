package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"subsetlens/domain/dataset"
)

// GeneratorConfig configures the synthetic dataset generator
type GeneratorConfig struct {
	Rows                int     `json:"rows"`
	SignalFeatures      int     `json:"signal_features"`
	NoiseFeatures       int     `json:"noise_features"`
	CategoricalFeatures int     `json:"categorical_features"`
	LabelNoise          float64 `json:"label_noise"`
	WithPredictions     bool    `json:"with_predictions"`
	PredictionErrorRate float64 `json:"prediction_error_rate"`
	WeakSpotErrorRate   float64 `json:"weak_spot_error_rate"`
	Seed                int64   `json:"seed"`
}

// DefaultGeneratorConfig returns sensible defaults for synthetic data generation
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Rows:                500,
		SignalFeatures:      2,
		NoiseFeatures:       3,
		CategoricalFeatures: 2,
		LabelNoise:          0.05,
		WithPredictions:     true,
		PredictionErrorRate: 0.05,
		WeakSpotErrorRate:   0.6,
		Seed:                42,
	}
}

// segments are the raw values of generated categorical columns
var segments = []string{"north", "south", "east", "west", "central"}

// DatasetGenerator generates tables whose labels depend only on the signal
// columns. Predictions are mostly right except in a weak spot where the
// first signal column is below 20.
type DatasetGenerator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewDatasetGenerator creates a new generator
func NewDatasetGenerator(config GeneratorConfig) *DatasetGenerator {
	return &DatasetGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// SignalName, NoiseName and SegmentName name the generated columns.
func SignalName(i int) string  { return fmt.Sprintf("signal_%d", i+1) }
func NoiseName(i int) string   { return fmt.Sprintf("noise_%d", i+1) }
func SegmentName(i int) string { return fmt.Sprintf("segment_%d", i+1) }

func (g *DatasetGenerator) headers() []string {
	var h []string
	for i := 0; i < g.config.SignalFeatures; i++ {
		h = append(h, SignalName(i))
	}
	for i := 0; i < g.config.NoiseFeatures; i++ {
		h = append(h, NoiseName(i))
	}
	for i := 0; i < g.config.CategoricalFeatures; i++ {
		h = append(h, SegmentName(i))
	}
	h = append(h, dataset.LabelColumn)
	if g.config.WithPredictions {
		h = append(h, dataset.PredictionColumn)
	}
	return h
}

// featureRow draws one row of feature values and returns the signal values
// separately.
func (g *DatasetGenerator) featureRow() (record []string, signal []float64) {
	for i := 0; i < g.config.SignalFeatures; i++ {
		v := g.uniform()
		signal = append(signal, v)
		record = append(record, formatNumber(v))
	}
	for i := 0; i < g.config.NoiseFeatures; i++ {
		record = append(record, formatNumber(g.uniform()))
	}
	for i := 0; i < g.config.CategoricalFeatures; i++ {
		record = append(record, segments[g.rng.Intn(len(segments))])
	}
	return record, signal
}

// ClassificationTable generates a table with "pos"/"neg" labels. A row is
// positive when the mean of its signal columns is at least 50.
func (g *DatasetGenerator) ClassificationTable() dataset.Table {
	table := dataset.Table{Headers: g.headers()}
	for r := 0; r < g.config.Rows; r++ {
		record, signal := g.featureRow()

		positive := mean(signal) >= 50
		if g.rng.Float64() < g.config.LabelNoise {
			positive = !positive
		}
		label := labelFor(positive)
		record = append(record, label)

		if g.config.WithPredictions {
			rate := g.config.PredictionErrorRate
			if len(signal) > 0 && signal[0] < 20 {
				rate = g.config.WeakSpotErrorRate
			}
			prediction := label
			if g.rng.Float64() < rate {
				prediction = labelFor(!positive)
			}
			record = append(record, prediction)
		}
		table.Records = append(table.Records, record)
	}
	return table
}

// RegressionTable generates a table whose label is a weighted sum of the
// signal columns plus gaussian noise. Predictions are noisier in the weak
// spot.
func (g *DatasetGenerator) RegressionTable() dataset.Table {
	table := dataset.Table{Headers: g.headers()}
	for r := 0; r < g.config.Rows; r++ {
		record, signal := g.featureRow()

		label := 0.0
		for i, s := range signal {
			label += s * float64(len(signal)-i)
		}
		label += g.rng.NormFloat64() * 5
		record = append(record, formatNumber(label))

		if g.config.WithPredictions {
			spread := 5.0
			if len(signal) > 0 && signal[0] < 20 {
				spread = 40
			}
			record = append(record, formatNumber(label+g.rng.NormFloat64()*spread))
		}
		table.Records = append(table.Records, record)
	}
	return table
}

// Classification generates and parses a classification dataset.
func (g *DatasetGenerator) Classification(name string) (*dataset.Dataset, error) {
	return dataset.FromTable(name, g.ClassificationTable())
}

// Regression generates and parses a regression dataset.
func (g *DatasetGenerator) Regression(name string) (*dataset.Dataset, error) {
	return dataset.FromTable(name, g.RegressionTable())
}

func (g *DatasetGenerator) uniform() float64 {
	return math.Round(g.rng.Float64()*10000) / 100
}

func labelFor(positive bool) string {
	if positive {
		return "pos"
	}
	return "neg"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
