package ports

import (
	"context"

	"subsetlens/domain/core"
	"subsetlens/domain/dataset"
	"subsetlens/domain/feature"
	"subsetlens/domain/subset"
	"subsetlens/internal/scoring"
	"subsetlens/internal/search"
)

// Explorer is the request/response surface of the engine. Every request may
// carry its own dataset and features; when they are omitted the explorer's
// loaded dataset and its default features are used.
type Explorer interface {
	Aggregate(ctx context.Context, req AggregateRequest) (*AggregateResponse, error)
	RateFeatures(ctx context.Context, req RatingsRequest) (*RatingsResponse, error)
	SuggestNext(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	SuggestCombinations(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	FindSubsets(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	Metrics(ctx context.Context, req MetricsRequest) (*MetricsResponse, error)
}

// Selection is the part shared by every request: which data, which feature
// definitions and which features are already selected.
type Selection struct {
	Dataset  *dataset.Dataset `json:"dataset,omitempty"`
	Features feature.Set      `json:"features,omitempty"`
	Selected []string         `json:"selected"`
	Filters  []dataset.Filter `json:"filters,omitempty"`
}

// AggregateRequest asks for the subset nodes of a selection.
type AggregateRequest struct {
	Selection
}

// AggregateResponse carries the nodes of an aggregation sorted by splits.
type AggregateResponse struct {
	RequestID core.RequestID `json:"requestId"`
	Type      dataset.Kind   `json:"type"`
	Size      int            `json:"size"`
	Nodes     []subset.Node  `json:"nodes"`
}

// RatingsRequest asks for normalized ratings of every unselected feature.
type RatingsRequest struct {
	Selection
	Criterion     scoring.MetricKind `json:"criterion"`
	MinSubsetSize int                `json:"minSubsetSize,omitempty"`
}

// RatingsResponse maps feature names to ratings in [0, 1].
type RatingsResponse struct {
	RequestID core.RequestID     `json:"requestId"`
	Criterion scoring.MetricKind `json:"criterion"`
	Ratings   map[string]float64 `json:"ratings"`
}

// SearchRequest asks for candidate combinations to add to the selection.
// Zero tuning values fall back to the configured defaults.
type SearchRequest struct {
	Selection
	Criterion     scoring.MetricKind `json:"criterion"`
	MinSubsetSize int                `json:"minSubsetSize,omitempty"`
	TopFeatures   int                `json:"topFeatures,omitempty"`
	Percent       float64            `json:"percent,omitempty"`
	MaxLevels     int                `json:"maxLevels,omitempty"`
}

// SearchResponse lists combinations by descending score.
type SearchResponse struct {
	RequestID    core.RequestID       `json:"requestId"`
	Criterion    scoring.MetricKind   `json:"criterion"`
	Combinations []search.Combination `json:"combinations"`
}

// MetricsRequest asks which metrics apply to a dataset.
type MetricsRequest struct {
	Dataset    *dataset.Dataset `json:"dataset,omitempty"`
	ChooseNone bool             `json:"chooseNone,omitempty"`
}

// MetricsResponse lists the applicable metric groups and the default choice.
type MetricsResponse struct {
	Groups  []scoring.MetricGroup `json:"groups"`
	Default scoring.MetricInfo    `json:"default"`
}
