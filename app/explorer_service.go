package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"subsetlens/domain/core"
	"subsetlens/domain/dataset"
	"subsetlens/domain/feature"
	"subsetlens/domain/subset"
	"subsetlens/internal"
	"subsetlens/internal/config"
	"subsetlens/internal/errors"
	"subsetlens/internal/scoring"
	"subsetlens/internal/search"
	"subsetlens/ports"
)

// ExplorerService answers aggregation, rating and search requests against a
// loaded dataset or the dataset carried by each request
type ExplorerService struct {
	dataset  *dataset.Dataset
	features feature.Set
	cfg      config.SearchConfig
	logger   *internal.Logger
}

var _ ports.Explorer = (*ExplorerService)(nil)

// NewExplorerService creates the service. ds may be nil, in which case every
// request must carry its own dataset.
func NewExplorerService(ds *dataset.Dataset, cfg config.SearchConfig, logger *internal.Logger) (*ExplorerService, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &ExplorerService{dataset: ds, cfg: cfg, logger: logger.With("explorer")}
	if ds != nil {
		features, err := feature.Derive(ds)
		if err != nil {
			return nil, errors.Wrap(err, "failed to derive features")
		}
		s.features = features
		s.logger.Info("loaded %s dataset %q (%d rows, %d features)", ds.Kind, ds.Name, ds.Size(), len(ds.FeatureNames))
	}
	return s, nil
}

// Dataset returns the loaded dataset, or nil
func (s *ExplorerService) Dataset() *dataset.Dataset { return s.dataset }

// Features returns a copy of the default features of the loaded dataset
func (s *ExplorerService) Features() feature.Set {
	out, _ := s.features.Clone()
	return out
}

// resolve picks the dataset and features for a request, checks the selected
// features and applies the filters.
func (s *ExplorerService) resolve(sel ports.Selection) (*dataset.Dataset, feature.Set, error) {
	ds, err := s.requestDataset(sel.Dataset)
	if err != nil {
		return nil, nil, err
	}

	features := sel.Features
	if features == nil {
		if ds == s.dataset {
			features = s.features
		} else {
			derived, err := feature.Derive(ds)
			if err != nil {
				return nil, nil, errors.Wrap(err, "failed to derive features")
			}
			features = derived
		}
	}

	seen := make(map[string]struct{}, len(sel.Selected))
	for _, name := range sel.Selected {
		if _, dup := seen[name]; dup {
			return nil, nil, errors.InvalidInput(fmt.Sprintf("feature %q is selected twice", name))
		}
		seen[name] = struct{}{}

		f, err := features.Get(name)
		if err != nil {
			return nil, nil, errors.Wrap(err, "unknown selected feature")
		}
		if err := f.Validate(); err != nil {
			return nil, nil, errors.Wrapf(err, "feature %q cannot be used", name)
		}
	}

	filtered, err := ds.Filtered(sel.Filters)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to apply filters")
	}
	return filtered, features, nil
}

// Aggregate returns the subset nodes of the selection sorted by splits
func (s *ExplorerService) Aggregate(ctx context.Context, req ports.AggregateRequest) (*ports.AggregateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	ds, features, err := s.resolve(req.Selection)
	if err != nil {
		return nil, err
	}

	nodes, err := subset.Aggregate(features, req.Selected, ds)
	if err != nil {
		return nil, errors.Wrap(err, "aggregation failed")
	}
	subset.SortBySplits(nodes, req.Selected)

	return &ports.AggregateResponse{
		RequestID: core.NewRequestID(),
		Type:      ds.Kind,
		Size:      ds.Size(),
		Nodes:     nodes,
	}, nil
}

// RateFeatures rates every unselected feature with the criterion
func (s *ExplorerService) RateFeatures(ctx context.Context, req ports.RatingsRequest) (*ports.RatingsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	ds, features, err := s.resolve(req.Selection)
	if err != nil {
		return nil, err
	}
	criterion, err := s.criterion(req.Criterion)
	if err != nil {
		return nil, err
	}

	ratings, err := scoring.FeatureRatings(criterion, features, req.Selected, ds, s.options(req.MinSubsetSize))
	if err != nil {
		return nil, errors.Wrap(err, "rating failed")
	}
	return &ports.RatingsResponse{
		RequestID: core.NewRequestID(),
		Criterion: criterion,
		Ratings:   ratings,
	}, nil
}

// SuggestNext returns the best single feature to add, if any
func (s *ExplorerService) SuggestNext(ctx context.Context, req ports.SearchRequest) (*ports.SearchResponse, error) {
	return s.runSearch(ctx, req, "suggest next", func(ctx context.Context, e *search.Evaluator, available []string) ([]search.Combination, error) {
		best, ok, err := search.SuggestNext(ctx, e, available)
		if err != nil || !ok {
			return []search.Combination{}, err
		}
		return []search.Combination{best}, nil
	})
}

// SuggestCombinations runs the greedy search over singles, pairs and triples
func (s *ExplorerService) SuggestCombinations(ctx context.Context, req ports.SearchRequest) (*ports.SearchResponse, error) {
	topN := req.TopFeatures
	if topN <= 0 {
		topN = s.cfg.TopFeatures
	}
	return s.runSearch(ctx, req, "greedy search", func(ctx context.Context, e *search.Evaluator, available []string) ([]search.Combination, error) {
		return search.Greedy(ctx, e, available, search.GreedyConfig{TopFeatures: topN})
	})
}

// FindSubsets runs the level-wise search for combinations of any size
func (s *ExplorerService) FindSubsets(ctx context.Context, req ports.SearchRequest) (*ports.SearchResponse, error) {
	cfg := search.LevelWiseConfig{
		TopFeatures: firstPositive(req.TopFeatures, s.cfg.TopFeatures),
		Percent:     req.Percent,
		MaxLevels:   firstPositive(req.MaxLevels, s.cfg.MaxLevels),
	}
	if cfg.Percent <= 0 {
		cfg.Percent = s.cfg.Percent
	}
	if cfg.Percent > 1 {
		return nil, errors.InvalidInput("percent must be in (0, 1]")
	}
	return s.runSearch(ctx, req, "level-wise search", func(ctx context.Context, e *search.Evaluator, available []string) ([]search.Combination, error) {
		return search.LevelWise(ctx, e, available, cfg)
	})
}

type strategy func(ctx context.Context, e *search.Evaluator, available []string) ([]search.Combination, error)

func (s *ExplorerService) runSearch(ctx context.Context, req ports.SearchRequest, name string, run strategy) (*ports.SearchResponse, error) {
	ds, features, err := s.resolve(req.Selection)
	if err != nil {
		return nil, err
	}
	criterion, err := s.criterion(req.Criterion)
	if err != nil {
		return nil, err
	}
	resp := &ports.SearchResponse{
		RequestID:    core.NewRequestID(),
		Criterion:    criterion,
		Combinations: []search.Combination{},
	}
	if criterion == scoring.MetricNone {
		return resp, nil
	}
	metric, err := scoring.Lookup(criterion)
	if err != nil {
		return nil, errors.Wrap(err, "unknown criterion")
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	e := &search.Evaluator{
		Metric:   metric,
		Features: features,
		Selected: req.Selected,
		Dataset:  ds,
		Options:  s.options(req.MinSubsetSize),
		Workers:  s.cfg.Workers,
		Logger:   s.logger,
	}

	start := time.Now()
	combos, err := run(ctx, e, scoring.Available(ds, req.Selected))
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(err)
		}
		return nil, errors.Wrapf(err, "%s failed", name)
	}
	s.logger.Info("%s with %s returned %d combinations in %s", name, criterion, len(combos), time.Since(start).Round(time.Millisecond))

	resp.Combinations = combos
	return resp, nil
}

// Metrics lists the metrics that apply to the dataset
func (s *ExplorerService) Metrics(ctx context.Context, req ports.MetricsRequest) (*ports.MetricsResponse, error) {
	ds, err := s.requestDataset(req.Dataset)
	if err != nil {
		return nil, err
	}
	groups, def := scoring.ValidMetrics(ds.Kind, ds.HasPredictions(), req.ChooseNone)
	return &ports.MetricsResponse{Groups: groups, Default: def}, nil
}

// requestDataset returns the loaded dataset when the request carries none.
// A carried dataset is rebuilt so its columns and targets are checked.
func (s *ExplorerService) requestDataset(carried *dataset.Dataset) (*dataset.Dataset, error) {
	if carried == nil || carried == s.dataset {
		if s.dataset == nil {
			return nil, errors.InvalidInput("request has no dataset and none is loaded")
		}
		return s.dataset, nil
	}
	ds, err := carried.Rebuild()
	if err != nil {
		return nil, errors.Wrap(err, "request dataset is invalid")
	}
	return ds, nil
}

func (s *ExplorerService) criterion(kind scoring.MetricKind) (scoring.MetricKind, error) {
	if kind == "" {
		kind = s.cfg.DefaultMetric
	}
	parsed, err := scoring.ParseMetricKind(string(kind))
	if err != nil {
		return "", errors.WithCode(errors.CodeInvalidInput, err)
	}
	return parsed, nil
}

func (s *ExplorerService) options(minSubsetSize int) scoring.Options {
	return scoring.Options{MinSubsetSize: firstPositive(minSubsetSize, s.cfg.MinSubsetSize)}
}

func cancelled(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.WithCode(errors.CodeCancelled, err)
	}
	return err
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
