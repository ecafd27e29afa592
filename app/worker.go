package app

import (
	"context"
	"fmt"

	"subsetlens/domain/core"
	"subsetlens/internal"
	"subsetlens/internal/errors"
	"subsetlens/ports"
)

// Operation names a request handled by the Worker
type Operation string

const (
	OpAggregate    Operation = "aggregate"
	OpRatings      Operation = "ratings"
	OpSuggestNext  Operation = "suggestNext"
	OpCombinations Operation = "combinations"
	OpSubsets      Operation = "subsets"
	OpMetrics      Operation = "metrics"
)

// Request is one message to the Worker. The payload field matching Op must be set.
type Request struct {
	ID        core.RequestID
	Op        Operation
	Aggregate *ports.AggregateRequest
	Ratings   *ports.RatingsRequest
	Search    *ports.SearchRequest
	Metrics   *ports.MetricsRequest
}

// Response answers the Request with the same ID. Err is set on failure.
type Response struct {
	ID        core.RequestID
	Op        Operation
	Aggregate *ports.AggregateResponse
	Ratings   *ports.RatingsResponse
	Search    *ports.SearchResponse
	Metrics   *ports.MetricsResponse
	Err       error
}

// Worker runs explorer requests off a channel, one at a time, so a caller can
// keep its own loop responsive while aggregations and searches run.
type Worker struct {
	explorer ports.Explorer
	logger   *internal.Logger
}

// NewWorker creates a worker over explorer
func NewWorker(explorer ports.Explorer, logger *internal.Logger) *Worker {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Worker{explorer: explorer, logger: logger.With("worker")}
}

// Serve handles requests in arrival order until requests is closed or ctx is
// done, then closes the returned channel.
func (w *Worker) Serve(ctx context.Context, requests <-chan Request) <-chan Response {
	responses := make(chan Response)
	go func() {
		defer close(responses)
		for {
			select {
			case <-ctx.Done():
				return
			case req, ok := <-requests:
				if !ok {
					return
				}
				resp := w.Handle(ctx, req)
				select {
				case responses <- resp:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return responses
}

// Handle dispatches a single request. A panic in the explorer is returned as
// an internal error so Serve keeps running.
func (w *Worker) Handle(ctx context.Context, req Request) (resp Response) {
	if req.ID == "" {
		req.ID = core.NewRequestID()
	}
	resp = Response{ID: req.ID, Op: req.Op}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("request %s (%s) panicked: %v", req.ID, req.Op, r)
			resp = Response{ID: req.ID, Op: req.Op, Err: errors.InternalError(fmt.Sprintf("operation %q panicked: %v", req.Op, r))}
		}
	}()

	switch req.Op {
	case OpAggregate:
		if req.Aggregate == nil {
			resp.Err = missingPayload(req.Op)
			break
		}
		resp.Aggregate, resp.Err = w.explorer.Aggregate(ctx, *req.Aggregate)
	case OpRatings:
		if req.Ratings == nil {
			resp.Err = missingPayload(req.Op)
			break
		}
		resp.Ratings, resp.Err = w.explorer.RateFeatures(ctx, *req.Ratings)
	case OpSuggestNext, OpCombinations, OpSubsets:
		if req.Search == nil {
			resp.Err = missingPayload(req.Op)
			break
		}
		switch req.Op {
		case OpSuggestNext:
			resp.Search, resp.Err = w.explorer.SuggestNext(ctx, *req.Search)
		case OpCombinations:
			resp.Search, resp.Err = w.explorer.SuggestCombinations(ctx, *req.Search)
		default:
			resp.Search, resp.Err = w.explorer.FindSubsets(ctx, *req.Search)
		}
	case OpMetrics:
		if req.Metrics == nil {
			resp.Err = missingPayload(req.Op)
			break
		}
		resp.Metrics, resp.Err = w.explorer.Metrics(ctx, *req.Metrics)
	default:
		resp.Err = errors.InvalidInput(fmt.Sprintf("unknown operation %q", req.Op))
	}

	if resp.Err != nil {
		w.logger.Warn("request %s (%s) failed: %v", req.ID, req.Op, resp.Err)
	} else {
		w.logger.Debug("request %s (%s) done", req.ID, req.Op)
	}
	return resp
}

func missingPayload(op Operation) error {
	return errors.InvalidInput(fmt.Sprintf("operation %q has no payload", op))
}
