package app

import (
	"context"
	"testing"

	"subsetlens/internal"
	"subsetlens/internal/errors"
	"subsetlens/internal/testkit"
	"subsetlens/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerServesInOrder(t *testing.T) {
	svc := newService(t, classification(t))
	w := NewWorker(svc, internal.Discard())

	selection := ports.Selection{Selected: []string{testkit.SignalName(0)}}
	requests := make(chan Request, 6)
	requests <- Request{ID: "a", Op: OpAggregate, Aggregate: &ports.AggregateRequest{Selection: selection}}
	requests <- Request{ID: "b", Op: OpRatings, Ratings: &ports.RatingsRequest{Selection: selection}}
	requests <- Request{ID: "c", Op: OpSuggestNext, Search: &ports.SearchRequest{Selection: selection}}
	requests <- Request{ID: "d", Op: OpSubsets, Search: &ports.SearchRequest{Selection: selection}}
	requests <- Request{ID: "e", Op: OpMetrics, Metrics: &ports.MetricsRequest{}}
	requests <- Request{ID: "f", Op: OpCombinations}
	close(requests)

	var got []Response
	for resp := range w.Serve(context.Background(), requests) {
		got = append(got, resp)
	}
	require.Len(t, got, 6)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID.String()
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, ids)

	assert.NoError(t, got[0].Err)
	assert.NotNil(t, got[0].Aggregate)
	assert.NotNil(t, got[1].Ratings)
	assert.NotNil(t, got[2].Search)
	assert.NotNil(t, got[3].Search)
	assert.NotNil(t, got[4].Metrics)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(got[5].Err))
}

func TestWorkerHandle(t *testing.T) {
	svc := newService(t, classification(t))
	w := NewWorker(svc, internal.Discard())

	resp := w.Handle(context.Background(), Request{Op: "explode"})
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(resp.Err))
}

func TestWorkerStopsOnCancel(t *testing.T) {
	svc := newService(t, classification(t))
	w := NewWorker(svc, internal.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	requests := make(chan Request)
	responses := w.Serve(ctx, requests)
	cancel()

	_, open := <-responses
	assert.False(t, open)
}

type brokenExplorer struct{ ports.Explorer }

func TestWorkerRecoversFromPanic(t *testing.T) {
	w := NewWorker(brokenExplorer{}, internal.Discard())

	requests := make(chan Request, 2)
	requests <- Request{ID: "a", Op: OpMetrics, Metrics: &ports.MetricsRequest{}}
	requests <- Request{ID: "b", Op: OpMetrics}
	close(requests)

	var got []Response
	for resp := range w.Serve(context.Background(), requests) {
		got = append(got, resp)
	}
	require.Len(t, got, 2)
	assert.Equal(t, errors.CodeInternalError, errors.GetCode(got[0].Err))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(got[1].Err))
}
