package app

import (
	"context"
	"sync"
	"testing"

	"subsetlens/domain/dataset"
	"subsetlens/domain/feature"
	"subsetlens/internal/errors"
	"subsetlens/internal/testkit"
	"subsetlens/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(classification(t))
	require.NoError(t, err)
	return s
}

func TestSessionSelection(t *testing.T) {
	s := newSession(t)
	assert.NotEmpty(t, s.ID)

	require.NoError(t, s.Select(testkit.SignalName(0)))
	require.NoError(t, s.Select(testkit.SegmentName(0)))
	assert.Equal(t, []string{testkit.SignalName(0), testkit.SegmentName(0)}, s.Selected())

	err := s.Select(testkit.SignalName(0))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	err = s.Select("missing")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	assert.True(t, s.Deselect(testkit.SignalName(0)))
	assert.False(t, s.Deselect(testkit.SignalName(0)))
	assert.Equal(t, []string{testkit.SegmentName(0)}, s.Selected())
}

func TestSessionBinEdits(t *testing.T) {
	s := newSession(t)
	name := testkit.SignalName(0)
	snapshot := s.Selection()

	changed, err := s.IncreaseBins(name)
	require.NoError(t, err)
	assert.True(t, changed)

	f, err := s.Feature(name)
	require.NoError(t, err)
	assert.Equal(t, feature.DefaultNumBins+1, f.NumBins())
	assert.Equal(t, feature.DefaultNumBins, snapshot.Features[name].NumBins())

	changed, err = s.DecreaseBins(name)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = s.IncreaseBins(testkit.SegmentName(0))
	assert.Equal(t, errors.CodeKindMismatch, errors.GetCode(err))
}

func TestSessionInvalidThresholdsBlockSelection(t *testing.T) {
	s := newSession(t)
	name := testkit.SignalName(0)

	_, err := s.SetSplitType(name, feature.SplitCustom)
	require.NoError(t, err)
	ok, err := s.SetCustomThresholds(name, []float64{60, 40})
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, s.Select(name))

	ok, err = s.SetCustomThresholds(name, []float64{40, 60})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, s.Select(name))
}

func TestSessionGroups(t *testing.T) {
	s := newSession(t)
	name := testkit.SegmentName(0)

	groups, err := s.EditGroups(name)
	require.NoError(t, err)
	before := len(groups)
	require.Greater(t, before, 1)

	groups[0].Name = "changed outside"
	assert.NotEqual(t, "changed outside", s.Groups()[0].Name)

	groups, err = s.UpdateGroups(func(a *feature.GroupArena, _ *feature.Categorical) error {
		return a.MoveValue(groups[1].Values[0], 1, 0)
	})
	require.NoError(t, err)
	assert.Len(t, groups, before-1)

	_, err = s.UpdateGroups(func(a *feature.GroupArena, _ *feature.Categorical) error {
		return a.Delete(99)
	})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	require.NoError(t, s.CommitGroups())

	f, err := s.Feature(name)
	require.NoError(t, err)
	assert.Equal(t, before-1, f.NumBins())

	assert.Error(t, s.CommitGroups())
	_, err = s.UpdateGroups(func(*feature.GroupArena, *feature.Categorical) error { return nil })
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	_, err = s.EditGroups(testkit.SignalName(0))
	assert.Equal(t, errors.CodeKindMismatch, errors.GetCode(err))
}

func TestSessionGroupEditsAreSerialized(t *testing.T) {
	s := newSession(t)
	name := testkit.SegmentName(0)
	_, err := s.EditGroups(name)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.UpdateGroups(func(a *feature.GroupArena, c *feature.Categorical) error {
				a.SplitAll(c)
				a.SortByName()
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.Groups()
			_ = s.Selection()
		}()
	}
	wg.Wait()

	require.NoError(t, s.CommitGroups())
	f, err := s.Feature(name)
	require.NoError(t, err)
	assert.NoError(t, f.Validate())
}

func TestSessionFiltersAndReset(t *testing.T) {
	s := newSession(t)
	filters := []dataset.Filter{{Type: dataset.FilterCategorical, Feature: testkit.SegmentName(0), Selected: []string{"north"}}}
	require.NoError(t, s.SetFilters(filters))
	assert.Equal(t, filters, s.Filters())

	err := s.SetFilters([]dataset.Filter{{Type: dataset.FilterQuantitative, Feature: testkit.SegmentName(0)}})
	assert.Error(t, err)
	assert.Equal(t, filters, s.Filters())

	require.NoError(t, s.Select(testkit.SignalName(0)))
	_, err = s.IncreaseBins(testkit.SignalName(0))
	require.NoError(t, err)
	require.NoError(t, s.ResetFeatures())
	assert.Empty(t, s.Selected())
	f, err := s.Feature(testkit.SignalName(0))
	require.NoError(t, err)
	assert.Equal(t, feature.DefaultNumBins, f.NumBins())
}

func TestSessionDrivesExplorer(t *testing.T) {
	s := newSession(t)
	svc := newService(t, nil)
	require.NoError(t, s.Select(testkit.SignalName(0)))
	_, err := s.IncreaseBins(testkit.SignalName(0))
	require.NoError(t, err)

	resp, err := svc.Aggregate(context.Background(), ports.AggregateRequest{Selection: s.Selection()})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(resp.Nodes), feature.DefaultNumBins+1)
	assert.Greater(t, len(resp.Nodes), feature.DefaultNumBins)
}

func TestSessionSetSelected(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.SetSelected([]string{testkit.NoiseName(0), testkit.SignalName(1)}))
	assert.Equal(t, []string{testkit.NoiseName(0), testkit.SignalName(1)}, s.Selected())

	assert.Error(t, s.SetSelected([]string{testkit.NoiseName(0), "missing"}))
	assert.Error(t, s.SetSelected([]string{testkit.NoiseName(0), testkit.NoiseName(0)}))
	assert.Equal(t, []string{testkit.NoiseName(0), testkit.SignalName(1)}, s.Selected())

	require.NoError(t, s.SetSelected(nil))
	assert.Empty(t, s.Selected())
}

func TestSessionQuantileSplitOnSkewedColumn(t *testing.T) {
	values := make([]float64, 0, 60)
	labels := make([]string, 0, 60)
	for i := 0; i < 40; i++ {
		values = append(values, 0)
		labels = append(labels, "neg")
	}
	for i := 1; i <= 20; i++ {
		values = append(values, float64(i))
		labels = append(labels, "pos")
	}
	ds, err := dataset.NewClassification("skewed", []string{"x"},
		map[string]dataset.Column{"x": dataset.NumericColumn(values)}, labels, nil)
	require.NoError(t, err)

	s, err := NewSession(ds)
	require.NoError(t, err)
	valid, err := s.SetSplitType("x", feature.SplitQuantile)
	require.NoError(t, err)
	assert.True(t, valid)
	require.NoError(t, s.Select("x"))

	resp, err := newService(t, nil).Aggregate(context.Background(), ports.AggregateRequest{Selection: s.Selection()})
	require.NoError(t, err)
	assert.Equal(t, 60, totalSize(resp.Nodes))
	assert.Len(t, resp.Nodes, 2, "the bin below the zero cut point is empty")
}
