package app

import (
	"fmt"
	"slices"
	"sync"

	"subsetlens/domain/core"
	"subsetlens/domain/dataset"
	"subsetlens/domain/feature"
	"subsetlens/internal/errors"
	"subsetlens/ports"
)

// Session holds one user's exploration state: the feature definitions, the
// selected features, the active filters and the group editor. Features are
// replaced rather than mutated so a Selection snapshot stays valid while the
// session keeps changing.
type Session struct {
	ID core.SessionID

	mu       sync.Mutex
	dataset  *dataset.Dataset
	features feature.Set
	selected []string
	filters  []dataset.Filter
	groups   *feature.GroupArena
	editing  string
}

// NewSession starts a session over ds with the default features
func NewSession(ds *dataset.Dataset) (*Session, error) {
	if ds == nil {
		return nil, errors.InvalidInput("session needs a dataset")
	}
	features, err := feature.Derive(ds)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive features")
	}
	return &Session{
		ID:       core.NewSessionID(),
		dataset:  ds,
		features: features,
		selected: []string{},
		groups:   feature.NewGroupArena(),
	}, nil
}

// Selection returns a snapshot usable in explorer requests
func (s *Session) Selection() ports.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	features := make(feature.Set, len(s.features))
	for name, f := range s.features {
		features[name] = f
	}
	return ports.Selection{
		Dataset:  s.dataset,
		Features: features,
		Selected: slices.Clone(s.selected),
		Filters:  slices.Clone(s.filters),
	}
}

// Feature returns a copy of the named feature
func (s *Session) Feature(name string) (feature.Feature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.features.Get(name)
	if err != nil {
		return nil, errors.Wrap(err, "unknown feature")
	}
	return f.Clone(), nil
}

// Selected returns the selected feature names in selection order
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

// Select appends name to the selection
func (s *Session) Select(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.features.Get(name)
	if err != nil {
		return errors.Wrap(err, "unknown feature")
	}
	if slices.Contains(s.selected, name) {
		return errors.InvalidInput(fmt.Sprintf("feature %q is already selected", name))
	}
	if err := f.Validate(); err != nil {
		return errors.Wrapf(err, "feature %q cannot be selected", name)
	}
	s.selected = append(s.selected, name)
	return nil
}

// SetSelected replaces the whole selection. Nothing changes when any name
// cannot be selected.
func (s *Session) SetSelected(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			return errors.InvalidInput(fmt.Sprintf("feature %q is selected twice", name))
		}
		seen[name] = struct{}{}
		f, err := s.features.Get(name)
		if err != nil {
			return errors.Wrap(err, "unknown feature")
		}
		if err := f.Validate(); err != nil {
			return errors.Wrapf(err, "feature %q cannot be selected", name)
		}
	}
	s.selected = append([]string{}, names...)
	return nil
}

// Deselect removes name from the selection. It reports whether name was selected.
func (s *Session) Deselect(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.selected, name)
	if i < 0 {
		return false
	}
	s.selected = slices.Delete(s.selected, i, i+1)
	return true
}

// SetFilters replaces the filters after checking that they apply to the dataset
func (s *Session) SetFilters(filters []dataset.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.dataset.Filtered(filters); err != nil {
		return errors.Wrap(err, "invalid filters")
	}
	s.filters = slices.Clone(filters)
	return nil
}

// Filters returns the active filters
func (s *Session) Filters() []dataset.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.filters)
}

// ResetFeatures restores the default definition of every feature and clears
// the selection.
func (s *Session) ResetFeatures() error {
	features, err := feature.Derive(s.dataset)
	if err != nil {
		return errors.Wrap(err, "failed to derive features")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = features
	s.selected = []string{}
	s.editing = ""
	s.groups.Reset()
	return nil
}

// IncreaseBins adds a bin to a quantitative feature
func (s *Session) IncreaseBins(name string) (bool, error) {
	return s.editQuantitative(name, func(q *feature.Quantitative, values []float64) bool {
		return q.IncreaseBins(values)
	})
}

// DecreaseBins removes a bin from a quantitative feature
func (s *Session) DecreaseBins(name string) (bool, error) {
	return s.editQuantitative(name, func(q *feature.Quantitative, values []float64) bool {
		return q.DecreaseBins(values)
	})
}

// SetSplitType switches how a quantitative feature places its thresholds
func (s *Session) SetSplitType(name string, split feature.SplitType) (bool, error) {
	return s.editQuantitative(name, func(q *feature.Quantitative, values []float64) bool {
		return q.SetSplitType(split, values)
	})
}

// SetCustomThresholds sets user thresholds on a quantitative feature. The
// feature is updated even when the thresholds are invalid; it cannot be
// selected until they are fixed.
func (s *Session) SetCustomThresholds(name string, thresholds []float64) (bool, error) {
	return s.editQuantitative(name, func(q *feature.Quantitative, _ []float64) bool {
		return q.SetCustomThresholds(thresholds)
	})
}

func (s *Session) editQuantitative(name string, edit func(q *feature.Quantitative, values []float64) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.features.Get(name)
	if err != nil {
		return false, errors.Wrap(err, "unknown feature")
	}
	q, ok := f.Clone().(*feature.Quantitative)
	if !ok {
		return false, errors.WithCode(errors.CodeKindMismatch, core.NewKindMismatchError(name, string(feature.TypeQuantitative), string(f.FeatureType())))
	}
	col, err := s.dataset.Column(name)
	if err != nil {
		return false, errors.Wrap(err, "missing column")
	}

	changed := edit(q, col.Numbers)
	s.features[name] = q
	return changed, nil
}

// EditGroups loads a categorical feature into the group editor and returns a
// copy of its groups. Changes take effect on CommitGroups.
func (s *Session) EditGroups(name string) ([]feature.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.categorical(name)
	if err != nil {
		return nil, err
	}
	s.groups.Load(c)
	s.editing = name
	return s.groups.Groups(), nil
}

// UpdateGroups runs edit on the group editor while the session is locked and
// returns a copy of the resulting groups. c is the feature being edited and
// must not be modified.
func (s *Session) UpdateGroups(edit func(groups *feature.GroupArena, c *feature.Categorical) error) ([]feature.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == "" {
		return nil, errors.InvalidInput("no categorical feature is being edited")
	}
	c, err := s.categorical(s.editing)
	if err != nil {
		return nil, err
	}
	if err := edit(s.groups, c); err != nil {
		return nil, errors.Wrap(err, "group edit failed")
	}
	return s.groups.Groups(), nil
}

// Groups returns a copy of the group editor's groups
func (s *Session) Groups() []feature.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groups.Groups()
}

// CommitGroups writes the group editor back into the feature being edited
func (s *Session) CommitGroups() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == "" {
		return errors.InvalidInput("no categorical feature is being edited")
	}
	c, err := s.categorical(s.editing)
	if err != nil {
		return err
	}
	c = c.Clone().(*feature.Categorical)
	s.groups.Apply(c)
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "invalid groups")
	}
	s.features[s.editing] = c
	s.editing = ""
	return nil
}

func (s *Session) categorical(name string) (*feature.Categorical, error) {
	f, err := s.features.Get(name)
	if err != nil {
		return nil, errors.Wrap(err, "unknown feature")
	}
	c, ok := f.(*feature.Categorical)
	if !ok {
		return nil, errors.WithCode(errors.CodeKindMismatch, core.NewKindMismatchError(name, string(feature.TypeCategorical), string(f.FeatureType())))
	}
	return c, nil
}
