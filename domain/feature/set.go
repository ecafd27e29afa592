package feature

import (
	"encoding/json"
	"fmt"
	"sort"

	"subsetlens/domain/core"
	"subsetlens/domain/dataset"
)

// Set maps feature names to their definitions.
type Set map[string]Feature

// Derive builds the default feature set for ds: numeric columns become
// quantitative features with three equal-width bins, string columns become
// categorical features with one group per distinct value.
func Derive(ds *dataset.Dataset) (Set, error) {
	set := make(Set, len(ds.FeatureNames))
	for _, name := range ds.FeatureNames {
		col, err := ds.Column(name)
		if err != nil {
			return nil, err
		}
		if col.IsNumeric() {
			set[name] = NewQuantitative(name, col.Numbers)
		} else {
			set[name] = NewCategorical(name, col.Strings)
		}
	}
	return set, nil
}

// Get returns the named feature.
func (s Set) Get(name string) (Feature, error) {
	f, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrFeatureNotFound, name)
	}
	return f, nil
}

// Names returns the feature names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone deep-copies the named features, or every feature when no names are
// given.
func (s Set) Clone(names ...string) (Set, error) {
	if len(names) == 0 {
		names = s.Names()
	}
	out := make(Set, len(names))
	for _, name := range names {
		f, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		out[name] = f.Clone()
	}
	return out, nil
}

// Extent summarises a feature over the whole dataset: the numeric extent for
// quantitative features, the raw categories for categorical ones.
type Extent struct {
	Type       Type       `json:"type"`
	Extent     [2]float64 `json:"extent,omitempty"`
	Categories []string   `json:"categories,omitempty"`
}

// Extents returns the whole-dataset extent of every feature.
func (s Set) Extents() map[string]Extent {
	out := make(map[string]Extent, len(s))
	for name, f := range s {
		switch f := f.(type) {
		case *Quantitative:
			out[name] = Extent{Type: TypeQuantitative, Extent: f.Extent}
		case *Categorical:
			out[name] = Extent{Type: TypeCategorical, Categories: append([]string(nil), f.Categories...)}
		}
	}
	return out
}

func (q *Quantitative) MarshalJSON() ([]byte, error) {
	type plain Quantitative
	return json.Marshal(struct {
		Type Type `json:"type"`
		*plain
	}{TypeQuantitative, (*plain)(q)})
}

func (c *Categorical) MarshalJSON() ([]byte, error) {
	type plain Categorical
	return json.Marshal(struct {
		Type Type `json:"type"`
		*plain
	}{TypeCategorical, (*plain)(c)})
}

// Decode reads one feature, choosing the variant from its "type" field.
func Decode(data []byte) (Feature, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case TypeQuantitative:
		type plain Quantitative
		var q plain
		if err := json.Unmarshal(data, &q); err != nil {
			return nil, err
		}
		f := Quantitative(q)
		return &f, nil
	case TypeCategorical:
		type plain Categorical
		var c plain
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		f := Categorical(c)
		return &f, nil
	}
	return nil, fmt.Errorf("%w: unknown feature type %q", core.ErrInvalidFeature, head.Type)
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Set, len(raw))
	for name, msg := range raw {
		f, err := Decode(msg)
		if err != nil {
			return fmt.Errorf("feature %q: %w", name, err)
		}
		out[name] = f
	}
	*s = out
	return nil
}
