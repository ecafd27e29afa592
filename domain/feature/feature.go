// Package feature describes how each dataset column is partitioned into bins:
// quantitative columns by sorted thresholds, categorical columns by a mapping
// from raw values to named groups.
package feature

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"subsetlens/domain/binning"
	"subsetlens/domain/core"

	"gonum.org/v1/gonum/floats"
)

// Type discriminates the two feature variants.
type Type string

const (
	TypeQuantitative Type = "Q"
	TypeCategorical  Type = "C"
)

// Feature is either a *Quantitative or a *Categorical.
type Feature interface {
	FeatureName() string
	FeatureType() Type
	// NumBins is the number of bins the feature partitions rows into.
	NumBins() int
	Clone() Feature
	Validate() error

	sealed()
}

// SplitType selects how quantitative thresholds are computed.
type SplitType string

const (
	SplitInterval SplitType = "interval"
	SplitQuantile SplitType = "quantile"
	SplitCustom   SplitType = "custom"
)

// Default binning applied when features are derived from a dataset.
const (
	DefaultNumBins   = 3
	DefaultSplitType = SplitInterval
)

// Quantitative bins a numeric column by thresholds inside its extent.
type Quantitative struct {
	Name       string     `json:"name"`
	Extent     [2]float64 `json:"extent"`
	SplitType  SplitType  `json:"splitType"`
	Bins       int        `json:"numBins"`
	Thresholds []float64  `json:"thresholds"`
	Labels     []string   `json:"values"`
	Format     string     `json:"format"`
}

// Categorical bins a string column by the group each raw value belongs to.
// Values lists the group names in display order.
type Categorical struct {
	Name         string            `json:"name"`
	Values       []string          `json:"values"`
	Categories   []string          `json:"categories"`
	ValueToGroup map[string]string `json:"valueToGroup"`
}

func (q *Quantitative) FeatureName() string { return q.Name }
func (q *Quantitative) FeatureType() Type   { return TypeQuantitative }
func (q *Quantitative) NumBins() int        { return len(q.Thresholds) + 1 }
func (*Quantitative) sealed()               {}

func (c *Categorical) FeatureName() string { return c.Name }
func (c *Categorical) FeatureType() Type   { return TypeCategorical }
func (c *Categorical) NumBins() int        { return len(c.Values) }
func (*Categorical) sealed()               {}

// Bin returns the bin index of v. A value equal to a threshold falls into the
// higher bin.
func (q *Quantitative) Bin(v float64) int {
	return binning.Bisect(q.Thresholds, v)
}

// GroupIndex maps each raw value to the index of its group in Values.
// Values whose group is not listed are absent from the map.
func (c *Categorical) GroupIndex() map[string]int {
	pos := make(map[string]int, len(c.Values))
	for i, g := range c.Values {
		if _, ok := pos[g]; !ok {
			pos[g] = i
		}
	}
	index := make(map[string]int, len(c.ValueToGroup))
	for v, g := range c.ValueToGroup {
		if i, ok := pos[g]; ok {
			index[v] = i
		}
	}
	return index
}

func (q *Quantitative) Clone() Feature {
	out := *q
	out.Thresholds = append([]float64(nil), q.Thresholds...)
	out.Labels = append([]string(nil), q.Labels...)
	return &out
}

func (c *Categorical) Clone() Feature {
	out := &Categorical{
		Name:         c.Name,
		Values:       append([]string(nil), c.Values...),
		Categories:   append([]string(nil), c.Categories...),
		ValueToGroup: make(map[string]string, len(c.ValueToGroup)),
	}
	for k, v := range c.ValueToGroup {
		out.ValueToGroup[k] = v
	}
	return out
}

// Validate checks the extent, the label count and, for custom splits, the
// threshold ordering. Interval and quantile thresholds are used as computed;
// quantile cut points of a skewed column may repeat or sit on the extent.
func (q *Quantitative) Validate() error {
	if !(q.Extent[0] < q.Extent[1]) {
		return fmt.Errorf("%w: %s has empty extent [%v, %v]", core.ErrInvalidFeature, q.Name, q.Extent[0], q.Extent[1])
	}
	if !q.thresholdsUsable() {
		return fmt.Errorf("%w: %s %v", core.ErrInvalidThresholds, q.Name, q.Thresholds)
	}
	if len(q.Labels) != len(q.Thresholds)+1 {
		return fmt.Errorf("%w: %s has %d labels for %d thresholds", core.ErrInvalidFeature, q.Name, len(q.Labels), len(q.Thresholds))
	}
	return nil
}

// Validate checks that every category maps to exactly one listed group.
func (c *Categorical) Validate() error {
	groups := make(map[string]struct{}, len(c.Values))
	for _, g := range c.Values {
		groups[g] = struct{}{}
	}
	for _, v := range c.Categories {
		g, ok := c.ValueToGroup[v]
		if !ok {
			return fmt.Errorf("%w: %s value %q has no group", core.ErrInvalidFeature, c.Name, v)
		}
		if _, ok := groups[g]; !ok {
			return fmt.Errorf("%w: %s group %q is not listed", core.ErrInvalidFeature, c.Name, g)
		}
	}
	return nil
}

// Equal reports whether a and b describe the same binning.
func Equal(a, b Feature) bool {
	switch x := a.(type) {
	case *Quantitative:
		y, ok := b.(*Quantitative)
		return ok &&
			x.Name == y.Name &&
			x.Extent == y.Extent &&
			x.SplitType == y.SplitType &&
			x.Bins == y.Bins &&
			floats.Equal(x.Thresholds, y.Thresholds) &&
			slices.Equal(x.Labels, y.Labels) &&
			x.Format == y.Format
	case *Categorical:
		y, ok := b.(*Categorical)
		return ok &&
			x.Name == y.Name &&
			slices.Equal(x.Values, y.Values) &&
			slices.Equal(x.Categories, y.Categories) &&
			maps.Equal(x.ValueToGroup, y.ValueToGroup)
	}
	return false
}

// NewQuantitative derives a quantitative feature with the default binning
// from a column's values.
func NewQuantitative(name string, values []float64) *Quantitative {
	q := &Quantitative{
		Name:      name,
		SplitType: DefaultSplitType,
		Bins:      DefaultNumBins,
		Format:    binning.DefaultFormatSpec,
	}
	if len(values) > 0 {
		q.Extent = [2]float64{floats.Min(values), floats.Max(values)}
	}
	q.SetBins(values)
	return q
}

// NewCategorical derives a categorical feature in which every distinct value
// forms its own group, sorted by name.
func NewCategorical(name string, values []string) *Categorical {
	seen := make(map[string]struct{})
	unique := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	sort.Strings(unique)

	c := &Categorical{
		Name:         name,
		Values:       unique,
		Categories:   append([]string(nil), unique...),
		ValueToGroup: make(map[string]string, len(unique)),
	}
	for _, v := range unique {
		c.ValueToGroup[v] = v
	}
	return c
}
