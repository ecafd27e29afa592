package dataset

import (
	"fmt"
	"slices"

	"subsetlens/domain/core"
)

// FilterType discriminates quantitative range filters from categorical set
// filters.
type FilterType string

const (
	FilterQuantitative FilterType = "Q"
	FilterCategorical  FilterType = "C"
)

// Filter keeps the rows whose value for Feature lies in [Min, Max) (or
// [Min, Max] when RightInclusive) for quantitative filters, or is one of
// Selected for categorical filters.
type Filter struct {
	Type           FilterType `json:"type"`
	Feature        string     `json:"feature"`
	Min            float64    `json:"min,omitempty"`
	Max            float64    `json:"max,omitempty"`
	RightInclusive bool       `json:"rightInclusive,omitempty"`
	Selected       []string   `json:"selected,omitempty"`
}

// Equal reports whether two filters select the same rows.
func (f Filter) Equal(o Filter) bool {
	if f.Type != o.Type || f.Feature != o.Feature {
		return false
	}
	switch f.Type {
	case FilterQuantitative:
		return f.Min == o.Min && f.Max == o.Max && f.RightInclusive == o.RightInclusive
	case FilterCategorical:
		return slices.Equal(f.Selected, o.Selected)
	}
	return false
}

func (f Filter) matcher(col Column) (func(i int) bool, error) {
	switch f.Type {
	case FilterQuantitative:
		if !col.IsNumeric() {
			return nil, core.NewKindMismatchError("filter column "+f.Feature, "quantitative", "categorical")
		}
		return func(i int) bool {
			v := col.Numbers[i]
			if v < f.Min {
				return false
			}
			if f.RightInclusive {
				return v <= f.Max
			}
			return v < f.Max
		}, nil

	case FilterCategorical:
		if col.IsNumeric() {
			return nil, core.NewKindMismatchError("filter column "+f.Feature, "categorical", "quantitative")
		}
		selected := make(map[string]struct{}, len(f.Selected))
		for _, s := range f.Selected {
			selected[s] = struct{}{}
		}
		return func(i int) bool {
			_, ok := selected[col.Strings[i]]
			return ok
		}, nil
	}
	return nil, fmt.Errorf("unknown filter type %q", f.Type)
}

// Filtered returns a new dataset with only the rows matching every filter.
// With no filters d itself is returned.
func (d *Dataset) Filtered(filters []Filter) (*Dataset, error) {
	if len(filters) == 0 {
		return d, nil
	}

	matchers := make([]func(int) bool, len(filters))
	for i, f := range filters {
		col, err := d.Column(f.Feature)
		if err != nil {
			return nil, err
		}
		m, err := f.matcher(col)
		if err != nil {
			return nil, err
		}
		matchers[i] = m
	}

	rows := make([]int, 0, d.Size())
	for i := 0; i < d.Size(); i++ {
		keep := true
		for _, m := range matchers {
			if !m(i) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, i)
		}
	}

	return d.Subset(rows)
}
