package feature

import (
	"fmt"
	"sort"

	"subsetlens/domain/core"
)

// Group is one editable group of a categorical feature.
type Group struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

func (g *Group) has(value string) bool {
	for _, v := range g.Values {
		if v == value {
			return true
		}
	}
	return false
}

func (g *Group) remove(value string) {
	for i, v := range g.Values {
		if v == value {
			g.Values = append(g.Values[:i], g.Values[i+1:]...)
			return
		}
	}
}

// GroupArena holds the working list of groups while a categorical feature is
// being edited. Edits address groups by index; every new group receives the
// next ID from the arena's own counter.
type GroupArena struct {
	nextID int
	groups []Group
}

// NewGroupArena returns an empty arena whose IDs start at zero.
func NewGroupArena() *GroupArena {
	return &GroupArena{}
}

// Reset clears the groups and restarts the ID counter.
func (a *GroupArena) Reset() {
	a.nextID = 0
	a.groups = nil
}

func (a *GroupArena) newGroup(name string, values ...string) Group {
	g := Group{ID: a.nextID, Name: name, Values: append([]string{}, values...)}
	a.nextID++
	return g
}

// Groups returns a copy of the current groups in order.
func (a *GroupArena) Groups() []Group {
	out := make([]Group, len(a.groups))
	for i, g := range a.groups {
		out[i] = Group{ID: g.ID, Name: g.Name, Values: append([]string{}, g.Values...)}
	}
	return out
}

// Len returns the number of groups.
func (a *GroupArena) Len() int { return len(a.groups) }

// Load replaces the working groups with those of c, one per entry of Values.
func (a *GroupArena) Load(c *Categorical) {
	members := make(map[string][]string, len(c.Values))
	for _, v := range categoryOrder(c) {
		g := c.ValueToGroup[v]
		members[g] = append(members[g], v)
	}

	a.groups = make([]Group, 0, len(c.Values))
	for _, name := range c.Values {
		a.groups = append(a.groups, a.newGroup(name, members[name]...))
	}
}

// Add inserts an empty group named "New" at the front.
func (a *GroupArena) Add() {
	a.groups = append([]Group{a.newGroup("New")}, a.groups...)
}

// Delete removes the group at index.
func (a *GroupArena) Delete(index int) error {
	if err := a.check(index); err != nil {
		return err
	}
	a.groups = append(a.groups[:index], a.groups[index+1:]...)
	return nil
}

// Rename sets the name of the group at index.
func (a *GroupArena) Rename(index int, name string) error {
	if err := a.check(index); err != nil {
		return err
	}
	a.groups[index].Name = name
	return nil
}

// MergeAll replaces the groups with a single "All values" group holding every
// category of c.
func (a *GroupArena) MergeAll(c *Categorical) {
	a.groups = []Group{a.newGroup("All values", categoryOrder(c)...)}
}

// SplitAll replaces the groups with one group per category of c.
func (a *GroupArena) SplitAll(c *Categorical) {
	values := categoryOrder(c)
	a.groups = make([]Group, 0, len(values))
	for _, v := range values {
		a.groups = append(a.groups, a.newGroup(v, v))
	}
}

// SortByName orders the groups by name.
func (a *GroupArena) SortByName() {
	sort.SliceStable(a.groups, func(i, j int) bool {
		return a.groups[i].Name < a.groups[j].Name
	})
}

// MoveValue moves value from the group at from to the group at to. The
// source group is removed when it becomes empty.
func (a *GroupArena) MoveValue(value string, from, to int) error {
	if err := a.check(from); err != nil {
		return err
	}
	if err := a.check(to); err != nil {
		return err
	}
	if !a.groups[from].has(value) {
		return fmt.Errorf("%w: value %q is not in group %q", core.ErrInvalidFeature, value, a.groups[from].Name)
	}

	a.groups[from].remove(value)
	if !a.groups[to].has(value) {
		a.groups[to].Values = append(a.groups[to].Values, value)
	}

	if len(a.groups[from].Values) == 0 {
		a.groups = append(a.groups[:from], a.groups[from+1:]...)
	}
	return nil
}

// MoveGroup moves the group at from so that it ends up at index to.
func (a *GroupArena) MoveGroup(from, to int) error {
	if err := a.check(from); err != nil {
		return err
	}
	if err := a.check(to); err != nil {
		return err
	}
	g := a.groups[from]
	a.groups = append(a.groups[:from], a.groups[from+1:]...)
	a.groups = append(a.groups[:to], append([]Group{g}, a.groups[to:]...)...)
	return nil
}

// Apply writes the working groups back into c. Empty groups are dropped.
func (a *GroupArena) Apply(c *Categorical) {
	c.ValueToGroup = make(map[string]string, len(c.Categories))
	c.Values = make([]string, 0, len(a.groups))
	for _, g := range a.groups {
		if len(g.Values) == 0 {
			continue
		}
		for _, v := range g.Values {
			c.ValueToGroup[v] = g.Name
		}
		c.Values = append(c.Values, g.Name)
	}
}

func (a *GroupArena) check(index int) error {
	if index < 0 || index >= len(a.groups) {
		return fmt.Errorf("%w: index %d of %d", core.ErrGroupNotFound, index, len(a.groups))
	}
	return nil
}

// categoryOrder lists the mapped raw values of c, following Categories and
// then any mapped value missing from it in sorted order.
func categoryOrder(c *Categorical) []string {
	out := make([]string, 0, len(c.ValueToGroup))
	seen := make(map[string]struct{}, len(c.ValueToGroup))
	for _, v := range c.Categories {
		if _, ok := c.ValueToGroup[v]; ok {
			out = append(out, v)
			seen[v] = struct{}{}
		}
	}
	var extra []string
	for v := range c.ValueToGroup {
		if _, ok := seen[v]; !ok {
			extra = append(extra, v)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
