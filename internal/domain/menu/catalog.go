package menu

import (
	"slices"
	"strings"
)

// Section is one category of a Catalog with its entries in source order.
type Section struct {
	Category string
	Entries  []Entry
}

// Catalog is the browsable view of a menu: available entries grouped by
// category, categories in order of first appearance.
type Catalog struct {
	sections []Section
}

// NewCatalog filters entries by term and groups the result.
func NewCatalog(entries []Entry, term string) Catalog {
	return Group(Filter(entries, term))
}

// Filter returns available entries whose name or category contains term,
// ignoring case. An empty term matches every available entry.
func Filter(entries []Entry, term string) []Entry {
	needle := strings.ToLower(term)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Available {
			continue
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.Category), needle) {
			out = append(out, e)
		}
	}
	return out
}

// Group partitions entries by category. Categories keep the order in which
// they were first seen, entries keep their relative order. Unavailable
// entries are skipped.
func Group(entries []Entry) Catalog {
	index := make(map[string]int)
	var sections []Section
	for _, e := range entries {
		if !e.Available {
			continue
		}
		i, ok := index[e.Category]
		if !ok {
			i = len(sections)
			index[e.Category] = i
			sections = append(sections, Section{Category: e.Category})
		}
		sections[i].Entries = append(sections[i].Entries, e)
	}
	return Catalog{sections: sections}
}

// Sections returns a copy of the grouped entries.
func (c Catalog) Sections() []Section {
	out := make([]Section, len(c.sections))
	for i, s := range c.sections {
		out[i] = Section{Category: s.Category, Entries: slices.Clone(s.Entries)}
	}
	return out
}

// Categories returns category names in display order.
func (c Catalog) Categories() []string {
	names := make([]string, len(c.sections))
	for i, s := range c.sections {
		names[i] = s.Category
	}
	return names
}

// Len returns the number of entries across all sections.
func (c Catalog) Len() int {
	n := 0
	for _, s := range c.sections {
		n += len(s.Entries)
	}
	return n
}

// Empty reports whether the catalog has nothing to show. Callers render a
// "menu not yet available" state instead of an empty grid.
func (c Catalog) Empty() bool {
	return len(c.sections) == 0
}
