// Package queryview is the in-memory search, sort, paginate and delete
// engine behind every list command. A View is built from records already
// fetched; it never calls the API.
package queryview

import (
	"slices"
	"strings"
)

// DefaultPageSize is used when New is given a non-positive page size.
const DefaultPageSize = 10

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// State is the transient view state of one list.
type State struct {
	SearchTerm    string
	SortKey       string
	SortDirection Direction
	CurrentPage   int
}

// Page is one rendered page. StartIndex is inclusive and EndIndex
// exclusive, both into the filtered and sorted list; Total is its length.
type Page[T any] struct {
	CurrentPage int
	TotalPages  int
	StartIndex  int
	EndIndex    int
	Total       int
	Items       []T
}

// View applies State to its own copy of the source list.
type View[T any] struct {
	source   []T
	pageSize int
	id       func(T) string
	state    State
}

// New builds a view over a copy of source. id identifies records for
// DeleteItem and may be nil when deletion is not needed.
func New[T any](source []T, pageSize int, id func(T) string) *View[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &View[T]{
		source:   slices.Clone(source),
		pageSize: pageSize,
		id:       id,
		state:    State{CurrentPage: 1},
	}
}

func (v *View[T]) State() State { return v.state }

func (v *View[T]) PageSize() int { return v.pageSize }

// Search filters by a case-insensitive substring of any string field. A
// changed term returns to page 1.
func (v *View[T]) Search(term string) {
	term = strings.TrimSpace(term)
	if term != v.state.SearchTerm {
		v.state.SearchTerm = term
		v.state.CurrentPage = 1
	}
}

// SortBy sorts by key, ascending for a new key and toggling for the
// current one.
func (v *View[T]) SortBy(key string) {
	if key == v.state.SortKey {
		if v.state.SortDirection == Ascending {
			v.state.SortDirection = Descending
		} else {
			v.state.SortDirection = Ascending
		}
		return
	}
	v.state.SortKey = key
	v.state.SortDirection = Ascending
}

// SetPage moves to page n, clamped into range.
func (v *View[T]) SetPage(n int) {
	v.state.CurrentPage = clamp(n, 1, v.totalPages(len(v.filtered())))
}

func (v *View[T]) Next() { v.SetPage(v.state.CurrentPage + 1) }

func (v *View[T]) Prev() { v.SetPage(v.state.CurrentPage - 1) }

// DeleteItem removes the record with the given id and reports whether one
// was found. The current page is clamped afterwards.
func (v *View[T]) DeleteItem(id string) bool {
	if v.id == nil {
		return false
	}
	i := slices.IndexFunc(v.source, func(item T) bool { return v.id(item) == id })
	if i < 0 {
		return false
	}
	v.source = slices.Delete(v.source, i, i+1)
	v.SetPage(v.state.CurrentPage)
	return true
}

// Replace swaps in freshly fetched records, keeping search and sort.
func (v *View[T]) Replace(source []T) {
	v.source = slices.Clone(source)
	v.SetPage(v.state.CurrentPage)
}

// Items returns the whole filtered and sorted list.
func (v *View[T]) Items() []T {
	return v.filtered()
}

// Page computes the current page.
func (v *View[T]) Page() Page[T] {
	items := v.filtered()
	total := len(items)
	pages := v.totalPages(total)
	v.state.CurrentPage = clamp(v.state.CurrentPage, 1, pages)

	start := (v.state.CurrentPage - 1) * v.pageSize
	end := min(start+v.pageSize, total)
	if start > total {
		start = total
	}

	return Page[T]{
		CurrentPage: v.state.CurrentPage,
		TotalPages:  pages,
		StartIndex:  start,
		EndIndex:    end,
		Total:       total,
		Items:       slices.Clone(items[start:end]),
	}
}

func (v *View[T]) filtered() []T {
	out := make([]T, 0, len(v.source))
	needle := strings.ToLower(v.state.SearchTerm)
	for _, item := range v.source {
		if needle == "" || matches(item, needle) {
			out = append(out, item)
		}
	}

	if v.state.SortKey != "" {
		key, desc := v.state.SortKey, v.state.SortDirection == Descending
		slices.SortStableFunc(out, func(a, b T) int {
			c := compareField(a, b, key)
			if desc {
				return -c
			}
			return c
		})
	}
	return out
}

func (v *View[T]) totalPages(n int) int {
	if n == 0 {
		return 1
	}
	return (n + v.pageSize - 1) / v.pageSize
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}
