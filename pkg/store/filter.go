package store

import "strings"

// Filter is the view predicate applied when the list is rendered.
type Filter string

// Filter values.
const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter validates a filter value. Surrounding whitespace and case
// are ignored.
func ParseFilter(raw string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(raw))); f {
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	}
	return "", &ValidationError{Field: "filter", Value: raw, Message: MsgInvalidFilter}
}

// Match reports whether an item is visible under the filter.
func (f Filter) Match(it Item) bool {
	switch f {
	case FilterActive:
		return !it.Completed
	case FilterCompleted:
		return it.Completed
	default:
		return true
	}
}

// Apply returns the items visible under the filter in collection order.
// The input is never modified.
func (f Filter) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}
