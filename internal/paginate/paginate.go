// Package paginate computes page boundaries over an in-memory collection.
package paginate

// DefaultItemsPerPage is the page size used when none is configured.
const DefaultItemsPerPage = 24

// Info describes one page of a collection.
type Info struct {
	CurrentPage     int  `json:"currentPage"`
	ItemsPerPage    int  `json:"itemsPerPage"`
	TotalItems      int  `json:"totalItems"`
	TotalPages      int  `json:"totalPages"`
	StartIndex      int  `json:"startIndex"`
	EndIndex        int  `json:"endIndex"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

// Page is a window of items with its pagination metadata.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Pagination Info `json:"pagination"`
}

// Calculate returns the boundaries of page currentPage. It does not clamp:
// a page past the end yields an empty window with HasNextPage false.
// A non-positive itemsPerPage is treated as 1.
func Calculate(totalItems, currentPage, itemsPerPage int) Info {
	if itemsPerPage <= 0 {
		itemsPerPage = 1
	}
	totalItems = max(totalItems, 0)

	totalPages := 0
	if totalItems > 0 {
		totalPages = (totalItems + itemsPerPage - 1) / itemsPerPage
	}
	start := (currentPage - 1) * itemsPerPage
	end := min(start+itemsPerPage, totalItems)

	return Info{
		CurrentPage:     currentPage,
		ItemsPerPage:    itemsPerPage,
		TotalItems:      totalItems,
		TotalPages:      totalPages,
		StartIndex:      start,
		EndIndex:        end,
		HasPreviousPage: currentPage > 1,
		HasNextPage:     currentPage < totalPages,
	}
}

// Paginate returns the items on currentPage. The returned slice shares the
// input's backing array but has its capacity capped, so appending to it
// never overwrites the input.
func Paginate[T any](items []T, currentPage, itemsPerPage int) Page[T] {
	info := Calculate(len(items), currentPage, itemsPerPage)
	if info.StartIndex < 0 || info.StartIndex >= info.EndIndex {
		return Page[T]{Items: []T{}, Pagination: info}
	}
	return Page[T]{
		Items:      items[info.StartIndex:info.EndIndex:info.EndIndex],
		Pagination: info,
	}
}

// State is the persisted pagination position.
type State struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"totalItems"`
}

// TotalPages returns ceil(TotalItems/ItemsPerPage).
func (s State) TotalPages() int {
	return Calculate(s.TotalItems, 1, s.ItemsPerPage).TotalPages
}

// Clamp returns s with CurrentPage forced into [1, max(1, TotalPages)] and a
// positive ItemsPerPage.
func (s State) Clamp() State {
	if s.ItemsPerPage <= 0 {
		s.ItemsPerPage = DefaultItemsPerPage
	}
	last := max(s.TotalPages(), 1)
	s.CurrentPage = min(max(s.CurrentPage, 1), last)
	return s
}

// WithTotal records a new collection size and re-clamps the current page so
// it never points past the end.
func (s State) WithTotal(total int) State {
	s.TotalItems = max(total, 0)
	return s.Clamp()
}
