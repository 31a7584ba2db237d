package paginate

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_MiddlePage(t *testing.T) {
	got := Calculate(100, 5, 10)
	assert.Equal(t, 40, got.StartIndex)
	assert.Equal(t, 50, got.EndIndex)
	assert.Equal(t, 10, got.TotalPages)
	assert.True(t, got.HasNextPage)
	assert.True(t, got.HasPreviousPage)
}

func TestCalculate_Empty(t *testing.T) {
	for _, k := range []int{1, 10, 24} {
		got := Calculate(0, 1, k)
		assert.Equal(t, 0, got.TotalPages, "perPage=%d", k)
		assert.False(t, got.HasNextPage)
		assert.False(t, got.HasPreviousPage)
	}
}

func TestCalculate_PastEnd(t *testing.T) {
	got := Calculate(25, 9, 10)
	assert.Equal(t, 3, got.TotalPages)
	assert.False(t, got.HasNextPage)
	assert.True(t, got.HasPreviousPage)
	assert.Equal(t, 25, got.EndIndex)
}

func TestCalculate_LastPartialPage(t *testing.T) {
	got := Calculate(25, 3, 10)
	assert.Equal(t, 20, got.StartIndex)
	assert.Equal(t, 25, got.EndIndex)
	assert.False(t, got.HasNextPage)
}

func TestPaginate_ReconstructsCollection(t *testing.T) {
	items := make([]int, 53)
	for i := range items {
		items[i] = i
	}
	for _, perPage := range []int{1, 7, 10, 53, 100} {
		var rebuilt []int
		first := Paginate(items, 1, perPage)
		for p := 1; p <= first.Pagination.TotalPages; p++ {
			page := Paginate(items, p, perPage)
			assert.LessOrEqual(t, len(page.Items), perPage)
			rebuilt = append(rebuilt, page.Items...)
		}
		assert.Equal(t, items, rebuilt, "perPage=%d", perPage)
	}
}

func TestPaginate_OutOfRange(t *testing.T) {
	items := []string{"a", "b", "c"}
	assert.Empty(t, Paginate(items, 5, 2).Items)
	assert.Empty(t, Paginate(items, 0, 2).Items)
	assert.NotNil(t, Paginate([]string(nil), 1, 2).Items)
}

func TestPaginate_DoesNotAliasInput(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	orig := slices.Clone(items)
	page := Paginate(items, 1, 2)
	_ = append(page.Items, "x")
	assert.Equal(t, orig, items)
}

func TestState_Clamp(t *testing.T) {
	tests := []struct {
		name string
		in   State
		want int
	}{
		{"zero page", State{CurrentPage: 0, ItemsPerPage: 10, TotalItems: 30}, 1},
		{"past end", State{CurrentPage: 9, ItemsPerPage: 10, TotalItems: 30}, 3},
		{"empty collection", State{CurrentPage: 4, ItemsPerPage: 10, TotalItems: 0}, 1},
		{"in range", State{CurrentPage: 2, ItemsPerPage: 10, TotalItems: 30}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Clamp().CurrentPage)
		})
	}
}

func TestState_WithTotal(t *testing.T) {
	s := State{CurrentPage: 10, ItemsPerPage: 24, TotalItems: 1000}
	s = s.WithTotal(50)
	assert.Equal(t, 3, s.CurrentPage)
	assert.Equal(t, 50, s.TotalItems)

	s = State{}.WithTotal(5)
	assert.Equal(t, DefaultItemsPerPage, s.ItemsPerPage)
	assert.Equal(t, 1, s.CurrentPage)
}
