package query

// PageSize is the number of rows of a table page.
const PageSize = 10

// Page is one window of a result list. From and To are 1-based and
// inclusive, both 0 when the list is empty.
type Page[T any] struct {
	Items      []T `json:"items"`
	Number     int `json:"page"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
	From       int `json:"from"`
	To         int `json:"to"`
}

// Paginate returns page number of items. The number is clamped to
// [1, max(1, ceil(len/size))]; size <= 0 means PageSize.
func Paginate[T any](items []T, number, size int) Page[T] {
	if size <= 0 {
		size = PageSize
	}
	total := len(items)
	pages := max(1, (total+size-1)/size)
	number = min(max(number, 1), pages)

	start := min((number-1)*size, total)
	end := min(start+size, total)
	p := Page[T]{
		Items:      items[start:end:end],
		Number:     number,
		TotalPages: pages,
		Total:      total,
	}
	if total > 0 {
		p.From, p.To = start+1, end
	} else {
		p.Items = []T{}
	}
	return p
}
