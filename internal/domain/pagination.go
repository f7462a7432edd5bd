package domain

const (
	// DefaultPage is used when a caller does not ask for a page.
	DefaultPage = 1
	// DefaultLimit is used when a caller does not ask for a page size.
	DefaultLimit = 20
)

// PageParams selects a window of an ordered collection.
type PageParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize fills in defaults for missing or non-positive values.
func (p PageParams) Normalize() PageParams {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// Offset returns the number of items preceding the page.
func (p PageParams) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Pagination describes where a page sits in the whole collection.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// Page is one window of a collection plus its position.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPage wraps an already-sliced window of a collection of size total.
func NewPage[T any](data []T, total int, p PageParams) Page[T] {
	p = p.Normalize()
	if data == nil {
		data = []T{}
	}
	totalPages := (total + p.Limit - 1) / p.Limit
	return Page[T]{
		Data: data,
		Pagination: Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    p.Page*p.Limit < total,
		},
	}
}

// Paginate slices an ordered collection into the requested page.
func Paginate[T any](items []T, p PageParams) Page[T] {
	p = p.Normalize()
	start := p.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	window := make([]T, end-start)
	copy(window, items[start:end])
	return NewPage(window, len(items), p)
}
