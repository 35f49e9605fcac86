package query

// Cursor identifies a neighbouring page.
type Cursor struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
}

// Pagination carries the links to the pages around the current one. A nil
// side means there is no such page.
type Pagination struct {
	Next *Cursor `json:"next,omitempty"`
	Prev *Cursor `json:"prev,omitempty"`
}

// Paginate computes next/prev metadata for a page window over total
// matching documents.
func Paginate(page, limit, total int64) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	var p Pagination
	start := (page - 1) * limit
	end := page * limit

	if end < total {
		p.Next = &Cursor{Page: page + 1, Limit: limit}
	}
	if start > 0 {
		p.Prev = &Cursor{Page: page - 1, Limit: limit}
	}
	return p
}

// Page is one window of a listing together with its metadata.
type Page[T any] struct {
	Items      []T
	Total      int64
	Pagination Pagination
	// Fields is the select list; nil means every field was fetched.
	Fields []string
}

// NewPage wraps items fetched for q.
func NewPage[T any](q Query, items []T, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Pagination: Paginate(q.Page, q.Limit, total),
		Fields:     q.Fields(),
	}
}
