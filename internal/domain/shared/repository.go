package shared

// Pagination bounds applied by every list endpoint
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: DefaultPageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}

// Normalize clamps page to >= 1 and page size to [1, MaxPageSize]
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset returns the number of rows to skip for the current page
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// PageInfo describes where a page sits in the filtered result set
type PageInfo struct {
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	PerPage     int   `json:"perPage"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// NewPageInfo computes page count (never below 1) and navigation flags
func NewPageInfo(total int64, page, pageSize int) PageInfo {
	totalPages := 1
	if pageSize > 0 && total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PageInfo{
		TotalCount:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		PerPage:     pageSize,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items []T `json:"items"`
	PageInfo
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	if items == nil {
		items = make([]T, 0)
	}
	return Paginated[T]{
		Items:    items,
		PageInfo: NewPageInfo(total, page, pageSize),
	}
}
