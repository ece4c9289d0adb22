package pagination

// Pagination represents pagination parameters bound from a query string.
type Pagination struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Default values.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// New creates pagination with default values.
func New() *Pagination {
	return &Pagination{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}
}

// Normalize clamps page and page size into their valid ranges.
func Normalize(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset returns the row offset of page.
func Offset(page, pageSize int) int {
	page, pageSize = Normalize(page, pageSize)
	return (page - 1) * pageSize
}

// Offset returns the offset for database queries.
func (p *Pagination) Offset() int {
	return Offset(p.Page, p.PageSize)
}

// Limit returns the limit for database queries.
func (p *Pagination) Limit() int {
	_, size := Normalize(p.Page, p.PageSize)
	return size
}

// TotalPages calculates the total number of pages.
func (p *Pagination) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	pageSize := int64(p.Limit())
	return int((total + pageSize - 1) / pageSize)
}

// PageInfo represents pagination info in API responses.
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Info returns pagination info for API responses.
func (p *Pagination) Info(total int64) PageInfo {
	page, _ := Normalize(p.Page, p.PageSize)
	return PageInfo{
		Page:       page,
		PageSize:   p.Limit(),
		Total:      total,
		TotalPages: p.TotalPages(total),
	}
}

// Page is one page of a listing.
type Page[T any] struct {
	Items []T `json:"items"`
	PageInfo
}

// NewPage wraps items with the pagination info of p.
func NewPage[T any](p *Pagination, items []T, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, PageInfo: p.Info(total)}
}
