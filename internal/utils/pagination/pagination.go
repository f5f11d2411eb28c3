// Package pagination carries page requests through the ports and pages result
// sets that are filtered in memory.
package pagination

import "math"

// Page size bounds.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is a 1-based page request.
type Pagination struct {
	Page     int
	PageSize int
}

// New returns the first page at the default size.
func New() *Pagination {
	return &Pagination{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Normalize clamps the request in place and returns it.
func (p *Pagination) Normalize() *Pagination {
	p.Page = max(p.Page, DefaultPage)
	p.PageSize = p.Limit()
	return p
}

// Limit is the effective page size.
func (p *Pagination) Limit() int {
	if p.PageSize < 1 {
		return DefaultPageSize
	}
	return min(p.PageSize, MaxPageSize)
}

// Offset is the number of records before the requested page. It saturates at
// math.MaxInt for pages too far out to address.
func (p *Pagination) Offset() int {
	skipped, limit := max(p.Page, DefaultPage)-1, p.Limit()
	if skipped > math.MaxInt/limit {
		return math.MaxInt
	}
	return skipped * limit
}

// TotalPages is the page count for total records.
func (p *Pagination) TotalPages(total int64) int {
	size := int64(p.Limit())
	return int((total + size - 1) / size)
}

// PageInfo describes a returned page.
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Info describes the page p selects out of total records.
func (p *Pagination) Info(total int64) PageInfo {
	return PageInfo{
		Page:       max(p.Page, DefaultPage),
		PageSize:   p.Limit(),
		Total:      total,
		TotalPages: p.TotalPages(total),
	}
}

// Page is one page of items.
type Page[T any] struct {
	Items []T      `json:"items"`
	Info  PageInfo `json:"page_info"`
}

// Slice returns the page of items selected by p. A nil p selects the first
// page. Items is empty, never nil, past the end.
func Slice[T any](items []T, p *Pagination) Page[T] {
	if p == nil {
		p = New()
	}
	p.Normalize()

	start := min(p.Offset(), len(items))
	end := min(start+p.Limit(), len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return Page[T]{Items: out, Info: p.Info(int64(len(items)))}
}
