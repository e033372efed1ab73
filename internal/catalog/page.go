package catalog

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageBounds turns a 1-based page and a page size into an offset and limit.
// The offset saturates at math.MaxInt for absurd pages.
func PageBounds(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	if page-1 > math.MaxInt/size {
		return math.MaxInt, size
	}
	return (page - 1) * size, size
}

// Page returns one page of ps. A page past the end is empty.
func Page[T any](ps []T, page, size int) []T {
	offset, limit := PageBounds(page, size)
	if offset >= len(ps) {
		return []T{}
	}
	end := offset + min(limit, len(ps)-offset)
	return ps[offset:end]
}
