package services

// Pagination defaults applied to every list operation
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps page to at least 1 and limit to [1, MaxPageSize],
// substituting DefaultPageSize for a non-positive limit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
