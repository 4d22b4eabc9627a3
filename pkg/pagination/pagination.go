package pagination

// Offset-based pagination for dashboard reads. Sort order is owned by the
// repository (newest first), not by the caller.

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page describes one page of results.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage clamps the requested page to 1 or greater.
func NormalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// Offset converts normalized page/limit into a row offset.
func (p Params) Offset() int {
	return (NormalizePage(p.Page) - 1) * NormalizeLimit(p.Limit)
}

// NewPage builds the page descriptor, computing totalPages = ceil(total/limit).
func NewPage(params Params, total int64) Page {
	limit := NormalizeLimit(params.Limit)
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Page{
		Page:       NormalizePage(params.Page),
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
