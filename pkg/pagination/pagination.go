package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many documents any page can request.
	MaxLimit = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Meta describes the page returned alongside list results.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"total_pages"`
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

// Normalize clamps page to at least 1 and applies NormalizeLimit.
func (p Params) Normalize() Params {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return Params{Page: page, Limit: NormalizeLimit(p.Limit)}
}

// Skip returns the number of documents preceding the page.
func (p Params) Skip() int64 {
	n := p.Normalize()
	return int64(n.Page-1) * int64(n.Limit)
}

// NewMeta builds the page metadata; an empty result still reports one page.
func NewMeta(p Params, total int64) Meta {
	n := p.Normalize()
	pages := int64(1)
	if total > 0 {
		pages = (total + int64(n.Limit) - 1) / int64(n.Limit)
	}
	return Meta{Total: total, Page: n.Page, Limit: n.Limit, TotalPages: pages}
}
