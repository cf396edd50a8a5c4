package models

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// PaginationRequest selects one page of a scope. Cursor is opaque to
// callers; it is the NextCursor of the previous page.
type PaginationRequest struct {
	Limit  int    `json:"limit,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// EffectiveLimit clamps Limit into [1, MaxPageLimit], zero meaning the
// default.
func (p PaginationRequest) EffectiveLimit() int {
	switch {
	case p.Limit <= 0:
		return DefaultPageLimit
	case p.Limit > MaxPageLimit:
		return MaxPageLimit
	default:
		return p.Limit
	}
}

// PaginationResponse describes the page returned. Count may be lower than
// Limit when records were skipped for the viewer.
type PaginationResponse struct {
	Limit      int    `json:"limit"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
	Count      int    `json:"count"`
}
