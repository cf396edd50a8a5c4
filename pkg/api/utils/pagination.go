package utils

import (
	"fmt"

	"github.com/valyala/fasthttp"

	"ghostline/pkg/models"
)

const maxCursorLen = 256

// ParsePagination reads ?limit and ?cursor. An absent limit means the
// default page size; a limit outside 1..MaxPageLimit is rejected rather
// than clamped.
func ParsePagination(ctx *fasthttp.RequestCtx) (models.PaginationRequest, error) {
	limit, err := GetQueryInt(ctx, "limit", models.DefaultPageLimit)
	if err != nil {
		return models.PaginationRequest{}, fmt.Errorf("limit must be a number")
	}
	if limit < 1 || limit > models.MaxPageLimit {
		return models.PaginationRequest{}, fmt.Errorf("limit must be between 1 and %d", models.MaxPageLimit)
	}
	cursor := GetQuery(ctx, "cursor")
	if len(cursor) > maxCursorLen {
		return models.PaginationRequest{}, fmt.Errorf("cursor too long")
	}
	return models.PaginationRequest{Limit: limit, Cursor: cursor}, nil
}
