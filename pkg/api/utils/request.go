// Package utils reads the parts of a fasthttp request the handlers and the
// gateway care about.
package utils

import (
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
)

const (
	HeaderRole          = "X-Role-Name"
	HeaderUserID        = "X-User-ID"
	HeaderUserSignature = "X-User-Signature"
	HeaderAPIKey        = "X-API-Key"
)

// GetHeader returns the trimmed header value.
func GetHeader(ctx *fasthttp.RequestCtx, key string) string {
	return strings.TrimSpace(string(ctx.Request.Header.Peek(key)))
}

func GetPath(ctx *fasthttp.RequestCtx) string {
	return string(ctx.Path())
}

func HasPathPrefix(ctx *fasthttp.RequestCtx, prefix string) bool {
	return strings.HasPrefix(GetPath(ctx), prefix)
}

// ExtractAPIKey prefers "Authorization: Bearer <key>" and falls back to
// X-API-Key.
func ExtractAPIKey(ctx *fasthttp.RequestCtx) string {
	if parts := strings.Fields(GetHeader(ctx, fasthttp.HeaderAuthorization)); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return GetHeader(ctx, HeaderAPIKey)
}

// GetAPIRole returns the role the gateway resolved for this request.
func GetAPIRole(ctx *fasthttp.RequestCtx) string {
	return strings.ToLower(GetHeader(ctx, HeaderRole))
}

func IsBackendRole(ctx *fasthttp.RequestCtx) bool {
	return GetAPIRole(ctx) == "backend"
}

func GetUserID(ctx *fasthttp.RequestCtx) string {
	return GetHeader(ctx, HeaderUserID)
}

func HasUserSignature(ctx *fasthttp.RequestCtx) bool {
	return GetHeader(ctx, HeaderUserSignature) != ""
}

func GetQuery(ctx *fasthttp.RequestCtx, key string) string {
	return strings.TrimSpace(string(ctx.QueryArgs().Peek(key)))
}

func GetQueryLower(ctx *fasthttp.RequestCtx, key string) string {
	return strings.ToLower(GetQuery(ctx, key))
}

// GetQueryInt returns def when key is absent and an error when it is not a
// number.
func GetQueryInt(ctx *fasthttp.RequestCtx, key string, def int) (int, error) {
	v := GetQuery(ctx, key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// GetQueryBool treats 1/true/yes as set; anything else, absence included,
// is false.
func GetQueryBool(ctx *fasthttp.RequestCtx, key string) bool {
	switch GetQueryLower(ctx, key) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
