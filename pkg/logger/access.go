package logger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

var redactedHeaders = []string{"authorization", "x-api-key", "x-user-signature", "cookie"}

// redact masks credential headers down to a four byte prefix.
func redact(name, value string) string {
	for _, h := range redactedHeaders {
		if strings.EqualFold(name, h) {
			if len(value) <= 4 {
				return "****"
			}
			return value[:4] + "****"
		}
	}
	return value
}

func requestHeaders(ctx *fasthttp.RequestCtx) string {
	var b strings.Builder
	ctx.Request.Header.VisitAll(func(k, v []byte) {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.Write(k)
		b.WriteByte('=')
		b.WriteString(redact(string(k), string(v)))
	})
	return b.String()
}

// AccessLog logs every request after next has answered it. Headers are
// only rendered when debug logging is on.
func AccessLog(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		if Log == nil {
			return
		}
		args := []any{
			"method", string(ctx.Method()),
			"path", string(ctx.Path()),
			"status", ctx.Response.StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", ctx.RemoteAddr().String(),
		}
		if Log.Enabled(context.Background(), slog.LevelDebug) {
			Debug("http_request", append(args, "headers", requestHeaders(ctx))...)
			return
		}
		if ctx.Response.StatusCode() >= fasthttp.StatusInternalServerError {
			Warn("http_request", args...)
		}
	}
}
