package auth

import (
	"net"
	"strings"

	"github.com/valyala/fasthttp"

	"ghostline/pkg/api/router"
	"ghostline/pkg/api/utils"
	"ghostline/pkg/logger"
	"ghostline/pkg/timeutil"
)

// Gateway authenticates API keys, enforces per-role route restrictions and
// rate limits every key.
type Gateway struct {
	cfg      SecConfig
	limiters *keyLimiters
}

// NewGateway builds a gateway whose rate limits run on clock.
func NewGateway(cfg SecConfig, clock timeutil.Clock) *Gateway {
	return &Gateway{cfg: cfg, limiters: newKeyLimiters(clock, cfg.RPS, cfg.Burst)}
}

// Wrap returns next guarded by the gateway.
func (g *Gateway) Wrap(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		// never trust a caller supplied role
		ctx.Request.Header.Del(utils.HeaderRole)

		if publicAllowedPath(ctx) {
			ctx.Request.Header.Set(utils.HeaderRole, RoleUnauth.String())
			next(ctx)
			return
		}

		role, key, hasAPIKey := validateAPIKey(ctx, g.cfg)
		if role == RoleUnauth || !hasAPIKey {
			router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "unauthorized")
			logger.Warn("request_unauthorized", "path", utils.GetPath(ctx), "remote", ctx.RemoteAddr().String())
			return
		}
		ctx.Request.Header.Set(utils.HeaderRole, role.String())

		// frontends can only reach user facing routes
		if role == RoleFrontend && !frontendAllowed(ctx) {
			router.WriteJSONError(ctx, fasthttp.StatusForbidden, "forbidden")
			logger.Warn("request_forbidden", "reason", "frontend_not_allowed", "path", utils.GetPath(ctx))
			return
		}
		if (role == RoleBackend || role == RoleFrontend) && utils.HasPathPrefix(ctx, "/admin") {
			router.WriteJSONError(ctx, fasthttp.StatusForbidden, "non-admin api keys cannot access admin routes")
			logger.Warn("admin_access_attempt", "role", role.String(), "path", utils.GetPath(ctx), "remote", ctx.RemoteAddr().String())
			return
		}
		if role == RoleAdmin && !utils.HasPathPrefix(ctx, "/admin") {
			router.WriteJSONError(ctx, fasthttp.StatusForbidden, "admin api keys may only access /admin routes")
			logger.Warn("admin_route_violation", "path", utils.GetPath(ctx), "remote", ctx.RemoteAddr().String())
			return
		}

		if g.cfg.RPS > 0 && !g.limiters.allow(key) {
			router.WriteJSONError(ctx, fasthttp.StatusTooManyRequests, "rate limit exceeded")
			logger.Warn("rate_limited", "role", role.String(), "path", utils.GetPath(ctx))
			return
		}

		// frontends always act through a signed user; backends may sign too
		if role == RoleFrontend || utils.HasUserSignature(ctx) {
			RequireSignedAuthor(next)(ctx)
			return
		}
		next(ctx)
	}
}

func clientIP(ctx *fasthttp.RequestCtx) string {
	host := ctx.RemoteAddr().String()
	h, _, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	return h
}

func validateAPIKey(ctx *fasthttp.RequestCtx, cfg SecConfig) (Role, string, bool) {
	key := utils.ExtractAPIKey(ctx)
	if key == "" {
		return RoleUnauth, clientIP(ctx), false
	}
	if _, ok := cfg.AdminKeys[key]; ok {
		return RoleAdmin, key, true
	}
	if _, ok := cfg.BackendKeys[key]; ok {
		return RoleBackend, key, true
	}
	if _, ok := cfg.FrontendKeys[key]; ok {
		return RoleFrontend, key, true
	}
	return RoleUnauth, key, true
}

func frontendAllowed(ctx *fasthttp.RequestCtx) bool {
	path := utils.GetPath(ctx)
	for _, p := range []string{"/v1/messages/", "/v1/profiles/", "/v1/grants/"} {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return strings.HasPrefix(path, "/v1/scopes/") && strings.HasSuffix(path, "/messages")
}

func publicAllowedPath(ctx *fasthttp.RequestCtx) bool {
	if string(ctx.Method()) != fasthttp.MethodGet {
		return false
	}
	switch path := utils.GetPath(ctx); {
	case path == "/healthz", path == "/readyz", path == "/openapi.yaml", path == "/docs":
		return true
	default:
		return strings.HasPrefix(path, "/docs/")
	}
}
