package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"ghostline/pkg/config"
	"ghostline/pkg/timeutil"
)

func requestCtx(opts ...func(*fasthttp.Request)) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod("GET")
	req.SetRequestURI("/v1/messages/m1")
	for _, o := range opts {
		o(&req)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func TestVerifyHMACSignature(t *testing.T) {
	config.SetRuntime(&config.RuntimeConfig{SigningKeys: map[string]struct{}{"k1": {}, "k2": {}}})
	t.Cleanup(func() { config.SetRuntime(nil) })

	assert.True(t, VerifyHMACSignature("bob", CreateHMACSignature("bob", "k2")))
	assert.False(t, VerifyHMACSignature("bob", CreateHMACSignature("bob", "other")))
	assert.False(t, VerifyHMACSignature("carol", CreateHMACSignature("bob", "k1")))
}

func TestValidateAPIKey(t *testing.T) {
	cfg := SecConfig{
		AdminKeys:    map[string]struct{}{"a": {}},
		BackendKeys:  map[string]struct{}{"b": {}},
		FrontendKeys: map[string]struct{}{"f": {}},
	}
	cases := []struct {
		header, value string
		want          Role
		has           bool
	}{
		{"Authorization", "Bearer a", RoleAdmin, true},
		{"Authorization", "bearer   b", RoleBackend, true},
		{"X-API-Key", "f", RoleFrontend, true},
		{"X-API-Key", "zzz", RoleUnauth, true},
		{"", "", RoleUnauth, false},
	}
	for _, tc := range cases {
		ctx := requestCtx(func(r *fasthttp.Request) {
			if tc.header != "" {
				r.Header.Set(tc.header, tc.value)
			}
		})
		role, _, has := validateAPIKey(ctx, cfg)
		assert.Equal(t, tc.want, role, tc.value)
		assert.Equal(t, tc.has, has, tc.value)
	}
}

func TestResolveActor(t *testing.T) {
	t.Run("signed", func(t *testing.T) {
		ctx := requestCtx()
		ctx.SetUserValue("author", "bob")
		actor, err := ResolveActor(ctx)
		require.Nil(t, err)
		assert.Equal(t, "bob", actor)
	})
	t.Run("backend header", func(t *testing.T) {
		ctx := requestCtx(func(r *fasthttp.Request) {
			r.Header.Set("X-Role-Name", "backend")
			r.Header.Set("X-User-ID", "alice")
		})
		actor, err := ResolveActor(ctx)
		require.Nil(t, err)
		assert.Equal(t, "alice", actor)
	})
	t.Run("backend missing user", func(t *testing.T) {
		ctx := requestCtx(func(r *fasthttp.Request) { r.Header.Set("X-Role-Name", "backend") })
		_, err := ResolveActor(ctx)
		assert.Equal(t, ErrBackendMissingUser, err)
	})
	t.Run("frontend unsigned", func(t *testing.T) {
		ctx := requestCtx(func(r *fasthttp.Request) {
			r.Header.Set("X-Role-Name", "frontend")
			r.Header.Set("X-User-ID", "alice")
		})
		_, err := ResolveActor(ctx)
		assert.Equal(t, ErrInvalidSignature, err)
	})
}

func TestGatewayRateLimitsPerKey(t *testing.T) {
	g := NewGateway(SecConfig{RPS: 0.001, Burst: 2, BackendKeys: map[string]struct{}{"b": {}}}, timeutil.Default())
	t.Cleanup(g.Close)
	h := g.Wrap(func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(fasthttp.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		ctx := requestCtx(func(r *fasthttp.Request) { r.Header.Set("X-API-Key", "b") })
		h(ctx)
		codes = append(codes, ctx.Response.StatusCode())
	}
	assert.Equal(t, []int{fasthttp.StatusOK, fasthttp.StatusOK, fasthttp.StatusTooManyRequests}, codes)
}

func TestLimiterSweepsIdleKeys(t *testing.T) {
	clock := timeutil.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	k := newKeyLimiters(clock, 10, 10)
	assert.True(t, k.allow("idle"))

	clock.Advance(keyIdleTTL / 2)
	assert.True(t, k.allow("busy"))
	assert.Equal(t, 2, k.len())

	clock.Advance(keyIdleTTL/2 + time.Second)
	assert.True(t, k.allow("busy"))
	assert.Equal(t, 1, k.len())
}

func TestLimiterRefillsOnClock(t *testing.T) {
	clock := timeutil.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	k := newKeyLimiters(clock, 1, 1)
	assert.True(t, k.allow("k"))
	assert.False(t, k.allow("k"))
	clock.Advance(time.Second)
	assert.True(t, k.allow("k"))
}
