package router

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	"ghostline/pkg/models"
)

func serve(r *Router, method, path string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	r.Handler(ctx)
	return ctx
}

func TestRouterParams(t *testing.T) {
	r := New()
	var got map[string]string
	r.GET("/v1/scopes/{scope}/messages", func(ctx *fasthttp.RequestCtx) {
		got = map[string]string{"scope": PathParam(ctx, "scope")}
	})
	r.GET("/", func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(fasthttp.StatusTeapot) })

	ctx := serve(r, "GET", "/v1/scopes/team/messages")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "team", got["scope"])

	assert.Equal(t, fasthttp.StatusTeapot, serve(r, "GET", "/").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusNotFound, serve(r, "GET", "/v1/scopes//messages").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusNotFound, serve(r, "GET", "/v1/scopes/team").Response.StatusCode())
}

func TestRouterMethodNotAllowed(t *testing.T) {
	r := New()
	noop := func(*fasthttp.RequestCtx) {}
	r.GET("/v1/messages/{id}", noop)
	r.DELETE("/v1/messages/{id}", noop)

	ctx := serve(r, "PUT", "/v1/messages/m1")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())
	assert.Equal(t, "DELETE, GET", string(ctx.Response.Header.Peek("Allow")))
}

func TestRouterStaticBeatsParam(t *testing.T) {
	r := New()
	var hit string
	r.GET("/docs/{file}", func(ctx *fasthttp.RequestCtx) { hit = "param:" + PathParam(ctx, "file") })
	r.GET("/docs/index", func(*fasthttp.RequestCtx) { hit = "static" })

	serve(r, "GET", "/docs/index")
	assert.Equal(t, "static", hit)
	serve(r, "GET", "/docs/swagger.css")
	assert.Equal(t, "param:swagger.css", hit)

	assert.Panics(t, func() { r.GET("/docs/{name}", func(*fasthttp.RequestCtx) {}) })
}

func TestRouterCustomNotFound(t *testing.T) {
	r := New()
	r.NotFound(func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(fasthttp.StatusGone) })
	assert.Equal(t, fasthttp.StatusGone, serve(r, "GET", "/missing").Response.StatusCode())
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		nil: fasthttp.StatusOK,
		errors.Wrap(models.ErrNotFound, "message m1"):                    fasthttp.StatusNotFound,
		errors.Wrap(models.ErrForbidden, "not the sender"):               fasthttp.StatusForbidden,
		errors.Wrap(models.ErrInvalidArgument, "bad"):                    fasthttp.StatusBadRequest,
		errors.Mark(errors.New("labels"), models.ErrMalformedProvenance): fasthttp.StatusBadRequest,
		errors.New("disk on fire"):                                       fasthttp.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), "%v", err)
	}
}

func TestWriteErrorHidesInternals(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	WriteError(ctx, errors.New("pebble: corrupted sstable"))
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.NotContains(t, string(ctx.Response.Body()), "pebble")
}
