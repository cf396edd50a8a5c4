package api

import (
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"ghostline/pkg/api/auth"
	"ghostline/pkg/api/docs"
	"ghostline/pkg/api/router"
	adminRoutes "ghostline/pkg/api/routes/admin"
	backendRoutes "ghostline/pkg/api/routes/backend"
	frontendRoutes "ghostline/pkg/api/routes/frontend"
	"ghostline/pkg/engine"
	"ghostline/pkg/logger"
	"ghostline/pkg/models"
	"ghostline/pkg/timeutil"
)

var (
	gcPauseTotal = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_gc_pause_total_ns",
			Help: "Total GC pause time in nanoseconds.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.PauseTotalNs)
		},
	)

	heapAlloc = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_heap_alloc_bytes",
			Help: "Current heap allocation in bytes.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.HeapAlloc)
		},
	)

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghostline",
			Subsystem: "http",
			Name:      "responses_total",
			Help:      "HTTP responses by status class.",
		},
		[]string{"class"},
	)
)

func init() {
	prometheus.MustRegister(gcPauseTotal)
	prometheus.MustRegister(heapAlloc)
	prometheus.MustRegister(requestsTotal)
}

// wrapHTTPHandler wraps an http.Handler to work with fasthttp.
func wrapHTTPHandler(h http.Handler) fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(h)
}

// Deps are the collaborators the HTTP surface is built on.
type Deps struct {
	Engine   *engine.Engine
	Store    adminRoutes.StoreStats
	Jobs     adminRoutes.Jobs
	Disk     adminRoutes.DiskSensor
	Security auth.SecConfig
	Version  string
	// Clock drives rate limiting; nil means the process clock.
	Clock timeutil.Clock
}

// API is the routed, authenticated fasthttp handler.
type API struct {
	handler fasthttp.RequestHandler
}

func New(d Deps) *API {
	if d.Clock == nil {
		d.Clock = timeutil.Default()
	}
	r := router.New()
	RegisterRoutes(r, d)
	gw := auth.NewGateway(d.Security, d.Clock)
	return &API{handler: logger.AccessLog(countResponses(gw.Wrap(r.Handler)))}
}

// Handler returns the fasthttp handler for the ghostline API.
func (a *API) Handler() fasthttp.RequestHandler { return a.handler }

func countResponses(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		next(ctx)
		class := "5xx"
		switch code := ctx.Response.StatusCode(); {
		case code < 300:
			class = "2xx"
		case code < 400:
			class = "3xx"
		case code < 500:
			class = "4xx"
		}
		requestsTotal.WithLabelValues(class).Inc()
	}
}

// RegisterRoutes wires all API routes onto the provided router.
func RegisterRoutes(r *router.Router, d Deps) {
	fe := &frontendRoutes.Handlers{Engine: d.Engine}
	be := &backendRoutes.Handlers{Engine: d.Engine}
	ad := &adminRoutes.Handlers{Store: d.Store, Jobs: d.Jobs, Sweeper: d.Engine, Disk: d.Disk, Version: d.Version}

	// health checks
	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		router.WriteJSONOk(ctx, map[string]interface{}{"status": "ok"})
	})
	r.GET("/readyz", func(ctx *fasthttp.RequestCtx) {
		if !d.Store.Ready() {
			router.WriteJSONError(ctx, fasthttp.StatusServiceUnavailable, "not ready")
			return
		}
		router.WriteJSONOk(ctx, map[string]interface{}{"status": "ready", "version": d.Version})
	})

	// api docs
	r.GET(docs.SpecPath, wrapHTTPHandler(docs.SpecHandler()))
	r.GET("/docs", func(ctx *fasthttp.RequestCtx) {
		ctx.Redirect("/docs/index.html", fasthttp.StatusMovedPermanently)
	})
	r.GET("/docs/{file}", wrapHTTPHandler(docs.UIHandler()))

	// client auth endpoints
	r.POST("/v1/_sign", be.Sign)

	// backend provisioning
	r.PUT("/v1/scopes/{scope}", be.UpsertScope)
	r.PUT("/v1/profiles/{id}", be.UpsertProfile)

	// scope messages
	r.POST("/v1/scopes/{scope}/messages", fe.SendMessage)
	r.GET("/v1/scopes/{scope}/messages", fe.ListScopeMessages)

	// single messages
	r.GET("/v1/messages/{id}", fe.GetMessage)
	r.DELETE("/v1/messages/{id}", fe.DeleteMessage)
	r.POST("/v1/messages/{id}/forward", fe.ForwardMessage)
	r.PUT("/v1/messages/{id}/obscurity", fe.SetMessageObscurity)

	// profiles
	r.GET("/v1/profiles/{id}", fe.GetProfile)
	r.PUT("/v1/profiles/{id}/obscurity", fe.SetProfileObscurity)

	// access requests and grants
	for prefix, kind := range map[string]models.SubjectKind{
		"/v1/messages/{id}": models.SubjectMessage,
		"/v1/profiles/{id}": models.SubjectProfile,
	} {
		r.POST(prefix+"/access-requests", fe.RequestAccess(kind))
		r.GET(prefix+"/access-requests", fe.ListAccessRequests(kind))
		r.POST(prefix+"/grants", fe.IssueGrant(kind))
		r.GET(prefix+"/grants", fe.ListGrants(kind))
	}
	r.DELETE("/v1/grants/{grantID}", fe.RevokeGrant)

	// admin routes
	r.GET("/admin/health", ad.Health)
	r.GET("/admin/stats", ad.Stats)
	r.GET("/admin/messages/{id}", ad.GetMessage)
	r.POST("/admin/messages/{id}/sweep", ad.SweepMessage)
	r.GET("/admin/jobs/sweep", ad.Status)
	r.POST("/admin/jobs/sweep", ad.RunSweep)

	// admin debug routes
	r.GET("/admin/debug/prometheus", wrapHTTPHandler(promhttp.Handler()))
	r.GET("/admin/debug/pprof/", wrapHTTPHandler(http.HandlerFunc(pprof.Index)))
	r.GET("/admin/debug/pprof/cmdline", wrapHTTPHandler(http.HandlerFunc(pprof.Cmdline)))
	r.GET("/admin/debug/pprof/profile", wrapHTTPHandler(http.HandlerFunc(pprof.Profile)))
	r.GET("/admin/debug/pprof/symbol", wrapHTTPHandler(http.HandlerFunc(pprof.Symbol)))
	r.GET("/admin/debug/pprof/trace", wrapHTTPHandler(http.HandlerFunc(pprof.Trace)))
}
