package admin

import (
	"github.com/dustin/go-humanize"
	"github.com/valyala/fasthttp"

	"ghostline/pkg/api/router"
)

type Handlers struct {
	Store   StoreStats
	Jobs    Jobs
	Sweeper Sweeper
	// Disk is optional.
	Disk    DiskSensor
	Version string
}

func (h *Handlers) Health(ctx *fasthttp.RequestCtx) {
	status := "ok"
	diskAlert := false
	if h.Disk != nil {
		diskAlert = h.Disk.Snapshot().DiskAlert
	}
	switch {
	case !h.Store.Ready():
		status = "degraded"
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	case diskAlert:
		status = "disk_pressure"
	}
	router.WriteJSONOk(ctx, map[string]interface{}{"status": status, "service": "ghostline", "version": h.Version})
}

func (h *Handlers) Stats(ctx *fasthttp.RequestCtx) {
	usage := h.Store.DiskUsage()
	res := StatsResult{
		Ready:         h.Store.Ready(),
		DiskUsage:     usage,
		DiskUsageText: humanize.IBytes(usage),
		Retention:     h.Jobs.Status(),
		Version:       h.Version,
	}
	if h.Disk != nil {
		snap := h.Disk.Snapshot()
		res.Disk = &snap
	}
	_ = router.WriteJSON(ctx, res)
}

// GetMessage returns the stored record, hiddenFor and viewerExpiry
// included, for debugging retention.
func (h *Handlers) GetMessage(ctx *fasthttp.RequestCtx) {
	id, ok := router.ExtractParamOrFail(ctx, "id", "missing message id")
	if !ok {
		return
	}
	m, err := h.Store.GetMessage(ctx, id)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, m)
}
