package admin

import (
	"github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"

	"ghostline/pkg/api/router"
	"ghostline/pkg/api/utils"
	"ghostline/pkg/logger"
	"ghostline/pkg/retention"
)

// RunSweep runs one retention sweep now. ?dry_run=true reports without
// writing.
func (h *Handlers) RunSweep(ctx *fasthttp.RequestCtx) {
	dryRun := utils.GetQueryBool(ctx, "dry_run")
	logger.Info("admin_sweep_requested", "dry_run", dryRun, "remote", ctx.RemoteAddr().String())

	res, err := h.Jobs.RunImmediate(ctx, dryRun)
	if errors.Is(err, retention.ErrSweepInProgress) {
		router.WriteJSONError(ctx, fasthttp.StatusConflict, err.Error())
		return
	}
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, res)
}

// SweepMessage settles one message immediately.
func (h *Handlers) SweepMessage(ctx *fasthttp.RequestCtx) {
	id, ok := router.ExtractParamOrFail(ctx, "id", "missing message id")
	if !ok {
		return
	}
	it, err := h.Sweeper.SweepMessage(ctx, id)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, it)
}

func (h *Handlers) Status(ctx *fasthttp.RequestCtx) {
	_ = router.WriteJSON(ctx, h.Jobs.Status())
}
