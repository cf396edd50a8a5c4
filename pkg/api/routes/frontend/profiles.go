package frontend

import (
	"github.com/valyala/fasthttp"

	"ghostline/pkg/api/auth"
	"ghostline/pkg/api/router"
)

func (h *Handlers) GetProfile(ctx *fasthttp.RequestCtx) {
	actor, ok := auth.ActorOrFail(ctx)
	if !ok {
		return
	}
	id, ok := router.ExtractParamOrFail(ctx, "id", "missing profile id")
	if !ok {
		return
	}
	rendered, err := h.Engine.RenderProfile(ctx, id, actor)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, rendered)
}

func (h *Handlers) SetProfileObscurity(ctx *fasthttp.RequestCtx) {
	actor, ok := auth.ActorOrFail(ctx)
	if !ok {
		return
	}
	id, ok := router.ExtractParamOrFail(ctx, "id", "missing profile id")
	if !ok {
		return
	}
	var body ObscurityBody
	if err := router.DecodeJSON(ctx, &body); err != nil {
		router.WriteError(ctx, err)
		return
	}
	p, err := h.Engine.SetProfileObscurity(ctx, id, actor, body.toModel())
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, p)
}
