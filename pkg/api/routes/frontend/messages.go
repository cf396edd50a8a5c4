package frontend

import (
	"github.com/valyala/fasthttp"

	"ghostline/pkg/api/auth"
	"ghostline/pkg/api/router"
	"ghostline/pkg/api/utils"
	"ghostline/pkg/engine"
	"ghostline/pkg/logger"
)

// Handlers serves the user facing routes. Every handler acts for the
// signed (or backend named) user.
type Handlers struct {
	Engine *engine.Engine
}

func (h *Handlers) SendMessage(ctx *fasthttp.RequestCtx) {
	actor, ok := auth.ActorOrFail(ctx)
	if !ok {
		return
	}
	scope, ok := router.ExtractParamOrFail(ctx, "scope", "missing scope")
	if !ok {
		return
	}
	var body SendBody
	if err := router.DecodeJSON(ctx, &body); err != nil {
		router.WriteError(ctx, err)
		return
	}

	msg, err := h.Engine.Send(ctx, engine.SendRequest{
		ScopeRef:  scope,
		SenderID:  actor,
		Content:   body.Content,
		GhostMode: body.GhostMode,
		WhisperTo: body.WhisperTo,
		Obscurity: body.Obscurity,
	})
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	rendered, err := h.Engine.RenderMessage(ctx, msg.ID, actor)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSONStatus(ctx, fasthttp.StatusCreated, rendered)
}

func (h *Handlers) ListScopeMessages(ctx *fasthttp.RequestCtx) {
	actor, ok := auth.ActorOrFail(ctx)
	if !ok {
		return
	}
	scope, ok := router.ExtractParamOrFail(ctx, "scope", "missing scope")
	if !ok {
		return
	}
	page, err := utils.ParsePagination(ctx)
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	msgs, resp, err := h.Engine.ListScope(ctx, scope, actor, page)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, MessagesResult{Messages: msgs, Pagination: resp})
}

func (h *Handlers) GetMessage(ctx *fasthttp.RequestCtx) {
	actor, ok := auth.ActorOrFail(ctx)
	if !ok {
		return
	}
	id, ok := router.ExtractParamOrFail(ctx, "id", "missing message id")
	if !ok {
		return
	}
	rendered, err := h.Engine.RenderMessage(ctx, id, actor)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, rendered)
}

func (h *Handlers) ForwardMessage(ctx *fasthttp.RequestCtx) {
	actor, ok := auth.ActorOrFail(ctx)
	if !ok {
		return
	}
	id, ok := router.ExtractParamOrFail(ctx, "id", "missing message id")
	if !ok {
		return
	}
	var body ForwardBody
	if err := router.DecodeJSON(ctx, &body); err != nil {
		router.WriteError(ctx, err)
		return
	}
	if body.Scope == "" {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "destination scope required")
		return
	}

	msg, err := h.Engine.Forward(ctx, id, body.Scope, actor)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	rendered, err := h.Engine.RenderMessage(ctx, msg.ID, actor)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSONStatus(ctx, fasthttp.StatusCreated, rendered)
}

// DeleteMessage handles ?for=me (default) and ?for=everyone.
func (h *Handlers) DeleteMessage(ctx *fasthttp.RequestCtx) {
	actor, ok := auth.ActorOrFail(ctx)
	if !ok {
		return
	}
	id, ok := router.ExtractParamOrFail(ctx, "id", "missing message id")
	if !ok {
		return
	}

	var (
		changed bool
		err     error
		target  = utils.GetQueryLower(ctx, "for")
	)
	switch target {
	case "", "me":
		target = "me"
		changed, err = h.Engine.RequestDeleteForMe(ctx, id, actor)
	case "everyone":
		changed, err = h.Engine.RequestDeleteForEveryone(ctx, id, actor)
	default:
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "for must be 'me' or 'everyone'")
		return
	}
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	logger.Debug("delete_handled", "message_id", id, "for", target, "changed", changed)
	router.WriteJSONOk(ctx, map[string]interface{}{"id": id, "deleted_for": target, "changed": changed})
}

func (h *Handlers) SetMessageObscurity(ctx *fasthttp.RequestCtx) {
	actor, ok := auth.ActorOrFail(ctx)
	if !ok {
		return
	}
	id, ok := router.ExtractParamOrFail(ctx, "id", "missing message id")
	if !ok {
		return
	}
	var body ObscurityBody
	if err := router.DecodeJSON(ctx, &body); err != nil {
		router.WriteError(ctx, err)
		return
	}
	if _, err := h.Engine.SetMessageObscurity(ctx, id, actor, body.toModel()); err != nil {
		router.WriteError(ctx, err)
		return
	}
	rendered, err := h.Engine.RenderMessage(ctx, id, actor)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, rendered)
}
