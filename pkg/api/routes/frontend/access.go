package frontend

import (
	"time"

	"github.com/valyala/fasthttp"

	"ghostline/pkg/api/auth"
	"ghostline/pkg/api/router"
	"ghostline/pkg/engine"
	"ghostline/pkg/models"
)

func subjectOrFail(ctx *fasthttp.RequestCtx, kind models.SubjectKind) (models.SubjectRef, bool) {
	id, ok := router.ExtractParamOrFail(ctx, "id", "missing subject id")
	if !ok {
		return models.SubjectRef{}, false
	}
	return models.SubjectRef{Kind: kind, ID: id}, true
}

// RequestAccess records that the caller would like a grant for the subject.
func (h *Handlers) RequestAccess(kind models.SubjectKind) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := auth.ActorOrFail(ctx)
		if !ok {
			return
		}
		ref, ok := subjectOrFail(ctx, kind)
		if !ok {
			return
		}
		created, err := h.Engine.RequestAccess(ctx, ref, actor)
		if err != nil {
			router.WriteError(ctx, err)
			return
		}
		status := fasthttp.StatusOK
		if created {
			status = fasthttp.StatusAccepted
		}
		router.WriteJSONStatus(ctx, status, map[string]interface{}{"subject": ref, "requested": true, "created": created})
	}
}

func (h *Handlers) ListAccessRequests(kind models.SubjectKind) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := auth.ActorOrFail(ctx)
		if !ok {
			return
		}
		ref, ok := subjectOrFail(ctx, kind)
		if !ok {
			return
		}
		reqs, err := h.Engine.ListAccessRequests(ctx, ref, actor)
		if err != nil {
			router.WriteError(ctx, err)
			return
		}
		if reqs == nil {
			reqs = []models.AccessRequest{}
		}
		_ = router.WriteJSON(ctx, AccessRequestsResult{Requests: reqs})
	}
}

func (h *Handlers) ListGrants(kind models.SubjectKind) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := auth.ActorOrFail(ctx)
		if !ok {
			return
		}
		ref, ok := subjectOrFail(ctx, kind)
		if !ok {
			return
		}
		gs, err := h.Engine.ListGrants(ctx, ref, actor)
		if err != nil {
			router.WriteError(ctx, err)
			return
		}
		if gs == nil {
			gs = []models.Grant{}
		}
		_ = router.WriteJSON(ctx, GrantsResult{Grants: gs})
	}
}

func (h *Handlers) IssueGrant(kind models.SubjectKind) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := auth.ActorOrFail(ctx)
		if !ok {
			return
		}
		ref, ok := subjectOrFail(ctx, kind)
		if !ok {
			return
		}
		var body GrantBody
		if err := router.DecodeJSON(ctx, &body); err != nil {
			router.WriteError(ctx, err)
			return
		}
		d, err := time.ParseDuration(body.Duration)
		if err != nil {
			router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid duration")
			return
		}

		g, err := h.Engine.GrantAccess(ctx, engine.GrantRequest{
			Subject:   ref,
			Actor:     actor,
			GranteeID: body.Grantee,
			Global:    body.Global,
			Duration:  d,
		})
		if err != nil {
			router.WriteError(ctx, err)
			return
		}
		router.WriteJSONStatus(ctx, fasthttp.StatusCreated, g)
	}
}

func (h *Handlers) RevokeGrant(ctx *fasthttp.RequestCtx) {
	actor, ok := auth.ActorOrFail(ctx)
	if !ok {
		return
	}
	id, ok := router.ExtractParamOrFail(ctx, "grantID", "missing grant id")
	if !ok {
		return
	}
	g, err := h.Engine.RevokeAccess(ctx, id, actor)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, g)
}
