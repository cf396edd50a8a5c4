package backend

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/valyala/fasthttp"

	"ghostline/pkg/api/auth"
	"ghostline/pkg/api/router"
	"ghostline/pkg/api/utils"
	"ghostline/pkg/engine"
	"ghostline/pkg/logger"
	"ghostline/pkg/models"
)

// Handlers serves routes only a backend key may call.
type Handlers struct {
	Engine *engine.Engine
}

func requireBackend(ctx *fasthttp.RequestCtx) bool {
	if !utils.IsBackendRole(ctx) {
		logger.Warn("backend_route_forbidden", "role", utils.GetAPIRole(ctx), "path", utils.GetPath(ctx), "remote", ctx.RemoteAddr().String())
		router.WriteJSONError(ctx, fasthttp.StatusForbidden, "forbidden")
		return false
	}
	return true
}

// ValidateUserID rejects ids a signature should never be issued for.
func ValidateUserID(id string) error {
	if id == "" {
		return fmt.Errorf("empty")
	}
	if len(id) > 128 {
		return fmt.Errorf("too long")
	}
	if strings.IndexFunc(id, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return fmt.Errorf("contains whitespace or control characters")
	}
	return nil
}

// Sign returns the HMAC signature a frontend must present for userId,
// keyed by the calling backend key.
func (h *Handlers) Sign(ctx *fasthttp.RequestCtx) {
	if !requireBackend(ctx) {
		return
	}
	key := utils.ExtractAPIKey(ctx)
	if key == "" {
		router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "missing api key")
		return
	}

	var payload struct {
		UserID string `json:"userId"`
	}
	if err := router.DecodeJSON(ctx, &payload); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := ValidateUserID(payload.UserID); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("invalid user ID: %s", err.Error()))
		return
	}

	logger.Debug("signing_user_id", "user", payload.UserID, "remote", ctx.RemoteAddr().String())
	sig := auth.CreateHMACSignature(payload.UserID, key)
	if err := router.WriteJSON(ctx, map[string]string{"userId": payload.UserID, "signature": sig}); err != nil {
		logger.Error("sign_response_encode_failed", "error", err, "remote", ctx.RemoteAddr().String())
	}
}

type scopeBody struct {
	Label           string   `json:"label,omitempty"`
	Owner           string   `json:"owner"`
	Moderators      []string `json:"moderators,omitempty"`
	Members         []string `json:"members,omitempty"`
	RetentionPolicy string   `json:"retention_policy,omitempty"`
	Disappearing    bool     `json:"disappearing,omitempty"`
}

// UpsertScope creates or replaces a scope's membership and policy. A new
// policy only applies to messages sent afterwards.
func (h *Handlers) UpsertScope(ctx *fasthttp.RequestCtx) {
	if !requireBackend(ctx) {
		return
	}
	ref, ok := router.ExtractParamOrFail(ctx, "scope", "missing scope")
	if !ok {
		return
	}
	var body scopeBody
	if err := router.DecodeJSON(ctx, &body); err != nil {
		router.WriteError(ctx, err)
		return
	}

	sc, err := h.Engine.UpsertScope(ctx, models.Scope{
		Ref:             ref,
		Label:           body.Label,
		OwnerID:         body.Owner,
		Moderators:      body.Moderators,
		Members:         body.Members,
		RetentionPolicy: models.RetentionPolicy(body.RetentionPolicy),
		Disappearing:    body.Disappearing,
	})
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, sc)
}

// UpsertProfile creates a profile or renames it. Obscurity is left to the
// profile's owner.
func (h *Handlers) UpsertProfile(ctx *fasthttp.RequestCtx) {
	if !requireBackend(ctx) {
		return
	}
	id, ok := router.ExtractParamOrFail(ctx, "id", "missing profile id")
	if !ok {
		return
	}
	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := router.DecodeJSON(ctx, &body); err != nil {
		router.WriteError(ctx, err)
		return
	}
	p, err := h.Engine.UpsertProfile(ctx, id, body.DisplayName)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, p)
}
