package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/valyala/fasthttp"

	"ghostline/pkg/api/router"
	"ghostline/pkg/api/utils"
	"ghostline/pkg/config"
	"ghostline/pkg/logger"
)

// caller role
type Role int

const (
	RoleUnauth Role = iota
	RoleFrontend
	RoleBackend
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleFrontend:
		return "frontend"
	case RoleBackend:
		return "backend"
	case RoleAdmin:
		return "admin"
	default:
		return "unauth"
	}
}

// ActorResolutionError represents the ways a request can fail to name its actor
type ActorResolutionError struct {
	Type    string
	Message string
	Code    int
}

func (e *ActorResolutionError) Error() string {
	return e.Message
}

var (
	ErrActorRequired      = &ActorResolutionError{"actor_required", "user id required", fasthttp.StatusBadRequest}
	ErrActorTooLong       = &ActorResolutionError{"actor_too_long", "user id too long", fasthttp.StatusBadRequest}
	ErrInvalidSignature   = &ActorResolutionError{"invalid_signature", "missing or invalid user signature", fasthttp.StatusUnauthorized}
	ErrBackendMissingUser = &ActorResolutionError{"backend_missing_user", "X-User-ID required for backend requests", fasthttp.StatusBadRequest}
)

const maxActorLen = 128

// creates an HMAC signature for a user ID
func CreateHMACSignature(userID, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifies a user ID against its HMAC signature using available signing keys
func VerifyHMACSignature(userID, signature string) bool {
	for k := range config.GetSigningKeys() {
		expected := CreateHMACSignature(userID, k)
		if hmac.Equal([]byte(expected), []byte(signature)) {
			return true
		}
	}
	return false
}

// security config
type SecConfig struct {
	RPS          float64
	Burst        int
	BackendKeys  map[string]struct{}
	FrontendKeys map[string]struct{}
	AdminKeys    map[string]struct{}
}

// RequireSignedAuthor verifies X-User-ID against X-User-Signature and
// records the verified user for ResolveActor.
func RequireSignedAuthor(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		userID := utils.GetUserID(ctx)
		sig := utils.GetHeader(ctx, utils.HeaderUserSignature)

		if sig == "" || userID == "" {
			logger.Warn("missing_signature_headers", "path", string(ctx.Path()), "remote", ctx.RemoteAddr().String())
			router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "missing signature headers")
			return
		}

		if !VerifyHMACSignature(userID, sig) {
			logger.Warn("invalid_signature", "user", userID, "remote", ctx.RemoteAddr().String(), "path", string(ctx.Path()))
			router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "invalid signature")
			return
		}

		logger.Debug("signature_verified", "user", userID, "path", string(ctx.Path()))
		ctx.SetUserValue("author", userID)
		next(ctx)
	}
}

func validateActor(a string) *ActorResolutionError {
	if a == "" {
		return ErrActorRequired
	}
	if len(a) > maxActorLen {
		return ErrActorTooLong
	}
	return nil
}

// ResolveActor returns the user a request acts for. A verified signature
// always wins; a backend key may name the user with a plain X-User-ID.
func ResolveActor(ctx *fasthttp.RequestCtx) (string, *ActorResolutionError) {
	if v := ctx.UserValue("author"); v != nil {
		if id, ok := v.(string); ok && id != "" {
			return id, nil
		}
	}

	role := utils.GetAPIRole(ctx)
	if role == RoleBackend.String() {
		h := utils.GetUserID(ctx)
		if h == "" {
			logger.Warn("backend_missing_user", "remote", ctx.RemoteAddr().String(), "path", string(ctx.Path()))
			return "", ErrBackendMissingUser
		}
		if err := validateActor(h); err != nil {
			logger.Warn("invalid_backend_user", "user", h, "remote", ctx.RemoteAddr().String(), "path", string(ctx.Path()))
			return "", err
		}
		return h, nil
	}

	logger.Warn("missing_user_signature", "role", role, "remote", ctx.RemoteAddr().String(), "path", string(ctx.Path()))
	return "", ErrInvalidSignature
}

// ActorOrFail resolves the actor or writes the failure and reports false.
func ActorOrFail(ctx *fasthttp.RequestCtx) (string, bool) {
	actor, err := ResolveActor(ctx)
	if err != nil {
		router.WriteJSONError(ctx, err.Code, err.Message)
		return "", false
	}
	return actor, true
}
