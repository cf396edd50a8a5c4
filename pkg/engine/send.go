package engine

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"ghostline/pkg/logger"
	"ghostline/pkg/models"
)

// SendRequest describes a new message posted into a scope.
type SendRequest struct {
	ScopeRef  string           `json:"scope"`
	SenderID  string           `json:"sender"`
	Content   string           `json:"content"`
	GhostMode bool             `json:"ghost_mode,omitempty"`
	WhisperTo string           `json:"whisper_to,omitempty"`
	Obscurity models.Obscurity `json:"obscurity"`
}

// Send stores a new message. The scope's retention policy and
// disappearing flag are copied onto the message, so later policy changes
// only affect later messages.
func (e *Engine) Send(ctx context.Context, req SendRequest) (*models.Message, error) {
	if req.SenderID == "" {
		return nil, errors.Wrap(models.ErrInvalidArgument, "sender is required")
	}
	if req.WhisperTo != "" && req.WhisperTo == req.SenderID {
		return nil, errors.Wrap(models.ErrInvalidArgument, "cannot whisper to yourself")
	}
	scope, err := e.store.GetScope(ctx, req.ScopeRef)
	if err != nil {
		return nil, err
	}
	if !scope.IsMember(req.SenderID) {
		return nil, errors.Wrapf(models.ErrForbidden, "%s is not a member of %s", req.SenderID, scope.Ref)
	}

	now := e.now()
	m := &models.Message{
		ID:              uuid.NewString(),
		ScopeRef:        scope.Ref,
		SenderID:        req.SenderID,
		Content:         req.Content,
		SentAt:          now,
		RetentionPolicy: scope.RetentionPolicy,
		Disappearing:    scope.Disappearing && scope.RetentionPolicy.Enabled(),
		GhostMode:       req.GhostMode,
		WhisperTo:       req.WhisperTo,
		Obscurity:       req.Obscurity,
	}
	if err := e.store.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	messagesSent.WithLabelValues("send").Inc()
	logger.Info("message_sent", "message_id", m.ID, "scope", m.ScopeRef, "policy", m.RetentionPolicy, "ghost", m.GhostMode)
	return m, nil
}

// UpsertScope creates or replaces a scope record.
func (e *Engine) UpsertScope(ctx context.Context, sc models.Scope) (*models.Scope, error) {
	if sc.Ref == "" {
		return nil, errors.Wrap(models.ErrInvalidArgument, "scope ref is required")
	}
	policy, err := models.ParseRetentionPolicy(string(sc.RetentionPolicy))
	if err != nil {
		return nil, errors.Mark(err, models.ErrInvalidArgument)
	}
	sc.RetentionPolicy = policy
	sc.UpdatedAt = e.now()
	if err := e.store.PutScope(ctx, &sc); err != nil {
		return nil, err
	}
	logger.Info("scope_updated", "scope", sc.Ref, "policy", sc.RetentionPolicy, "disappearing", sc.Disappearing)
	return &sc, nil
}

// UpsertProfile creates a profile or renames an existing one. Obscurity
// flags are left as they are.
func (e *Engine) UpsertProfile(ctx context.Context, id, displayName string) (*models.Profile, error) {
	now := e.now()
	p, err := e.store.UpdateProfile(ctx, id, func(p *models.Profile) (bool, error) {
		if p.DisplayName == displayName {
			return false, nil
		}
		p.DisplayName = displayName
		p.UpdatedAt = now
		return true, nil
	})
	if !errors.Is(err, models.ErrNotFound) {
		return p, err
	}
	p = &models.Profile{ID: id, DisplayName: displayName, UpdatedAt: now}
	if err := e.store.PutProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// displayName resolves a user's label for provenance hops. Unknown users
// fall back to their id.
func (e *Engine) displayName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	p, err := e.store.GetProfile(ctx, id)
	if err != nil || p.DisplayName == "" {
		return id
	}
	return p.DisplayName
}
