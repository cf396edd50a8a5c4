package engine

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"ghostline/pkg/logger"
	"ghostline/pkg/models"
	"ghostline/pkg/retention"
	"ghostline/pkg/visibility"
)

func messageRef(id string) models.SubjectRef {
	return models.SubjectRef{Kind: models.SubjectMessage, ID: id}
}

func profileRef(id string) models.SubjectRef {
	return models.SubjectRef{Kind: models.SubjectProfile, ID: id}
}

// grantsFor loads grants only when the subject is obscured; plain
// subjects never consult them.
func (e *Engine) grantsFor(ctx context.Context, ref models.SubjectRef, o models.Obscurity) ([]models.Grant, error) {
	if !o.Hidden && !o.Blurred {
		return nil, nil
	}
	return e.store.ListGrants(ctx, ref)
}

// RenderMessage evaluates a message for viewer and returns the decision
// with a redacted view. A first Visible render arms the viewer's
// countdown.
func (e *Engine) RenderMessage(ctx context.Context, messageID, viewer string) (RenderedMessage, error) {
	msg, err := e.store.GetMessage(ctx, messageID)
	if err != nil {
		return RenderedMessage{}, err
	}
	return e.renderMessage(ctx, msg, viewer)
}

func (e *Engine) renderMessage(ctx context.Context, msg *models.Message, viewer string) (RenderedMessage, error) {
	gs, err := e.grantsFor(ctx, messageRef(msg.ID), msg.Obscurity)
	if err != nil {
		return RenderedMessage{}, err
	}
	now := e.now()
	d := visibility.EvaluateMessage(msg, viewer, gs, now)
	if d.State == models.StateVisible && retention.NeedsArm(msg, viewer) {
		armed, err := e.arm(ctx, msg.ID, viewer, now)
		switch {
		case errors.Is(err, models.ErrNotFound):
			return RenderedMessage{}, err
		case err != nil:
			return RenderedMessage{}, errors.Wrapf(err, "arm countdown for %s", msg.ID)
		}
		msg = armed
		d = visibility.EvaluateMessage(msg, viewer, gs, now)
	}
	if d.NeedsSweep {
		e.notifyStale(msg.ID)
	}
	decisionsTotal.WithLabelValues(string(models.SubjectMessage), string(d.State)).Inc()
	return RenderedMessage{Decision: d, Message: redactMessage(msg, d)}, nil
}

func (e *Engine) arm(ctx context.Context, id, viewer string, now time.Time) (*models.Message, error) {
	var armed bool
	msg, err := e.store.UpdateMessage(ctx, id, func(m *models.Message) (bool, error) {
		armed = retention.ArmOnFirstView(m, viewer, now, e.cfg.GhostCountdown)
		return armed, nil
	})
	if err != nil {
		return nil, err
	}
	if armed {
		countdownsArmed.Inc()
		exp, _ := msg.ExpiryFor(viewer)
		logger.Debug("countdown_armed", "message_id", id, "viewer", viewer, "expires_at", exp)
	}
	return msg, nil
}

// RenderProfile evaluates a profile's obscurity for viewer.
func (e *Engine) RenderProfile(ctx context.Context, profileID, viewer string) (RenderedProfile, error) {
	p, err := e.store.GetProfile(ctx, profileID)
	if err != nil {
		return RenderedProfile{}, err
	}
	gs, err := e.grantsFor(ctx, profileRef(p.ID), p.Obscurity)
	if err != nil {
		return RenderedProfile{}, err
	}
	d := visibility.EvaluateProfile(p, viewer, gs, e.now())
	decisionsTotal.WithLabelValues(string(models.SubjectProfile), string(d.State)).Inc()
	return RenderedProfile{Decision: d, Profile: redactProfile(p, d)}, nil
}

// ListScope renders one page of a scope for viewer. Messages the viewer
// deleted, was never meant to see, or that are tombstoned are left out;
// the page cursor still advances past them.
func (e *Engine) ListScope(ctx context.Context, scopeRef, viewer string, page models.PaginationRequest) ([]RenderedMessage, models.PaginationResponse, error) {
	scope, err := e.store.GetScope(ctx, scopeRef)
	if err != nil {
		return nil, models.PaginationResponse{}, err
	}
	if !scope.IsMember(viewer) {
		return nil, models.PaginationResponse{}, errors.Wrapf(models.ErrForbidden, "%s is not a member of %s", viewer, scope.Ref)
	}
	msgs, resp, err := e.store.ListScopeMessages(ctx, scope.Ref, page)
	if err != nil {
		return nil, resp, err
	}
	out := make([]RenderedMessage, 0, len(msgs))
	for _, m := range msgs {
		r, err := e.renderMessage(ctx, m, viewer)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, resp, err
		}
		switch r.Decision.State {
		case models.StateLocallyDeleted, models.StateTombstoned:
			continue
		}
		out = append(out, r)
	}
	resp.Count = len(out)
	return out, resp, nil
}
