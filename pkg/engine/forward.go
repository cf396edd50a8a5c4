package engine

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"ghostline/pkg/logger"
	"ghostline/pkg/models"
	"ghostline/pkg/provenance"
	"ghostline/pkg/retention"
	"ghostline/pkg/visibility"
)

// Forward copies a message the actor can currently see into destScope.
// Like a render, it arms the actor's countdown on the source. The copy is an independent record: it gets a new id, the source chain
// plus one hop, and the destination scope's retention settings. Ghost,
// whisper and obscurity flags are not inherited.
func (e *Engine) Forward(ctx context.Context, messageID, destScope, actor string) (*models.Message, error) {
	if actor == "" {
		return nil, errors.Wrap(models.ErrInvalidArgument, "actor is required")
	}
	src, err := e.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	gs, err := e.grantsFor(ctx, messageRef(src.ID), src.Obscurity)
	if err != nil {
		return nil, err
	}
	now := e.now()
	switch d := visibility.EvaluateMessage(src, actor, gs, now); d.State {
	case models.StateTombstoned, models.StateLocallyDeleted:
		return nil, errors.Wrapf(models.ErrNotFound, "message %s", messageID)
	case models.StateHidden, models.StateBlurred:
		return nil, errors.Wrapf(models.ErrForbidden, "message %s is %s for %s", messageID, d.State, actor)
	}

	dest, err := e.store.GetScope(ctx, destScope)
	if err != nil {
		return nil, err
	}
	if !dest.IsMember(actor) {
		return nil, errors.Wrapf(models.ErrForbidden, "%s is not a member of %s", actor, dest.Ref)
	}
	// reading the content to forward it counts as a view of the source
	if retention.NeedsArm(src, actor) {
		if src, err = e.arm(ctx, src.ID, actor, now); err != nil {
			return nil, err
		}
	}
	origin, err := e.store.GetScope(ctx, src.ScopeRef)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	fc := provenance.ForwardContext{
		OriginLabel:       origin.DisplayLabel(),
		CurrentScopeLabel: dest.DisplayLabel(),
		SenderLabel:       e.displayName(ctx, actor),
		SourceSenderLabel: e.displayName(ctx, src.SenderID),
		Now:               now,
	}
	cp := &models.Message{
		ID:              uuid.NewString(),
		ScopeRef:        dest.Ref,
		SenderID:        actor,
		Content:         src.Content,
		SentAt:          now,
		ForwardingChain: provenance.ExtendChain(src, fc),
		ForwardedFrom:   src.ID,
		RetentionPolicy: dest.RetentionPolicy,
		Disappearing:    dest.Disappearing && dest.RetentionPolicy.Enabled(),
	}
	if err := e.store.CreateMessage(ctx, cp); err != nil {
		return nil, err
	}
	messagesSent.WithLabelValues("forward").Inc()
	logger.Info("message_forwarded", "message_id", cp.ID, "source_id", src.ID, "scope", dest.Ref, "hops", len(cp.ForwardingChain))
	return cp, nil
}
