package engine

import (
	"context"

	"github.com/cockroachdb/errors"

	"ghostline/pkg/deletion"
	"ghostline/pkg/logger"
	"ghostline/pkg/models"
)

// RequestDeleteForMe hides a message from actor only. It reports whether
// anything changed; repeating the call is a successful no-op.
func (e *Engine) RequestDeleteForMe(ctx context.Context, messageID, actor string) (bool, error) {
	if actor == "" {
		return false, errors.Wrap(models.ErrInvalidArgument, "actor is required")
	}
	now := e.now()
	var changed bool
	_, err := e.store.UpdateMessage(ctx, messageID, func(m *models.Message) (bool, error) {
		changed = deletion.DeleteForMe(m, actor, now)
		return changed, nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		deletionsTotal.WithLabelValues("me").Inc()
		logger.AuditEvent("message_deleted_for_me", "message_id", messageID, "actor", actor)
	}
	return changed, nil
}

// RequestDeleteForEveryone tombstones a message. The sender and the
// scope's owner or moderators may do this; forwarded copies are separate
// records and are not affected.
func (e *Engine) RequestDeleteForEveryone(ctx context.Context, messageID, actor string) (bool, error) {
	msg, err := e.store.GetMessage(ctx, messageID)
	if err != nil {
		return false, err
	}
	scope, err := e.store.GetScope(ctx, msg.ScopeRef)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return false, err
	}
	now := e.now()
	var changed bool
	_, err = e.store.UpdateMessage(ctx, messageID, func(m *models.Message) (bool, error) {
		var derr error
		changed, derr = deletion.DeleteForEveryone(m, actor, scope, now)
		return changed, derr
	})
	if err != nil {
		return false, err
	}
	if changed {
		deletionsTotal.WithLabelValues("everyone").Inc()
		logger.AuditEvent("message_tombstoned", "message_id", messageID, "actor", actor, "reason", models.ReasonDeleted)
	}
	return changed, nil
}
