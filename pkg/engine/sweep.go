package engine

import (
	"context"
	"time"

	"ghostline/pkg/logger"
	"ghostline/pkg/retention"
)

// RunRetentionSweep applies every due expiration and tombstone as of now.
// A zero now means the engine clock.
func (e *Engine) RunRetentionSweep(ctx context.Context, now time.Time) (retention.Result, error) {
	if now.IsZero() {
		now = e.now()
	}
	res, err := e.sweeper.Sweep(ctx, now)
	auditSweep(res)
	return res, err
}

// PreviewRetentionSweep reports what a sweep as of now would change
// without writing anything.
func (e *Engine) PreviewRetentionSweep(ctx context.Context, now time.Time) (retention.Result, error) {
	if now.IsZero() {
		now = e.now()
	}
	return e.sweeper.Preview(ctx, now)
}

// SweepMessage settles one message right away, as used after a stale read.
func (e *Engine) SweepMessage(ctx context.Context, messageID string) (retention.Item, error) {
	it, err := e.sweeper.SweepMessage(ctx, messageID, e.now())
	if err != nil {
		return it, err
	}
	if !e.sweeper.Config().DryRun {
		auditItem("", it)
	}
	return it, nil
}

func auditSweep(res retention.Result) {
	if res.DryRun {
		return
	}
	for _, it := range res.Items {
		auditItem(res.RunID, it)
	}
}

func auditItem(runID string, it retention.Item) {
	if it.Error != "" {
		return
	}
	for _, viewer := range it.Expired {
		logger.AuditEvent("message_expired_for_viewer", "run_id", runID, "message_id", it.MessageID, "viewer", viewer)
	}
	if it.Tombstoned {
		logger.AuditEvent("message_tombstoned", "run_id", runID, "message_id", it.MessageID, "reason", it.Reason)
	}
}
