package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"ghostline/pkg/logger"
	"ghostline/pkg/models"
	"ghostline/pkg/store/keys"
)

// CreateMessage stores a new message with its scope and retention indexes.
func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := keys.ValidateID("message", m.ID); err != nil {
		return errors.Mark(err, models.ErrInvalidArgument)
	}
	if err := keys.ValidateID("scope", m.ScopeRef); err != nil {
		return errors.Mark(err, models.ErrInvalidArgument)
	}
	key := keys.GenMessageKey(m.ID)
	unlock := s.locks.lock(key)
	defer unlock()

	found, err := s.exists(key)
	if err != nil {
		return err
	}
	if found {
		return errors.Wrapf(models.ErrInvalidArgument, "message %s already exists", m.ID)
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := setRecord(b, key, m); err != nil {
		return err
	}
	if err := b.Set([]byte(keys.GenScopeMessageIndex(m.ScopeRef, m.SentAt.UnixNano(), m.ID)), nil, nil); err != nil {
		return err
	}
	if err := s.indexRetention(b, m); err != nil {
		return err
	}
	if err := s.commit(b); err != nil {
		return err
	}
	logger.Debug("message_saved", "message_id", m.ID, "scope", m.ScopeRef)
	return nil
}

// GetMessage loads a message by id.
func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var m models.Message
	if err := s.getRecord(keys.GenMessageKey(id), &m); err != nil {
		return nil, errors.Wrapf(err, "message %s", id)
	}
	return &m, nil
}

// UpdateMessage runs fn on the freshly loaded record while holding the
// record lock. The record is written back only when fn reports a change,
// and the retention index follows the new state.
func (s *Store) UpdateMessage(ctx context.Context, id string, fn func(*models.Message) (bool, error)) (*models.Message, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	key := keys.GenMessageKey(id)
	unlock := s.locks.lock(key)
	defer unlock()

	var m models.Message
	if err := s.getRecord(key, &m); err != nil {
		return nil, errors.Wrapf(err, "message %s", id)
	}
	changed, err := fn(&m)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &m, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := setRecord(b, key, &m); err != nil {
		return nil, err
	}
	if err := s.indexRetention(b, &m); err != nil {
		return nil, err
	}
	if err := s.commit(b); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) indexRetention(b *pebble.Batch, m *models.Message) error {
	idx := []byte(keys.GenRetentionIndex(m.ID))
	if m.RetentionTracked() {
		return b.Set(idx, nil, nil)
	}
	return b.Delete(idx, nil)
}

// RetentionCandidates lists ids of messages the sweeper still tracks, in
// id order, starting after the given id.
func (s *Store) RetentionCandidates(ctx context.Context, after string, limit int) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	ks, err := s.scanKeys(keys.RetentionPrefix, after, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(ks))
	for _, k := range ks {
		id, err := keys.ParseRetentionIndex(k)
		if err != nil {
			logger.Warn("retention_index_malformed", "key", k, "error", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListScopeMessages returns up to limit messages of a scope in send order
// and the cursor to continue from, empty when exhausted.
func (s *Store) ListScopeMessages(ctx context.Context, scopeRef string, page models.PaginationRequest) ([]*models.Message, models.PaginationResponse, error) {
	limit := page.EffectiveLimit()
	resp := models.PaginationResponse{Limit: limit}
	if err := s.check(ctx); err != nil {
		return nil, resp, err
	}
	prefix := keys.GenScopeMessagePrefix(scopeRef)
	ks, err := s.scanKeys(prefix, page.Cursor, limit+1)
	if err != nil {
		return nil, resp, err
	}
	if len(ks) > limit {
		ks = ks[:limit]
		resp.HasMore = true
	}
	out := make([]*models.Message, 0, len(ks))
	for _, k := range ks {
		id, err := keys.LastSegment(k)
		if err != nil {
			logger.Warn("scope_index_malformed", "key", k, "error", err)
			continue
		}
		m, err := s.GetMessage(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			logger.Warn("scope_index_dangling", "key", k)
			continue
		}
		if err != nil {
			return nil, resp, err
		}
		out = append(out, m)
	}
	if resp.HasMore {
		resp.NextCursor = ks[len(ks)-1][len(prefix):]
	}
	resp.Count = len(out)
	return out, resp, nil
}
