package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"ghostline/pkg/logger"
	"ghostline/pkg/models"
	"ghostline/pkg/store/keys"
)

// PutGrant stores a grant and indexes it under its subject.
func (s *Store) PutGrant(ctx context.Context, g *models.Grant) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	key := keys.GenGrantKey(g.ID)
	unlock := s.locks.lock(key)
	defer unlock()

	b := s.db.NewBatch()
	defer b.Close()
	if err := setRecord(b, key, g); err != nil {
		return err
	}
	if err := b.Set([]byte(keys.GenSubjectGrantIndex(g.Subject, g.ID)), nil, nil); err != nil {
		return err
	}
	return s.commit(b)
}

func (s *Store) GetGrant(ctx context.Context, id string) (*models.Grant, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var g models.Grant
	if err := s.getRecord(keys.GenGrantKey(id), &g); err != nil {
		return nil, errors.Wrapf(err, "grant %s", id)
	}
	return &g, nil
}

// UpdateGrant runs fn on the stored grant under its lock and writes the
// result back when fn reports a change.
func (s *Store) UpdateGrant(ctx context.Context, id string, fn func(*models.Grant) (bool, error)) (*models.Grant, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	key := keys.GenGrantKey(id)
	unlock := s.locks.lock(key)
	defer unlock()

	var g models.Grant
	if err := s.getRecord(key, &g); err != nil {
		return nil, errors.Wrapf(err, "grant %s", id)
	}
	changed, err := fn(&g)
	if err != nil || !changed {
		return &g, err
	}
	if err := s.putRecord(key, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGrants returns every grant ever issued for a subject, including
// revoked and lapsed ones.
func (s *Store) ListGrants(ctx context.Context, ref models.SubjectRef) ([]models.Grant, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	ks, err := s.scanKeys(keys.GenSubjectGrantPrefix(ref), "", 0)
	if err != nil {
		return nil, err
	}
	out := make([]models.Grant, 0, len(ks))
	for _, k := range ks {
		id, err := keys.LastSegment(k)
		if err != nil {
			logger.Warn("grant_index_malformed", "key", k, "error", err)
			continue
		}
		var g models.Grant
		if err := s.getRecord(keys.GenGrantKey(id), &g); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
