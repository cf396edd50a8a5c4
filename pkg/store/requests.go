package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"ghostline/pkg/models"
	"ghostline/pkg/store/keys"
)

// AddAccessRequest records a pending request once per (subject, viewer).
// It reports false when the request already existed; the original
// timestamp is kept.
func (s *Store) AddAccessRequest(ctx context.Context, r *models.AccessRequest) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}
	if err := keys.ValidateID("viewer", r.ViewerID); err != nil {
		return false, errors.Mark(err, models.ErrInvalidArgument)
	}
	key := keys.GenAccessRequestKey(r.Subject, r.ViewerID)
	unlock := s.locks.lock(key)
	defer unlock()

	found, err := s.exists(key)
	if err != nil || found {
		return false, err
	}
	if err := s.putRecord(key, r); err != nil {
		return false, err
	}
	return true, nil
}

// ListAccessRequests returns pending requests for a subject in viewer order.
func (s *Store) ListAccessRequests(ctx context.Context, ref models.SubjectRef) ([]models.AccessRequest, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	ks, err := s.scanKeys(keys.GenAccessRequestPrefix(ref), "", 0)
	if err != nil {
		return nil, err
	}
	out := make([]models.AccessRequest, 0, len(ks))
	for _, k := range ks {
		var r models.AccessRequest
		if err := s.getRecord(k, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// DeleteAccessRequest drops a pending request; missing requests are fine.
func (s *Store) DeleteAccessRequest(ctx context.Context, ref models.SubjectRef, viewer string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	key := keys.GenAccessRequestKey(ref, viewer)
	unlock := s.locks.lock(key)
	defer unlock()
	if err := s.db.Delete([]byte(key), s.writeOpt()); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}
