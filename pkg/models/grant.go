package models

import (
	"fmt"
	"time"
)

// SubjectKind names what a grant or access request is about.
type SubjectKind string

const (
	SubjectMessage SubjectKind = "message"
	SubjectProfile SubjectKind = "profile"
)

// ParseSubjectKind accepts singular and plural route forms.
func ParseSubjectKind(s string) (SubjectKind, error) {
	switch s {
	case "message", "messages":
		return SubjectMessage, nil
	case "profile", "profiles":
		return SubjectProfile, nil
	default:
		return "", fmt.Errorf("unknown subject kind %q", s)
	}
}

type SubjectRef struct {
	Kind SubjectKind `json:"subject_kind"`
	ID   string      `json:"subject_id"`
}

func (s SubjectRef) String() string { return string(s.Kind) + "/" + s.ID }

// Grant is a time-boxed permission to see a blurred or hidden subject.
// Revoked and lapsed grants are kept for audit and are never valid again.
type Grant struct {
	ID        string     `json:"id"`
	Subject   SubjectRef `json:"subject"`
	GranteeID string     `json:"grantee,omitempty"`
	Global    bool       `json:"global,omitempty"`
	IssuedBy  string     `json:"issued_by"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// AccessRequest is an advisory ask for a grant. It confers nothing.
type AccessRequest struct {
	Subject     SubjectRef `json:"subject"`
	ViewerID    string     `json:"viewer"`
	RequestedAt time.Time  `json:"requested_at"`
}
