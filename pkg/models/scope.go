package models

import "time"

// Scope is a conversation, group or channel. Its retention policy applies
// to messages sent after the policy was set.
type Scope struct {
	Ref             string          `json:"ref"`
	Label           string          `json:"label,omitempty"`
	OwnerID         string          `json:"owner,omitempty"`
	Moderators      []string        `json:"moderators,omitempty"`
	Members         []string        `json:"members,omitempty"`
	RetentionPolicy RetentionPolicy `json:"retention_policy"`
	Disappearing    bool            `json:"disappearing,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsModerator reports scope owner or moderator authority.
func (s *Scope) IsModerator(actor string) bool {
	if s == nil || actor == "" {
		return false
	}
	if s.OwnerID == actor {
		return true
	}
	for _, m := range s.Moderators {
		if m == actor {
			return true
		}
	}
	return false
}

// IsMember reports whether actor may post into the scope. A scope without
// a member list is open.
func (s *Scope) IsMember(actor string) bool {
	if s == nil {
		return false
	}
	if len(s.Members) == 0 || s.IsModerator(actor) {
		return true
	}
	for _, m := range s.Members {
		if m == actor {
			return true
		}
	}
	return false
}

// Participants returns every known member including the owner.
func (s *Scope) Participants() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(s.Members)+1)
	out := make([]string, 0, len(s.Members)+1)
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(s.OwnerID)
	for _, m := range s.Members {
		add(m)
	}
	return out
}

// DisplayLabel falls back to the ref when no display label was set.
func (s *Scope) DisplayLabel() string {
	if s == nil {
		return ""
	}
	if s.Label != "" {
		return s.Label
	}
	return s.Ref
}
