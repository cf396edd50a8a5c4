package engine

import (
	"time"

	"ghostline/pkg/models"
)

// MessageView is the redacted projection of a message for one viewer.
// Fields the decision does not allow are left empty.
type MessageView struct {
	ID              string                 `json:"id"`
	ScopeRef        string                 `json:"scope,omitempty"`
	SenderID        string                 `json:"sender,omitempty"`
	Content         string                 `json:"content,omitempty"`
	SentAt          *time.Time             `json:"sent_at,omitempty"`
	ForwardingChain []models.Hop           `json:"forwarding_chain,omitempty"`
	ForwardedFrom   string                 `json:"forwarded_from,omitempty"`
	GhostMode       bool                   `json:"ghost_mode,omitempty"`
	RetentionPolicy models.RetentionPolicy `json:"retention_policy,omitempty"`
}

// RenderedMessage pairs a decision with what the viewer may see.
type RenderedMessage struct {
	Decision models.Decision `json:"decision"`
	Message  MessageView     `json:"message"`
}

type ProfileView struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

type RenderedProfile struct {
	Decision models.Decision `json:"decision"`
	Profile  ProfileView     `json:"profile"`
}

func redactMessage(m *models.Message, d models.Decision) MessageView {
	v := MessageView{ID: m.ID}
	switch d.State {
	case models.StateVisible:
		sent := m.SentAt
		v.ScopeRef = m.ScopeRef
		v.SenderID = m.SenderID
		v.Content = m.Content
		v.SentAt = &sent
		v.ForwardingChain = m.ForwardingChain
		v.ForwardedFrom = m.ForwardedFrom
		v.GhostMode = m.GhostMode
		v.RetentionPolicy = m.RetentionPolicy
	case models.StateBlurred:
		sent := m.SentAt
		v.ScopeRef = m.ScopeRef
		v.SenderID = m.SenderID
		v.SentAt = &sent
	}
	return v
}

func redactProfile(p *models.Profile, d models.Decision) ProfileView {
	v := ProfileView{ID: p.ID}
	if d.State == models.StateVisible {
		v.DisplayName = p.DisplayName
	}
	return v
}
