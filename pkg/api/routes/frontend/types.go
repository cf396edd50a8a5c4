package frontend

import (
	"ghostline/pkg/engine"
	"ghostline/pkg/models"
)

type SendBody struct {
	Content   string           `json:"content"`
	GhostMode bool             `json:"ghost_mode,omitempty"`
	WhisperTo string           `json:"whisper_to,omitempty"`
	Obscurity models.Obscurity `json:"obscurity"`
}

type ForwardBody struct {
	Scope string `json:"scope"`
}

type ObscurityBody struct {
	Blurred bool `json:"blurred"`
	Hidden  bool `json:"hidden"`
}

func (b ObscurityBody) toModel() models.Obscurity {
	return models.Obscurity{Blurred: b.Blurred, Hidden: b.Hidden}
}

// GrantBody asks for a grant. Duration uses Go duration syntax, e.g. "24h".
type GrantBody struct {
	Grantee  string `json:"grantee,omitempty"`
	Global   bool   `json:"global,omitempty"`
	Duration string `json:"duration"`
}

type MessagesResult struct {
	Messages   []engine.RenderedMessage  `json:"messages"`
	Pagination models.PaginationResponse `json:"pagination"`
}

type GrantsResult struct {
	Grants []models.Grant `json:"grants"`
}

type AccessRequestsResult struct {
	Requests []models.AccessRequest `json:"requests"`
}
