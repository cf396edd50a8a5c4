// Package provenance maintains the append-only forwarding chain carried by
// every message copy.
package provenance

import (
	"time"

	"github.com/cockroachdb/errors"

	"ghostline/pkg/logger"
	"ghostline/pkg/models"
)

// PlaceholderLabel replaces any label the forward context did not supply.
const PlaceholderLabel = "unknown"

// ForwardContext carries the display labels captured at forward time.
type ForwardContext struct {
	// OriginLabel names the scope the source message lives in.
	OriginLabel string
	// CurrentScopeLabel names the destination scope.
	CurrentScopeLabel string
	// SenderLabel names the actor performing this forward.
	SenderLabel string
	// SourceSenderLabel names the author of the source message. It is
	// only used when the initial hop has to be synthesized.
	SourceSenderLabel string
	Now               time.Time
}

// Validate reports which labels are missing. The error wraps
// models.ErrMalformedProvenance.
func Validate(fc ForwardContext) error {
	var missing []string
	if fc.OriginLabel == "" {
		missing = append(missing, "origin")
	}
	if fc.CurrentScopeLabel == "" {
		missing = append(missing, "current_scope")
	}
	if fc.SenderLabel == "" {
		missing = append(missing, "sender")
	}
	if fc.SourceSenderLabel == "" {
		missing = append(missing, "source_sender")
	}
	if fc.Now.IsZero() {
		missing = append(missing, "timestamp")
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.Wrapf(models.ErrMalformedProvenance, "missing labels %v", missing)
}

// ExtendChain returns the chain for a new copy of src forwarded under fc.
// The result is src's chain, preceded by a synthesized initial hop when
// src has none, followed by exactly one new hop. src is never modified.
func ExtendChain(src *models.Message, fc ForwardContext) []models.Hop {
	if err := Validate(fc); err != nil {
		logger.Warn("provenance_malformed", "message_id", src.ID, "error", err)
		fc = degrade(fc, src)
	}

	chain := make([]models.Hop, 0, len(src.ForwardingChain)+2)
	chain = append(chain, src.ForwardingChain...)
	if len(chain) == 0 {
		chain = append(chain, InitialHop(src, fc))
	}

	origin := chain[0].OriginLabel
	if origin == "" {
		origin = PlaceholderLabel
	}
	hop := models.Hop{
		OriginLabel:  origin,
		SenderLabel:  fc.SenderLabel,
		ChannelLabel: fc.CurrentScopeLabel,
		Timestamp:    fc.Now.UTC(),
	}
	if fc.OriginLabel != fc.CurrentScopeLabel {
		hop.ViaLabel = fc.OriginLabel
	}
	return append(chain, hop)
}

// InitialHop describes the original post of a message that has never been
// forwarded.
func InitialHop(src *models.Message, fc ForwardContext) models.Hop {
	ts := src.SentAt
	if ts.IsZero() {
		ts = fc.Now
	}
	return models.Hop{
		OriginLabel:  fc.OriginLabel,
		SenderLabel:  fc.SourceSenderLabel,
		ChannelLabel: fc.OriginLabel,
		Timestamp:    ts.UTC(),
		IsInitial:    true,
	}
}

// degrade fills missing labels with the placeholder. A missing timestamp
// falls back to the source's send time; the ledger never reads a clock.
func degrade(fc ForwardContext, src *models.Message) ForwardContext {
	if fc.OriginLabel == "" {
		fc.OriginLabel = PlaceholderLabel
	}
	if fc.CurrentScopeLabel == "" {
		fc.CurrentScopeLabel = PlaceholderLabel
	}
	if fc.SenderLabel == "" {
		fc.SenderLabel = PlaceholderLabel
	}
	if fc.SourceSenderLabel == "" {
		fc.SourceSenderLabel = PlaceholderLabel
	}
	if fc.Now.IsZero() {
		fc.Now = src.SentAt
	}
	return fc
}
