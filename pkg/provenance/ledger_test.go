package provenance

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostline/pkg/models"
)

var t0 = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func TestFirstForwardSynthesizesInitialHop(t *testing.T) {
	m0 := &models.Message{ID: "m0", ScopeRef: "news", SenderID: "alice", SentAt: t0}

	chain := ExtendChain(m0, ForwardContext{
		OriginLabel:       "News",
		CurrentScopeLabel: "Friends",
		SenderLabel:       "Bob",
		SourceSenderLabel: "Alice",
		Now:               t0.Add(time.Minute),
	})

	require.Len(t, chain, 2)
	assert.Equal(t, models.Hop{OriginLabel: "News", SenderLabel: "Alice", ChannelLabel: "News", Timestamp: t0, IsInitial: true}, chain[0])
	assert.Equal(t, models.Hop{OriginLabel: "News", ViaLabel: "News", SenderLabel: "Bob", ChannelLabel: "Friends", Timestamp: t0.Add(time.Minute)}, chain[1])
	assert.Empty(t, m0.ForwardingChain, "source must not be mutated")
}

// Alice posts in News, Bob forwards to Friends, Carol forwards to Family.
func TestTwoHopForward(t *testing.T) {
	m0 := &models.Message{ID: "m0", ScopeRef: "news", SenderID: "alice", SentAt: t0}
	m1 := &models.Message{ID: "m1", ScopeRef: "friends", SenderID: "bob", SentAt: t0.Add(time.Minute)}
	m1.ForwardingChain = ExtendChain(m0, ForwardContext{"News", "Friends", "Bob", "Alice", t0.Add(time.Minute)})

	before := append([]models.Hop(nil), m1.ForwardingChain...)
	chain := ExtendChain(m1, ForwardContext{"Friends", "Family", "Carol", "Bob", t0.Add(2 * time.Minute)})

	require.Len(t, chain, 3)
	assert.True(t, chain[0].IsInitial)
	assert.Equal(t, "Alice", chain[0].SenderLabel)
	assert.Equal(t, "News", chain[0].ChannelLabel)
	assert.Equal(t, "Bob", chain[1].SenderLabel)
	assert.Equal(t, "Friends", chain[1].ChannelLabel)
	assert.Equal(t, "Carol", chain[2].SenderLabel)
	assert.Equal(t, "Family", chain[2].ChannelLabel)
	assert.Equal(t, "Friends", chain[2].ViaLabel)
	assert.Equal(t, "News", chain[2].OriginLabel)
	assert.Equal(t, before, m1.ForwardingChain)
}

func TestChainMonotonicity(t *testing.T) {
	msg := &models.Message{ID: "m0", SentAt: t0}
	msg.ForwardingChain = ExtendChain(msg, ForwardContext{"A", "B", "u1", "u0", t0})
	base := append([]models.Hop(nil), msg.ForwardingChain...)

	for n := 1; n <= 5; n++ {
		next := &models.Message{ID: "copy", ForwardingChain: ExtendChain(msg, ForwardContext{"B", "C", "u", "u", t0.Add(time.Duration(n) * time.Second)})}
		require.Len(t, next.ForwardingChain, len(base)+n)
		assert.Equal(t, base, next.ForwardingChain[:len(base)], "prefix must be preserved")
		msg = next
	}
}

func TestSameScopeForwardHasNoVia(t *testing.T) {
	m0 := &models.Message{ID: "m0", SentAt: t0}
	chain := ExtendChain(m0, ForwardContext{"Team", "Team", "Bob", "Alice", t0})
	assert.Empty(t, chain[1].ViaLabel)
}

func TestMissingLabelsDegradeToPlaceholder(t *testing.T) {
	m0 := &models.Message{ID: "m0", SentAt: t0}
	fc := ForwardContext{CurrentScopeLabel: "Friends", Now: t0}

	err := Validate(fc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMalformedProvenance))

	chain := ExtendChain(m0, fc)
	require.Len(t, chain, 2)
	assert.Equal(t, PlaceholderLabel, chain[0].OriginLabel)
	assert.Equal(t, PlaceholderLabel, chain[0].SenderLabel)
	assert.Equal(t, PlaceholderLabel, chain[1].SenderLabel)
	assert.Equal(t, "Friends", chain[1].ChannelLabel)
}

func TestMissingTimestampFallsBackToSendTime(t *testing.T) {
	m0 := &models.Message{ID: "m0", SentAt: t0}
	fc := ForwardContext{OriginLabel: "Team", CurrentScopeLabel: "Friends", SenderLabel: "Bob", SourceSenderLabel: "Alice"}

	chain := ExtendChain(m0, fc)
	require.Len(t, chain, 2)
	assert.True(t, chain[0].Timestamp.Equal(t0))
	assert.True(t, chain[1].Timestamp.Equal(t0))
}
