package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ghostline/pkg/models"
)

func TestMessageRoundTripKeepsDeadlines(t *testing.T) {
	sent := time.Date(2025, 5, 1, 9, 30, 0, 123456789, time.UTC)
	in := &models.Message{
		ID:              "m1",
		ScopeRef:        "dm-ab",
		SenderID:        "alice",
		Content:         "hi",
		SentAt:          sent,
		RetentionPolicy: models.Retention24h,
		ForwardingChain: []models.Hop{{OriginLabel: "News", SenderLabel: "Alice", ChannelLabel: "News", Timestamp: sent, IsInitial: true}},
	}
	in.SetExpiry("bob", sent.Add(24*time.Hour))
	in.Hide("carol", models.HideDeleted)

	b, err := Marshal(in)
	require.NoError(t, err)

	var out models.Message
	require.NoError(t, Unmarshal(b, &out))
	require.True(t, out.SentAt.Equal(sent))
	exp, ok := out.ExpiryFor("bob")
	require.True(t, ok)
	require.True(t, exp.Equal(sent.Add(24*time.Hour)))
	require.Equal(t, models.HideDeleted, out.HiddenFor["carol"])
	require.Len(t, out.ForwardingChain, 1)
}

func TestMarshalIsDeterministic(t *testing.T) {
	m := &models.Message{ID: "m1"}
	for _, v := range []string{"a", "b", "c", "d", "e", "f"} {
		m.Hide(v, models.HideExpired)
	}
	first, err := Marshal(m)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Marshal(m.Clone())
		require.NoError(t, err)
		require.True(t, bytes.Equal(first, again))
	}
}
