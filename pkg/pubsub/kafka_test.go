package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelToTopicAndKey(t *testing.T) {
	topic, key, err := channelToTopicAndKey(UserChannel("01HXYZ"))
	require.NoError(t, err)
	assert.Equal(t, "notify-user", topic)
	assert.Equal(t, "01HXYZ", key)

	for _, bad := range []string{"", "notify:user", "notify:user:", "a:b:c:d"} {
		_, _, err := channelToTopicAndKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestSanitizeGroupID(t *testing.T) {
	assert.Equal(t, "social-notify-notify-user-u1", sanitizeGroupID("social-notify-notify:user:u1"))
	assert.Equal(t, "a.b_c-d", sanitizeGroupID("a.b_c-d"))
	assert.Equal(t, "a-b-c", sanitizeGroupID("a b/c"))
}

func TestEventPayloadRoundTrip(t *testing.T) {
	event, err := NewEvent(EventPostLiked, "owner", "liker", PostLikedPayload{PostID: "p1", UserID: "liker"})
	require.NoError(t, err)
	assert.Equal(t, "owner", event.UserID)
	assert.False(t, event.Timestamp.IsZero())

	var payload PostLikedPayload
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, "p1", payload.PostID)
}
