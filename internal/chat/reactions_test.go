package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChannelWithMessage(t *testing.T) (*Registry, *Session, *Session, *fakeConn, *Message) {
	t.Helper()
	r := NewRegistry(0)
	bobConn := &fakeConn{}
	alice := r.Register(&fakeConn{}, "alice")
	bob := r.Register(bobConn, "bob")
	require.NoError(t, r.Join(alice, "general"))
	require.NoError(t, r.Join(bob, "general"))

	m, err := r.Submit(alice, KindText, "hi", "")
	require.NoError(t, err)
	return r, alice, bob, bobConn, m
}

func TestToggleAddsThenRemoves(t *testing.T) {
	r, alice, _, bobConn, m := setupChannelWithMessage(t)

	require.NoError(t, r.ToggleReaction(alice, m.ID, "👍"))
	updates := bobConn.byType(EventReactionUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, m.ID, updates[0].MessageID)
	assert.Equal(t, map[string]int{"👍": 1}, updates[0].Reactions)
	assert.Equal(t, "add", updates[0].Action)
	assert.Equal(t, "alice", updates[0].Username)

	// the same user toggling again removes the emoji entirely, not to zero
	require.NoError(t, r.ToggleReaction(alice, m.ID, "👍"))
	updates = bobConn.byType(EventReactionUpdate)
	require.Len(t, updates, 2)
	assert.Empty(t, updates[1].Reactions)
	assert.Equal(t, "remove", updates[1].Action)
}

func TestToggleTwiceRestoresOriginalState(t *testing.T) {
	r, alice, bob, _, m := setupChannelWithMessage(t)

	require.NoError(t, r.ToggleReaction(bob, m.ID, "🎉"))
	require.NoError(t, r.ToggleReaction(alice, m.ID, "🎉"))
	require.NoError(t, r.ToggleReaction(alice, m.ID, "🎉"))

	// alice's double toggle leaves only bob's reaction
	assert.Equal(t, map[string]int{"🎉": 1}, m.reactionCounts())
}

func TestReactorsCountOncePerEmoji(t *testing.T) {
	r, alice, bob, bobConn, m := setupChannelWithMessage(t)

	require.NoError(t, r.ToggleReaction(alice, m.ID, "👍"))
	require.NoError(t, r.ToggleReaction(bob, m.ID, "👍"))
	require.NoError(t, r.ToggleReaction(alice, m.ID, "❤️"))

	updates := bobConn.byType(EventReactionUpdate)
	require.Len(t, updates, 3)
	assert.Equal(t, map[string]int{"👍": 2, "❤️": 1}, updates[2].Reactions)
}

func TestToggleUnknownMessage(t *testing.T) {
	r, alice, _, _, _ := setupChannelWithMessage(t)

	assert.ErrorIs(t, r.ToggleReaction(alice, "no-such-id", "👍"), ErrUnknownMessage)
}

func TestToggleRequiresChannel(t *testing.T) {
	r, _, _, _, m := setupChannelWithMessage(t)
	outsider := r.Register(&fakeConn{}, "mallory")

	assert.ErrorIs(t, r.ToggleReaction(outsider, m.ID, "👍"), ErrNotInChannel)
}

func TestToggleAcrossChannelsIsUnknown(t *testing.T) {
	r, _, _, _, m := setupChannelWithMessage(t)
	outsider := r.Register(&fakeConn{}, "mallory")
	require.NoError(t, r.Join(outsider, "random"))

	// the message exists, but not in mallory's channel
	assert.ErrorIs(t, r.ToggleReaction(outsider, m.ID, "👍"), ErrUnknownMessage)
}
