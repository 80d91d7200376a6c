package websocket

import (
	"encoding/json"
	"testing"

	"chat-server/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain decodes everything currently queued on the client's send buffer.
func drain(t *testing.T, c *Client) []chat.Event {
	t.Helper()
	var out []chat.Event
	for {
		select {
		case data := <-c.send:
			var ev chat.Event
			require.NoError(t, json.Unmarshal(data, &ev))
			out = append(out, ev)
		default:
			return out
		}
	}
}

func lastEvent(t *testing.T, c *Client) chat.Event {
	t.Helper()
	events := drain(t, c)
	require.NotEmpty(t, events)
	return events[len(events)-1]
}

func TestDispatchMalformedEvent(t *testing.T) {
	r := chat.NewRegistry(0)
	c := NewClient(nil, r, "alice", 8)

	c.dispatch([]byte("{not json"))

	ev := lastEvent(t, c)
	assert.Equal(t, chat.EventError, ev.Event)
	assert.Equal(t, "malformed event", ev.Msg)
}

func TestDispatchUnknownEvent(t *testing.T) {
	r := chat.NewRegistry(0)
	c := NewClient(nil, r, "alice", 8)

	c.dispatch([]byte(`{"event":"dance"}`))

	assert.Equal(t, chat.EventError, lastEvent(t, c).Event)
}

func TestDispatchJoinAndMessage(t *testing.T) {
	r := chat.NewRegistry(0)
	alice := NewClient(nil, r, "alice", 8)
	bob := NewClient(nil, r, "bob", 8)

	alice.dispatch([]byte(`{"event":"join","channel":"general"}`))
	bob.dispatch([]byte(`{"event":"join","channel":"general"}`))
	alice.dispatch([]byte(`{"event":"message","msg":"hi","message_id":"m1"}`))

	var got *chat.Event
	for _, ev := range drain(t, bob) {
		if ev.Event == chat.EventMessage {
			e := ev
			got = &e
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "hi", got.Msg)
	assert.Equal(t, chat.KindText, got.Kind) // kind defaults to text
	assert.Equal(t, "m1", got.MessageID)
}

func TestDispatchValidationFailures(t *testing.T) {
	r := chat.NewRegistry(0)
	c := NewClient(nil, r, "alice", 8)

	cases := []struct {
		name string
		raw  string
	}{
		{"join without channel", `{"event":"join"}`},
		{"message without msg", `{"event":"message"}`},
		{"message while not joined", `{"event":"message","msg":"hi"}`},
		{"typing without flag", `{"event":"typing"}`},
		{"reaction without emoji", `{"event":"reaction","message_id":"m1"}`},
		{"reaction while not joined", `{"event":"reaction","message_id":"m1","emoji":"x"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c.dispatch([]byte(tc.raw))
			assert.Equal(t, chat.EventError, lastEvent(t, c).Event)
		})
	}
}

func TestDispatchLeaveIsSilentWhenNotJoined(t *testing.T) {
	r := chat.NewRegistry(0)
	c := NewClient(nil, r, "alice", 8)

	c.dispatch([]byte(`{"event":"leave"}`))
	assert.Empty(t, drain(t, c))
}

func TestSendDropsWhenBufferFull(t *testing.T) {
	r := chat.NewRegistry(0)
	c := NewClient(nil, r, "alice", 1)

	require.NoError(t, c.Send(chat.NewErrorEvent("one")))
	assert.ErrorIs(t, c.Send(chat.NewErrorEvent("two")), ErrSendBufferFull)
}
