package chat

// MessageKind distinguishes plain text messages from image (URL) messages.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
)

type EventType string

const (
	EventMessage        EventType = "message"
	EventStatus         EventType = "status"
	EventReactionUpdate EventType = "reaction_update"
	EventTypingStatus   EventType = "typing_status"
	EventUserList       EventType = "user_list_update"
	EventError          EventType = "error"
)

// Event is the outbound envelope fanned out to channel members. One struct
// covers every event type; unused fields are omitted on the wire.
type Event struct {
	Event     EventType      `json:"event"`
	Username  string         `json:"username,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Kind      MessageKind    `json:"type,omitempty"`
	MessageID string         `json:"message_id,omitempty"`
	Seq       uint64         `json:"seq,omitempty"`
	Reactions map[string]int `json:"reactions,omitempty"`
	Action    string         `json:"action,omitempty"`
	Emoji     string         `json:"emoji,omitempty"`
	Typing    *bool          `json:"typing,omitempty"`
	Users     []string       `json:"users,omitempty"`
}

// ClientEvent is the inbound envelope read off a connection.
type ClientEvent struct {
	Event     string `json:"event"`
	Channel   string `json:"channel,omitempty"`
	Msg       string `json:"msg,omitempty"`
	Kind      string `json:"type,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
	Typing    *bool  `json:"typing,omitempty"`
}

func newMessageEvent(m *Message) Event {
	return Event{
		Event:     EventMessage,
		Username:  m.Author,
		Msg:       m.Payload,
		Kind:      m.Kind,
		MessageID: m.ID,
		Seq:       m.Seq,
	}
}

func newStatus(msg string) Event {
	return Event{Event: EventStatus, Msg: msg}
}

func newUserList(users []string) Event {
	return Event{Event: EventUserList, Users: users}
}

func newTypingStatus(username string, typing bool) Event {
	return Event{Event: EventTypingStatus, Username: username, Typing: &typing}
}

func newReactionUpdate(messageID string, counts map[string]int, action, emoji, username string) Event {
	return Event{
		Event:     EventReactionUpdate,
		MessageID: messageID,
		Reactions: counts,
		Action:    action,
		Emoji:     emoji,
		Username:  username,
	}
}

// NewErrorEvent reports a rejected inbound event back to the offending
// connection only; it is never broadcast.
func NewErrorEvent(msg string) Event {
	return Event{Event: EventError, Msg: msg}
}
