package chat

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"chat-server/pkg/logger"

	"github.com/google/uuid"
	"github.com/kyokomi/emoji/v2"
)

// Conn is the transport half of a connection as seen by the core. Send must
// not block; a connection that cannot accept the event returns an error and
// the delivery is dropped for that recipient only.
type Conn interface {
	Send(ev Event) error
}

// Channel owns all mutable state for one chat channel: the member set, the
// typing set, the message table and the sequence counter. Every mutation
// happens under c.mu; fan-out always works on a membership snapshot taken
// under the lock and delivered outside it, so a slow recipient never holds
// the channel up.
type Channel struct {
	name         string
	typingWindow time.Duration

	mu       sync.Mutex
	dead     bool
	members  map[*Session]struct{}
	typing   map[string]*typingTimer
	messages map[string]*Message
	nextSeq  uint64
	// typingGen is monotonic across all typing sessions in the channel, so
	// an expiry callback from a superseded or cleared timer can never match
	// a fresh entry for the same user.
	typingGen uint64
}

type typingTimer struct {
	timer *time.Timer
	gen   uint64
}

func newChannel(name string, typingWindow time.Duration) *Channel {
	return &Channel{
		name:         name,
		typingWindow: typingWindow,
		members:      make(map[*Session]struct{}),
		typing:       make(map[string]*typingTimer),
		messages:     make(map[string]*Message),
	}
}

func (c *Channel) Name() string { return c.name }

// addMember reports false if the channel has been removed from the channel
// table, in which case the caller must retry against a fresh channel.
func (c *Channel) addMember(s *Session) bool {
	c.mu.Lock()
	if c.dead {
		c.mu.Unlock()
		return false
	}
	c.members[s] = struct{}{}
	conns, users := c.snapshotLocked()
	c.mu.Unlock()

	c.deliver(conns, newStatus(fmt.Sprintf("%s has joined the channel", s.username)))
	c.deliver(conns, newUserList(users))
	return true
}

// removeMember is a no-op for sessions that are not members, so a leave
// racing a disconnect produces the departure broadcasts exactly once.
func (c *Channel) removeMember(s *Session) {
	c.mu.Lock()
	if _, ok := c.members[s]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.members, s)
	wasTyping := c.clearTypingLocked(s.username)
	conns, users := c.snapshotLocked()
	c.mu.Unlock()

	if wasTyping {
		c.deliver(conns, newTypingStatus(s.username, false))
	}
	c.deliver(conns, newStatus(fmt.Sprintf("%s has left the channel", s.username)))
	c.deliver(conns, newUserList(users))
}

// submit assigns identity and ordering to a message and fans it out. The
// client-supplied id is only a hint: it is honored when unused within the
// channel, otherwise the server assigns a fresh one. Submitting also clears
// the author's typing indicator. Text payloads have emoji shortcodes
// (:smile: and friends) expanded; image payloads are URLs and pass through
// untouched.
func (c *Channel) submit(author string, kind MessageKind, payload, clientID string) *Message {
	if kind == KindText {
		payload = emoji.Sprint(payload)
	}

	c.mu.Lock()
	id := clientID
	if id == "" {
		id = uuid.NewString()
	} else if _, used := c.messages[id]; used {
		id = uuid.NewString()
	}
	c.nextSeq++
	m := &Message{
		ID:       id,
		Channel:  c.name,
		Author:   author,
		Kind:     kind,
		Payload:  payload,
		Seq:      c.nextSeq,
		reactors: make(map[string]map[string]struct{}),
	}
	c.messages[id] = m
	wasTyping := c.clearTypingLocked(author)
	conns, _ := c.snapshotLocked()
	c.mu.Unlock()

	if wasTyping {
		c.deliver(conns, newTypingStatus(author, false))
	}
	c.deliver(conns, newMessageEvent(m))
	return m
}

// toggleReaction applies toggle semantics and broadcasts the full updated
// emoji -> count map for the message. Broadcasting the whole map rather than
// a delta means concurrent toggles converge on every client without merging.
func (c *Channel) toggleReaction(username, messageID, emoji string) error {
	c.mu.Lock()
	m, ok := c.messages[messageID]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownMessage
	}
	action := "remove"
	if m.toggleReaction(emoji, username) {
		action = "add"
	}
	counts := m.reactionCounts()
	conns, _ := c.snapshotLocked()
	c.mu.Unlock()

	c.deliver(conns, newReactionUpdate(messageID, counts, action, emoji, username))
	return nil
}

// startTyping is edge-triggered: the typing=true broadcast happens only on
// the idle -> typing transition. Further input while already typing pushes
// the auto-clear deadline out without re-emitting.
func (c *Channel) startTyping(username string) {
	c.mu.Lock()
	c.typingGen++
	gen := c.typingGen
	if ts, ok := c.typing[username]; ok {
		ts.gen = gen
		ts.timer.Stop()
		ts.timer = time.AfterFunc(c.typingWindow, func() { c.expireTyping(username, gen) })
		c.mu.Unlock()
		return
	}
	ts := &typingTimer{gen: gen}
	ts.timer = time.AfterFunc(c.typingWindow, func() { c.expireTyping(username, gen) })
	c.typing[username] = ts
	conns, _ := c.snapshotLocked()
	c.mu.Unlock()

	c.deliver(conns, newTypingStatus(username, true))
}

// stopTyping cancels the pending auto-clear and emits typing=false if the
// user was typing. Used for explicit typing=false signals and message sends.
func (c *Channel) stopTyping(username string) {
	c.mu.Lock()
	cleared := c.clearTypingLocked(username)
	conns, _ := c.snapshotLocked()
	c.mu.Unlock()

	if cleared {
		c.deliver(conns, newTypingStatus(username, false))
	}
}

func (c *Channel) expireTyping(username string, gen uint64) {
	c.mu.Lock()
	ts, ok := c.typing[username]
	if !ok || ts.gen != gen {
		// superseded by fresh input or already cleared
		c.mu.Unlock()
		return
	}
	delete(c.typing, username)
	conns, _ := c.snapshotLocked()
	c.mu.Unlock()

	c.deliver(conns, newTypingStatus(username, false))
}

func (c *Channel) clearTypingLocked(username string) bool {
	ts, ok := c.typing[username]
	if !ok {
		return false
	}
	ts.timer.Stop()
	delete(c.typing, username)
	return true
}

// markDeadIfEmpty lets the registry prune a drained channel without racing a
// concurrent join: a joiner that got hold of a dead channel retries.
func (c *Channel) markDeadIfEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.members) > 0 {
		return false
	}
	c.dead = true
	return true
}

// close marks the channel dead, stops all typing timers and notifies the
// remaining members. Used when an admin deletes the channel outright.
func (c *Channel) close(notice string) {
	c.mu.Lock()
	c.dead = true
	for username, ts := range c.typing {
		ts.timer.Stop()
		delete(c.typing, username)
	}
	conns, _ := c.snapshotLocked()
	c.members = make(map[*Session]struct{})
	c.mu.Unlock()

	c.deliver(conns, newStatus(notice))
}

func (c *Channel) memberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.members)
}

// snapshotLocked captures the current recipients and the sorted, deduplicated
// member username list. Caller must hold c.mu.
func (c *Channel) snapshotLocked() ([]Conn, []string) {
	conns := make([]Conn, 0, len(c.members))
	seen := make(map[string]struct{}, len(c.members))
	users := make([]string, 0, len(c.members))
	for s := range c.members {
		conns = append(conns, s.conn)
		if _, ok := seen[s.username]; !ok {
			seen[s.username] = struct{}{}
			users = append(users, s.username)
		}
	}
	sort.Strings(users)
	return conns, users
}

// deliver fans an event out to a membership snapshot. Delivery is best-effort
// per recipient: a failed send is logged and counted, and the loop carries on
// with the remaining recipients.
func (c *Channel) deliver(conns []Conn, ev Event) {
	eventsBroadcast.WithLabelValues(string(ev.Event)).Inc()
	for _, conn := range conns {
		if err := conn.Send(ev); err != nil {
			droppedDeliveries.Inc()
			logger.Error("dropped %s delivery in channel %s: %v", ev.Event, c.name, err)
		}
	}
}
