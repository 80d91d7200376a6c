package chat

import (
	"sort"
	"sync"
	"time"

	"chat-server/pkg/logger"
)

// DefaultTypingWindow is the inactivity window after which a typing
// indicator auto-clears.
const DefaultTypingWindow = 3 * time.Second

// Session is one live connection's handle into the core. A session belongs
// to at most one channel at a time.
type Session struct {
	username string
	conn     Conn

	// mu serializes join/leave/disconnect for this session, so a disconnect
	// racing an in-flight join or leave resolves to whichever lands last
	// with no doubled side effects.
	mu      sync.Mutex
	channel *Channel
	closed  bool
}

func (s *Session) Username() string { return s.username }

// ChannelInfo is the REST-facing view of a channel.
type ChannelInfo struct {
	Name  string `json:"name"`
	Users int    `json:"users"`
}

// Registry tracks live sessions and owns the channel table. Channels are
// created lazily on first join and pruned once their last member leaves.
type Registry struct {
	typingWindow time.Duration

	mu       sync.Mutex
	channels map[string]*Channel
	sessions map[*Session]struct{}
}

func NewRegistry(typingWindow time.Duration) *Registry {
	if typingWindow <= 0 {
		typingWindow = DefaultTypingWindow
	}
	return &Registry{
		typingWindow: typingWindow,
		channels:     make(map[string]*Channel),
		sessions:     make(map[*Session]struct{}),
	}
}

// Register tracks a new connection under the given identity. The session is
// not in any channel until Join succeeds.
func (r *Registry) Register(conn Conn, username string) *Session {
	s := &Session{username: username, conn: conn}
	r.mu.Lock()
	r.sessions[s] = struct{}{}
	r.mu.Unlock()
	openConnections.Inc()
	logger.Debug("registered session for %s", username)
	return s
}

// Join binds the session to the named channel and broadcasts the arrival to
// its members. Joining the channel the session is already in is a no-op;
// joining a different one without leaving first fails.
func (r *Registry) Join(s *Session, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.channel != nil {
		if s.channel.name == channel {
			return nil
		}
		return ErrAlreadyInChannel
	}
	for {
		ch := r.getOrCreate(channel)
		if ch.addMember(s) {
			s.channel = ch
			logger.Info("%s joined channel %s", s.username, channel)
			return nil
		}
		// lost a race with channel pruning; take a fresh channel
	}
}

// Leave is idempotent: it removes the session from its channel if it has one
// and otherwise does nothing.
func (r *Registry) Leave(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.leaveLocked(s)
}

// Disconnect runs the leave path and then removes the session permanently.
// It is what transport-level connection loss maps to, and is safe to call
// concurrently with Join or Leave for the same session.
func (r *Registry) Disconnect(s *Session) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	r.leaveLocked(s)
	s.mu.Unlock()

	r.mu.Lock()
	delete(r.sessions, s)
	r.mu.Unlock()
	openConnections.Dec()
	logger.Debug("session for %s disconnected", s.username)
}

// Submit validates and delivers a message to the session's current channel.
func (r *Registry) Submit(s *Session, kind MessageKind, payload, clientID string) (*Message, error) {
	ch := s.currentChannel()
	if ch == nil {
		return nil, ErrNotInChannel
	}
	if kind != KindText && kind != KindImage {
		return nil, ErrInvalidMessageKind
	}
	return ch.submit(s.username, kind, payload, clientID), nil
}

// ToggleReaction flips the session user's reaction on a message in its
// current channel. Message ids from other channels are unknown here, so
// membership is enforced even for ids that exist elsewhere.
func (r *Registry) ToggleReaction(s *Session, messageID, emoji string) error {
	ch := s.currentChannel()
	if ch == nil {
		return ErrNotInChannel
	}
	return ch.toggleReaction(s.username, messageID, emoji)
}

// SetTyping feeds an explicit typing signal into the session's channel.
func (r *Registry) SetTyping(s *Session, typing bool) error {
	ch := s.currentChannel()
	if ch == nil {
		return ErrNotInChannel
	}
	if typing {
		ch.startTyping(s.username)
	} else {
		ch.stopTyping(s.username)
	}
	return nil
}

// Channels lists live channels with their member counts, sorted by name.
func (r *Registry) Channels() []ChannelInfo {
	r.mu.Lock()
	channels := make([]*Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		channels = append(channels, ch)
	}
	r.mu.Unlock()

	infos := make([]ChannelInfo, 0, len(channels))
	for _, ch := range channels {
		infos = append(infos, ChannelInfo{Name: ch.name, Users: ch.memberCount()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// DropChannel force-removes a channel, notifying its members. Members are
// detached so their sessions can join another channel afterwards.
func (r *Registry) DropChannel(name, notice string) bool {
	r.mu.Lock()
	ch, ok := r.channels[name]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.channels, name)
	sessions := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	ch.close(notice)
	for _, s := range sessions {
		s.mu.Lock()
		if s.channel == ch {
			s.channel = nil
		}
		s.mu.Unlock()
	}
	activeChannels.Dec()
	logger.Info("channel %s dropped", name)
	return true
}

// leaveLocked needs s.mu held. Pruning happens after the membership change
// so an empty channel never lingers in the table.
func (r *Registry) leaveLocked(s *Session) {
	ch := s.channel
	if ch == nil {
		return
	}
	s.channel = nil
	ch.removeMember(s)
	logger.Info("%s left channel %s", s.username, ch.name)
	r.pruneIfEmpty(ch)
}

func (r *Registry) getOrCreate(name string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[name]; ok {
		return ch
	}
	ch := newChannel(name, r.typingWindow)
	r.channels[name] = ch
	activeChannels.Inc()
	return ch
}

func (r *Registry) pruneIfEmpty(ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channels[ch.name] != ch {
		return
	}
	if !ch.markDeadIfEmpty() {
		return
	}
	delete(r.channels, ch.name)
	activeChannels.Dec()
}

func (s *Session) currentChannel() *Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}
