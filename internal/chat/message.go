package chat

// Message is an immutable record of a delivered message. Reactions attach to
// it by reference and are the only mutable part; they are guarded by the
// owning channel's lock.
type Message struct {
	ID      string
	Channel string
	Author  string
	Kind    MessageKind
	Payload string
	Seq     uint64

	// emoji -> set of reactor usernames
	reactors map[string]map[string]struct{}
}

// toggleReaction flips the user's reaction for the given emoji and reports
// whether it was added. Applying the same reaction twice returns the message
// to its prior state. Caller must hold the channel lock.
func (m *Message) toggleReaction(emoji, username string) (added bool) {
	set := m.reactors[emoji]
	if set != nil {
		if _, ok := set[username]; ok {
			delete(set, username)
			if len(set) == 0 {
				delete(m.reactors, emoji)
			}
			return false
		}
	} else {
		set = make(map[string]struct{})
		m.reactors[emoji] = set
	}
	set[username] = struct{}{}
	return true
}

// reactionCounts builds the emoji -> count view broadcast to the channel.
// Emojis with no remaining reactors are absent, never reported as zero.
// Caller must hold the channel lock.
func (m *Message) reactionCounts() map[string]int {
	counts := make(map[string]int, len(m.reactors))
	for emoji, set := range m.reactors {
		counts[emoji] = len(set)
	}
	return counts
}
