package chat

import (
	"errors"
	"sync"
)

// fakeConn records every event delivered to it. fail simulates a broken
// transport whose sends always error.
type fakeConn struct {
	mu     sync.Mutex
	fail   bool
	events []Event
}

func (f *fakeConn) Send(ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("transport failure")
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeConn) all() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeConn) byType(t EventType) []Event {
	var out []Event
	for _, ev := range f.all() {
		if ev.Event == t {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeConn) lastUserList() []string {
	lists := f.byType(EventUserList)
	if len(lists) == 0 {
		return nil
	}
	return lists[len(lists)-1].Users
}
