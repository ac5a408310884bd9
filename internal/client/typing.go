package client

import (
	"sync"
	"time"
)

// DefaultTypingQuiet is how long after the last keystroke the stop
// notification fires.
const DefaultTypingQuiet = 2 * time.Second

// TypingNotifier debounces keystrokes into a typing/stop_typing pair.
// The first keystroke fires start immediately; stop fires once no
// keystroke has arrived for the quiet window. A new keystroke during the
// window resets it without firing start again.
type TypingNotifier struct {
	mu     sync.Mutex
	quiet  time.Duration
	active bool
	timer  *time.Timer

	start func()
	stop  func()
}

func NewTypingNotifier(quiet time.Duration, start, stop func()) *TypingNotifier {
	if quiet <= 0 {
		quiet = DefaultTypingQuiet
	}
	return &TypingNotifier{quiet: quiet, start: start, stop: stop}
}

// Keystroke records input activity.
func (t *TypingNotifier) Keystroke() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		t.active = true
		if t.start != nil {
			t.start()
		}
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.quiet, t.expire)
}

// Flush fires stop immediately, used when the user sends the message.
func (t *TypingNotifier) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.finishLocked()
}

func (t *TypingNotifier) expire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finishLocked()
}

func (t *TypingNotifier) finishLocked() {
	if !t.active {
		return
	}
	t.active = false
	if t.stop != nil {
		t.stop()
	}
}

// TypingSet tracks which remote connections are currently typing in the
// active room. Keys are connection ids as relayed by display_typing and
// hide_typing, so the set naturally dedupes repeated events.
type TypingSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewTypingSet() *TypingSet {
	return &TypingSet{ids: make(map[string]struct{})}
}

func (s *TypingSet) Add(connID string) {
	s.mu.Lock()
	s.ids[connID] = struct{}{}
	s.mu.Unlock()
}

func (s *TypingSet) Remove(connID string) {
	s.mu.Lock()
	delete(s.ids, connID)
	s.mu.Unlock()
}

func (s *TypingSet) Clear() {
	s.mu.Lock()
	s.ids = make(map[string]struct{})
	s.mu.Unlock()
}

// Anyone reports whether at least one remote participant is typing.
func (s *TypingSet) Anyone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids) > 0
}
