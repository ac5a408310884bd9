package client_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ramim1310/chat/internal/client"
)

func TestTypingNotifier(t *testing.T) {
	t.Run("FirstKeystrokeStartsOnce", func(t *testing.T) {
		var starts, stops atomic.Int32
		n := client.NewTypingNotifier(40*time.Millisecond,
			func() { starts.Add(1) },
			func() { stops.Add(1) },
		)

		n.Keystroke()
		n.Keystroke()
		n.Keystroke()
		assert.Equal(t, int32(1), starts.Load())
		assert.Equal(t, int32(0), stops.Load())
	})

	t.Run("QuietWindowFiresStop", func(t *testing.T) {
		var starts, stops atomic.Int32
		n := client.NewTypingNotifier(20*time.Millisecond,
			func() { starts.Add(1) },
			func() { stops.Add(1) },
		)

		n.Keystroke()
		assert.Eventually(t, func() bool { return stops.Load() == 1 }, time.Second, 5*time.Millisecond)

		// Typing again after the stop begins a fresh start/stop pair.
		n.Keystroke()
		assert.Equal(t, int32(2), starts.Load())
	})

	t.Run("KeystrokeResetsWindow", func(t *testing.T) {
		var stops atomic.Int32
		n := client.NewTypingNotifier(50*time.Millisecond,
			nil,
			func() { stops.Add(1) },
		)

		n.Keystroke()
		time.Sleep(30 * time.Millisecond)
		n.Keystroke()
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, int32(0), stops.Load())
	})

	t.Run("FlushStopsImmediately", func(t *testing.T) {
		var stops atomic.Int32
		n := client.NewTypingNotifier(time.Minute,
			nil,
			func() { stops.Add(1) },
		)

		n.Keystroke()
		n.Flush()
		assert.Equal(t, int32(1), stops.Load())

		// Flushing while idle does nothing.
		n.Flush()
		assert.Equal(t, int32(1), stops.Load())
	})
}

func TestTypingSet(t *testing.T) {
	s := client.NewTypingSet()
	assert.False(t, s.Anyone())

	s.Add("conn-a")
	s.Add("conn-a")
	s.Add("conn-b")
	assert.True(t, s.Anyone())

	s.Remove("conn-a")
	assert.True(t, s.Anyone())

	s.Remove("conn-b")
	assert.False(t, s.Anyone())

	s.Add("conn-c")
	s.Clear()
	assert.False(t, s.Anyone())
}
