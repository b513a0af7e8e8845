package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mvasques/ripple/internal/wire"
	"go.uber.org/zap"
)

type chanSubscriber struct {
	frames chan []byte
	closed atomic.Bool
}

func newChanSubscriber() *chanSubscriber {
	return &chanSubscriber{frames: make(chan []byte, 64)}
}

func (s *chanSubscriber) Send(data []byte) error {
	if s.closed.Load() {
		return errors.New("subscriber closed")
	}
	s.frames <- data
	return nil
}

func (s *chanSubscriber) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *chanSubscriber) recv(t *testing.T, timeout time.Duration) wire.Event {
	t.Helper()
	select {
	case frame := <-s.frames:
		ev, err := wire.Decode(frame)
		if err != nil {
			t.Fatalf("received undecodable frame: %v", err)
		}
		return ev
	case <-time.After(timeout):
		t.Fatal("timed out waiting for frame")
		return wire.Event{}
	}
}

func testBroadcaster(t *testing.T, opts Options) *Broadcaster {
	t.Helper()
	b, err := New(opts, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	b := testBroadcaster(t, Options{Conversations: 9, MinInterval: time.Hour, MaxInterval: time.Hour})
	s1 := newChanSubscriber()
	s2 := newChanSubscriber()
	b.Attach(s1)
	b.Attach(s2)

	b.broadcast()

	for _, s := range []*chanSubscriber{s1, s2} {
		ev := s.recv(t, time.Second)
		if ev.Type != wire.TypeNewMessage {
			t.Errorf("event type = %s, want new_message", ev.Type)
		}
		if ev.ChatID < 1 || ev.ChatID > 9 {
			t.Errorf("chatId = %d, want within [1, 9]", ev.ChatID)
		}
		if ev.Sender == "" || ev.Body == "" {
			t.Errorf("event missing content: %+v", ev)
		}
		if ev.TS <= 0 {
			t.Errorf("ts = %d, want positive epoch millis", ev.TS)
		}
	}
}

func TestRunLoopBroadcastsPeriodically(t *testing.T) {
	b := testBroadcaster(t, Options{MinInterval: 3 * time.Millisecond, MaxInterval: 6 * time.Millisecond})
	s := newChanSubscriber()
	b.Attach(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	first := s.recv(t, time.Second)
	second := s.recv(t, time.Second)
	if first.MessageID == second.MessageID {
		t.Errorf("consecutive broadcasts share messageId %d", first.MessageID)
	}
}

func TestEmptySetSkipsWithoutBacklog(t *testing.T) {
	b := testBroadcaster(t, Options{MinInterval: 3 * time.Millisecond, MaxInterval: 3 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	// Several intervals pass with nobody attached.
	time.Sleep(20 * time.Millisecond)

	s := newChanSubscriber()
	b.Attach(s)
	// Nothing was queued for the time we were absent.
	if n := len(s.frames); n != 0 {
		t.Fatalf("got %d backlogged frames at attach time, want 0", n)
	}

	// The next regular broadcast still arrives.
	ev := s.recv(t, time.Second)
	if ev.Type != wire.TypeNewMessage {
		t.Errorf("event type = %s, want new_message", ev.Type)
	}
}

func TestDetachIsIdempotent(t *testing.T) {
	b := testBroadcaster(t, Options{MinInterval: time.Hour, MaxInterval: time.Hour})
	s := newChanSubscriber()
	id := b.Attach(s)

	b.Detach(id)
	b.Detach(id)

	b.broadcast()
	if n := len(s.frames); n != 0 {
		t.Errorf("detached subscriber received %d frames", n)
	}
	if n := b.SubscriberCount(); n != 0 {
		t.Errorf("subscriber count = %d, want 0", n)
	}
}

func TestOnProbeAnswersDirectly(t *testing.T) {
	b := testBroadcaster(t, Options{MinInterval: time.Hour, MaxInterval: time.Hour})
	probing := newChanSubscriber()
	other := newChanSubscriber()
	id := b.Attach(probing)
	b.Attach(other)

	b.OnProbe(id)

	ev := probing.recv(t, time.Second)
	if ev.Type != wire.TypePong {
		t.Errorf("probe answer type = %s, want pong", ev.Type)
	}
	if ev.TS <= 0 {
		t.Errorf("pong ts = %d, want current epoch millis", ev.TS)
	}
	if n := len(other.frames); n != 0 {
		t.Errorf("non-probing subscriber received %d frames", n)
	}
}

func TestOnProbeUnknownHandle(t *testing.T) {
	b := testBroadcaster(t, Options{})
	s := newChanSubscriber()
	id := b.Attach(s)
	b.Detach(id)

	// Must not panic or send anywhere.
	b.OnProbe(id)
	if n := len(s.frames); n != 0 {
		t.Errorf("detached subscriber received %d frames", n)
	}
}

func TestForceDetachAll(t *testing.T) {
	b := testBroadcaster(t, Options{MinInterval: time.Hour, MaxInterval: time.Hour})
	s1 := newChanSubscriber()
	s2 := newChanSubscriber()
	b.Attach(s1)
	b.Attach(s2)

	b.ForceDetachAll()

	if !s1.closed.Load() || !s2.closed.Load() {
		t.Error("subscribers not closed by ForceDetachAll")
	}
	if n := b.SubscriberCount(); n != 0 {
		t.Errorf("subscriber count = %d, want 0", n)
	}

	b.broadcast()
	if len(s1.frames) != 0 || len(s2.frames) != 0 {
		t.Error("broadcast after ForceDetachAll still delivered frames")
	}
}

func TestFailingSubscriberDropped(t *testing.T) {
	b := testBroadcaster(t, Options{MinInterval: time.Hour, MaxInterval: time.Hour})
	dead := newChanSubscriber()
	dead.closed.Store(true) // every Send fails
	live := newChanSubscriber()
	b.Attach(dead)
	b.Attach(live)

	b.broadcast()

	if n := b.SubscriberCount(); n != 1 {
		t.Errorf("subscriber count = %d, want 1 after dropping the dead one", n)
	}
	if ev := live.recv(t, time.Second); ev.Type != wire.TypeNewMessage {
		t.Errorf("live subscriber event type = %s", ev.Type)
	}
}
