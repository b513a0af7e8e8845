package feed

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mvasques/ripple/internal/wire"
	"go.uber.org/zap"
)

// Subscriber is the send side of one attached feed connection.
type Subscriber interface {
	Send(data []byte) error
	Close() error
}

// Options configures a Broadcaster.
type Options struct {
	MinInterval   time.Duration // shortest wait between synthetic events
	MaxInterval   time.Duration // longest wait between synthetic events
	Conversations int64         // events target a random id in [1, Conversations]
}

func (o Options) withDefaults() Options {
	if o.MinInterval <= 0 {
		o.MinInterval = time.Second
	}
	if o.MaxInterval < o.MinInterval {
		o.MaxInterval = 3 * time.Second
		if o.MaxInterval < o.MinInterval {
			o.MaxInterval = o.MinInterval
		}
	}
	if o.Conversations <= 0 {
		o.Conversations = 12
	}
	return o
}

// Broadcaster owns the set of attached subscribers and periodically
// fans a synthetic new_message event out to all of them. Events are
// never queued for absent subscribers: an empty set at wake time just
// re-arms the wait. Delivery is at-most-once per attached subscriber.
type Broadcaster struct {
	opts   Options
	logger *zap.Logger
	pools  *contentPools
	nextID atomic.Int64

	// mu covers the registry and the rng; attach, detach, and one full
	// iterate-and-send are each atomic with respect to one another.
	mu   sync.Mutex
	rng  *rand.Rand
	subs map[uuid.UUID]Subscriber
}

// New creates a broadcaster. Run starts the synthetic event loop.
func New(opts Options, logger *zap.Logger) (*Broadcaster, error) {
	pools, err := loadPools()
	if err != nil {
		return nil, err
	}
	return &Broadcaster{
		opts:   opts.withDefaults(),
		logger: logger,
		pools:  pools,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		subs:   make(map[uuid.UUID]Subscriber),
	}, nil
}

// Attach adds a subscriber and returns its handle. It receives every
// subsequent broadcast.
func (b *Broadcaster) Attach(sub Subscriber) uuid.UUID {
	id := uuid.New()
	b.mu.Lock()
	b.subs[id] = sub
	n := len(b.subs)
	b.mu.Unlock()
	b.logger.Info("subscriber attached", zap.String("subscriber_id", id.String()), zap.Int("subscribers", n))
	return id
}

// Detach removes a subscriber. Safe to call multiple times.
func (b *Broadcaster) Detach(id uuid.UUID) {
	b.mu.Lock()
	_, present := b.subs[id]
	delete(b.subs, id)
	n := len(b.subs)
	b.mu.Unlock()
	if present {
		b.logger.Info("subscriber detached", zap.String("subscriber_id", id.String()), zap.Int("subscribers", n))
	}
}

// SubscriberCount returns the current registry size.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// OnProbe answers a subscriber's ping immediately and directly with a
// pong carrying the current time. The broadcast schedule is unaffected.
func (b *Broadcaster) OnProbe(id uuid.UUID) {
	frame, err := wire.Encode(wire.Pong(time.Now().UnixMilli()))
	if err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[id]
	if !ok {
		return
	}
	if err := sub.Send(frame); err != nil {
		delete(b.subs, id)
		_ = sub.Close()
		b.logger.Warn("probe answer failed, dropping subscriber", zap.String("subscriber_id", id.String()), zap.Error(err))
	}
}

// ForceDetachAll closes every attached subscriber and clears the set.
// Subscribers observe it as an ordinary connection loss.
func (b *Broadcaster) ForceDetachAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		_ = sub.Close()
		delete(b.subs, id)
	}
	b.logger.Info("force-detached all subscribers")
}

// Run drives the autonomous loop until ctx is cancelled: wait a random
// interval, broadcast one synthetic event if anyone is attached, re-arm.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		timer := time.NewTimer(b.interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			b.broadcast()
		}
	}
}

func (b *Broadcaster) interval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	spread := b.opts.MaxInterval - b.opts.MinInterval
	if spread <= 0 {
		return b.opts.MinInterval
	}
	return b.opts.MinInterval + time.Duration(b.rng.Int63n(int64(spread)+1))
}

// broadcast synthesizes one new_message event and sends it to every
// attached subscriber, as one atomic step against attach/detach. An
// empty set means no event is produced at all.
func (b *Broadcaster) broadcast() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 {
		return
	}

	ev := wire.NewMessage(
		1+b.rng.Int63n(b.opts.Conversations),
		b.nextID.Add(1),
		time.Now().UnixMilli(),
		b.pools.Senders[b.rng.Intn(len(b.pools.Senders))],
		b.pools.Bodies[b.rng.Intn(len(b.pools.Bodies))],
	)
	frame, err := wire.Encode(ev)
	if err != nil {
		b.logger.Error("encode broadcast event", zap.Error(err))
		return
	}

	for id, sub := range b.subs {
		if err := sub.Send(frame); err != nil {
			delete(b.subs, id)
			_ = sub.Close()
			b.logger.Warn("send failed, dropping subscriber", zap.String("subscriber_id", id.String()), zap.Error(err))
		}
	}
	b.logger.Info("broadcast sent",
		zap.Int64("conversation_id", ev.ChatID),
		zap.Int64("message_id", ev.MessageID),
		zap.Int("subscribers", len(b.subs)))
}
