package conn

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mvasques/ripple/internal/wire"
	"go.uber.org/zap"
)

// Conn is one live duplex channel to the feed.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Dialer opens one connection attempt to the feed.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Consumer is the single downstream receiver of decoded new_message
// events, called in arrival order from the receive loop.
type Consumer interface {
	ConsumeNewMessage(ev wire.Event)
}

// Options configures a Manager. Zero fields take the defaults below.
type Options struct {
	URL          string
	PingInterval time.Duration // probe send period
	PongTimeout  time.Duration // silence after which the link is dead
	DialTimeout  time.Duration
	BaseDelay    time.Duration // first reconnect delay
	MaxDelay     time.Duration // reconnect delay cap
}

const (
	defaultPingInterval = 10 * time.Second
	defaultPongTimeout  = 25 * time.Second
	defaultDialTimeout  = 10 * time.Second
	defaultBaseDelay    = time.Second
	defaultMaxDelay     = 30 * time.Second

	writeTimeout = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = defaultPongTimeout
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = defaultDialTimeout
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = defaultBaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = defaultMaxDelay
	}
	return o
}

// Manager owns one logical connection to the feed at a time and drives
// the offline/reconnecting/connected lifecycle: dial, probe, detect
// drops, and reconnect with bounded increasing delay. Decoded
// new_message events are forwarded verbatim to the Consumer; pongs are
// consumed internally as liveness confirmation.
type Manager struct {
	opts     Options
	dialer   Dialer
	consumer Consumer
	machine  *Machine
	logger   *zap.Logger
	retry    *backoff.ExponentialBackOff

	mu       sync.Mutex
	started  bool
	gen      uint64 // bumps on every teardown; stale callbacks compare against it
	conn     Conn
	lastPong time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	timer    *time.Timer // pending reconnect, at most one
}

// NewManager creates a manager. It does nothing until Start.
func NewManager(opts Options, dialer Dialer, consumer Consumer, machine *Machine, logger *zap.Logger) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		opts:     opts,
		dialer:   dialer,
		consumer: consumer,
		machine:  machine,
		logger:   logger,
		retry:    newRetrySchedule(opts.BaseDelay, opts.MaxDelay),
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return m.machine.Current()
}

// Start opens the first connection attempt immediately. Calling Start
// on a running manager is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.retry.Reset()
	_ = m.machine.Transition(Reconnecting)
	gen := m.gen
	go m.attempt(m.ctx, gen)
}

// Stop tears the connection down and suppresses automatic reconnection
// until the next Start. Pending reconnect timers and probe tickers are
// cancelled; Stop never blocks on in-flight I/O.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	m.started = false
	m.gen++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	if m.machine.Current() != Offline {
		_ = m.machine.Transition(Offline)
	}
	m.logger.Info("feed connection stopped")
}

// attempt performs one dial. It runs off the caller's goroutine.
func (m *Manager) attempt(ctx context.Context, gen uint64) {
	dialCtx, cancel := context.WithTimeout(ctx, m.opts.DialTimeout)
	c, err := m.dialer.Dial(dialCtx, m.opts.URL)
	cancel()

	m.mu.Lock()
	if !m.started || gen != m.gen || ctx.Err() != nil {
		m.mu.Unlock()
		if err == nil {
			_ = c.Close()
		}
		return
	}
	if err != nil {
		m.logger.Warn("feed connection attempt failed", zap.Error(err))
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		return
	}

	m.conn = c
	m.lastPong = time.Now()
	m.retry.Reset()
	_ = m.machine.Transition(Connected)
	m.logger.Info("feed connected", zap.String("url", m.opts.URL))
	m.mu.Unlock()

	go m.readLoop(ctx, c, gen)
	go m.probeLoop(ctx, c, gen)
}

// readLoop receives frames until the connection dies. Malformed
// payloads are non-fatal: logged without content and skipped.
func (m *Manager) readLoop(ctx context.Context, c Conn, gen uint64) {
	for {
		data, err := c.Read(ctx)
		if err != nil {
			m.onDrop(gen, "receive failed", err)
			return
		}
		ev, err := wire.Decode(data)
		if err != nil {
			m.logger.Warn("dropping malformed feed payload", zap.Error(err))
			continue
		}
		switch ev.Type {
		case wire.TypePong:
			m.mu.Lock()
			if gen == m.gen {
				m.lastPong = time.Now()
			}
			m.mu.Unlock()
		case wire.TypeNewMessage:
			m.consumer.ConsumeNewMessage(ev)
		}
	}
}

// probeLoop sends a ping every PingInterval and declares the link dead
// when no pong has arrived within PongTimeout.
func (m *Manager) probeLoop(ctx context.Context, c Conn, gen uint64) {
	ticker := time.NewTicker(m.opts.PingInterval)
	defer ticker.Stop()

	ping, err := wire.Encode(wire.Ping())
	if err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			stale := !m.started || gen != m.gen
			silent := time.Since(m.lastPong) > m.opts.PongTimeout
			m.mu.Unlock()
			if stale {
				return
			}
			if silent {
				m.onDrop(gen, "probe timeout", nil)
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(wctx, ping)
			cancel()
			if err != nil {
				m.onDrop(gen, "probe send failed", err)
				return
			}
		}
	}
}

// onDrop handles an unexpected connection loss: close the slot,
// transition to offline, and arm the reconnect timer. Callbacks from a
// superseded connection are ignored.
func (m *Manager) onDrop(gen uint64, cause string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || gen != m.gen {
		return
	}
	m.gen++
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.logger.Warn("feed connection lost", zap.String("cause", cause), zap.Error(err))
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked moves to Offline and arms a single reconnect
// timer with the next delay in the schedule. Caller holds m.mu.
func (m *Manager) scheduleReconnectLocked() {
	if m.machine.Current() != Offline {
		_ = m.machine.Transition(Offline)
	}
	delay := m.retry.NextBackOff()
	m.logger.Info("scheduling reconnect", zap.Duration("delay", delay))

	ctx := m.ctx
	gen := m.gen
	m.timer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		if !m.started || gen != m.gen || ctx.Err() != nil {
			m.mu.Unlock()
			return
		}
		m.timer = nil
		_ = m.machine.Transition(Reconnecting)
		m.mu.Unlock()
		m.attempt(ctx, gen)
	})
}
