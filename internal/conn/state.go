package conn

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mvasques/ripple/internal/bus"
)

// State represents the connection lifecycle state.
type State string

const (
	Offline      State = "OFFLINE"
	Reconnecting State = "RECONNECTING"
	Connected    State = "CONNECTED"
)

// validTransitions defines allowed state transitions. Keeping the
// lifecycle here, rather than in scattered flags, is what makes "at
// most one reconnect timer and one probe timer" checkable.
var validTransitions = map[State][]State{
	Offline:      {Reconnecting},
	Reconnecting: {Connected, Offline},
	Connected:    {Offline},
}

// Machine tracks and enforces connection state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Offline state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Offline,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      bus.KindStateChanged,
			Timestamp: time.Now(),
			Payload: StateChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// StateChange is the payload for state change events.
type StateChange struct {
	From State
	To   State
}
