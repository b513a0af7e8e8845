package bus

import "time"

// Well-known event kinds. Subscribers filter by prefix, so "conn."
// matches every connection lifecycle event.
const (
	KindStateChanged    = "conn.state_changed"
	KindMessageAbsorbed = "message.absorbed"
	KindViewRefreshed   = "view.refreshed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
