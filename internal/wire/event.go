package wire

// Type tags the shape of a feed event.
type Type string

const (
	TypePing       Type = "ping"
	TypePong       Type = "pong"
	TypeNewMessage Type = "new_message"
)

// Event is a decoded feed event. Only the fields belonging to its type
// carry meaning; the rest are zero.
type Event struct {
	Type      Type
	TS        int64
	ChatID    int64
	MessageID int64
	Sender    string
	Body      string
}

// Ping builds a liveness probe.
func Ping() Event {
	return Event{Type: TypePing}
}

// Pong builds a liveness response carrying the given epoch-millis timestamp.
func Pong(ts int64) Event {
	return Event{Type: TypePong, TS: ts}
}

// NewMessage builds an update notification for the given conversation.
func NewMessage(chatID, messageID, ts int64, sender, body string) Event {
	return Event{
		Type:      TypeNewMessage,
		ChatID:    chatID,
		MessageID: messageID,
		TS:        ts,
		Sender:    sender,
		Body:      body,
	}
}
