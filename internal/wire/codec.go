package wire

import (
	"encoding/json"
	"fmt"
)

// DecodeError reports a payload that does not match any recognized
// event shape. Its message names the defect but never echoes payload
// content, so it is safe to log.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode feed event: %s", e.Reason)
}

type pingFrame struct {
	Type Type `json:"type"`
}

type pongFrame struct {
	Type Type   `json:"type"`
	TS   *int64 `json:"ts"`
}

type newMessageFrame struct {
	Type      Type    `json:"type"`
	ChatID    *int64  `json:"chatId"`
	MessageID *int64  `json:"messageId"`
	TS        *int64  `json:"ts"`
	Sender    *string `json:"sender"`
	Body      *string `json:"body"`
}

// Encode serializes an event into its wire form.
func Encode(ev Event) ([]byte, error) {
	switch ev.Type {
	case TypePing:
		return json.Marshal(pingFrame{Type: TypePing})
	case TypePong:
		return json.Marshal(pongFrame{Type: TypePong, TS: &ev.TS})
	case TypeNewMessage:
		return json.Marshal(newMessageFrame{
			Type:      TypeNewMessage,
			ChatID:    &ev.ChatID,
			MessageID: &ev.MessageID,
			TS:        &ev.TS,
			Sender:    &ev.Sender,
			Body:      &ev.Body,
		})
	default:
		return nil, fmt.Errorf("encode feed event: unknown type %q", ev.Type)
	}
}

// Decode parses a wire payload into an event. Unknown fields are
// ignored for forward compatibility; the type tag and the required
// fields of the matched shape are mandatory. Anything else yields a
// *DecodeError.
func Decode(data []byte) (Event, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Event{}, &DecodeError{Reason: "payload is not a JSON object"}
	}

	switch head.Type {
	case TypePing:
		return Ping(), nil

	case TypePong:
		var f pongFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return Event{}, &DecodeError{Reason: "malformed pong fields"}
		}
		if f.TS == nil {
			return Event{}, &DecodeError{Reason: "pong missing required field ts"}
		}
		return Pong(*f.TS), nil

	case TypeNewMessage:
		var f newMessageFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return Event{}, &DecodeError{Reason: "malformed new_message fields"}
		}
		for _, req := range []struct {
			name string
			ok   bool
		}{
			{"chatId", f.ChatID != nil},
			{"messageId", f.MessageID != nil},
			{"ts", f.TS != nil},
			{"sender", f.Sender != nil},
			{"body", f.Body != nil},
		} {
			if !req.ok {
				return Event{}, &DecodeError{Reason: "new_message missing required field " + req.name}
			}
		}
		return NewMessage(*f.ChatID, *f.MessageID, *f.TS, *f.Sender, *f.Body), nil

	case "":
		return Event{}, &DecodeError{Reason: "missing type tag"}
	default:
		return Event{}, &DecodeError{Reason: fmt.Sprintf("unknown type %q", head.Type)}
	}
}
