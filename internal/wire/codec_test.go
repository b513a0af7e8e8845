package wire

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
	}{
		{"ping", Ping()},
		{"pong", Pong(1700000000123)},
		{"new_message", NewMessage(7, 42, 1700000000123, "Alice", "hello there")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.ev)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.ev {
				t.Errorf("roundtrip = %+v, want %+v", got, tt.ev)
			}
		})
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	payload := `{"type":"new_message","chatId":3,"messageId":9,"ts":1000,"sender":"Bob","body":"hi","futureField":true,"v":2}`
	ev, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if ev.ChatID != 3 || ev.Body != "hi" {
		t.Errorf("event = %+v, want chatId=3 body=hi", ev)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{{{`},
		{"no type tag", `{"ts":1000}`},
		{"unknown type", `{"type":"typing_started"}`},
		{"pong without ts", `{"type":"pong"}`},
		{"new_message missing chatId", `{"type":"new_message","messageId":9,"ts":1000,"sender":"Bob","body":"hi"}`},
		{"new_message missing body", `{"type":"new_message","chatId":3,"messageId":9,"ts":1000,"sender":"Bob"}`},
		{"new_message wrong field type", `{"type":"new_message","chatId":"three","messageId":9,"ts":1000,"sender":"Bob","body":"hi"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			if err == nil {
				t.Fatal("Decode() expected error")
			}
			var dErr *DecodeError
			if !errors.As(err, &dErr) {
				t.Errorf("error type = %T, want *DecodeError", err)
			}
		})
	}
}

// Decode diagnostics are logged verbatim, so they must never echo
// message content back out.
func TestDecodeErrorOmitsContent(t *testing.T) {
	payload := `{"type":"new_message","messageId":9,"ts":1000,"sender":"Carol Confidential","body":"the launch code is 0000"}`
	_, err := Decode([]byte(payload))
	if err == nil {
		t.Fatal("Decode() expected error")
	}
	msg := err.Error()
	for _, secret := range []string{"Carol", "launch code", "0000"} {
		if strings.Contains(msg, secret) {
			t.Errorf("error %q leaks payload content %q", msg, secret)
		}
	}
}

func TestEncodeUnknownType(t *testing.T) {
	if _, err := Encode(Event{Type: "bogus"}); err == nil {
		t.Error("Encode() expected error for unknown type")
	}
}
