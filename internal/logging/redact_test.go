package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSenderFieldIsRedacted(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	logger.Info("message absorbed", ConversationID(7), MessageID(42), Sender())

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["sender"] != RedactedSender {
		t.Errorf("sender field = %v, want %q", fields["sender"], RedactedSender)
	}
	if fields["conversation_id"] != int64(7) {
		t.Errorf("conversation_id = %v, want 7", fields["conversation_id"])
	}
	if fields["message_id"] != int64(42) {
		t.Errorf("message_id = %v, want 42", fields["message_id"])
	}
}
