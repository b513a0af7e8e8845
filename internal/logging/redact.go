package logging

import "go.uber.org/zap"

// RedactedSender replaces sender labels in every diagnostic derived
// from a message. Message bodies are never logged at all.
const RedactedSender = "[redacted]"

// ConversationID returns a log field for the conversation a diagnostic
// refers to.
func ConversationID(id int64) zap.Field {
	return zap.Int64("conversation_id", id)
}

// MessageID returns a log field for the message a diagnostic refers to.
func MessageID(id int64) zap.Field {
	return zap.Int64("message_id", id)
}

// Sender returns the redacted sender field. Call sites that want to
// note a sender was present use this instead of the label itself.
func Sender() zap.Field {
	return zap.String("sender", RedactedSender)
}
