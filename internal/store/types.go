package store

// Conversation is a named thread grouping messages, tracked for
// recency and unread count.
type Conversation struct {
	ID            int64
	Title         string
	LastMessageAt int64
	UnreadCount   int
}

// Message is an immutable timestamped record within a conversation.
// Body is plaintext: the storage cipher has already been applied on
// the way out.
type Message struct {
	ID             int64
	ConversationID int64
	Timestamp      int64
	Sender         string
	Body           string
}

// GlobalSearchResult is a matched message with its conversation title
// attached for display.
type GlobalSearchResult struct {
	Message           Message
	ConversationTitle string
}
