package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoConversation is returned by Absorb when the target conversation
// does not exist. The whole transaction is rolled back.
var ErrNoConversation = errors.New("conversation does not exist")

// Absorb durably records a message and updates its conversation's
// summary fields in one transaction: the message row is inserted, the
// conversation's last_message_at is raised to the message timestamp
// (never lowered) and its unread counter is incremented. Either all of
// that happens or none of it does.
func (db *DB) Absorb(conversationID, ts int64, sender, body string) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin absorb: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM conversations WHERE id = ?`, conversationID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check conversation: %w", err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("absorb into conversation %d: %w", conversationID, ErrNoConversation)
	}

	res, err := tx.Exec(`
		INSERT INTO messages (conversation_id, timestamp, sender, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		conversationID, ts, sender, db.cipher.Encode(body), time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	messageID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("message id: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE conversations
		SET last_message_at = MAX(last_message_at, ?),
		    unread_count = unread_count + 1
		WHERE id = ?`, ts, conversationID); err != nil {
		return 0, fmt.Errorf("update conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit absorb: %w", err)
	}
	return messageID, nil
}

// ListMessages returns messages for a conversation ordered newest
// first, id descending as tiebreak. A conversation with no messages,
// or one that does not exist, yields an empty slice.
func (db *DB) ListMessages(conversationID int64, offset, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := db.Query(`
		SELECT id, conversation_id, timestamp, sender, body
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Timestamp, &m.Sender, &m.Body); err != nil {
			return nil, err
		}
		m.Body = db.cipher.Decode(m.Body)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
