package store

import "database/sql"

// ListConversations returns conversations ordered by most recent
// activity, id descending as tiebreak. Offsets past the end return an
// empty slice, never an error. The single query gives each call a
// consistent snapshot relative to concurrent absorbs.
func (db *DB) ListConversations(offset, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := db.Query(`
		SELECT id, title, last_message_at, unread_count
		FROM conversations
		ORDER BY last_message_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.LastMessageAt, &c.UnreadCount); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// GetConversation returns a single conversation by id, or nil if it
// does not exist.
func (db *DB) GetConversation(id int64) (*Conversation, error) {
	var c Conversation
	err := db.QueryRow(`
		SELECT id, title, last_message_at, unread_count
		FROM conversations
		WHERE id = ?`, id).
		Scan(&c.ID, &c.Title, &c.LastMessageAt, &c.UnreadCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// MarkRead zeroes the unread counter for a conversation. Idempotent;
// a missing conversation is a no-op, not an error.
func (db *DB) MarkRead(id int64) error {
	_, err := db.Exec(`UPDATE conversations SET unread_count = 0 WHERE id = ?`, id)
	return err
}

// CountConversations returns the total number of conversations.
func (db *DB) CountConversations() (int64, error) {
	var n int64
	err := db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&n)
	return n, err
}

// CountMessages returns the total number of messages.
func (db *DB) CountMessages() (int64, error) {
	var n int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n)
	return n, err
}
