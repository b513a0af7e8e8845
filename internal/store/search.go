package store

import "strings"

// Search result caps bound response size; hitting the cap is not
// signalled to the caller.
const (
	conversationSearchCap = 50
	globalSearchCap       = 100
)

// SearchInConversation returns messages in one conversation whose
// decoded body contains term case-insensitively, newest first, capped
// at 50. Matching happens on decoded bodies, so it stays correct when
// a real cipher replaces the identity one.
func (db *DB) SearchInConversation(conversationID int64, term string) ([]Message, error) {
	needle := strings.ToLower(term)

	rows, err := db.Query(`
		SELECT id, conversation_id, timestamp, sender, body
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp DESC, id DESC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var matches []Message
	for len(matches) < conversationSearchCap && rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Timestamp, &m.Sender, &m.Body); err != nil {
			return nil, err
		}
		m.Body = db.cipher.Decode(m.Body)
		if strings.Contains(strings.ToLower(m.Body), needle) {
			matches = append(matches, m)
		}
	}
	return matches, rows.Err()
}

// SearchGlobal returns messages whose decoded body, sender, or parent
// conversation title contains term case-insensitively, timestamp
// descending, capped at 100.
func (db *DB) SearchGlobal(term string) ([]GlobalSearchResult, error) {
	needle := strings.ToLower(term)

	rows, err := db.Query(`
		SELECT m.id, m.conversation_id, m.timestamp, m.sender, m.body, c.title
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		ORDER BY m.timestamp DESC, m.id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var matches []GlobalSearchResult
	for len(matches) < globalSearchCap && rows.Next() {
		var r GlobalSearchResult
		if err := rows.Scan(
			&r.Message.ID, &r.Message.ConversationID, &r.Message.Timestamp,
			&r.Message.Sender, &r.Message.Body, &r.ConversationTitle,
		); err != nil {
			return nil, err
		}
		r.Message.Body = db.cipher.Decode(r.Message.Body)
		if strings.Contains(strings.ToLower(r.Message.Body), needle) ||
			strings.Contains(strings.ToLower(r.Message.Sender), needle) ||
			strings.Contains(strings.ToLower(r.ConversationTitle), needle) {
			matches = append(matches, r)
		}
	}
	return matches, rows.Err()
}
