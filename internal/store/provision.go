package store

import (
	"fmt"
	"math/rand"
	"time"
)

// TitleGenerator produces the display title for the i-th seeded
// conversation.
type TitleGenerator func(i int) string

// Content pools for seeded messages.
var (
	seedSenders = []string{
		"Alice", "Bruno", "Carla", "Diego", "Elena", "Felipe", "Gabi", "Henrique",
	}
	seedBodies = []string{
		"hey, are you around?",
		"did you see the game last night?",
		"lunch tomorrow?",
		"sent you the file, let me know",
		"running a bit late, sorry",
		"that worked, thanks!",
		"can you call me when you're free?",
		"haha no way",
		"meeting moved to 3pm",
		"happy birthday!!",
	}
)

// Provision bulk-creates conversations and messages spread
// pseudo-randomly across the trailing time window, then back-fills each
// conversation's last_message_at to its true newest message timestamp
// and seeds a random non-negative unread count. Idempotent at the
// collection level: if any conversation already exists it returns
// immediately without creating anything.
func (db *DB) Provision(titles TitleGenerator, conversations, messages int, window time.Duration) error {
	if conversations <= 0 {
		return fmt.Errorf("provision: conversation count must be positive, got %d", conversations)
	}
	if window < 0 {
		window = 0
	}

	existing, err := db.CountConversations()
	if err != nil {
		return fmt.Errorf("count conversations: %w", err)
	}
	if existing > 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	start := now - window.Milliseconds()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin provision: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, 0, conversations)
	for i := 0; i < conversations; i++ {
		res, err := tx.Exec(`
			INSERT INTO conversations (title, last_message_at, unread_count, created_at)
			VALUES (?, 0, ?, ?)`,
			titles(i), rand.Intn(8), now)
		if err != nil {
			return fmt.Errorf("seed conversation %d: %w", i, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("seed conversation %d id: %w", i, err)
		}
		ids = append(ids, id)
	}

	for i := 0; i < messages; i++ {
		convID := ids[rand.Intn(len(ids))]
		ts := start + rand.Int63n(window.Milliseconds()+1)
		sender := seedSenders[rand.Intn(len(seedSenders))]
		body := seedBodies[rand.Intn(len(seedBodies))]
		if _, err := tx.Exec(`
			INSERT INTO messages (conversation_id, timestamp, sender, body, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			convID, ts, sender, db.cipher.Encode(body), now); err != nil {
			return fmt.Errorf("seed message %d: %w", i, err)
		}
	}

	// Back-fill recency to the true newest message per conversation.
	if _, err := tx.Exec(`
		UPDATE conversations
		SET last_message_at = COALESCE(
			(SELECT MAX(timestamp) FROM messages WHERE conversation_id = conversations.id),
			last_message_at)`); err != nil {
		return fmt.Errorf("backfill last_message_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit provision: %w", err)
	}
	return nil
}
