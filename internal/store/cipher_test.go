package store

import (
	"strings"
	"testing"
)

// prefixCipher is a trivially reversible stand-in for a real cipher.
type prefixCipher struct{}

func (prefixCipher) Encode(plaintext string) string { return "enc:" + plaintext }
func (prefixCipher) Decode(stored string) string    { return strings.TrimPrefix(stored, "enc:") }

func TestCipherAppliedOnWriteAndRead(t *testing.T) {
	db := testDBWithCipher(t, prefixCipher{})
	conv := seedConversation(t, db, "Sealed")

	if _, err := db.Absorb(conv, 1000, "Alice", "top secret"); err != nil {
		t.Fatal(err)
	}

	// The raw column holds the stored form.
	var raw string
	if err := db.QueryRow(`SELECT body FROM messages WHERE conversation_id = ?`, conv).Scan(&raw); err != nil {
		t.Fatal(err)
	}
	if raw != "enc:top secret" {
		t.Errorf("stored body = %q, want %q", raw, "enc:top secret")
	}

	// Every read path returns plaintext.
	msgs, err := db.ListMessages(conv, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Body != "top secret" {
		t.Errorf("ListMessages body = %+v, want decoded plaintext", msgs)
	}

	found, err := db.SearchInConversation(conv, "SECRET")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Errorf("search over decoded bodies found %d, want 1", len(found))
	}

	global, err := db.SearchGlobal("secret")
	if err != nil {
		t.Fatal(err)
	}
	if len(global) != 1 || global[0].Message.Body != "top secret" {
		t.Errorf("SearchGlobal = %+v, want decoded match", global)
	}
}
