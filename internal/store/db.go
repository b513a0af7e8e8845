package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a SQLite database connection for the app-owned ripple.db.
// All message bodies pass through the injected Cipher on their way in
// and out of the database.
type DB struct {
	*sql.DB
	cipher Cipher
}

// Open creates a new SQLite connection with WAL mode and recommended
// pragmas. Transactions start immediate so concurrent writers queue on
// the busy timeout instead of failing on lock upgrade.
func Open(path string, cipher Cipher) (*DB, error) {
	if cipher == nil {
		cipher = IdentityCipher()
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Verify connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{DB: db, cipher: cipher}, nil
}
