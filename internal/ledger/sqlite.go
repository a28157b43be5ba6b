package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS seen_postings (
	key     TEXT PRIMARY KEY,
	board   TEXT NOT NULL DEFAULT '',
	url     TEXT NOT NULL DEFAULT '',
	seen_at TEXT NOT NULL
);`

// SQLite is a ledger durable across runs.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// sqlite typically wants a single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (l *SQLite) Seen(key string) (bool, error) {
	var one int
	err := l.db.QueryRow(`SELECT 1 FROM seen_postings WHERE key = ? LIMIT 1;`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return true, nil
}

func (l *SQLite) Mark(key, board, url string) error {
	_, err := l.db.Exec(`
INSERT OR IGNORE INTO seen_postings (key, board, url, seen_at)
VALUES (?, ?, ?, ?);`,
		key, board, url, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("ledger mark: %w", err)
	}
	return nil
}

func (l *SQLite) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
