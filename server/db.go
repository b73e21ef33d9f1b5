package server

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// sqliteOptions are applied to every connection. Write transactions take
// the write lock at BEGIN so a concurrent writer waits on busy_timeout
// instead of failing on commit.
const sqliteOptions = "_pragma=foreign_keys(1)&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_txlock=immediate"

// OpenDB opens and pings the SQLite database at path.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?"+sqliteOptions)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database %s: %w", path, err)
	}
	return db, nil
}
