// Package cache stores encoded programs in a SQLite database so the CLI
// can skip recompiling unchanged scripts.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var log = commonlog.GetLogger("mscript.cache")

const schema = `CREATE TABLE IF NOT EXISTS programs (
	key        TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       BLOB NOT NULL,
	created_at INTEGER NOT NULL
)`

// Cache is a compiled-program store keyed by source content.
type Cache struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init %s: %w", path, err)
	}
	log.Debugf("opened program cache %s", path)
	return &Cache{db: db, path: path}, nil
}

// Key derives the cache key of a program from its name, its source and
// anything else the compiled form depends on.
func Key(name, source string, extra ...string) string {
	h := sha256.New()
	for _, part := range append([]string{name, source}, extra...) {
		fmt.Fprintf(h, "%d:%s", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the stored encoding for key. A miss is not an error.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var data []byte
	err := c.db.QueryRow(`SELECT data FROM programs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debugf("cache miss %s", key)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	log.Debugf("cache hit %s", key)
	return data, true, nil
}

// Put stores data under key, replacing any previous entry.
func (c *Cache) Put(key, name string, data []byte) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO programs (key, name, data, created_at) VALUES (?, ?, ?, ?)`,
		key, name, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", name, err)
	}
	return nil
}

// Delete removes the entry for key, if any.
func (c *Cache) Delete(key string) error {
	if _, err := c.db.Exec(`DELETE FROM programs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache: delete %s: %w", key, err)
	}
	return nil
}

// Prune removes entries created before cutoff and reports how many.
func (c *Cache) Prune(cutoff time.Time) (int64, error) {
	result, err := c.db.Exec(`DELETE FROM programs WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("cache: prune: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache: prune: %w", err)
	}
	return n, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}
