package rerank

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/osusume/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Cache persists relevance-scoring output keyed by the content of the
// request, so repeating a query over an unchanged candidate set skips the
// upstream call entirely.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if needed) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS rerank_cache (
		key        TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// CacheKey derives a content-addressed key from the query pair and the
// candidate identity set. Any change to the query, the rewrite, or the
// candidate list (including order) produces a different key.
func CacheKey(query, rewritten string, urls []string) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(rewritten))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(urls, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached ranking for key, or false when absent.
func (c *Cache) Get(key string) ([]models.RerankedItem, bool) {
	var payload []byte
	err := c.db.QueryRow(`SELECT payload FROM rerank_cache WHERE key = ?`, key).Scan(&payload)
	if err != nil {
		return nil, false
	}
	var items []models.RerankedItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, false
	}
	return items, true
}

// Put stores a ranking under key, replacing any previous entry.
func (c *Cache) Put(key string, items []models.RerankedItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO rerank_cache (key, payload, created_at) VALUES (?, ?, ?)`,
		key, payload, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
