package persist

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// schema defines the kv slot table and the secondary metadata table.
const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
    store TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (store, key)
);
`

// DB is a SQLite-backed durable store serving both the KV and the
// MetadataStore contracts. Thread-safe.
type DB struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open creates or opens a database. Use ":memory:" for tests or a file path
// for persistent storage.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("persist: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// KV returns the key-value view of the database.
func (d *DB) KV() KV { return kvView{d} }

// Metadata returns the secondary structured-store view of the database.
func (d *DB) Metadata() MetadataStore { return metaView{d} }

type kvView struct{ d *DB }

func (v kvView) Get(key string) (string, bool, error) {
	v.d.mu.RLock()
	defer v.d.mu.RUnlock()

	var value string
	err := v.d.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("persist: get %q: %w", key, err)
	}
	return value, true, nil
}

func (v kvView) Set(key, value string) error {
	v.d.mu.Lock()
	defer v.d.mu.Unlock()

	_, err := v.d.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("persist: set %q: %w", key, err)
	}
	return nil
}

type metaView struct{ d *DB }

// Init is a no-op: the schema is created at Open.
func (v metaView) Init() error { return nil }

func (v metaView) Put(store, key, value string) error {
	v.d.mu.Lock()
	defer v.d.mu.Unlock()

	_, err := v.d.db.Exec(`
		INSERT INTO metadata (store, key, value) VALUES (?, ?, ?)
		ON CONFLICT(store, key) DO UPDATE SET value = excluded.value
	`, store, key, value)
	if err != nil {
		return fmt.Errorf("persist: put %s/%s: %w", store, key, err)
	}
	return nil
}

func (v metaView) Get(store, key string) (string, bool, error) {
	v.d.mu.RLock()
	defer v.d.mu.RUnlock()

	var value string
	err := v.d.db.QueryRow(
		`SELECT value FROM metadata WHERE store = ? AND key = ?`, store, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("persist: get %s/%s: %w", store, key, err)
	}
	return value, true, nil
}

// Compile-time interface checks
var (
	_ KV            = kvView{}
	_ MetadataStore = metaView{}
)
