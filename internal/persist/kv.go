// Package persist provides the durable storage adapters: a key-value store
// for the note collection and its backup snapshot, plus a secondary
// structured store for UI state and per-note metadata.
package persist

// Well-known keys in the durable key-value store.
const (
	KeyNotes   = "looseleaf.notes"
	KeyTags    = "looseleaf.tags"
	KeyRecents = "looseleaf.recents"
	KeyBackup  = "looseleaf.notes.backup"
	KeyAPIKey  = "looseleaf.credentials.genai"
)

// KV is the durable key-value contract. Get reports found=false for a
// missing key without error.
type KV interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
}

// MetadataStore is the secondary structured store: keyed lookups grouped
// into named sub-stores.
type MetadataStore interface {
	Init() error
	Put(store, key, value string) error
	Get(store, key string) (value string, found bool, err error)
}
