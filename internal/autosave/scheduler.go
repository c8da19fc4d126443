// Package autosave batches dirty notes and flushes them to durable storage
// without blocking note mutations. The debounce/re-entrancy contract is an
// explicit state machine: Idle -> Scheduled -> Flushing -> (Idle | pending).
package autosave

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kittclouds/looseleaf/internal/persist"
	"github.com/kittclouds/looseleaf/internal/store"
)

// DefaultDebounce coalesces rapid edits into one flush.
const DefaultDebounce = 2 * time.Second

// State is the scheduler's lifecycle position.
type State int

const (
	// Idle: nothing to do.
	Idle State = iota
	// Scheduled: a flush is debounce-pending.
	Scheduled
	// Flushing: a flush is writing right now.
	Flushing
	// FlushingPending: a save request arrived mid-flush; one more flush
	// runs after the current one completes.
	FlushingPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Flushing:
		return "flushing"
	case FlushingPending:
		return "flushing+pending"
	}
	return "unknown"
}

// Source supplies the scheduler with snapshots to persist. The scheduler
// holds no authoritative note data of its own.
type Source interface {
	List() []*store.Note
	DirtyIDs() []string
	MarkClean(id string)
	Tags() []store.Tag
	Recents() []string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) { s.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler debounces save requests and writes consistent snapshots.
type Scheduler struct {
	kv       persist.KV
	src      Source
	debounce time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	state State
	timer *time.Timer

	// flushMu serializes flush bodies so writes to the shared storage keys
	// never interleave.
	flushMu sync.Mutex
}

// New creates a scheduler over the durable KV.
func New(kv persist.KV, src Source, opts ...Option) *Scheduler {
	s := &Scheduler{
		kv:       kv,
		src:      src,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle position.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Trigger requests a save. Repeated calls within the debounce window
// coalesce; a call during an in-flight flush defers one follow-up flush
// instead of running concurrently.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Idle:
		s.state = Scheduled
		s.timer = time.AfterFunc(s.debounce, s.onTimer)
	case Scheduled:
		s.timer.Reset(s.debounce)
	case Flushing:
		s.state = FlushingPending
	case FlushingPending:
		// already deferred
	}
}

// Stop cancels any pending flush timer. In-flight flushes finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.state == Scheduled {
		s.state = Idle
	}
}

// Flush writes immediately, bypassing the debounce. Used at shutdown.
// Save requests arriving mid-flush are absorbed by flushing again before
// returning, so the last in-memory state is durable when Flush returns.
// The returned error is a degraded-durability notice, never fatal: the
// in-memory state stays authoritative and usable.
func (s *Scheduler) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.state = Flushing
	s.mu.Unlock()

	for {
		err := s.flushOnce()

		s.mu.Lock()
		switch s.state {
		case FlushingPending:
			s.state = Flushing
			s.mu.Unlock()
			continue
		case Flushing:
			s.state = Idle
		}
		// Scheduled or Idle: another actor took over; its timer or flush
		// covers any state newer than our snapshot.
		s.mu.Unlock()
		return err
	}
}

func (s *Scheduler) onTimer() {
	s.mu.Lock()
	if s.state != Scheduled {
		s.mu.Unlock()
		return
	}
	s.state = Flushing
	s.mu.Unlock()

	if err := s.flushOnce(); err != nil {
		s.logger.Warn("autosave flush failed", "error", err)
	}

	s.mu.Lock()
	switch s.state {
	case FlushingPending:
		s.state = Scheduled
		s.timer = time.AfterFunc(s.debounce, s.onTimer)
	case Flushing:
		s.state = Idle
	}
	s.mu.Unlock()
}

// flushOnce writes one consistent snapshot: backup first, then the
// authoritative slot, rolling back to the backup if the second write fails.
func (s *Scheduler) flushOnce() error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	notes := s.src.List()
	dirty := s.src.DirtyIDs()

	payload, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("autosave: marshal notes: %w", err)
	}

	if err := s.kv.Set(persist.KeyBackup, string(payload)); err != nil {
		return fmt.Errorf("autosave: write backup: %w", err)
	}

	if err := s.kv.Set(persist.KeyNotes, string(payload)); err != nil {
		s.restoreBackup()
		return fmt.Errorf("autosave: write notes: %w", err)
	}

	for _, id := range dirty {
		s.src.MarkClean(id)
	}

	if tagsJSON, err := json.Marshal(s.src.Tags()); err == nil {
		if err := s.kv.Set(persist.KeyTags, string(tagsJSON)); err != nil {
			s.logger.Warn("autosave tag write failed", "error", err)
		}
	}
	if recentsJSON, err := json.Marshal(s.src.Recents()); err == nil {
		if err := s.kv.Set(persist.KeyRecents, string(recentsJSON)); err != nil {
			s.logger.Warn("autosave recents write failed", "error", err)
		}
	}

	return nil
}

// restoreBackup copies the backup slot into the authoritative slot after a
// failed write, best effort.
func (s *Scheduler) restoreBackup() {
	backup, found, err := s.kv.Get(persist.KeyBackup)
	if err != nil || !found {
		s.logger.Warn("autosave rollback skipped", "found", found, "error", err)
		return
	}
	if err := s.kv.Set(persist.KeyNotes, backup); err != nil {
		s.logger.Warn("autosave rollback failed", "error", err)
	}
}

// Load rehydrates a store from the durable slots: notes, tags, and recent
// views. Missing slots leave the store empty.
func Load(kv persist.KV, dst *store.NoteStore) error {
	if raw, found, err := kv.Get(persist.KeyNotes); err != nil {
		return fmt.Errorf("autosave: load notes: %w", err)
	} else if found && raw != "" {
		var notes []*store.Note
		if err := json.Unmarshal([]byte(raw), &notes); err != nil {
			return fmt.Errorf("autosave: decode notes: %w", err)
		}
		dst.SetAll(notes)
	}

	if raw, found, err := kv.Get(persist.KeyTags); err != nil {
		return fmt.Errorf("autosave: load tags: %w", err)
	} else if found && raw != "" {
		var tags []store.Tag
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return fmt.Errorf("autosave: decode tags: %w", err)
		}
		dst.SetTags(tags)
	}

	if raw, found, err := kv.Get(persist.KeyRecents); err != nil {
		return fmt.Errorf("autosave: load recents: %w", err)
	} else if found && raw != "" {
		var recents []string
		if err := json.Unmarshal([]byte(raw), &recents); err != nil {
			return fmt.Errorf("autosave: decode recents: %w", err)
		}
		dst.SetRecents(recents)
	}

	return nil
}
