package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
	"github.com/felixgeelhaar/ticklist/pkg/domain/events"
)

// DefaultDebounce is the write coalescing window. Rapid mutation bursts
// inside the window produce one physical write of the latest snapshot.
const DefaultDebounce = 2 * time.Second

// Engine sits between the mutation surface and the repository: Save is cheap
// and debounced, the snapshot is taken at call time so later mutations never
// leak into an in-flight write, and every physical write attempt emits a
// SaveCompleted event.
type Engine struct {
	repo       *FilesystemRepository
	dispatcher *events.Dispatcher
	logger     *slog.Logger
	interval   time.Duration
	now        func() time.Time

	mu         sync.Mutex
	pending    *checklist.ChecklistState
	pendingSeq uint64
	lastSeq    uint64
	timer      *time.Timer
	closed     bool

	// writeMu serializes physical writes; wroteSeq is the newest snapshot
	// sequence that reached disk, so a slow older write can never clobber a
	// newer one.
	writeMu  sync.Mutex
	wroteSeq uint64
}

// NewEngine creates a persistence engine. A zero interval selects the
// default debounce window.
func NewEngine(repo *FilesystemRepository, dispatcher *events.Dispatcher, logger *slog.Logger, interval time.Duration) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Engine{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		interval:   interval,
		now:        time.Now,
	}
}

// Save schedules a write of the given state. The snapshot is taken now; only
// the newest snapshot inside a debounce window reaches disk.
func (e *Engine) Save(st *checklist.ChecklistState) {
	snapshot := st.Clone()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		e.logger.Warn("save requested after engine close, dropped")
		return
	}
	e.pending = snapshot
	e.lastSeq++
	e.pendingSeq = e.lastSeq
	if e.timer == nil {
		e.timer = time.AfterFunc(e.interval, e.fire)
	} else {
		e.timer.Reset(e.interval)
	}
}

// SaveImmediate writes the given state synchronously, superseding any pending
// debounced snapshot.
func (e *Engine) SaveImmediate(st *checklist.ChecklistState) error {
	snapshot := st.Clone()

	e.mu.Lock()
	e.pending = nil
	if e.timer != nil {
		e.timer.Stop()
	}
	e.lastSeq++
	seq := e.lastSeq
	e.mu.Unlock()

	return e.write(snapshot, seq)
}

// Flush writes any pending snapshot synchronously. A no-op when nothing is
// pending.
func (e *Engine) Flush() error {
	e.mu.Lock()
	snapshot := e.pending
	seq := e.pendingSeq
	e.pending = nil
	if e.timer != nil {
		e.timer.Stop()
	}
	e.mu.Unlock()

	if snapshot == nil {
		return nil
	}
	return e.write(snapshot, seq)
}

// Close flushes pending work and refuses further saves.
func (e *Engine) Close() error {
	err := e.Flush()

	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return err
}

// fire runs on the debounce timer.
func (e *Engine) fire() {
	e.mu.Lock()
	snapshot := e.pending
	seq := e.pendingSeq
	e.pending = nil
	e.mu.Unlock()

	if snapshot == nil {
		return
	}
	if err := e.write(snapshot, seq); err != nil {
		e.logger.Error("debounced save failed", "error", err)

		// Keep the snapshot for another attempt unless a newer one arrived
		// in the meantime.
		e.mu.Lock()
		if e.pending == nil && !e.closed {
			e.pending = snapshot
			e.pendingSeq = seq
			e.timer.Reset(e.interval)
		}
		e.mu.Unlock()
	}
}

// write is the one path to disk. Writes are serialized, and a snapshot older
// than one already written is dropped: a debounce timer that fired just
// before a synchronous save must not land its stale snapshot last.
func (e *Engine) write(st *checklist.ChecklistState, seq uint64) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if seq <= e.wroteSeq {
		return nil
	}

	st.Version = checklist.CurrentVersion
	st.LastSaveTime = e.now().UTC()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		e.publishSave(fmt.Errorf("failed to marshal state: %w", err))
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	err = e.repo.WriteState(data)
	if err == nil {
		e.wroteSeq = seq
	}
	e.publishSave(err)
	return err
}

func (e *Engine) publishSave(err error) {
	if e.dispatcher == nil {
		return
	}
	if dispatchErr := e.dispatcher.Dispatch(context.Background(), events.NewSaveCompleted(err)); dispatchErr != nil {
		e.logger.Warn("save event handler failed", "error", dispatchErr)
	}
}

// LoadResult reports what the startup load found.
type LoadResult struct {
	State *checklist.ChecklistState
	// FirstRun is true when no state file existed yet.
	FirstRun bool
	// Recovered is true when the file was structurally corrupt and the
	// engine fell back to an empty default.
	Recovered bool
	// Repaired is true when the document loaded but invariants had to be
	// fixed up.
	Repaired bool
	// MigratedFrom is non-zero when the document was upgraded from an older
	// schema version.
	MigratedFrom int
}

// Load reads, validates, migrates and repairs the persisted state. It never
// fails: a missing file is a first run, and corruption or a read error logs,
// emits LoadCompleted(false) and starts over from an empty default, since a
// recoverable app beats a preserved broken file.
func (e *Engine) Load() (*LoadResult, error) {
	raw, err := e.repo.ReadState()
	if err != nil {
		if os.IsNotExist(err) {
			e.publishLoad(true, false)
			return &LoadResult{State: checklist.NewChecklistState(), FirstRun: true}, nil
		}
		return e.recover(err), nil
	}

	if err := validateDocument(raw); err != nil {
		return e.recover(err), nil
	}

	var st checklist.ChecklistState
	if err := json.Unmarshal(raw, &st); err != nil {
		return e.recover(fmt.Errorf("failed to unmarshal state: %w", err)), nil
	}

	result := &LoadResult{State: &st}

	from, err := migrateState(&st)
	if err != nil {
		return e.recover(err), nil
	}
	if from != checklist.CurrentVersion {
		result.MigratedFrom = from
		e.logger.Info("state migrated", "from", from, "to", checklist.CurrentVersion)
		e.publishMigrated(from)
	}

	result.Repaired = repairState(&st, e.now(), e.logger)
	e.publishLoad(true, result.Repaired)
	return result, nil
}

func (e *Engine) recover(cause error) *LoadResult {
	e.logger.Error("state file unusable, starting from defaults", "error", cause)
	e.publishLoad(false, false)
	return &LoadResult{State: checklist.NewChecklistState(), Recovered: true}
}

func (e *Engine) publishLoad(success, repaired bool) {
	if e.dispatcher == nil {
		return
	}
	if err := e.dispatcher.Dispatch(context.Background(), events.NewLoadCompleted(success, repaired)); err != nil {
		e.logger.Warn("load event handler failed", "error", err)
	}
}

func (e *Engine) publishMigrated(from int) {
	if e.dispatcher == nil {
		return
	}
	if err := e.dispatcher.Dispatch(context.Background(), events.NewStateMigrated(from, checklist.CurrentVersion)); err != nil {
		e.logger.Warn("migration event handler failed", "error", err)
	}
}
