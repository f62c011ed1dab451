// Package store persists finished rounds: the score ledger as a JSON file and
// round replays / ledger exports as Parquet.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/brensch/snekarcade/game"
)

// DefaultLedgerPath is where the ledger lives unless configured otherwise.
const DefaultLedgerPath = "snake_stats.json"

// Ledger is the ordered list of completed rounds. It is backed by a single
// JSON file holding an array of records; every save replaces the whole file
// via a temp file and rename.
//
// In-memory state only changes after the file has been written, so a failed
// save leaves the ledger as it was.
//
// Format: [{"player_name":..,"score":..,"mode":..,"difficulty":..,"duration":..}, ...]
type Ledger struct {
	mu      sync.RWMutex
	path    string
	records []game.RoundResult
}

// OpenLedger loads the ledger at path. A missing file is an empty ledger.
func OpenLedger(path string) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	l := &Ledger{path: path}
	if _, err := l.Load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Path() string { return l.path }

// Load re-reads the file, replacing the in-memory records, and returns a copy
// of them.
func (l *Ledger) Load() ([]game.RoundResult, error) {
	records, err := readLedgerFile(l.path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = records
	return cloneRecords(l.records), nil
}

// Append records a finished round. Rounds with no score and aborted rounds
// are skipped; appended reports whether the record was written.
func (l *Ledger) Append(result game.RoundResult, aborted bool) (appended bool, err error) {
	if aborted || result.Score <= 0 {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]game.RoundResult, len(l.records), len(l.records)+1)
	copy(next, l.records)
	next = append(next, result)
	if err := writeLedgerFile(l.path, next); err != nil {
		return false, err
	}
	l.records = next
	return true, nil
}

// Reset clears every record and persists the empty ledger immediately.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	empty := []game.RoundResult{}
	if err := writeLedgerFile(l.path, empty); err != nil {
		return err
	}
	l.records = empty
	return nil
}

// Records returns every record in insertion order.
func (l *Ledger) Records() []game.RoundResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneRecords(l.records)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Query returns the records whose mode equals mode, in insertion order.
func (l *Ledger) Query(mode game.GameMode) []game.RoundResult {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]game.RoundResult, 0, len(l.records))
	for _, r := range l.records {
		if r.Mode == mode {
			out = append(out, r)
		}
	}
	return out
}

// Page is Query with an offset/limit window. total is the number of matching
// records before windowing. A limit <= 0 means no limit.
func (l *Ledger) Page(mode game.GameMode, offset, limit int) (page []game.RoundResult, total int) {
	all := l.Query(mode)
	total = len(all)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []game.RoundResult{}, total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total
}

func readLedgerFile(path string) ([]game.RoundResult, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []game.RoundResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var records []game.RoundResult
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", path, err)
	}
	if records == nil {
		records = []game.RoundResult{}
	}
	return records, nil
}

func writeLedgerFile(path string, records []game.RoundResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	// Write to a temp file and rename atomically.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, b, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename ledger: %w", err)
	}
	return nil
}

func cloneRecords(in []game.RoundResult) []game.RoundResult {
	out := make([]game.RoundResult, len(in))
	copy(out, in)
	return out
}
