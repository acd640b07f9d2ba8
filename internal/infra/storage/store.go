// Package storage keeps the bot's whole state (accounts + events) in
// memory, mirrored to a single JSON file. Every mutating method persists
// before it returns, so a crash never loses an acknowledged change, and
// every mutation runs under one lock acquisition, which is the critical
// section the single-active-challenge check-and-set relies on.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/wiseoldpea/events-bot/internal/domain"
)

const (
	dataFileName = "wise_old_pea_data.json"
	backupDir    = "backups"
	backupLayout = "20060102T150405"
)

var ErrNotFound = errors.New("not found")

type snapshot struct {
	Accounts map[string]*domain.Account `json:"accounts"`
	Events   map[string]*domain.Event   `json:"events"`
}

type Store struct {
	mu  sync.Mutex
	log *slog.Logger

	dir        string
	backupKeep int

	accounts map[string]*domain.Account
	events   map[string]*domain.Event
}

// Open loads the data file from dir, creating the directory if needed.
// A missing file starts an empty store; a corrupt file is logged and the
// newest timestamped backup is tried before giving up and starting empty.
func Open(dir string, backupKeep int, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Join(dir, backupDir), 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}

	s := &Store{
		log:        log,
		dir:        dir,
		backupKeep: backupKeep,
		accounts:   map[string]*domain.Account{},
		events:     map[string]*domain.Event{},
	}
	s.load()
	return s, nil
}

func (s *Store) dataFile() string { return filepath.Join(s.dir, dataFileName) }

func (s *Store) load() {
	raw, err := os.ReadFile(s.dataFile())
	if errors.Is(err, os.ErrNotExist) {
		s.log.Warn("data file not found, starting empty", "file", s.dataFile())
		return
	}
	if err == nil && s.restore(raw) == nil {
		s.log.Info("database loaded", "accounts", len(s.accounts), "events", len(s.events))
		return
	}
	s.log.Error("data file unreadable, trying latest backup", "file", s.dataFile(), "err", err)

	for _, backup := range s.backupsNewestFirst() {
		raw, err := os.ReadFile(backup)
		if err != nil {
			continue
		}
		if err := s.restore(raw); err == nil {
			s.log.Info("restored from backup", "backup", backup)
			return
		}
	}
	s.log.Error("no usable backup, starting empty")
	s.accounts = map[string]*domain.Account{}
	s.events = map[string]*domain.Event{}
}

func (s *Store) restore(raw []byte) error {
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return err
	}
	if snap.Accounts == nil {
		snap.Accounts = map[string]*domain.Account{}
	}
	if snap.Events == nil {
		snap.Events = map[string]*domain.Event{}
	}
	s.accounts = snap.Accounts
	s.events = snap.Events
	return nil
}

// save flushes the current state. Callers hold the lock. Failures are
// logged, not propagated: a broken disk must not take the event down
// with it (the in-memory state stays authoritative).
func (s *Store) save() {
	raw, err := json.MarshalIndent(snapshot{Accounts: s.accounts, Events: s.events}, "", "  ")
	if err != nil {
		s.log.Error("marshal database", "err", err)
		return
	}
	tmp := s.dataFile() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		s.log.Error("write database", "err", err)
		return
	}
	if err := os.Rename(tmp, s.dataFile()); err != nil {
		s.log.Error("replace database", "err", err)
	}
}

// Backup copies the current state into a timestamped file under
// data/backups. Run periodically from the scheduler.
func (s *Store) Backup(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(snapshot{Accounts: s.accounts, Events: s.events}, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal backup: %w", err)
	}
	name := filepath.Join(s.dir, backupDir, "wise_old_pea_data-"+now.UTC().Format(backupLayout)+".json")
	if err := os.WriteFile(name, raw, 0o644); err != nil {
		return fmt.Errorf("storage: write backup: %w", err)
	}
	s.pruneBackups()
	return nil
}

// pruneBackups drops the oldest backups beyond the retention count.
// Callers hold the lock.
func (s *Store) pruneBackups() {
	if s.backupKeep <= 0 {
		return
	}
	backups := s.backupsNewestFirst()
	for _, old := range backups[minInt(s.backupKeep, len(backups)):] {
		if err := os.Remove(old); err != nil {
			s.log.Warn("remove old backup", "backup", old, "err", err)
		}
	}
}

func (s *Store) backupsNewestFirst() []string {
	matches, _ := filepath.Glob(filepath.Join(s.dir, backupDir, "wise_old_pea_data-*.json"))
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
