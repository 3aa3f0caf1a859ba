package confirmations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"sleeve/internal/identification"
	"sleeve/internal/logging"
	"sleeve/internal/services"
)

// Entry is one user-confirmed identification.
type Entry struct {
	Fingerprint   string    `json:"fingerprint"`
	ReleaseID     string    `json:"release_id"`
	Barcode       string    `json:"barcode,omitempty"`
	CatalogNumber string    `json:"catalog_number,omitempty"`
	MatrixCode    string    `json:"matrix_code,omitempty"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

// NewEntry builds an entry for the normalized identifiers of a scan.
func NewEntry(ids identification.NormalizedIdentifiers, releaseID string) Entry {
	return Entry{
		Fingerprint:   identification.Fingerprint(ids),
		ReleaseID:     strings.TrimSpace(releaseID),
		Barcode:       ids.Barcode,
		CatalogNumber: ids.CatalogNumber,
		MatrixCode:    ids.MatrixCode,
		ConfirmedAt:   time.Now().UTC(),
	}
}

// Store provides thread-safe access to the confirmation file.
type Store struct {
	path    string
	lock    *flock.Flock
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
	loadErr error
}

// NewStore creates a store backed by path. If path is empty, the store is
// non-functional and every operation is a no-op. A file that cannot be read
// is logged and the store starts empty; lookups then report the load error.
func NewStore(path string, logger *slog.Logger) *Store {
	logger = logging.NewComponentLogger(logger, "confirmations")

	s := &Store{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}
	if path == "" {
		return s
	}
	s.lock = flock.New(path + ".lock")

	entries, err := readEntries(path)
	if err != nil {
		s.loadErr = err
		logging.WarnWithContext(logger, "failed to load confirmations", "confirmations_load_failed",
			logging.Error(err),
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "fix or delete the confirmations file"),
			logging.String(logging.FieldImpact, "previous confirmations are not reported"))
		return s
	}
	s.entries = entries
	logger.Debug("loaded confirmations",
		logging.Int("entry_count", len(entries)),
		logging.String("path", path))
	return s
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Lookup returns the entry for fingerprint if one exists.
func (s *Store) Lookup(fingerprint string) (Entry, bool) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" || s.path == "" {
		return Entry{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, found := s.entries[fingerprint]
	return entry, found
}

// ConfirmedRelease reports the confirmed release id for fingerprint.
func (s *Store) ConfirmedRelease(fingerprint string) (string, bool, error) {
	s.mu.RLock()
	loadErr := s.loadErr
	s.mu.RUnlock()
	if loadErr != nil {
		return "", false, loadErr
	}
	entry, ok := s.Lookup(fingerprint)
	return entry.ReleaseID, ok, nil
}

// Store adds or replaces the entry for its fingerprint and persists it.
func (s *Store) Store(entry Entry) error {
	entry.Fingerprint = strings.TrimSpace(entry.Fingerprint)
	entry.ReleaseID = strings.TrimSpace(entry.ReleaseID)
	if entry.Fingerprint == "" {
		return services.Wrap(services.ErrValidation, "confirmations", "store", "scan has no identifiers to confirm", nil)
	}
	if entry.ReleaseID == "" {
		return services.Wrap(services.ErrValidation, "confirmations", "store", "release id is empty", nil)
	}
	if entry.ConfirmedAt.IsZero() {
		entry.ConfirmedAt = time.Now().UTC()
	}
	if s.path == "" {
		return nil
	}

	err := s.mutate(func(entries map[string]Entry) error {
		entries[entry.Fingerprint] = entry
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("recorded confirmation",
		logging.String("fingerprint", entry.Fingerprint),
		logging.String("release_id", entry.ReleaseID))
	return nil
}

// Remove deletes the entry for fingerprint and persists the change.
func (s *Store) Remove(fingerprint string) error {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return services.Wrap(services.ErrValidation, "confirmations", "remove", "fingerprint is empty", nil)
	}
	if s.path == "" {
		return nil
	}

	err := s.mutate(func(entries map[string]Entry) error {
		if _, exists := entries[fingerprint]; !exists {
			return services.Wrap(services.ErrNotFound, "confirmations", "remove", fmt.Sprintf("fingerprint %q", fingerprint), nil)
		}
		delete(entries, fingerprint)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("removed confirmation", logging.String("fingerprint", fingerprint))
	return nil
}

// List returns all entries sorted by ConfirmedAt, newest first.
func (s *Store) List() []Entry {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedEntries(s.entries)
}

// Clear removes all entries and persists the empty store.
func (s *Store) Clear() error {
	if s.path == "" {
		return nil
	}
	err := s.mutate(func(entries map[string]Entry) error {
		clear(entries)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("cleared confirmations")
	return nil
}

// Count returns the number of entries.
func (s *Store) Count() int {
	if s.path == "" {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// mutate holds the file lock while it reloads the file, applies fn and
// writes the result, so concurrent processes never drop each other's entries.
func (s *Store) mutate(fn func(map[string]Entry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "confirmations", "lock", "create directory", err)
	}
	if err := s.lock.Lock(); err != nil {
		return services.Wrap(services.ErrStorage, "confirmations", "lock", s.lock.Path(), err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release confirmations lock", logging.Error(err))
		}
	}()

	entries, err := readEntries(s.path)
	if err != nil {
		return services.Wrap(services.ErrStorage, "confirmations", "reload", "", err)
	}
	if err := fn(entries); err != nil {
		return err
	}
	if err := writeEntries(s.path, entries); err != nil {
		return services.Wrap(services.ErrStorage, "confirmations", "persist", "", err)
	}
	s.entries = entries
	s.loadErr = nil
	return nil
}

func readEntries(path string) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("read confirmations file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return entries, nil
	}

	var list []Entry
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse confirmations file: %w", err)
	}
	for _, entry := range list {
		if strings.TrimSpace(entry.Fingerprint) != "" {
			entries[entry.Fingerprint] = entry
		}
	}
	return entries, nil
}

// writeEntries writes the file atomically via a temp file and rename.
func writeEntries(path string, entries map[string]Entry) error {
	data, err := json.MarshalIndent(sortedEntries(entries), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal confirmations: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func sortedEntries(entries map[string]Entry) []Entry {
	list := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ConfirmedAt.Equal(list[j].ConfirmedAt) {
			return list[i].ConfirmedAt.After(list[j].ConfirmedAt)
		}
		return list[i].Fingerprint < list[j].Fingerprint
	})
	return list
}
