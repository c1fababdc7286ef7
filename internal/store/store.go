// Package store persists one JSON report per company on the local
// filesystem, keyed by the normalized company name.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rahulsidpara/newslens/pkg/models"
)

// ErrNotFound is returned when no report exists for a company.
var ErrNotFound = errors.New("store: report not found")

// Store reads and writes company reports under a single directory. A save
// for an existing key overwrites the prior report.
type Store struct {
	dir string
	log *logrus.Logger
}

// New creates a report store rooted at dir.
func New(dir string, log *logrus.Logger) *Store {
	return &Store{dir: dir, log: log}
}

// NormalizeKey turns a display name into the canonical storage key:
// lower-cased, with spaces and path separators replaced by underscores.
// It is idempotent: NormalizeKey(NormalizeKey(s)) == NormalizeKey(s).
func NormalizeKey(name string) string {
	key := strings.ToLower(name)
	key = strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(key)
	return key
}

// Save writes the report as pretty-printed JSON, creating the directory if
// needed. The filename is derived from the report's Company field.
func (s *Store) Save(report *models.CompanyReport) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	key := NormalizeKey(report.Company)
	data, err := json.MarshalIndent(report, "", "    ")
	if err != nil {
		return fmt.Errorf("encode report %s: %w", key, err)
	}

	path := s.path(key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", key, err)
	}

	s.log.WithFields(logrus.Fields{
		"company": report.Company,
		"path":    path,
	}).Info("report saved")
	return nil
}

// Get loads the report for a company name or key. A missing report returns
// ErrNotFound; a present but unreadable one returns the underlying fault.
func (s *Store) Get(name string) (*models.CompanyReport, error) {
	key := NormalizeKey(name)

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read report %s: %w", key, err)
	}

	var report models.CompanyReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", key, err)
	}
	return &report, nil
}

// List returns the display names of all stored companies, sorted. Names are
// reconstructed from the storage keys (underscores back to spaces, words
// title-cased), so "acme_corp" lists as "Acme Corp".
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list reports: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		key := strings.TrimSuffix(entry.Name(), ".json")
		names = append(names, displayName(key))
	}

	sort.Strings(names)
	return names, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// displayName reverses NormalizeKey for presentation. The round trip is
// lossy for names that already contained underscores or mixed case.
func displayName(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
