// Package pagestore persists fetched pages as JSON documents on disk, one
// file per (foundation, URL) pair. Files are content-addressed by URL hash so
// refetching the same URL overwrites in place and reruns can skip work.
package pagestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/beehive-research/foundation-scout/internal/model"
)

// Store reads and writes fetched-page JSON under a root directory, laid out
// as <root>/<foundation_id>/<page_key>.json.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) path(foundationID, pageKey string) string {
	return filepath.Join(s.root, foundationID, pageKey+".json")
}

// Exists reports whether a page has already been fetched and saved.
func (s *Store) Exists(foundationID, pageKey string) bool {
	_, err := os.Stat(s.path(foundationID, pageKey))
	return err == nil
}

// Save writes the page JSON, creating the foundation directory as needed.
// The write goes through a temp file and rename so a crashed run never
// leaves a truncated document behind.
func (s *Store) Save(page model.FetchedPage) error {
	key := model.PageKey(page.URL)
	dir := filepath.Join(s.root, page.FoundationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "pagestore: mkdir")
	}

	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return eris.Wrap(err, "pagestore: marshal page")
	}

	tmp, err := os.CreateTemp(dir, key+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "pagestore: create temp")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrap(err, "pagestore: write temp")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "pagestore: close temp")
	}
	if err := os.Rename(tmp.Name(), s.path(page.FoundationID, key)); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "pagestore: rename")
	}
	return nil
}

// Load reads one page document. Returns os.ErrNotExist-wrapped errors for
// missing pages so callers can treat absence as a recordable outcome.
func (s *Store) Load(foundationID, pageKey string) (model.FetchedPage, error) {
	var page model.FetchedPage
	data, err := os.ReadFile(s.path(foundationID, pageKey))
	if err != nil {
		return page, eris.Wrap(err, "pagestore: read page")
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return page, eris.Wrap(err, "pagestore: unmarshal page")
	}
	return page, nil
}

// ListKeys returns the page keys saved for one foundation, sorted by name.
func (s *Store) ListKeys(foundationID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, foundationID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "pagestore: list pages")
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}
