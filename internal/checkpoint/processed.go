// Package checkpoint provides the durable processed-unit log that makes the
// long-running extraction and classification stages resumable. A killed run
// loses at most the in-flight unit of work.
package checkpoint

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ProcessedSet tracks which unit identifiers have already been handled.
// Record must be durable before it returns: a caller that proceeds past
// Record can assume the marker survives a crash. The set is never pruned;
// growth is monotonic for the life of a run-set.
type ProcessedSet interface {
	Contains(id string) bool
	Record(id string) error
	Len() int
	Close() error
}

// fileSet is an append-only line-per-id log. Each Record appends and fsyncs
// before acknowledging.
type fileSet struct {
	path string
	f    *os.File
	seen map[string]bool
}

// OpenFileSet opens (or creates) a processed log at path and loads all
// previously recorded ids.
func OpenFileSet(path string) (ProcessedSet, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrap(err, "checkpoint: create dir")
	}

	seen := make(map[string]bool)
	if data, err := os.ReadFile(path); err == nil {
		sc := bufio.NewScanner(strings.NewReader(string(data)))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" {
				seen[line] = true
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "checkpoint: read log")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrap(err, "checkpoint: open log")
	}

	return &fileSet{path: path, f: f, seen: seen}, nil
}

func (s *fileSet) Contains(id string) bool {
	return s.seen[id]
}

func (s *fileSet) Record(id string) error {
	if s.seen[id] {
		return nil
	}
	if _, err := s.f.WriteString(id + "\n"); err != nil {
		return eris.Wrapf(err, "checkpoint: append %s", id)
	}
	if err := s.f.Sync(); err != nil {
		return eris.Wrap(err, "checkpoint: sync")
	}
	s.seen[id] = true
	return nil
}

func (s *fileSet) Len() int {
	return len(s.seen)
}

func (s *fileSet) Close() error {
	return s.f.Close()
}

// MemorySet is an in-memory ProcessedSet for tests and dry runs.
type MemorySet struct {
	seen map[string]bool
}

// NewMemorySet returns an empty in-memory set.
func NewMemorySet() *MemorySet {
	return &MemorySet{seen: make(map[string]bool)}
}

func (s *MemorySet) Contains(id string) bool { return s.seen[id] }

func (s *MemorySet) Record(id string) error {
	s.seen[id] = true
	return nil
}

func (s *MemorySet) Len() int { return len(s.seen) }

func (s *MemorySet) Close() error { return nil }
