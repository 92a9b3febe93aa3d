package cache

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DefaultDir is the cache directory used when none is configured
const DefaultDir = "cache"

// Key derives the storage key for a request identifier. The digest only
// namespaces entries, it is not a security boundary.
func Key(id string) string {
	sum := md5.Sum([]byte(id))
	return hex.EncodeToString(sum[:])
}

// Entry describes a single cached response
type Entry struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Store is a flat-file cache with one file per key. Entries never expire.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

// Dir returns the directory the store writes to
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key)
}

// Get returns the stored bytes for key. ok is false when nothing is stored.
func (s *Store) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	return data, true, nil
}

// Put stores data under key. The bytes are written to a temp file and
// renamed into place so an existing entry is never left half-written.
func (s *Store) Put(key string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache entry %s: %w", key, err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storing cache entry %s: %w", key, err)
	}

	return nil
}

// Entries lists stored entries, newest first. A missing directory is empty.
func (s *Store) Entries() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || de.Name()[0] == '.' {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("stat cache entry %s: %w", de.Name(), err)
		}
		entries = append(entries, Entry{
			Key:     de.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModTime.After(entries[j].ModTime)
	})

	return entries, nil
}

// Clear removes every entry and returns how many were removed
func (s *Store) Clear() (int, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}

	for i, e := range entries {
		if err := os.Remove(s.path(e.Key)); err != nil {
			return i, fmt.Errorf("removing cache entry %s: %w", e.Key, err)
		}
	}

	return len(entries), nil
}
