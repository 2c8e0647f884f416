package batch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Store holds scratch inputs and finished pages. Keys are slash-separated
// paths relative to the store root, such as "normalized/normalized_x.jpg".
type Store interface {
	// Prepare makes sure dir exists and is writable.
	Prepare(dir string) error
	// Create opens key for writing, replacing any existing content. The
	// content becomes visible when the writer is closed.
	Create(key string) (io.WriteCloser, error)
	// Open opens key for reading. A missing key returns an error matching
	// fs.ErrNotExist.
	Open(key string) (io.ReadCloser, error)
	// Size returns the length of key in bytes.
	Size(key string) (int64, error)
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// URL returns the public address clients use to fetch key.
	URL(key string) string
}

// DiskStore is a Store rooted at a local directory.
type DiskStore struct {
	root      string
	urlPrefix string
}

// NewDiskStore returns a store writing under root. URLs are urlPrefix
// followed by the key, so a prefix of "/" yields "/normalized/...".
func NewDiskStore(root, urlPrefix string) *DiskStore {
	return &DiskStore{root: root, urlPrefix: urlPrefix}
}

// Root returns the directory the store writes under.
func (s *DiskStore) Root() string { return s.root }

// Path returns the filesystem path for key.
func (s *DiskStore) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *DiskStore) Prepare(dir string) error {
	if err := os.MkdirAll(s.Path(dir), 0o755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return nil
}

func (s *DiskStore) Create(key string) (io.WriteCloser, error) {
	f, err := os.Create(s.Path(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", key, err)
	}
	return f, nil
}

func (s *DiskStore) Open(key string) (io.ReadCloser, error) {
	return os.Open(s.Path(key))
}

func (s *DiskStore) Size(key string) (int64, error) {
	info, err := os.Stat(s.Path(key))
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", key)
	}
	return info.Size(), nil
}

func (s *DiskStore) Remove(key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *DiskStore) URL(key string) string {
	return s.urlPrefix + key
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu        sync.RWMutex
	files     map[string][]byte
	dirs      map[string]bool
	urlPrefix string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(urlPrefix string) *MemoryStore {
	return &MemoryStore{
		files:     make(map[string][]byte),
		dirs:      make(map[string]bool),
		urlPrefix: urlPrefix,
	}
}

func (s *MemoryStore) Prepare(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[path.Clean(dir)] = true
	return nil
}

func (s *MemoryStore) Create(key string) (io.WriteCloser, error) {
	s.mu.RLock()
	ok := s.dirs[path.Dir(key)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("failed to create %s: %w", key, fs.ErrNotExist)
	}
	return &memoryWriter{store: s, key: key}, nil
}

func (s *MemoryStore) Open(key string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.files[key]
	s.mu.RUnlock()
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: key, Err: fs.ErrNotExist}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Size(key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[key]
	if !ok {
		return 0, &fs.PathError{Op: "stat", Path: key, Err: fs.ErrNotExist}
	}
	return int64(len(data)), nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

func (s *MemoryStore) URL(key string) string {
	return s.urlPrefix + key
}

// Keys lists the stored keys with the given prefix, sorted.
func (s *MemoryStore) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.files {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Bytes returns a copy of the content stored at key.
func (s *MemoryStore) Bytes(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(data), true
}

type memoryWriter struct {
	store  *MemoryStore
	key    string
	buf    bytes.Buffer
	closed bool
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fs.ErrClosed
	}
	return w.buf.Write(p)
}

func (w *memoryWriter) Close() error {
	if w.closed {
		return fs.ErrClosed
	}
	w.closed = true
	w.store.mu.Lock()
	w.store.files[w.key] = w.buf.Bytes()
	w.store.mu.Unlock()
	return nil
}
