package props

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
)

// Store is a flat string key-value store that outlives a single command.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// FileStore keeps properties in a TOML file. The file is re-read on every
// Get so that edits made by another process are picked up.
type FileStore struct {
	Filename string

	mu sync.Mutex
}

func NewFileStore(filename string) *FileStore {
	return &FileStore{Filename: filename}
}

func (f *FileStore) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		var parseErr *parseError
		if !errors.As(err, &parseErr) {
			return err
		}
		// An unreadable table must not block writes, or a reset could never
		// repair it.
		log.Warnf("rewriting unreadable property file: %v", err)
		values = map[string]string{}
	}
	values[key] = value
	return f.save(values)
}

type parseError struct {
	filename string
	err      error
}

func (e *parseError) Error() string { return fmt.Sprintf("parse %s: %v", e.filename, e.err) }
func (e *parseError) Unwrap() error { return e.err }

// Load the property table, a missing file is an empty table. Hand edited
// values that are not strings (workflow_state = 2) read as their text.
func (f *FileStore) load() (map[string]string, error) {
	values := map[string]string{}
	b, err := os.ReadFile(f.Filename)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, err
	}
	raw := map[string]interface{}{}
	if err := toml.Unmarshal(b, &raw); err != nil {
		return nil, &parseError{filename: f.Filename, err: err}
	}
	for k, v := range raw {
		values[k] = fmt.Sprint(v)
	}
	return values, nil
}

// Write the property table out in one step so a crash never leaves half a file.
func (f *FileStore) save(values map[string]string) error {
	b, err := toml.Marshal(values)
	if err != nil {
		return err
	}
	return atomic.WriteFile(f.Filename, bytes.NewReader(b))
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}
