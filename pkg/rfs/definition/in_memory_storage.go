package definition

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

var _ types.Storage = (*InMemoryStorage)(nil)

// InMemoryStorage provides a basic implementation of the Storage
// interface that will use only the memory, nothing survives the
// process.
type InMemoryStorage struct {
	// Mutex for operations executions
	mutex *sync.Mutex

	// File name to lines.
	files map[string][]string
}

// NewInMemoryStorage creates a new storage using memory only.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		mutex: &sync.Mutex{},
		files: make(map[string][]string),
	}
}

// Prepare implements the Storage interface.
func (s *InMemoryStorage) Prepare() error {
	return nil
}

// Exists implements the Storage interface.
func (s *InMemoryStorage) Exists(fileName string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, ok := s.files[fileName]
	return ok
}

// Read implements the Storage interface.
// On this implementation if the file was not found, an error will be returned.
func (s *InMemoryStorage) Read(fileName string) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	lines, ok := s.files[fileName]
	if !ok {
		return nil, fmt.Errorf("%s: %w", fileName, os.ErrNotExist)
	}
	return append([]string(nil), lines...), nil
}

// Append implements the Storage interface.
func (s *InMemoryStorage) Append(fileName, line string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.files[fileName] = append(s.files[fileName], line)
	return nil
}

// Files implements the Storage interface.
func (s *InMemoryStorage) Files() ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
