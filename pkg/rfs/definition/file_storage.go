package definition

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"

	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

// FileStorage keeps every file as a plain text file inside a single
// directory, one appended line for each write.
type FileStorage struct {
	// Directory holding the files.
	directory string

	// Serializes appends to the same directory.
	mutex *sync.Mutex
}

// NewFileStorage creates the storage for the directory. The
// directory is created only by Prepare.
func NewFileStorage(directory string) types.Storage {
	return &FileStorage{
		directory: directory,
		mutex:     &sync.Mutex{},
	}
}

func (f *FileStorage) path(fileName string) string {
	return filepath.Join(f.directory, filepath.Base(fileName))
}

// Prepare implements the Storage interface.
func (f *FileStorage) Prepare() error {
	return os.MkdirAll(f.directory, 0755)
}

// Exists implements the Storage interface.
func (f *FileStorage) Exists(fileName string) bool {
	info, err := os.Stat(f.path(fileName))
	return err == nil && !info.IsDir()
}

// Read implements the Storage interface.
func (f *FileStorage) Read(fileName string) ([]string, error) {
	file, err := os.Open(f.path(fileName))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 2<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Append implements the Storage interface.
func (f *FileStorage) Append(fileName, line string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	file, err := os.OpenFile(f.path(fileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err := file.WriteString(line + "\n"); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Files implements the Storage interface.
func (f *FileStorage) Files() ([]string, error) {
	entries, err := os.ReadDir(f.directory)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
