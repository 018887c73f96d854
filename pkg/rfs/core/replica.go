package core

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

// Replica is the local copy of the files, it applies writes
// exactly once for each distinct (file, data) pair.
//
// The same write can arrive more than once, the coordinator applies
// it locally and every peer receives a sync for it, and any retry can
// deliver a sync again. Every write is keyed by `file|data` and the
// append is skipped if the key was already applied.
type Replica struct {
	// Serializes the check, append and record sequence.
	mutex *sync.Mutex

	// Directory access.
	storage types.Storage

	// Keys already appended.
	applied Purgatory

	log hclog.Logger
}

// NewReplica creates the replica and prepares its directory.
func NewReplica(storage types.Storage, dedupSize int, log hclog.Logger) (*Replica, error) {
	if err := storage.Prepare(); err != nil {
		return nil, err
	}
	return &Replica{
		mutex:   &sync.Mutex{},
		storage: storage,
		applied: NewPurgatory(dedupSize),
		log:     log,
	}, nil
}

// Restore marks every line already present on disk as applied.
// Used when a server restarts on top of an existing directory.
func (r *Replica) Restore() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	files, err := r.storage.Files()
	if err != nil {
		return err
	}

	for _, file := range files {
		lines, err := r.storage.Read(file)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := r.applied.Set(types.WritePayload(file, line)); err != nil {
				return fmt.Errorf("failed restoring %s: %w", file, err)
			}
		}
	}
	r.log.Debug("replica restored", "files", len(files), "entries", r.applied.Size())
	return nil
}

// Apply appends the data into the file if this pair was never
// applied before. Returns true when the line was appended.
// If the append fails the pair is not recorded.
func (r *Replica) Apply(fileName, data string) (bool, error) {
	key := types.WritePayload(fileName, data)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.applied.Contains(key) {
		r.log.Debug("already appended, skipping", "file", fileName, "data", data)
		return false, nil
	}

	// Recorded before the append, a pair the purgatory can not hold
	// is never appended unguarded.
	if _, err := r.applied.Set(key); err != nil {
		return false, fmt.Errorf("failed recording %s: %w", fileName, err)
	}

	if err := r.storage.Append(fileName, data); err != nil {
		r.applied.Del(key)
		return false, err
	}
	r.log.Info("appended", "file", fileName, "data", data)
	return true, nil
}

// Exists verify if the file exists on this replica.
func (r *Replica) Exists(fileName string) bool {
	return r.storage.Exists(fileName)
}

// Read returns the file content, the lines joined by a line break.
// The boolean is false if the file does not exist.
func (r *Replica) Read(fileName string) (string, bool, error) {
	if !r.storage.Exists(fileName) {
		return "", false, nil
	}

	lines, err := r.storage.Read(fileName)
	if err != nil {
		return "", false, err
	}
	return strings.Join(lines, "\n"), true, nil
}
