package core

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jabolina/go-rfs/pkg/rfs/definition"
)

func TestReplica_ApplyIsIdempotent(t *testing.T) {
	storage := definition.NewInMemoryStorage()
	replica, err := NewReplica(storage, 0, testLogger(t))
	if err != nil {
		t.Fatalf("failed creating replica. %v", err)
	}

	for i := 0; i < 3; i++ {
		applied, err := replica.Apply("File1.txt", "client0 message #1")
		if err != nil {
			t.Fatalf("failed applying. %v", err)
		}

		if applied != (i == 0) {
			t.Fatalf("only the first apply should append, attempt %d returned %v", i, applied)
		}
	}

	content, ok, err := replica.Read("File1.txt")
	if err != nil || !ok {
		t.Fatalf("file should exist. %v", err)
	}

	if content != "client0 message #1" {
		t.Fatalf("wrong content %q", content)
	}
}

func TestReplica_ConcurrentApplyAppendsOnce(t *testing.T) {
	storage := definition.NewInMemoryStorage()
	replica, err := NewReplica(storage, 0, testLogger(t))
	if err != nil {
		t.Fatalf("failed creating replica. %v", err)
	}

	wg := &sync.WaitGroup{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := replica.Apply("File0.txt", fmt.Sprintf("line %d", i%10)); err != nil {
				t.Errorf("failed applying. %v", err)
			}
		}(i)
	}
	wg.Wait()

	lines, err := storage.Read("File0.txt")
	if err != nil {
		t.Fatalf("failed reading. %v", err)
	}

	if len(lines) != 10 {
		t.Fatalf("expected 10 distinct lines, found %d: %v", len(lines), lines)
	}
}

func TestReplica_ReadMissingFile(t *testing.T) {
	replica, err := NewReplica(definition.NewInMemoryStorage(), 0, testLogger(t))
	if err != nil {
		t.Fatalf("failed creating replica. %v", err)
	}

	if replica.Exists("nope.txt") {
		t.Fatalf("file should not exist")
	}

	if _, ok, err := replica.Read("nope.txt"); ok || err != nil {
		t.Fatalf("missing file should not be found. %v", err)
	}
}

func TestReplica_RestoreFromDisk(t *testing.T) {
	directory := t.TempDir()
	first, err := NewReplica(definition.NewFileStorage(directory), 0, testLogger(t))
	if err != nil {
		t.Fatalf("failed creating replica. %v", err)
	}

	if _, err := first.Apply("File2.txt", "a"); err != nil {
		t.Fatalf("failed applying. %v", err)
	}

	if _, err := first.Apply("File2.txt", "b"); err != nil {
		t.Fatalf("failed applying. %v", err)
	}

	second, err := NewReplica(definition.NewFileStorage(directory), 0, testLogger(t))
	if err != nil {
		t.Fatalf("failed creating replica. %v", err)
	}

	if err := second.Restore(); err != nil {
		t.Fatalf("failed restoring. %v", err)
	}

	applied, err := second.Apply("File2.txt", "a")
	if err != nil {
		t.Fatalf("failed applying. %v", err)
	}

	if applied {
		t.Fatalf("restored line must not be appended again")
	}

	content, _, err := second.Read("File2.txt")
	if err != nil {
		t.Fatalf("failed reading. %v", err)
	}

	if content != "a\nb" {
		t.Fatalf("wrong content %q", content)
	}
}

func TestReplica_LargeLinesAppendOnce(t *testing.T) {
	storage := definition.NewInMemoryStorage()
	replica, err := NewReplica(storage, 0, testLogger(t))
	if err != nil {
		t.Fatalf("failed creating replica. %v", err)
	}

	// Leaves room for the message header inside a frame.
	sizes := []int{10 * 1024, 100 * 1024, MaxFrameSize - 512}
	for _, size := range sizes {
		data := strings.Repeat("x", size)
		for i := 0; i < 3; i++ {
			applied, err := replica.Apply("File0.txt", data)
			if err != nil {
				t.Fatalf("failed applying %d bytes. %v", size, err)
			}

			if applied != (i == 0) {
				t.Fatalf("line of %d bytes, attempt %d returned %v", size, i, applied)
			}
		}
	}

	lines, err := storage.Read("File0.txt")
	if err != nil {
		t.Fatalf("failed reading. %v", err)
	}

	if len(lines) != len(sizes) {
		t.Fatalf("expected %d lines, found %d", len(sizes), len(lines))
	}
}

func TestReplica_RestoreLargeLine(t *testing.T) {
	directory := t.TempDir()
	data := strings.Repeat("y", 16*1024)

	first, err := NewReplica(definition.NewFileStorage(directory), 0, testLogger(t))
	if err != nil {
		t.Fatalf("failed creating replica. %v", err)
	}

	if _, err := first.Apply("File3.txt", data); err != nil {
		t.Fatalf("failed applying. %v", err)
	}

	second, err := NewReplica(definition.NewFileStorage(directory), 0, testLogger(t))
	if err != nil {
		t.Fatalf("failed creating replica. %v", err)
	}

	if err := second.Restore(); err != nil {
		t.Fatalf("failed restoring. %v", err)
	}

	applied, err := second.Apply("File3.txt", data)
	if err != nil {
		t.Fatalf("failed applying. %v", err)
	}

	if applied {
		t.Fatalf("restored large line must not be appended again")
	}

	content, _, err := second.Read("File3.txt")
	if err != nil {
		t.Fatalf("failed reading. %v", err)
	}

	if content != data {
		t.Fatalf("expected a single line of %d bytes, found %d bytes", len(data), len(content))
	}
}
