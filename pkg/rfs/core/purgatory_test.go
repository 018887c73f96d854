package core

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

// Will concurrently add values to the purgatory.
// Then will verify that all added values are present and if
// they are added again, will return `false`.
func TestPurgatory_ShouldConcurrentlySet(t *testing.T) {
	defer goleak.VerifyNone(t)
	wg := &sync.WaitGroup{}
	testSize := 50
	var ids []string

	c := NewPurgatory(0)

	insert := func(id string) {
		defer wg.Done()
		if added, err := c.Set(id); !added || err != nil {
			t.Errorf("failed setting %s. %v", id, err)
		}
	}

	wg.Add(testSize)
	for i := 0; i < testSize; i++ {
		id := fmt.Sprintf("File%d.txt|client message #%d", i%7, i)
		ids = append(ids, id)
		go insert(id)
	}

	wg.Wait()

	for _, id := range ids {
		if !c.Contains(id) {
			t.Errorf("should contains %s", id)
		}

		if added, _ := c.Set(id); added {
			t.Errorf("value was added late. %s", id)
		}
	}

	if c.Size() != int64(testSize) {
		t.Errorf("expected %d entries, found %d", testSize, c.Size())
	}
}

// Keys are far larger than the cache accepts for a single entry,
// they must still be recorded and found.
func TestPurgatory_LargeKeys(t *testing.T) {
	c := NewPurgatory(0)

	for _, size := range []int{10 * 1024, 70 * 1024, MaxFrameSize} {
		key := "File0.txt|" + strings.Repeat("x", size)
		added, err := c.Set(key)
		if err != nil || !added {
			t.Fatalf("failed setting key of %d bytes. %v", size, err)
		}

		if !c.Contains(key) {
			t.Fatalf("key of %d bytes should be present", size)
		}

		if added, _ := c.Set(key); added {
			t.Fatalf("key of %d bytes was added twice", size)
		}
	}

	if !c.Del("File0.txt|" + strings.Repeat("x", MaxFrameSize)) {
		t.Fatalf("should delete existing key")
	}

	if c.Contains("File0.txt|" + strings.Repeat("x", MaxFrameSize)) {
		t.Fatalf("deleted key should not be present")
	}
}
