package core

import (
	"sync"
	"testing"
)

func TestLamportClock_GroupTick(t *testing.T) {
	concurrentMembers := 50000
	clk := NewClock()

	wg := &sync.WaitGroup{}
	wg.Add(concurrentMembers)

	act := func() {
		defer wg.Done()
		clk.Tick()
	}

	for i := 0; i < concurrentMembers; i++ {
		go act()
	}

	wg.Wait()

	if clk.Tock() != uint64(concurrentMembers) {
		t.Fatalf("failed on concurrent increment %d: %d", concurrentMembers, clk.Tock())
	}
}

func TestLamportClock_Observe(t *testing.T) {
	clk := NewClock()
	if v := clk.Observe(10); v != 11 {
		t.Fatalf("expected 11 after observing 10, found %d", v)
	}

	if v := clk.Observe(3); v != 11 {
		t.Fatalf("observing an older time must not move the clock, found %d", v)
	}

	if v := clk.Tick(); v != 12 {
		t.Fatalf("expected 12 after tick, found %d", v)
	}
}

func TestLamportClock_ConcurrentObserveIsMonotonic(t *testing.T) {
	clk := NewClock()
	wg := &sync.WaitGroup{}
	members := 1000
	wg.Add(members)
	for i := 0; i < members; i++ {
		go func(remote uint64) {
			defer wg.Done()
			before := clk.Tock()
			after := clk.Observe(remote)
			if after < before || after < remote+1 {
				t.Errorf("clock moved backwards: before %d, remote %d, after %d", before, remote, after)
			}
		}(uint64(i))
	}
	wg.Wait()

	if clk.Tock() != uint64(members) {
		t.Fatalf("expected %d, found %d", members, clk.Tock())
	}
}
