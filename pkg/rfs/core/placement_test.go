package core

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlacement_DeterministicAndDistinct(t *testing.T) {
	names := []string{"s0", "s1", "s2", "s3", "s4", "s5", "s6"}
	p := Placement{Width: 3}

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("File%d.txt", i)
		placed := p.Place(id, names)
		if len(placed) != 3 {
			t.Fatalf("expected 3 servers for %s, found %v", id, placed)
		}

		if diff := cmp.Diff(placed, p.Place(id, names)); diff != "" {
			t.Fatalf("placement must be deterministic (-first +second):\n%s", diff)
		}

		seen := make(map[string]bool)
		for _, name := range placed {
			if seen[name] {
				t.Fatalf("duplicated server in %v", placed)
			}
			seen[name] = true
		}
	}
}

func TestPlacement_ConsecutiveSlots(t *testing.T) {
	names := []string{"s0", "s1", "s2", "s3", "s4"}
	placed := Placement{Width: 3}.Place("File3.txt", names)

	first := -1
	for i, name := range names {
		if name == placed[0] {
			first = i
		}
	}

	expected := []string{names[first], names[(first+1)%5], names[(first+2)%5]}
	if diff := cmp.Diff(expected, placed); diff != "" {
		t.Fatalf("slots must be consecutive (-want +got):\n%s", diff)
	}
}

func TestPlacement_WidthCappedByModulus(t *testing.T) {
	names := []string{"s0", "s1"}
	placed := Placement{Width: 3}.Place("File0.txt", names)
	if len(placed) != 2 || placed[0] == placed[1] {
		t.Fatalf("expected both distinct servers, found %v", placed)
	}

	placed = Placement{Width: 3, Modulus: 1}.Place("File0.txt", []string{"s0", "s1", "s2"})
	if diff := cmp.Diff([]string{"s0"}, placed); diff != "" {
		t.Fatalf("modulus 1 must place only the first server (-want +got):\n%s", diff)
	}

	if placed := (Placement{Width: 3}).Place("File0.txt", nil); len(placed) != 0 {
		t.Fatalf("no servers means no placement, found %v", placed)
	}
}
