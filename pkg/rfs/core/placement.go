package core

import (
	"hash/fnv"
)

// Placement chooses which servers hold a file.
//
// The first slot comes from hashing the file name and the next
// ones are the consecutive slots, wrapping around the modulus.
// The servers are indexed in configuration order, so every
// client with the same configuration agrees on the set.
type Placement struct {
	// How many servers hold each file.
	Width int

	// Number of slots, zero means one slot per server.
	Modulus int
}

// Place returns the names of the servers responsible for the file.
// The returned names are distinct.
func (p Placement) Place(id string, names []string) []string {
	modulus := p.Modulus
	if modulus <= 0 || modulus > len(names) {
		modulus = len(names)
	}
	if modulus == 0 {
		return nil
	}

	width := p.Width
	if width > modulus {
		width = modulus
	}

	first := int(hashOf(id) % uint32(modulus))
	placed := make([]string, 0, width)
	for i := 0; i < width; i++ {
		placed = append(placed, names[(first+i)%modulus])
	}
	return placed
}

func hashOf(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32()
}
