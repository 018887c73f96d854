package core

import "sync"

// Invoker is responsible for handling goroutines.
// Every goroutine of a node is spawned through its invoker, so
// closing the node can wait for all of them to finish.
type Invoker interface {
	// Spawn a new goroutine tracked by the invoker.
	// Returns false if the invoker is already stopped and
	// the function was not started.
	Spawn(func()) bool

	// Stop the invoker and blocks until every spawned
	// goroutine returns.
	Stop()
}

// GroupInvoker implements the Invoker interface with a wait group.
type GroupInvoker struct {
	// Use to synchronize if the invoker if open or not.
	mutex *sync.Mutex

	// Flag that tells if the invoker still available or not.
	working bool

	// Wait group to keep track of go routines.
	group *sync.WaitGroup
}

// NewInvoker creates an invoker ready to spawn.
func NewInvoker() Invoker {
	return &GroupInvoker{
		mutex:   &sync.Mutex{},
		working: true,
		group:   &sync.WaitGroup{},
	}
}

// Spawn implements the Invoker interface.
func (g *GroupInvoker) Spawn(f func()) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if !g.working {
		return false
	}

	g.group.Add(1)
	go func() {
		defer g.group.Done()
		f()
	}()
	return true
}

// Stop implements the Invoker interface.
func (g *GroupInvoker) Stop() {
	g.mutex.Lock()
	g.working = false
	g.mutex.Unlock()
	g.group.Wait()
}
