package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jabolina/go-rfs/pkg/rfs/types"
	"github.com/wangjia184/sortedset"
)

// RequestQueue holds the acquire requests and responses a server knows
// about. Internally a sorted set is used, scored by the Lamport
// timestamp and keyed by the pair (sender, timestamp). Using this
// approach the pair is unique inside the queue and the head is always
// the candidate for the next critical session.
//
// Elements are never popped by completion, they are only removed
// explicitly through a predicate, since being in the queue is
// protocol state.
type RequestQueue struct {
	// Synchronization for operations applied on the set.
	mutex *sync.Mutex

	// Actual values.
	set *sortedset.SortedSet
}

// NewRequestQueue creates an empty queue.
func NewRequestQueue() *RequestQueue {
	return &RequestQueue{
		mutex: &sync.Mutex{},
		set:   sortedset.New(),
	}
}

// The key uses a NUL separator so keys with the same score sort
// the same way as the sender names.
func queueKey(m types.Message) string {
	return fmt.Sprintf("%s\x00%d", m.Sender, m.Timestamp)
}

// Push adds the message. Returns false if an entry with the same
// sender and timestamp is already present, in this case
// nothing changes.
func (q *RequestQueue) Push(m types.Message) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	key := queueKey(m)
	if q.set.GetByKey(key) != nil {
		return false
	}
	return q.set.AddOrUpdate(key, sortedset.SCORE(m.Timestamp), m)
}

// Head returns the minimum element under the message total order.
func (q *RequestQueue) Head() (types.Message, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.lockedHead()
}

// Must be called while holding the mutex.
func (q *RequestQueue) lockedHead() (types.Message, bool) {
	if q.set.GetCount() == 0 {
		return types.Message{}, false
	}

	min := q.set.PeekMin()
	head := min.Value.(types.Message)

	// Ties on the timestamp are resolved by the sender.
	for _, node := range q.set.GetByScoreRange(min.Score(), min.Score(), nil) {
		m := node.Value.(types.Message)
		if m.Less(head) {
			head = m
		}
	}
	return head, true
}

// IsHead verify if the given message is at the head. An empty
// queue has no competitor, so any message is considered
// at the head.
func (q *RequestQueue) IsHead(m types.Message) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	head, ok := q.lockedHead()
	if !ok {
		return true
	}
	return head.SameOrigin(m)
}

// SendersAfter counts the distinct senders that have at least one
// entry with a timestamp strictly greater than the given one.
func (q *RequestQueue) SendersAfter(timestamp uint64) int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	senders := make(map[string]bool)
	for _, m := range q.lockedValues() {
		if m.Timestamp > timestamp {
			senders[m.Sender] = true
		}
	}
	return len(senders)
}

// RemoveIf removes every entry for which the predicate holds and
// returns the removed entries in queue order.
func (q *RequestQueue) RemoveIf(predicate func(types.Message) bool) []types.Message {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	var removed []types.Message
	for _, m := range q.lockedValues() {
		if predicate(m) {
			q.set.Remove(queueKey(m))
			removed = append(removed, m)
		}
	}
	return removed
}

// RemoveFirst removes only the earliest entry for which the
// predicate holds.
func (q *RequestQueue) RemoveFirst(predicate func(types.Message) bool) (types.Message, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for _, m := range q.lockedValues() {
		if predicate(m) {
			q.set.Remove(queueKey(m))
			return m, true
		}
	}
	return types.Message{}, false
}

// Values return all the elements present on the queue at the time
// of the read, in queue order.
func (q *RequestQueue) Values() []types.Message {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.lockedValues()
}

// Must be called while holding the mutex.
func (q *RequestQueue) lockedValues() []types.Message {
	if q.set.GetCount() == 0 {
		return nil
	}

	nodes := q.set.GetByRankRange(1, -1, false)
	messages := make([]types.Message, 0, len(nodes))
	for _, node := range nodes {
		messages = append(messages, node.Value.(types.Message))
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Less(messages[j])
	})
	return messages
}

// Len is the number of entries.
func (q *RequestQueue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.set.GetCount()
}
