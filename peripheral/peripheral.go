// Package peripheral implements the Luz memory-mapped debug queue
// (spec.md §4.8): word stores to a configured magic address are also
// appended to an observable queue (the store still reaches ordinary
// memory as well), which is how the
// test programs in §8 assert program behavior. It is modeled as an
// injectable observer rather than a hard-coded address, per §9's design
// note.
package peripheral

// DefaultAddress is the magic store address used by the example test
// programs when no other configuration is supplied.
const DefaultAddress = 0xF0000

// Hook intercepts a store to its configured address. Implementations
// must not block; the simulator is single-threaded and cooperative
// (§5).
type Hook interface {
	// Address reports the store address this hook wants to observe.
	Address() uint32
	// Observe is called with the 32-bit word being stored to Address.
	Observe(word uint32)
}

// Queue is the reference Hook: it simply appends every observed word,
// in store order, for later inspection through Words (`luz run` prints
// it after the program stops; the debugger has no command that shows
// it).
type Queue struct {
	addr  uint32
	words []uint32
}

// NewQueue creates a Queue watching addr.
func NewQueue(addr uint32) *Queue {
	return &Queue{addr: addr}
}

func (q *Queue) Address() uint32 { return q.addr }

func (q *Queue) Observe(word uint32) {
	q.words = append(q.words, word)
}

// Words returns the queue's contents, oldest first.
func (q *Queue) Words() []uint32 {
	return q.words
}

// Reset empties the queue without changing its watched address.
func (q *Queue) Reset() {
	q.words = nil
}
