// Package pqueue implements a fixed-capacity queue of integer items kept in
// ascending priority order.
package pqueue

import "math"

// Empty is the item stored in slots that have not been filled yet.
const Empty = -1

func New(size int) *Queue {
	q := &Queue{
		items:  make([]int, size),
		priors: make([]float32, size),
	}
	q.Reset()
	return q
}

// Queue keeps the size smallest priorities pushed so far. Slots start at
// (+Inf, Empty).
type Queue struct {
	items  []int
	priors []float32
}

func (q *Queue) Reset() {
	inf := float32(math.Inf(1))
	for i := range q.items {
		q.items[i] = Empty
		q.priors[i] = inf
	}
}

// Push inserts item before the first slot whose priority is strictly larger,
// shifting the rest right and dropping the last one. A priority equal to an
// existing one lands after it, so the earlier push wins ties. Push reports
// whether the item was kept.
func (q *Queue) Push(item int, priority float32) bool {
	n := len(q.priors)
	if n == 0 || !(priority < q.priors[n-1]) {
		return false
	}
	m := 0
	for !(priority < q.priors[m]) {
		m++
	}
	copy(q.priors[m+1:], q.priors[m:n-1])
	copy(q.items[m+1:], q.items[m:n-1])
	q.priors[m] = priority
	q.items[m] = item
	return true
}

func (q *Queue) Cap() int { return len(q.items) }

// Len counts the filled slots.
func (q *Queue) Len() int {
	n := 0
	for n < len(q.items) && q.items[n] != Empty {
		n++
	}
	return n
}

// Tail returns the largest priority currently kept.
func (q *Queue) Tail() float32 {
	if len(q.priors) == 0 {
		return float32(math.Inf(1))
	}
	return q.priors[len(q.priors)-1]
}

func (q *Queue) Seek(idx int) (int, float32) {
	return q.items[idx], q.priors[idx]
}

// Items and Priorities expose the backing arrays in queue order. They are
// overwritten by the next Push or Reset.
func (q *Queue) Items() []int { return q.items }

func (q *Queue) Priorities() []float32 { return q.priors }
