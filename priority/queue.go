// Package priority implements a max-priority queue over (score, order, uid)
// triples, the total order the block assembler uses to rank packages. It
// follows the container/heap idiom used throughout btcd-family mining code:
// a slice-backed heap plus an index map so an entry's priority can be fixed
// in place instead of removed and reinserted.
package priority

import "container/heap"

// Tuple is the comparable priority of a single mempool entry.
type Tuple struct {
	Score float64
	Order uint32
	UID   int
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than
// b, ordering first by Score, then Order, then UID. Scores are assumed
// finite; a NaN Score is a precondition violation, not a supported case.
func Compare(a, b Tuple) int {
	switch {
	case a.Score < b.Score:
		return -1
	case a.Score > b.Score:
		return 1
	}
	switch {
	case a.Order < b.Order:
		return -1
	case a.Order > b.Order:
		return 1
	}
	switch {
	case a.UID < b.UID:
		return -1
	case a.UID > b.UID:
		return 1
	}
	return 0
}

type entry struct {
	tuple Tuple
	index int
}

type container []*entry

func (c container) Len() int { return len(c) }

// Less reports whether i outranks j: this makes container for a max-heap
// over Compare.
func (c container) Less(i, j int) bool { return Compare(c[i].tuple, c[j].tuple) > 0 }

func (c container) Swap(i, j int) {
	c[i], c[j] = c[j], c[i]
	c[i].index = i
	c[j].index = j
}

func (c *container) Push(x any) {
	e := x.(*entry)
	e.index = len(*c)
	*c = append(*c, e)
}

func (c *container) Pop() any {
	old := *c
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*c = old[:n-1]
	return e
}

// Queue is a max-heap of Tuples keyed by UID, supporting insert-or-update
// ("upsert") in amortised O(log n).
type Queue struct {
	c   container
	idx map[int]*entry
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{idx: make(map[int]*entry)}
}

// Len reports the number of tracked entries.
func (q *Queue) Len() int { return len(q.c) }

// Upsert inserts t if its UID is absent, or fixes the heap if its priority
// changed. It implements both the "increase" and "decrease" cases from a
// single call, since heap.Fix corrects the heap regardless of which
// direction the key moved.
func (q *Queue) Upsert(t Tuple) {
	if e, ok := q.idx[t.UID]; ok {
		if e.tuple == t {
			return
		}
		e.tuple = t
		heap.Fix(&q.c, e.index)
		return
	}
	e := &entry{tuple: t}
	q.idx[t.UID] = e
	heap.Push(&q.c, e)
}

// Peek returns the top Tuple without removing it.
func (q *Queue) Peek() (Tuple, bool) {
	if len(q.c) == 0 {
		return Tuple{}, false
	}
	return q.c[0].tuple, true
}

// Pop removes and returns the top Tuple.
func (q *Queue) Pop() (Tuple, bool) {
	if len(q.c) == 0 {
		return Tuple{}, false
	}
	e := heap.Pop(&q.c).(*entry)
	delete(q.idx, e.tuple.UID)
	return e.tuple, true
}

// Remove drops uid from the queue, if present.
func (q *Queue) Remove(uid int) {
	e, ok := q.idx[uid]
	if !ok {
		return
	}
	heap.Remove(&q.c, e.index)
	delete(q.idx, uid)
}
