// Package effects schedules work that lands a fixed number of ticks after it
// was started: mined material in transit and bullets in flight.
package effects

import "sort"

type Scheduled interface {
	ArrivalTick() int64
}

// Queue orders entries by arrival tick; entries with equal arrival keep
// their scheduling order.
type Queue[T Scheduled] struct {
	items []T
}

func (q *Queue[T]) Schedule(v T) {
	at := v.ArrivalTick()
	i := sort.Search(len(q.items), func(i int) bool { return q.items[i].ArrivalTick() > at })
	var zero T
	q.items = append(q.items, zero)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = v
}

// Resolve removes every entry due at or before now and applies it once, in
// arrival order. It returns the number applied.
func (q *Queue[T]) Resolve(now int64, apply func(T)) int {
	n := sort.Search(len(q.items), func(i int) bool { return q.items[i].ArrivalTick() > now })
	if n == 0 {
		return 0
	}
	due := make([]T, n)
	copy(due, q.items[:n])
	rest := copy(q.items, q.items[n:])
	var zero T
	for i := rest; i < len(q.items); i++ {
		q.items[i] = zero
	}
	q.items = q.items[:rest]
	for _, v := range due {
		apply(v)
	}
	return n
}

// Purge drops every entry match accepts and returns how many were dropped.
func (q *Queue[T]) Purge(match func(T) bool) int {
	kept := q.items[:0]
	dropped := 0
	for _, v := range q.items {
		if match(v) {
			dropped++
			continue
		}
		kept = append(kept, v)
	}
	var zero T
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = zero
	}
	q.items = kept
	return dropped
}

func (q *Queue[T]) Len() int { return len(q.items) }

// Pending returns a copy of the queued entries in arrival order.
func (q *Queue[T]) Pending() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
