package app

import (
	"container/heap"
	"sync"
	"time"
)

// DeadlineQueue orders pending question deadlines so the scheduler only looks at sessions that are due.
// Entries can go stale when a session moves on; consumers re-check the session before acting.
type DeadlineQueue struct {
	mu    sync.Mutex
	items deadlineHeap
}

// Deadline is one scheduled check: quiz QuizID is due at At.
type Deadline struct {
	QuizID string
	At     time.Time
}

func NewDeadlineQueue() *DeadlineQueue {
	return &DeadlineQueue{}
}

// Push schedules quizID to be checked at at.
func (q *DeadlineQueue) Push(quizID string, at time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.items, Deadline{QuizID: quizID, At: at})
}

// PopDue removes every entry due at now and returns them earliest first.
func (q *DeadlineQueue) PopDue(now time.Time) []Deadline {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []Deadline
	for q.items.Len() > 0 && !q.items[0].At.After(now) {
		due = append(due, heap.Pop(&q.items).(Deadline))
	}
	return due
}

// Next returns the earliest scheduled deadline.
func (q *DeadlineQueue) Next() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return time.Time{}, false
	}
	return q.items[0].At, true
}

func (q *DeadlineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

type deadlineHeap []Deadline

func (h deadlineHeap) Len() int           { return len(h) }
func (h deadlineHeap) Less(i, j int) bool { return h[i].At.Before(h[j].At) }
func (h deadlineHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *deadlineHeap) Push(x any) {
	*h = append(*h, x.(Deadline))
}

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
