package task

import "sync"

// Queue is a closed worklist: every task is known up front and nothing is
// added once workers start claiming.
type Queue struct {
	mu    sync.Mutex
	tasks []FileTask
	next  int
}

// NewQueue returns a queue holding a copy of tasks.
func NewQueue(tasks []FileTask) *Queue {
	own := make([]FileTask, len(tasks))
	copy(own, tasks)
	return &Queue{tasks: own}
}

// Claim pops the next task. ok is false once the queue is drained.
// A task is never handed to two callers.
func (q *Queue) Claim() (t FileTask, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.tasks) {
		return FileTask{}, false
	}
	t = q.tasks[q.next]
	q.tasks[q.next] = FileTask{}
	q.next++
	return t, true
}

// Len reports the total number of tasks the queue was created with.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Remaining reports how many tasks are still unclaimed.
func (q *Queue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks) - q.next
}

// Claimed reports how many successful claims were made.
func (q *Queue) Claimed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.next
}
