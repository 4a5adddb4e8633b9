package schedule

import "sync"

// Queue is a FIFO of deferred tasks drained explicitly by its owner.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Schedule appends task. It never runs task itself.
func (q *Queue) Schedule(task func()) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// Len returns the number of tasks waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// RunPending runs queued tasks in order until the queue is empty, including
// tasks scheduled by the tasks it runs, and returns how many ran. A panicking
// task leaves the tasks behind it queued.
func (q *Queue) RunPending() int {
	ran := 0
	for {
		task, ok := q.pop()
		if !ok {
			return ran
		}
		task()
		ran++
	}
}

func (q *Queue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return task, true
}
