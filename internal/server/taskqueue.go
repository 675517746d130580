package server

import "sync"

// taskQueue marshals work from transport goroutines onto the simulation
// thread. Each client gets its own FIFO; DrainOne pops at most one task per
// client per step so no single chatty bot can starve the others.
type taskQueue struct {
	mu     sync.Mutex
	queues map[int64][]func()
}

func newTaskQueue() *taskQueue {
	return &taskQueue{queues: map[int64][]func(){}}
}

func (q *taskQueue) Enqueue(clientID int64, task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queues[clientID] = append(q.queues[clientID], task)
}

func (q *taskQueue) Remove(clientID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.queues, clientID)
}

func (q *taskQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, tasks := range q.queues {
		n += len(tasks)
	}
	return n
}

// DrainOne runs one pending task per client. Tasks run outside the lock so
// they may enqueue more work; a panicking task is reported through report and
// the remaining clients still get their turn.
func (q *taskQueue) DrainOne(report func(clientID int64, recovered any)) {
	q.mu.Lock()
	batch := make([]struct {
		clientID int64
		task     func()
	}, 0, len(q.queues))
	for clientID, tasks := range q.queues {
		if len(tasks) == 0 {
			continue
		}
		batch = append(batch, struct {
			clientID int64
			task     func()
		}{clientID, tasks[0]})
		q.queues[clientID] = tasks[1:]
	}
	q.mu.Unlock()

	for _, item := range batch {
		q.runOne(item.clientID, item.task, report)
	}
}

func (q *taskQueue) runOne(clientID int64, task func(), report func(int64, any)) {
	defer func() {
		if r := recover(); r != nil && report != nil {
			report(clientID, r)
		}
	}()
	task()
}
