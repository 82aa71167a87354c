// queue.go - Blocking single-producer/multi-consumer FIFO of PCB handles.
//
// Grounded on the source's thread_safe_queue.h (mutex + condition variable
// FIFO with a shutdown flag), translated to Go's sync.Mutex + sync.Cond.
//
// License: GPLv3 or later

package queue

import (
	"sync"

	"github.com/csopesy-lab/osemu/internal/pcb"
)

// Queue is a FIFO of *pcb.PCB with a shutdown flag. After Shutdown, any
// handle already enqueued is still delivered by WaitAndPop before the
// shutdown sentinel; producers must stop calling Push once they observe
// shutdown (the queue itself does not reject pushes).
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []*pcb.PCB
	shutdown bool
}

// New creates an empty queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a handle and wakes one waiter.
func (q *Queue) Push(p *pcb.PCB) {
	q.mu.Lock()
	q.items = append(q.items, p)
	q.mu.Unlock()
	q.cond.Signal()
}

// WaitAndPop blocks until the queue is non-empty or shutdown, then returns
// the oldest handle, or (nil, false) once the queue has drained and
// shutdown has been requested.
func (q *Queue) WaitAndPop() (*pcb.PCB, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.shutdown {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		// shutdown && drained
		return nil, false
	}
	p := q.items[0]
	q.items = q.items[1:]
	return p, true
}

// Shutdown sets the shutdown flag and wakes every waiter.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	q.shutdown = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Len reports the current queue depth (diagnostic use only — status
// reports take their own consistent snapshot rather than relying on this).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
