package filesystem

import (
	"sync"

	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/types"
)

// OperationErrorQueue collects non-fatal per-item failures during bulk
// operations, drained by the caller after the operation returns.
type OperationErrorQueue struct {
	mu     sync.Mutex
	errors []*types.OperationError
}

// NewOperationErrorQueue creates an empty queue.
func NewOperationErrorQueue() *OperationErrorQueue {
	return &OperationErrorQueue{}
}

// Enqueue appends a failure. Nil entries are ignored.
func (q *OperationErrorQueue) Enqueue(opErr *types.OperationError) {
	if opErr == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.errors = append(q.errors, opErr)
}

// HasNext reports whether undrained failures remain.
func (q *OperationErrorQueue) HasNext() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.errors) > 0
}

// Next pops the oldest failure, or nil when the queue is empty.
func (q *OperationErrorQueue) Next() *types.OperationError {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.errors) == 0 {
		return nil
	}
	head := q.errors[0]
	q.errors = q.errors[1:]
	return head
}

// Len returns the number of undrained failures.
func (q *OperationErrorQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.errors)
}
