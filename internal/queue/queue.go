// Package queue provides the bounded staging buffer between a running
// adapter and the indexing consumer.
//
// The queue is deliberately lossy under pressure: when full, an enqueue
// evicts the oldest element rather than blocking the producer or
// rejecting the newest item. The producer is a live external-API stream
// and items are independently re-fetchable, so freshness wins over
// completeness.
package queue

import (
	"sync"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// DefaultMaxSize is the queue capacity when none is given.
const DefaultMaxSize = 1000

// Listener receives queue signals for monitoring. Implementations must
// be fast and safe for concurrent use; they are called outside the
// queue's lock.
type Listener interface {
	// Enqueued is called after a document is appended.
	Enqueued(doc domain.Document)

	// Dequeued is called after a document is removed.
	Dequeued(doc domain.Document)
}

// DocumentQueue is a bounded FIFO buffer with drop-oldest backpressure.
// Safe for concurrent use.
type DocumentQueue struct {
	mu       sync.Mutex
	maxSize  int
	items    []domain.Document
	listener Listener
}

// New creates a queue with the given capacity.
// Non-positive capacity falls back to DefaultMaxSize.
func New(maxSize int) *DocumentQueue {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &DocumentQueue{maxSize: maxSize}
}

// SetListener installs the signal listener. A nil listener disables
// signalling.
func (q *DocumentQueue) SetListener(l Listener) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listener = l
}

// Enqueue appends a document. When the queue is full, the oldest element
// is evicted first; the newest item is never rejected and the producer
// never blocks.
func (q *DocumentQueue) Enqueue(doc domain.Document) {
	q.mu.Lock()
	if len(q.items) >= q.maxSize {
		logger.Warn("document queue full (%d), dropping oldest", q.maxSize)
		q.items = q.items[1:]
	}
	q.items = append(q.items, doc)
	l := q.listener
	q.mu.Unlock()

	if l != nil {
		l.Enqueued(doc)
	}
}

// Dequeue removes and returns the oldest document.
// Returns false if the queue is empty.
func (q *DocumentQueue) Dequeue() (domain.Document, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return domain.Document{}, false
	}
	doc := q.items[0]
	q.items = q.items[1:]
	l := q.listener
	q.mu.Unlock()

	if l != nil {
		l.Dequeued(doc)
	}
	return doc, true
}

// Peek returns the oldest document without removing it.
// Returns false if the queue is empty.
func (q *DocumentQueue) Peek() (domain.Document, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return domain.Document{}, false
	}
	return q.items[0], true
}

// Size returns the number of queued documents. Never exceeds the capacity.
func (q *DocumentQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty returns true if no documents are queued.
func (q *DocumentQueue) IsEmpty() bool {
	return q.Size() == 0
}

// Clear removes all queued documents and returns how many were dropped.
func (q *DocumentQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	count := len(q.items)
	q.items = nil
	return count
}
