package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

func doc(id string) domain.Document {
	return domain.Document{ID: id, Title: "doc " + id}
}

func TestEnqueueDequeue_FIFO(t *testing.T) {
	q := New(10)

	q.Enqueue(doc("a"))
	q.Enqueue(doc("b"))
	q.Enqueue(doc("c"))
	assert.Equal(t, 3, q.Size())

	first, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "a", first.ID)

	second, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "b", second.ID)

	assert.Equal(t, 1, q.Size())
}

func TestDequeue_Empty(t *testing.T) {
	q := New(10)
	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestEnqueue_DropOldest(t *testing.T) {
	q := New(3)

	for i := 1; i <= 5; i++ {
		q.Enqueue(doc(fmt.Sprintf("%d", i)))
	}

	// Oldest two were evicted; newest is always retrievable.
	assert.Equal(t, 3, q.Size())

	got, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "3", got.ID)

	q.Dequeue()
	last, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "5", last.ID)
}

func TestSize_NeverExceedsCapacity(t *testing.T) {
	q := New(4)
	for i := 0; i < 100; i++ {
		q.Enqueue(doc(fmt.Sprintf("%d", i)))
		assert.LessOrEqual(t, q.Size(), 4)
	}
}

func TestPeek(t *testing.T) {
	q := New(10)

	_, ok := q.Peek()
	assert.False(t, ok)

	q.Enqueue(doc("head"))
	q.Enqueue(doc("tail"))

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "head", head.ID)
	assert.Equal(t, 2, q.Size(), "peek must not remove")
}

func TestClear(t *testing.T) {
	q := New(10)
	q.Enqueue(doc("a"))
	q.Enqueue(doc("b"))

	assert.Equal(t, 2, q.Clear())
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.Clear())
}

// recordingListener captures queue signals.
type recordingListener struct {
	mu       sync.Mutex
	enqueued []string
	dequeued []string
}

func (l *recordingListener) Enqueued(d domain.Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enqueued = append(l.enqueued, d.ID)
}

func (l *recordingListener) Dequeued(d domain.Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dequeued = append(l.dequeued, d.ID)
}

func TestListenerSignals(t *testing.T) {
	q := New(10)
	listener := &recordingListener{}
	q.SetListener(listener)

	q.Enqueue(doc("a"))
	q.Enqueue(doc("b"))
	q.Dequeue()

	assert.Equal(t, []string{"a", "b"}, listener.enqueued)
	assert.Equal(t, []string{"a"}, listener.dequeued)
}

func TestConcurrentProducersConsumers(t *testing.T) {
	q := New(50)

	var wg sync.WaitGroup
	for p := 0; p < 5; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Enqueue(doc(fmt.Sprintf("%d-%d", p, i)))
			}
		}(p)
	}
	for c := 0; c < 5; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Dequeue()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, q.Size(), 50)
}
