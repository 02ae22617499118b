package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingIngestor struct {
	mu       sync.Mutex
	received []string
	failures int
}

func (r *recordingIngestor) Ingest(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("knowledge store unreachable")
	}
	r.received = append(r.received, text)
	return nil
}

func (r *recordingIngestor) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.received))
	copy(out, r.received)
	return out
}

func TestNotifierDeliversEnqueuedEvents(t *testing.T) {
	ingestor := &recordingIngestor{}
	n := New(ingestor)
	n.Start()

	n.Enqueue("visit summary one")
	n.Enqueue("visit summary two")
	n.Stop()

	assert.ElementsMatch(t, []string{"visit summary one", "visit summary two"}, ingestor.texts())
}

func TestNotifierRetriesTransientFailures(t *testing.T) {
	ingestor := &recordingIngestor{failures: 2}
	n := New(ingestor)
	n.backoff = time.Millisecond
	n.Start()

	n.Enqueue("eventually delivered")
	n.Stop()

	assert.Equal(t, []string{"eventually delivered"}, ingestor.texts())
}

func TestNotifierGivesUpAfterMaxAttempts(t *testing.T) {
	ingestor := &recordingIngestor{failures: maxAttempts}
	n := New(ingestor)
	n.backoff = time.Millisecond
	n.Start()

	n.Enqueue("dead letter")
	n.Stop()

	assert.Empty(t, ingestor.texts())
}

func TestEnqueueNeverBlocksWhenQueueIsFull(t *testing.T) {
	// Worker not started: the queue fills up and further events are dropped
	// instead of blocking the caller.
	n := New(&recordingIngestor{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < queueCapacity*2; i++ {
			n.Enqueue("event")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}
