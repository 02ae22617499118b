// Package notifier decouples knowledge ingestion from the request path. A
// save enqueues a clinical summary and moves on; a background worker owns
// delivery, retries, and dead-letter logging. Nothing here is ever visible
// to the requester.
package notifier

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	queueCapacity  = 64
	maxAttempts    = 3
	retryBackoff   = 2 * time.Second
	deliverTimeout = 15 * time.Second
)

// Ingestor delivers one clinical text blob to the external knowledge store.
type Ingestor interface {
	Ingest(ctx context.Context, text string) error
}

// Notifier runs a single background worker draining the ingestion queue.
type Notifier struct {
	ingestor Ingestor
	queue    chan string
	stop     chan struct{}
	wg       sync.WaitGroup
	backoff  time.Duration
}

// New creates a notifier around the given ingestor. Start must be called
// before Enqueue has any effect.
func New(ingestor Ingestor) *Notifier {
	return &Notifier{
		ingestor: ingestor,
		queue:    make(chan string, queueCapacity),
		stop:     make(chan struct{}),
		backoff:  retryBackoff,
	}
}

// Start launches the worker goroutine.
func (n *Notifier) Start() {
	n.wg.Add(1)
	go n.run()
}

// Enqueue hands a clinical summary to the worker without blocking. When the
// queue is full the event is dropped and logged as a dead letter; the
// clinical transaction already succeeded and must not wait on this.
func (n *Notifier) Enqueue(text string) {
	select {
	case n.queue <- text:
	default:
		log.Printf("Knowledge ingestion queue full, dropping event: %.60s", text)
	}
}

// Stop drains the queue and waits for the worker to exit.
func (n *Notifier) Stop() {
	close(n.stop)
	n.wg.Wait()
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case text := <-n.queue:
			n.deliver(text)
		case <-n.stop:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case text := <-n.queue:
					n.deliver(text)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) deliver(text string) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		lastErr = n.ingestor.Ingest(ctx, text)
		cancel()
		if lastErr == nil {
			return
		}
		if attempt < maxAttempts {
			time.Sleep(n.backoff)
		}
	}
	log.Printf("Knowledge ingestion failed after %d attempts, dead-lettering: %v", maxAttempts, lastErr)
}
