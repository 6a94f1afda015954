package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"rateminder/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// ChangeQueue is an in-memory queue of change-record batches, sitting
// between the pricing run loop and the mirror-store processor. Closing
// the queue drains it: every batch accepted before Close is still
// delivered to the handlers before the worker exits.
type ChangeQueue struct {
	items    chan []models.ChangeRecord
	drained  chan struct{}
	maxSize  int
	started  bool
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func([]models.ChangeRecord) error
}

// NewChangeQueue creates a new change queue with the specified buffer size
func NewChangeQueue(bufferSize int, logger *logrus.Logger) *ChangeQueue {
	if logger == nil {
		logger = logrus.New()
	}

	return &ChangeQueue{
		items:    make(chan []models.ChangeRecord, bufferSize),
		drained:  make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func([]models.ChangeRecord) error, 0),
	}
}

// Push adds a batch of change records to the queue. The read lock is
// held across the send so Close cannot close the channel under an
// in-flight push.
func (q *ChangeQueue) Push(changes []models.ChangeRecord) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	// Non-blocking send to prevent deadlocks
	select {
	case q.items <- changes:
		q.logger.WithField("batch_size", len(changes)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *ChangeQueue) Subscribe(handler func([]models.ChangeRecord) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start launches the delivery worker. Starting twice is a no-op.
func (q *ChangeQueue) Start() {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	go q.process()
}

// process delivers batches until the channel is closed and empty.
func (q *ChangeQueue) process() {
	for batch := range q.items {
		q.processBatch(batch)
	}
	close(q.drained)
}

// processBatch sends the batch to all subscribed handlers
func (q *ChangeQueue) processBatch(batch []models.ChangeRecord) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).Error("Handler failed to process batch")
		}
	}
}

// Close rejects further pushes and drains the queue. When the worker is
// running, Close blocks until every accepted batch has been handled.
func (q *ChangeQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	close(q.items)
	q.mu.Unlock()

	if started {
		<-q.drained
	}
	return nil
}

// Len returns the current number of batches in the queue
func (q *ChangeQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *ChangeQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
