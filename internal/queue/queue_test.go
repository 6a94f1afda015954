package queue

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"rateminder/server/internal/models"
)

func TestNewChangeQueue(t *testing.T) {
	logger := logrus.New()
	q := NewChangeQueue(10, logger)
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestChangeQueue_Push(t *testing.T) {
	logger := logrus.New()
	q := NewChangeQueue(2, logger)

	// Test successful push
	changes := []models.ChangeRecord{{PropertyID: "prop-1", Date: "2026-08-26"}}
	err := q.Push(changes)
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	// Test queue full
	for i := 0; i < 2; i++ {
		batch := []models.ChangeRecord{{PropertyID: "prop-2"}}
		_ = q.Push(batch)
	}
	err = q.Push(changes)
	assert.Equal(t, ErrQueueFull, err)

	// Test closed queue
	q.Close()
	err = q.Push(changes)
	assert.Equal(t, ErrQueueClosed, err)
}

func TestChangeQueue_Subscribe(t *testing.T) {
	logger := logrus.New()
	q := NewChangeQueue(10, logger)

	var processed []models.ChangeRecord
	var mu sync.Mutex

	// Add handler
	q.Subscribe(func(changes []models.ChangeRecord) error {
		mu.Lock()
		processed = append(processed, changes...)
		mu.Unlock()
		return nil
	})

	// Start queue
	q.Start()

	err := q.Push([]models.ChangeRecord{
		{PropertyID: "prop-1", Date: "2026-08-26"},
		{PropertyID: "prop-2", Date: "2026-08-26"},
	})
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "prop-1", processed[0].PropertyID)
	mu.Unlock()

	q.Close()
}

func TestChangeQueue_CloseDrains(t *testing.T) {
	logger := logrus.New()
	q := NewChangeQueue(10, logger)

	var processed [][]models.ChangeRecord
	var mu sync.Mutex
	q.Subscribe(func(changes []models.ChangeRecord) error {
		mu.Lock()
		processed = append(processed, changes)
		mu.Unlock()
		return nil
	})

	for i := 0; i < 3; i++ {
		err := q.Push([]models.ChangeRecord{{PropertyID: fmt.Sprintf("prop-%d", i)}})
		assert.NoError(t, err)
	}

	q.Start()

	// Close blocks until the buffered batches have been delivered, and
	// a second Close is a no-op.
	assert.NoError(t, q.Close())
	assert.NoError(t, q.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, processed, 3)
	for _, batch := range processed {
		assert.NotNil(t, batch)
		assert.Len(t, batch, 1)
	}
	assert.Equal(t, "prop-0", processed[0][0].PropertyID)
	assert.Equal(t, "prop-2", processed[2][0].PropertyID)
}
