package recognition

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerSuppressesWithinWindow(t *testing.T) {
	tr := NewTracker(30 * time.Second)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, tr.Allow("emp-1", now))
	assert.False(t, tr.Allow("emp-1", now.Add(5*time.Second)))
	assert.False(t, tr.Allow("emp-1", now.Add(29*time.Second)))
	assert.True(t, tr.Allow("emp-1", now.Add(30*time.Second)))
}

func TestTrackerSuppressedCallsDoNotRefresh(t *testing.T) {
	tr := NewTracker(30 * time.Second)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, tr.Allow("emp-1", now))
	// Continuous sightings inside the window must not push the expiry out.
	assert.False(t, tr.Allow("emp-1", now.Add(20*time.Second)))
	assert.False(t, tr.Allow("emp-1", now.Add(28*time.Second)))
	assert.True(t, tr.Allow("emp-1", now.Add(31*time.Second)))
}

func TestTrackerConcurrentAllowAdmitsOne(t *testing.T) {
	tr := NewTracker(30 * time.Second)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Allow("emp-1", now) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
}

func TestTrackerKeysAreIndependent(t *testing.T) {
	tr := NewTracker(30 * time.Second)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, tr.Allow("emp-1", now))
	assert.True(t, tr.Allow("emp-2", now))
	assert.False(t, tr.Allow("emp-1", now.Add(time.Second)))
	assert.False(t, tr.Allow("emp-2", now.Add(time.Second)))
}
