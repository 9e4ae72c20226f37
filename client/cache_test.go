package client

import (
	"sync"
	"testing"

	"github.com/kunalverma/coursedeck/model"
	"github.com/stretchr/testify/assert"
)

func TestEnrollmentCacheAddRemoveContains(t *testing.T) {
	cache := NewEnrollmentCache()

	assert.False(t, cache.Contains(1))
	assert.Equal(t, 0, cache.Len())

	cache.Add(1)
	cache.Add(2)
	assert.True(t, cache.Contains(1))
	assert.True(t, cache.Contains(2))
	assert.Equal(t, 2, cache.Len())

	// Adding twice is idempotent
	cache.Add(1)
	assert.Equal(t, 2, cache.Len())

	cache.Remove(1)
	assert.False(t, cache.Contains(1))
	assert.True(t, cache.Contains(2))

	// Removing an absent entry is a no-op
	cache.Remove(99)
	assert.Equal(t, 1, cache.Len())
}

func TestEnrollmentCacheReconcileReplacesState(t *testing.T) {
	cache := NewEnrollmentCache()

	// Locally drifted state: 1 was unenrolled elsewhere, 3 enrolled elsewhere
	cache.Add(1)
	cache.Add(2)

	cache.Reconcile([]model.Enrollment{
		{CourseID: 2},
		{CourseID: 3},
	})

	assert.False(t, cache.Contains(1))
	assert.True(t, cache.Contains(2))
	assert.True(t, cache.Contains(3))
	assert.Equal(t, 2, cache.Len())

	// Reconciling with an empty server list clears everything
	cache.Reconcile(nil)
	assert.Equal(t, 0, cache.Len())
}

func TestEnrollmentCacheConcurrentAccess(t *testing.T) {
	cache := NewEnrollmentCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(id uint) {
			defer wg.Done()
			cache.Add(id)
		}(uint(i))
		go func(id uint) {
			defer wg.Done()
			cache.Contains(id)
		}(uint(i))
	}
	wg.Wait()

	assert.Equal(t, 50, cache.Len())
}
