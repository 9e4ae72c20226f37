package client

import (
	"sync"

	"github.com/kunalverma/coursedeck/model"
)

// EnrollmentCache mirrors the server's enrollment set for the signed-in user
// so "am I enrolled?" checks don't need a round trip. It is never
// authoritative: Reconcile replaces its contents with the server's answer, and
// Add/Remove are applied only after the server confirms a write.
type EnrollmentCache struct {
	mu        sync.RWMutex
	courseIDs map[uint]struct{}
}

// NewEnrollmentCache creates an empty cache.
func NewEnrollmentCache() *EnrollmentCache {
	return &EnrollmentCache{
		courseIDs: make(map[uint]struct{}),
	}
}

// Add records a confirmed enrollment.
func (c *EnrollmentCache) Add(courseID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.courseIDs[courseID] = struct{}{}
}

// Remove drops a confirmed unenrollment.
func (c *EnrollmentCache) Remove(courseID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.courseIDs, courseID)
}

// Contains reports whether the cache holds an enrollment for the course.
func (c *EnrollmentCache) Contains(courseID uint) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.courseIDs[courseID]
	return ok
}

// Len returns the number of cached enrollments.
func (c *EnrollmentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.courseIDs)
}

// Reconcile replaces the cache contents with the server's enrollment list,
// discarding any local state that drifted.
func (c *EnrollmentCache) Reconcile(enrollments []model.Enrollment) {
	fresh := make(map[uint]struct{}, len(enrollments))
	for _, e := range enrollments {
		fresh[e.CourseID] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.courseIDs = fresh
}
