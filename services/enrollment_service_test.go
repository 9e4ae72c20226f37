package services

import (
	"context"
	"testing"
	"time"

	"github.com/kunalverma/coursedeck/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// A second connection to :memory: would see an empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.CurriculumItem{},
		&model.Enrollment{},
		&model.CompletedModule{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := model.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Name:         "Test User",
		Role:         "student",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestCourse(t *testing.T, db *gorm.DB, title string, modules int) *model.Course {
	t.Helper()

	course := model.Course{
		Title:            title,
		ShortDescription: "Short description of " + title,
		FullDescription:  "Full description of " + title,
		Category:         "Testing",
		Level:            model.LevelBeginner,
		Duration:         "4 weeks",
		Instructor:       "Jane Instructor",
	}
	for i := 1; i <= modules; i++ {
		course.Curriculum = append(course.Curriculum, model.CurriculumItem{
			Position: i,
			Title:    "Module",
			Duration: "1 hour",
		})
	}
	require.NoError(t, db.Create(&course).Error)
	return &course
}

func TestEnrollCreatesEnrollmentAndRecounts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice@example.com")
	course := createTestCourse(t, db, "Go Fundamentals", 3)

	enrollment, err := svc.Enroll(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusEnrolled, enrollment.Status)
	assert.Equal(t, 0, enrollment.Progress)
	assert.False(t, enrollment.StartDate.IsZero())

	var fresh model.Course
	require.NoError(t, db.First(&fresh, course.ID).Error)
	assert.Equal(t, 1, fresh.EnrolledCount)
}

func TestEnrollUnknownCourse(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEnrollmentService(db)

	user := createTestUser(t, db, "alice@example.com")

	_, err := svc.Enroll(context.Background(), user.ID, 9999)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestEnrollDuplicateRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice@example.com")
	course := createTestCourse(t, db, "Go Fundamentals", 0)

	_, err := svc.Enroll(ctx, user.ID, course.ID)
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, user.ID, course.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	// Exactly one row and an untouched counter
	var count int64
	require.NoError(t, db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var fresh model.Course
	require.NoError(t, db.First(&fresh, course.ID).Error)
	assert.Equal(t, 1, fresh.EnrolledCount)
}

func TestUnenrollRecounts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	course := createTestCourse(t, db, "Go Fundamentals", 0)

	_, err := svc.Enroll(ctx, alice.ID, course.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, bob.ID, course.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Unenroll(ctx, alice.ID, course.ID))

	var fresh model.Course
	require.NoError(t, db.First(&fresh, course.ID).Error)
	assert.Equal(t, 1, fresh.EnrolledCount)

	// Unenrolling twice fails, count unchanged
	err = svc.Unenroll(ctx, alice.ID, course.ID)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestReenrollAfterUnenroll(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice@example.com")
	course := createTestCourse(t, db, "Go Fundamentals", 0)

	_, err := svc.Enroll(ctx, user.ID, course.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Unenroll(ctx, user.ID, course.ID))

	// The unique index must not be held by the removed row
	enrollment, err := svc.Enroll(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusEnrolled, enrollment.Status)
	assert.Equal(t, 0, enrollment.Progress)

	var rows int64
	require.NoError(t, db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	var fresh model.Course
	require.NoError(t, db.First(&fresh, course.ID).Error)
	assert.Equal(t, 1, fresh.EnrolledCount)
}

func TestListEnrollmentsOrderAndProjection(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice@example.com")
	first := createTestCourse(t, db, "First Course", 0)
	second := createTestCourse(t, db, "Second Course", 0)

	_, err := svc.Enroll(ctx, user.ID, first.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, user.ID, second.ID)
	require.NoError(t, err)

	// Touch the first enrollment so it becomes the most recently accessed
	require.NoError(t, db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, first.ID).
		Update("last_accessed", time.Now().Add(time.Hour)).Error)

	enrollments, err := svc.ListEnrollments(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 2)

	assert.Equal(t, first.ID, enrollments[0].CourseID)
	assert.Equal(t, second.ID, enrollments[1].CourseID)

	// Course projection carries the catalog fields the listing needs
	assert.Equal(t, "First Course", enrollments[0].Course.Title)
	assert.Equal(t, "4 weeks", enrollments[0].Course.Duration)
	assert.Equal(t, "Testing", enrollments[0].Course.Category)
	assert.NotEmpty(t, enrollments[0].Course.ShortDescription)
}

func TestCompleteModuleProgression(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice@example.com")
	course := createTestCourse(t, db, "Go Fundamentals", 2)
	require.Len(t, course.Curriculum, 2)

	_, err := svc.Enroll(ctx, user.ID, course.ID)
	require.NoError(t, err)

	// First module: half done, status moves to in_progress
	enrollment, err := svc.CompleteModule(ctx, user.ID, course.ID, course.Curriculum[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 50, enrollment.Progress)
	assert.Equal(t, model.StatusInProgress, enrollment.Status)
	assert.Nil(t, enrollment.CompletionDate)

	// Completing the same module again is a no-op
	enrollment, err = svc.CompleteModule(ctx, user.ID, course.ID, course.Curriculum[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 50, enrollment.Progress)
	assert.Equal(t, model.StatusInProgress, enrollment.Status)

	// Second module: fully done, status moves to completed
	enrollment, err = svc.CompleteModule(ctx, user.ID, course.ID, course.Curriculum[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 100, enrollment.Progress)
	assert.Equal(t, model.StatusCompleted, enrollment.Status)
	require.NotNil(t, enrollment.CompletionDate)

	// Status never regresses once completed
	enrollment, err = svc.CompleteModule(ctx, user.ID, course.ID, course.Curriculum[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, enrollment.Status)
}

func TestCompleteModuleWrongCourse(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice@example.com")
	enrolled := createTestCourse(t, db, "Enrolled Course", 1)
	other := createTestCourse(t, db, "Other Course", 1)

	_, err := svc.Enroll(ctx, user.ID, enrolled.ID)
	require.NoError(t, err)

	// A module from another course must be rejected
	_, err = svc.CompleteModule(ctx, user.ID, enrolled.ID, other.Curriculum[0].ID)
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestRateCourseAggregates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	course := createTestCourse(t, db, "Go Fundamentals", 0)

	_, err := svc.Enroll(ctx, alice.ID, course.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, bob.ID, course.ID)
	require.NoError(t, err)

	_, err = svc.RateCourse(ctx, alice.ID, course.ID, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = svc.RateCourse(ctx, alice.ID, course.ID, 6, nil)
	assert.ErrorIs(t, err, ErrInvalidRating)

	review := "Solid introduction"
	_, err = svc.RateCourse(ctx, alice.ID, course.ID, 5, &review)
	require.NoError(t, err)
	_, err = svc.RateCourse(ctx, bob.ID, course.ID, 3, nil)
	require.NoError(t, err)

	var fresh model.Course
	require.NoError(t, db.First(&fresh, course.ID).Error)
	assert.InDelta(t, 4.0, fresh.Rating, 0.001)
	assert.Equal(t, 2, fresh.TotalRatings)

	// Re-rating replaces, not appends
	_, err = svc.RateCourse(ctx, bob.ID, course.ID, 5, nil)
	require.NoError(t, err)
	require.NoError(t, db.First(&fresh, course.ID).Error)
	assert.InDelta(t, 5.0, fresh.Rating, 0.001)
	assert.Equal(t, 2, fresh.TotalRatings)
}

func TestReconcileEnrolledCounts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice@example.com")
	drifted := createTestCourse(t, db, "Drifted Course", 0)
	healthy := createTestCourse(t, db, "Healthy Course", 0)

	_, err := svc.Enroll(ctx, user.ID, drifted.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, user.ID, healthy.ID)
	require.NoError(t, err)

	// Corrupt one counter behind the service's back
	require.NoError(t, db.Model(&model.Course{}).
		Where("id = ?", drifted.ID).
		UpdateColumn("enrolled_count", 42).Error)

	fixed, err := svc.ReconcileEnrolledCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	var fresh model.Course
	require.NoError(t, db.First(&fresh, drifted.ID).Error)
	assert.Equal(t, 1, fresh.EnrolledCount)

	// A second pass finds nothing to fix
	fixed, err = svc.ReconcileEnrolledCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, fixed)
}
