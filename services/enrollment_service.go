package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kunalverma/coursedeck/model"
	"gorm.io/gorm"
)

// EnrollmentService maintains the enrollment record set and keeps
// Course.EnrolledCount consistent with it. Status moves forward only:
// enrolled -> in_progress -> completed. The counter is recomputed on every
// enrollment write rather than incremented, so a stale value heals itself on
// the next write; the (user, course) unique index serializes concurrent
// enrollment attempts.
type EnrollmentService struct {
	db *gorm.DB
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// Enroll creates an enrollment for (userID, courseID). The course must exist
// and the user must not already hold an enrollment for it; duplicates are
// rejected, never upserted.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// 1. Verify the course exists
	var course model.Course
	if err := tx.First(&course, courseID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to fetch course: %w", err)
	}

	// 2. Reject duplicates before writing
	var existing model.Enrollment
	err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
	if err == nil {
		tx.Rollback()
		return nil, ErrAlreadyEnrolled
	}
	if err != gorm.ErrRecordNotFound {
		tx.Rollback()
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}

	// 3. Create the enrollment
	now := time.Now()
	enrollment := model.Enrollment{
		UserID:       userID,
		CourseID:     courseID,
		Status:       model.StatusEnrolled,
		Progress:     0,
		StartDate:    now,
		LastAccessed: now,
	}

	if err := tx.Create(&enrollment).Error; err != nil {
		tx.Rollback()
		// A concurrent request may have won the race; the unique index on
		// (user_id, course_id) is the serialization point.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	// 4. Recompute the derived counter inside the same transaction
	if err := s.recountEnrolled(tx, courseID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &enrollment, nil
}

// Unenroll deletes the user's enrollment for a course and recounts. The row is
// removed physically so the (user_id, course_id) unique index frees the pair
// and the user can enroll again later.
func (s *EnrollmentService) Unenroll(ctx context.Context, userID, courseID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollment model.Enrollment
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("failed to fetch enrollment: %w", err)
		}

		if err := tx.Delete(&enrollment).Error; err != nil {
			return fmt.Errorf("failed to delete enrollment: %w", err)
		}

		return s.recountEnrolled(tx, courseID)
	})
}

// ListEnrollments returns all of a user's enrollments, most recently accessed
// first, each carrying a projection of its course. Read-only.
func (s *EnrollmentService) ListEnrollments(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Course", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "short_description", "duration", "category")
		}).
		Order("last_accessed DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch enrollments: %w", err)
	}

	return enrollments, nil
}

// CompleteModule marks one curriculum item finished for the user's enrollment,
// recomputes progress, and advances status. Idempotent per module; status
// never regresses.
func (s *EnrollmentService) CompleteModule(ctx context.Context, userID, courseID, itemID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("failed to fetch enrollment: %w", err)
		}

		// The module must belong to the enrolled course
		var item model.CurriculumItem
		if err := tx.Where("id = ? AND course_id = ?", itemID, courseID).First(&item).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrModuleNotFound
			}
			return fmt.Errorf("failed to fetch curriculum item: %w", err)
		}

		// Record completion once; repeat calls are no-ops
		var done int64
		if err := tx.Model(&model.CompletedModule{}).
			Where("enrollment_id = ? AND curriculum_item_id = ?", enrollment.ID, item.ID).
			Count(&done).Error; err != nil {
			return fmt.Errorf("failed to check completed module: %w", err)
		}
		if done == 0 {
			completed := model.CompletedModule{EnrollmentID: enrollment.ID, CurriculumItemID: item.ID}
			if err := tx.Create(&completed).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("failed to record completed module: %w", err)
			}
		}

		// Recompute progress from completed/total modules
		var totalModules, completedModules int64
		if err := tx.Model(&model.CurriculumItem{}).Where("course_id = ?", courseID).Count(&totalModules).Error; err != nil {
			return fmt.Errorf("failed to count curriculum items: %w", err)
		}
		if err := tx.Model(&model.CompletedModule{}).Where("enrollment_id = ?", enrollment.ID).Count(&completedModules).Error; err != nil {
			return fmt.Errorf("failed to count completed modules: %w", err)
		}

		if totalModules > 0 {
			enrollment.Progress = int(completedModules * 100 / totalModules)
		}

		// Forward-only status transitions
		now := time.Now()
		switch {
		case enrollment.Progress >= 100 && enrollment.Status != model.StatusCompleted:
			enrollment.Status = model.StatusCompleted
			enrollment.CompletionDate = &now
		case enrollment.Status == model.StatusEnrolled:
			enrollment.Status = model.StatusInProgress
		}
		enrollment.LastAccessed = now

		if err := tx.Save(&enrollment).Error; err != nil {
			return fmt.Errorf("failed to update enrollment: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &enrollment, nil
}

// RateCourse records the enrolled user's rating and review, then recomputes
// the course's aggregate rating. Re-rating replaces the previous value.
func (s *EnrollmentService) RateCourse(ctx context.Context, userID, courseID uint, rating int, review *string) (*model.Enrollment, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var enrollment model.Enrollment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("failed to fetch enrollment: %w", err)
		}

		enrollment.Rating = &rating
		enrollment.Review = review
		enrollment.LastAccessed = time.Now()

		if err := tx.Save(&enrollment).Error; err != nil {
			return fmt.Errorf("failed to save rating: %w", err)
		}

		// Recompute the course aggregate from enrollment ratings
		type aggregate struct {
			Avg   float64
			Count int64
		}
		var agg aggregate
		err := tx.Model(&model.Enrollment{}).
			Select("COALESCE(AVG(rating), 0) AS avg, COUNT(rating) AS count").
			Where("course_id = ? AND rating IS NOT NULL", courseID).
			Scan(&agg).Error
		if err != nil {
			return fmt.Errorf("failed to aggregate ratings: %w", err)
		}

		return tx.Model(&model.Course{}).
			Where("id = ?", courseID).
			Updates(map[string]interface{}{
				"rating":        agg.Avg,
				"total_ratings": agg.Count,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return &enrollment, nil
}

// ReconcileEnrolledCounts recounts every course's enrolled_count and fixes any
// drift. Returns the number of courses corrected. Run periodically as a safety
// net behind the per-write recount.
func (s *EnrollmentService) ReconcileEnrolledCounts(ctx context.Context) (int, error) {
	var courses []model.Course
	if err := s.db.WithContext(ctx).Select("id", "enrolled_count").Find(&courses).Error; err != nil {
		return 0, fmt.Errorf("failed to list courses: %w", err)
	}

	fixed := 0
	for _, course := range courses {
		var live int64
		err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
			Where("course_id = ? AND status IN ?", course.ID, model.LiveStatuses).
			Count(&live).Error
		if err != nil {
			return fixed, fmt.Errorf("failed to count enrollments for course %d: %w", course.ID, err)
		}

		if int64(course.EnrolledCount) != live {
			err := s.db.WithContext(ctx).Model(&model.Course{}).
				Where("id = ?", course.ID).
				UpdateColumn("enrolled_count", live).Error
			if err != nil {
				return fixed, fmt.Errorf("failed to fix enrolled_count for course %d: %w", course.ID, err)
			}
			fixed++
		}
	}

	return fixed, nil
}

// recountEnrolled recomputes a course's enrolled_count from its live
// enrollments
func (s *EnrollmentService) recountEnrolled(tx *gorm.DB, courseID uint) error {
	var live int64
	err := tx.Model(&model.Enrollment{}).
		Where("course_id = ? AND status IN ?", courseID, model.LiveStatuses).
		Count(&live).Error
	if err != nil {
		return fmt.Errorf("failed to count live enrollments: %w", err)
	}

	err = tx.Model(&model.Course{}).
		Where("id = ?", courseID).
		UpdateColumn("enrolled_count", live).Error
	if err != nil {
		return fmt.Errorf("failed to update enrolled_count: %w", err)
	}

	return nil
}
