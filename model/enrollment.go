package model

import (
	"time"
)

// Enrollment statuses. Transitions are forward-only:
// enrolled -> in_progress -> completed.
const (
	StatusEnrolled   = "enrolled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// LiveStatuses are the statuses counted towards Course.EnrolledCount
var LiveStatuses = []string{StatusEnrolled, StatusInProgress, StatusCompleted}

// Enrollment links one user to one course with progress/status.
// The (user_id, course_id) pair is unique; the index is the sole serialization
// point for concurrent enrollment attempts. Rows are deleted physically on
// unenroll — a soft delete would leave the dead row occupying the unique index
// and block re-enrollment.
type Enrollment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	UserID         uint       `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"user_id"`
	CourseID       uint       `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"course_id"`
	Status         string     `gorm:"type:varchar(20);not null;default:'enrolled'" json:"status"`
	Progress       int        `gorm:"default:0" json:"progress"` // 0..100
	StartDate      time.Time  `gorm:"not null" json:"start_date"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	LastAccessed   time.Time  `gorm:"not null;index" json:"last_accessed"`
	Rating         *int       `json:"rating,omitempty"` // 1..5
	Review         *string    `gorm:"type:text" json:"review,omitempty"`

	// Relationships
	User             User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course           Course            `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	CompletedModules []CompletedModule `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"completed_modules,omitempty"`
}

// CompletedModule marks one curriculum item as finished within an enrollment
type CompletedModule struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	EnrollmentID     uint      `gorm:"not null;uniqueIndex:idx_completed_modules_pair" json:"enrollment_id"`
	CurriculumItemID uint      `gorm:"not null;uniqueIndex:idx_completed_modules_pair" json:"curriculum_item_id"`

	// Relationships
	Enrollment     Enrollment     `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
	CurriculumItem CurriculumItem `gorm:"foreignKey:CurriculumItemID;constraint:OnDelete:CASCADE" json:"curriculum_item,omitempty"`
}
