package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course levels
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Course represents a catalog course users can enroll in
type Course struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	Title            string         `gorm:"not null" json:"title"`
	ShortDescription string         `gorm:"not null" json:"short_description"`
	FullDescription  string         `gorm:"type:text;not null" json:"full_description"`
	Category         string         `gorm:"type:varchar(100)" json:"category"`
	Level            string         `gorm:"type:varchar(20);not null" json:"level"` // Beginner, Intermediate, Advanced
	Duration         string         `gorm:"type:varchar(50)" json:"duration"`       // e.g., "6 weeks"
	Instructor       string         `gorm:"not null" json:"instructor"`
	Prerequisites    datatypes.JSON `gorm:"type:jsonb" json:"prerequisites,omitempty"` // ordered list of strings
	Objectives       datatypes.JSON `gorm:"type:jsonb" json:"objectives,omitempty"`    // ordered list of strings
	Rating           float64        `gorm:"default:0" json:"rating"`                   // 0..5, mean of enrollment ratings
	TotalRatings     int            `gorm:"default:0" json:"total_ratings"`
	// Derived counter. Must always equal the number of live enrollments for this
	// course; services.EnrollmentService is the only writer.
	EnrolledCount int `gorm:"default:0" json:"enrolled_count"`

	// Relationships
	Curriculum  []CurriculumItem `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"curriculum,omitempty"`
	Enrollments []Enrollment     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsValidLevel reports whether level is one of the supported course levels
func IsValidLevel(level string) bool {
	return level == LevelBeginner || level == LevelIntermediate || level == LevelAdvanced
}

// CurriculumItem represents one ordered module within a course's curriculum
type CurriculumItem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID    uint           `gorm:"not null;index" json:"course_id"`
	Position    int            `gorm:"not null" json:"position"` // 1-based ordering within the course
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Duration    string         `gorm:"type:varchar(50)" json:"duration"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}
