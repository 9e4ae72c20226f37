package services

import "errors"

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrModuleNotFound     = errors.New("curriculum module not found")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
)
