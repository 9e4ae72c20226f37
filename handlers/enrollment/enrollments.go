package enrollment

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/kunalverma/coursedeck/services"
	"github.com/kunalverma/coursedeck/utils/middleware"
	"github.com/kunalverma/coursedeck/utils/response"
	"gorm.io/gorm"
)

// EnrollmentHandler handles enrollment requests for the authenticated user
type EnrollmentHandler struct {
	enrollments *services.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(db *gorm.DB) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollments: services.NewEnrollmentService(db),
	}
}

// CreateEnrollmentRequest represents an enrollment request
type CreateEnrollmentRequest struct {
	CourseID uint `json:"course_id"`
}

// RateCourseRequest represents a course rating request
type RateCourseRequest struct {
	Rating int     `json:"rating"`
	Review *string `json:"review,omitempty"`
}

func parseCourseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("course_id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// ListEnrollments handles GET /api/v1/enrollments
func (h *EnrollmentHandler) ListEnrollments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	enrollments, err := h.enrollments.ListEnrollments(c.UserContext(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Success(c, fiber.Map{
		"enrollments": enrollments,
		"total":       len(enrollments),
	})
}

// CreateEnrollment handles POST /api/v1/enrollments
func (h *EnrollmentHandler) CreateEnrollment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.CourseID == 0 {
		return response.BadRequest(c, "Course ID is required")
	}

	enrollment, err := h.enrollments.Enroll(c.UserContext(), userID, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCourseNotFound):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrAlreadyEnrolled):
			return response.Conflict(c, "Already enrolled in this course")
		default:
			return response.InternalServerError(c, "Failed to create enrollment")
		}
	}

	return response.Created(c, enrollment)
}

// DeleteEnrollment handles DELETE /api/v1/enrollments/:course_id
func (h *EnrollmentHandler) DeleteEnrollment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := parseCourseID(c)
	if err != nil {
		return response.NotFound(c, "Enrollment not found")
	}

	if err := h.enrollments.Unenroll(c.UserContext(), userID, courseID); err != nil {
		if errors.Is(err, services.ErrEnrollmentNotFound) {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to delete enrollment")
	}

	return response.SuccessWithMessage(c, "Enrollment removed successfully", nil)
}

// CompleteModule handles POST /api/v1/enrollments/:course_id/modules/:item_id/complete
func (h *EnrollmentHandler) CompleteModule(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := parseCourseID(c)
	if err != nil {
		return response.NotFound(c, "Enrollment not found")
	}

	itemID, err := strconv.ParseUint(c.Params("item_id"), 10, 32)
	if err != nil {
		return response.NotFound(c, "Module not found")
	}

	enrollment, err := h.enrollments.CompleteModule(c.UserContext(), userID, courseID, uint(itemID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEnrollmentNotFound):
			return response.NotFound(c, "Enrollment not found")
		case errors.Is(err, services.ErrModuleNotFound):
			return response.NotFound(c, "Module not found")
		default:
			return response.InternalServerError(c, "Failed to complete module")
		}
	}

	return response.Success(c, enrollment)
}

// RateCourse handles POST /api/v1/enrollments/:course_id/rating
func (h *EnrollmentHandler) RateCourse(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := parseCourseID(c)
	if err != nil {
		return response.NotFound(c, "Enrollment not found")
	}

	var req RateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	enrollment, err := h.enrollments.RateCourse(c.UserContext(), userID, courseID, req.Rating, req.Review)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRating):
			return response.BadRequest(c, "Rating must be between 1 and 5")
		case errors.Is(err, services.ErrEnrollmentNotFound):
			return response.NotFound(c, "Enrollment not found")
		default:
			return response.InternalServerError(c, "Failed to rate course")
		}
	}

	return response.Success(c, enrollment)
}
