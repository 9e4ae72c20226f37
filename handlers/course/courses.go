package course

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/kunalverma/coursedeck/model"
	"github.com/kunalverma/coursedeck/services"
	"github.com/kunalverma/coursedeck/utils/response"
	"github.com/kunalverma/coursedeck/utils/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CourseHandler handles course catalog requests
type CourseHandler struct {
	db        *gorm.DB
	catalog   *services.CatalogService
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, catalog *services.CatalogService) *CourseHandler {
	return &CourseHandler{
		db:        db,
		catalog:   catalog,
		validator: validation.NewValidator(),
	}
}

// CurriculumItemRequest represents one curriculum module in a course payload
type CurriculumItemRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Duration    string `json:"duration" validate:"required"`
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Title            string                  `json:"title" validate:"required,min=3,max=255"`
	ShortDescription string                  `json:"short_description" validate:"required,max=500"`
	FullDescription  string                  `json:"full_description" validate:"required"`
	Category         string                  `json:"category" validate:"omitempty,max=100"`
	Level            string                  `json:"level" validate:"required,oneof=Beginner Intermediate Advanced"`
	Duration         string                  `json:"duration" validate:"required,max=50"`
	Instructor       string                  `json:"instructor" validate:"required,max=255"`
	Prerequisites    []string                `json:"prerequisites"`
	Objectives       []string                `json:"objectives"`
	Curriculum       []CurriculumItemRequest `json:"curriculum" validate:"dive"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Title            string    `json:"title" validate:"omitempty,min=3,max=255"`
	ShortDescription string    `json:"short_description" validate:"omitempty,max=500"`
	FullDescription  string    `json:"full_description"`
	Category         *string   `json:"category" validate:"omitempty,max=100"`
	Level            string    `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Duration         string    `json:"duration" validate:"omitempty,max=50"`
	Instructor       string    `json:"instructor" validate:"omitempty,max=255"`
	Prerequisites    *[]string `json:"prerequisites"`
	Objectives       *[]string `json:"objectives"`
}

// ListCoursesResponse represents the course list payload
type ListCoursesResponse struct {
	Courses []model.Course `json:"courses"`
	Total   int64          `json:"total"`
}

func toJSONList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	data, _ := json.Marshal(items)
	return datatypes.JSON(data)
}

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	search := c.Query("search", "")

	courses, total, err := h.catalog.ListCourses(c.UserContext(), search)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Success(c, ListCoursesResponse{
		Courses: courses,
		Total:   total,
	})
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.NotFound(c, "Course not found")
	}

	course, err := h.catalog.GetCourse(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.Success(c, course)
}

// CreateCourse handles POST /api/v1/courses (admin only)
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course := model.Course{
		Title:            validation.SanitizeString(req.Title),
		ShortDescription: validation.SanitizeString(req.ShortDescription),
		FullDescription:  validation.SanitizeString(req.FullDescription),
		Category:         validation.SanitizeString(req.Category),
		Level:            req.Level,
		Duration:         validation.SanitizeString(req.Duration),
		Instructor:       validation.SanitizeString(req.Instructor),
		Prerequisites:    toJSONList(req.Prerequisites),
		Objectives:       toJSONList(req.Objectives),
	}

	for i, item := range req.Curriculum {
		course.Curriculum = append(course.Curriculum, model.CurriculumItem{
			Position:    i + 1,
			Title:       validation.SanitizeString(item.Title),
			Description: validation.SanitizeString(item.Description),
			Duration:    validation.SanitizeString(item.Duration),
		})
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id (admin only)
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	// Update fields if provided
	if req.Title != "" {
		course.Title = validation.SanitizeString(req.Title)
	}
	if req.ShortDescription != "" {
		course.ShortDescription = validation.SanitizeString(req.ShortDescription)
	}
	if req.FullDescription != "" {
		course.FullDescription = validation.SanitizeString(req.FullDescription)
	}
	if req.Category != nil {
		course.Category = validation.SanitizeString(*req.Category)
	}
	if req.Level != "" {
		course.Level = req.Level
	}
	if req.Duration != "" {
		course.Duration = validation.SanitizeString(req.Duration)
	}
	if req.Instructor != "" {
		course.Instructor = validation.SanitizeString(req.Instructor)
	}
	if req.Prerequisites != nil {
		course.Prerequisites = toJSONList(*req.Prerequisites)
	}
	if req.Objectives != nil {
		course.Objectives = toJSONList(*req.Objectives)
	}

	if err := h.db.Save(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /api/v1/courses/:id (admin only)
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	// Check if course has live enrollments
	var enrollmentCount int64
	if err := h.db.Model(&model.Enrollment{}).Where("course_id = ?", course.ID).Count(&enrollmentCount).Error; err != nil {
		return response.InternalServerError(c, "Failed to check course dependencies")
	}

	if enrollmentCount > 0 {
		return response.BadRequest(c, "Cannot delete course with existing enrollments")
	}

	// Soft delete
	if err := h.db.Delete(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}

	return response.SuccessWithMessage(c, "Course deleted successfully", nil)
}
