package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kunalverma/coursedeck/model"
	"github.com/kunalverma/coursedeck/utils/response"
	"github.com/kunalverma/coursedeck/utils/validation"
	"gorm.io/gorm"
)

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Name       string  `json:"name,omitempty"`
	Department *string `json:"department,omitempty"`
	Position   *string `json:"position,omitempty"`
}

// GetProfile retrieves the current user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id")
	if userID == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var user model.User
	if err := h.db.First(&user, userID.(uint)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch profile")
	}

	return response.Success(c, toUserResponse(&user))
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id")
	if userID == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var user model.User
	if err := h.db.First(&user, userID.(uint)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch profile")
	}

	// Update fields if provided
	if req.Name != "" {
		user.Name = validation.SanitizeString(req.Name)
	}
	if req.Department != nil {
		user.Department = req.Department
	}
	if req.Position != nil {
		user.Position = req.Position
	}

	if err := h.db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.Success(c, toUserResponse(&user))
}
