package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kunalverma/coursedeck/model"
	"github.com/kunalverma/coursedeck/utils/auth"
	"github.com/kunalverma/coursedeck/utils/response"
	"gorm.io/gorm"
)

// Authentication failures. reject maps these to a 401; anything else that
// authenticate returns is an internal lookup failure and maps to a 500.
var (
	errMissingToken     = errors.New("Missing authorization token")
	errInvalidFormat    = errors.New("Invalid authorization format")
	errExpiredToken     = errors.New("Token has expired")
	errInvalidToken     = errors.New("Invalid token")
	errInvalidTokenType = errors.New("Invalid token type")
	errTokenRevoked     = errors.New("Token has been revoked")
	errTokenInvalidated = errors.New("Token has been invalidated")
	errUserNotFound     = errors.New("User not found")
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// authenticate validates the bearer token and loads the user. It writes
// nothing to the response; callers translate the returned error exactly once.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*auth.Claims, *model.User, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil, errMissingToken
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, errInvalidFormat
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, nil, errExpiredToken
		}
		return nil, nil, errInvalidToken
	}

	if claims.TokenType != "access" {
		return nil, nil, errInvalidTokenType
	}

	// Check if token is revoked (blacklisted)
	isRevoked, err := m.blacklistService.IsTokenRevoked(c.UserContext(), claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if isRevoked {
		return nil, nil, errTokenRevoked
	}

	var user model.User
	if err := m.db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errUserNotFound
		}
		return nil, nil, err
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, errTokenInvalidated
	}

	return claims, &user, nil
}

func reject(c *fiber.Ctx, err error) error {
	switch err {
	case errMissingToken, errInvalidFormat, errExpiredToken, errInvalidToken,
		errInvalidTokenType, errTokenRevoked, errTokenInvalidated, errUserNotFound:
		return response.Unauthorized(c, err.Error())
	default:
		return response.InternalServerError(c, "Failed to authenticate request")
	}
}

func storeIdentity(c *fiber.Ctx, claims *auth.Claims, user *model.User) {
	c.Locals("user_id", claims.UserID)
	c.Locals("user_email", claims.Email)
	c.Locals("user_role", claims.Role)
	c.Locals("claims", claims)
	c.Locals("user", user)
	c.Locals("token_jti", claims.ID)
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, err := m.authenticate(c)
		if err != nil {
			return reject(c, err)
		}

		storeIdentity(c, claims, user)
		return c.Next()
	}
}

// RequireAdmin is middleware that requires a valid JWT token with admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, err := m.authenticate(c)
		if err != nil {
			return reject(c, err)
		}

		if claims.Role != "admin" {
			return response.Forbidden(c, "Admin access required")
		}

		storeIdentity(c, claims, user)
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetTokenJTI extracts the token JTI from context
func GetTokenJTI(c *fiber.Ctx) (string, bool) {
	jti := c.Locals("token_jti")
	if jti == nil {
		return "", false
	}
	j, ok := jti.(string)
	return j, ok
}
