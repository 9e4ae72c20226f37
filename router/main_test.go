package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kunalverma/coursedeck/database"
	"github.com/kunalverma/coursedeck/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-secret-key-for-routing-tests")
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1/0") // unreachable on purpose

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := database.NewGORMStore(db)
	require.NoError(t, store.Init())

	app := fiber.New()
	SetupRoutes(app, store)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}

	return resp, parsed
}

func TestPing(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterLoginEnrollFlow(t *testing.T) {
	app, db := setupTestApp(t)

	course := model.Course{
		Title:            "Go Fundamentals",
		ShortDescription: "Learn the basics",
		FullDescription:  "Syntax, tooling, and testing.",
		Category:         "Engineering",
		Level:            model.LevelBeginner,
		Duration:         "4 weeks",
		Instructor:       "Jane Instructor",
	}
	require.NoError(t, db.Create(&course).Error)

	register := map[string]any{
		"email":    "alice@example.com",
		"password": "s3cret-password",
		"name":     "Alice",
	}

	// Registration succeeds once
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", register)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Same email again is a conflict and leaves a single user row
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", register)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var userCount int64
	require.NoError(t, db.Model(&model.User{}).Where("email = ?", "alice@example.com").Count(&userCount).Error)
	assert.Equal(t, int64(1), userCount)

	// Enrollment requires authentication
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/enrollments", "", map[string]any{"course_id": course.ID})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Login yields a usable access token
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "s3cret-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	token, ok := data["access_token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	// Enroll succeeds and bumps the counter
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/enrollments", token, map[string]any{"course_id": course.ID})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var fresh model.Course
	require.NoError(t, db.First(&fresh, course.ID).Error)
	assert.Equal(t, 1, fresh.EnrolledCount)

	// Enrolling twice is a conflict, counter untouched
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/enrollments", token, map[string]any{"course_id": course.ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NoError(t, db.First(&fresh, course.ID).Error)
	assert.Equal(t, 1, fresh.EnrolledCount)

	// The enrollment listing carries the course projection
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/enrollments", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, ok = body["data"].(map[string]any)
	require.True(t, ok)
	enrollments, ok := data["enrollments"].([]any)
	require.True(t, ok)
	require.Len(t, enrollments, 1)

	entry := enrollments[0].(map[string]any)
	assert.Equal(t, "enrolled", entry["status"])
	courseData := entry["course"].(map[string]any)
	assert.Equal(t, "Go Fundamentals", courseData["title"])
}

func TestProtectedRoutesRejectBadCredentials(t *testing.T) {
	app, _ := setupTestApp(t)

	// No Authorization header
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/enrollments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	// Garbage bearer token
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/enrollments", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	// Malformed Authorization header
	req := httptest.NewRequest(http.MethodGet, "/api/v1/enrollments", nil)
	req.Header.Set("Authorization", "Token abc")
	rawResp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rawResp.StatusCode)

	// Admin routes reject missing credentials the same way
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/courses", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnenrollThenReenrollOverHTTP(t *testing.T) {
	app, db := setupTestApp(t)

	course := model.Course{
		Title:            "Repeatable Course",
		ShortDescription: "Enroll, leave, come back",
		FullDescription:  "Enrollment is reversible.",
		Category:         "Testing",
		Level:            model.LevelBeginner,
		Duration:         "1 week",
		Instructor:       "Jane Instructor",
	}
	require.NoError(t, db.Create(&course).Error)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    "bob@example.com",
		"password": "s3cret-password",
		"name":     "Bob",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "bob@example.com",
		"password": "s3cret-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := body["data"].(map[string]any)["access_token"].(string)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/enrollments", token, map[string]any{"course_id": course.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/enrollments/%d", course.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fresh model.Course
	require.NoError(t, db.First(&fresh, course.ID).Error)
	assert.Equal(t, 0, fresh.EnrolledCount)

	// Enrollment can be repeated after leaving
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/enrollments", token, map[string]any{"course_id": course.ID})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, db.First(&fresh, course.ID).Error)
	assert.Equal(t, 1, fresh.EnrolledCount)
}

func TestCourseSearchOverHTTP(t *testing.T) {
	app, db := setupTestApp(t)

	courses := []model.Course{
		{Title: "Intro to SQL", ShortDescription: "Queries", FullDescription: "Joins and indexes.", Category: "Data", Level: model.LevelBeginner, Instructor: "A"},
		{Title: "Public Speaking", ShortDescription: "Present well", FullDescription: "Structure a talk.", Category: "Business", Level: model.LevelBeginner, Instructor: "B"},
	}
	for i := range courses {
		require.NoError(t, db.Create(&courses[i]).Error)
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/courses?search=sql", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["total"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/courses", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["total"])
}

func TestAdminOnlyCourseCreation(t *testing.T) {
	app, _ := setupTestApp(t)

	// Register a regular student
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    "student@example.com",
		"password": "s3cret-password",
		"name":     "Student",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "student@example.com",
		"password": "s3cret-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := body["data"].(map[string]any)["access_token"].(string)

	// Students cannot create courses
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/courses", token, map[string]any{
		"title":             "Should Not Exist",
		"short_description": "nope",
		"full_description":  "nope",
		"level":             "Beginner",
		"duration":          "1 week",
		"instructor":        "Nobody",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
