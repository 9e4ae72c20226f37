package client

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/kunalverma/coursedeck/model"
)

// Client is a typed HTTP client for the CourseDeck API. It holds the bearer
// token from the last successful login and an EnrollmentCache mirroring the
// server's enrollment set for the signed-in user.
type Client struct {
	http        *resty.Client
	accessToken string
	Enrollments *EnrollmentCache
}

// NewClient creates a client pointed at baseURL, e.g. "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		http:        resty.New().SetBaseURL(baseURL),
		Enrollments: NewEnrollmentCache(),
	}
}

type apiEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func envelopeErr(env apiEnvelope, status int) error {
	if env.Error != nil {
		return fmt.Errorf("api error %s (%d): %s", env.Error.Code, status, env.Error.Message)
	}
	return fmt.Errorf("api error (%d): %s", status, env.Message)
}

type loginResult struct {
	apiEnvelope
	Data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"data"`
}

// Login authenticates and stores the access token for subsequent calls, then
// reconciles the enrollment cache against the server.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var result loginResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&result).
		SetError(&result).
		Post("/api/v1/auth/login")
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	if !result.Success {
		return envelopeErr(result.apiEnvelope, resp.StatusCode())
	}

	c.accessToken = result.Data.AccessToken

	// The cache is a mirror, not a source of truth: rebuild it from the
	// server on every sign-in.
	enrollments, err := c.ListEnrollments(ctx)
	if err != nil {
		return err
	}
	c.Enrollments.Reconcile(enrollments)

	return nil
}

type coursesResult struct {
	apiEnvelope
	Data struct {
		Courses []model.Course `json:"courses"`
		Total   int64          `json:"total"`
	} `json:"data"`
}

// ListCourses fetches the catalog, optionally filtered by a search term.
func (c *Client) ListCourses(ctx context.Context, search string) ([]model.Course, error) {
	var result coursesResult
	req := c.http.R().SetContext(ctx).SetResult(&result).SetError(&result)
	if search != "" {
		req.SetQueryParam("search", search)
	}
	resp, err := req.Get("/api/v1/courses")
	if err != nil {
		return nil, fmt.Errorf("list courses request failed: %w", err)
	}
	if !result.Success {
		return nil, envelopeErr(result.apiEnvelope, resp.StatusCode())
	}
	return result.Data.Courses, nil
}

type courseResult struct {
	apiEnvelope
	Data model.Course `json:"data"`
}

// GetCourse fetches one course with its curriculum.
func (c *Client) GetCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var result courseResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Get(fmt.Sprintf("/api/v1/courses/%d", courseID))
	if err != nil {
		return nil, fmt.Errorf("get course request failed: %w", err)
	}
	if !result.Success {
		return nil, envelopeErr(result.apiEnvelope, resp.StatusCode())
	}
	return &result.Data, nil
}

type enrollmentResult struct {
	apiEnvelope
	Data model.Enrollment `json:"data"`
}

// Enroll enrolls the signed-in user in a course. The cache is updated only
// after the server confirms the write.
func (c *Client) Enroll(ctx context.Context, courseID uint) (*model.Enrollment, error) {
	var result enrollmentResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.accessToken).
		SetBody(map[string]uint{"course_id": courseID}).
		SetResult(&result).
		SetError(&result).
		Post("/api/v1/enrollments")
	if err != nil {
		return nil, fmt.Errorf("enroll request failed: %w", err)
	}
	if !result.Success {
		return nil, envelopeErr(result.apiEnvelope, resp.StatusCode())
	}

	c.Enrollments.Add(courseID)
	return &result.Data, nil
}

// Unenroll removes the signed-in user's enrollment for a course.
func (c *Client) Unenroll(ctx context.Context, courseID uint) error {
	var result apiEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.accessToken).
		SetResult(&result).
		SetError(&result).
		Delete(fmt.Sprintf("/api/v1/enrollments/%d", courseID))
	if err != nil {
		return fmt.Errorf("unenroll request failed: %w", err)
	}
	if !result.Success {
		return envelopeErr(result, resp.StatusCode())
	}

	c.Enrollments.Remove(courseID)
	return nil
}

type enrollmentsResult struct {
	apiEnvelope
	Data struct {
		Enrollments []model.Enrollment `json:"enrollments"`
		Total       int                `json:"total"`
	} `json:"data"`
}

// ListEnrollments fetches the signed-in user's enrollments, most recently
// accessed first.
func (c *Client) ListEnrollments(ctx context.Context) ([]model.Enrollment, error) {
	var result enrollmentsResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.accessToken).
		SetResult(&result).
		SetError(&result).
		Get("/api/v1/enrollments")
	if err != nil {
		return nil, fmt.Errorf("list enrollments request failed: %w", err)
	}
	if !result.Success {
		return nil, envelopeErr(result.apiEnvelope, resp.StatusCode())
	}
	return result.Data.Enrollments, nil
}
