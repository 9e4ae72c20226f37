package services

import (
	"context"
	"strings"

	"github.com/kunalverma/coursedeck/model"
	"gorm.io/gorm"
)

// CatalogService answers course catalog queries. It never mutates state;
// category/level faceting stays on the client over the fetched result set.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListCourses returns all courses matching the search text plus the total count.
// Matching is a case-insensitive substring OR across title, short description,
// full description, and category; empty search returns the unfiltered set.
func (s *CatalogService) ListCourses(ctx context.Context, search string) ([]model.Course, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Course{})

	search = strings.TrimSpace(search)
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(short_description) LIKE ? OR LOWER(full_description) LIKE ? OR LOWER(category) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []model.Course
	if err := query.Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

// GetCourse returns one course by ID with its curriculum preloaded
func (s *CatalogService) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).
		Preload("Curriculum", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&course, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	return &course, nil
}
