package course

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skillbridge/skillbridge-api/model"
	"github.com/skillbridge/skillbridge-api/utils/cache"
	"github.com/skillbridge/skillbridge-api/utils/response"
	"github.com/skillbridge/skillbridge-api/utils/validation"
	"gorm.io/gorm"
)

const (
	courseListCacheKey = "courses:list"
	courseCacheTTL     = 10 * time.Minute
)

// CourseHandler handles course catalog requests
type CourseHandler struct {
	db        *gorm.DB
	cache     *cache.RedisCache
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, redisCache *cache.RedisCache) *CourseHandler {
	return &CourseHandler{
		db:        db,
		cache:     redisCache,
		validator: validation.NewValidator(),
	}
}

// ListCourses handles GET /api/v1/courses. The published catalog changes
// rarely, so the full list is served from cache when possible.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	category := strings.TrimSpace(c.Query("category"))

	cacheKey := courseListCacheKey
	if category != "" {
		cacheKey = fmt.Sprintf("%s:%s", courseListCacheKey, category)
	}

	if h.cache != nil {
		var cached []model.Course
		if err := h.cache.GetJSON(c.Context(), cacheKey, &cached); err == nil {
			return response.Success(c, fiber.Map{
				"courses": cached,
				"count":   len(cached),
			})
		}
	}

	query := h.db.WithContext(c.Context()).
		Preload("Tiers").
		Where("is_published = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var courses []model.Course
	if err := query.Order("title ASC").Find(&courses).Error; err != nil {
		log.Printf("failed to list courses: %v", err)
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(c.Context(), cacheKey, courses, courseCacheTTL); err != nil {
			log.Printf("failed to cache course list: %v", err)
		}
	}

	return response.Success(c, fiber.Map{
		"courses": courses,
		"count":   len(courses),
	})
}

// GetCourse handles GET /api/v1/courses/:slug
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return response.BadRequest(c, "Course slug is required")
	}

	cacheKey := fmt.Sprintf("courses:slug:%s", slug)
	if h.cache != nil {
		var cached model.Course
		if err := h.cache.GetJSON(c.Context(), cacheKey, &cached); err == nil {
			return response.Success(c, cached)
		}
	}

	var course model.Course
	err := h.db.WithContext(c.Context()).
		Preload("Tiers").
		Where("slug = ? AND is_published = ?", slug, true).
		First(&course).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		log.Printf("failed to fetch course %s: %v", slug, err)
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(c.Context(), cacheKey, course, courseCacheTTL); err != nil {
			log.Printf("failed to cache course %s: %v", slug, err)
		}
	}

	return response.Success(c, course)
}

// CreateCourseRequest represents an admin course creation request
type CreateCourseRequest struct {
	Title       string              `json:"title" validate:"required,min=2,max=255"`
	Slug        string              `json:"slug" validate:"required,min=2,max=255"`
	Description string              `json:"description"`
	Category    string              `json:"category" validate:"omitempty,max=50"`
	IsPublished *bool               `json:"is_published"`
	Tiers       []CourseTierRequest `json:"tiers" validate:"omitempty,dive"`
}

// CourseTierRequest represents a tier within a course create/update request
type CourseTierRequest struct {
	Title          string `json:"title" validate:"required,min=2,max=255"`
	Mode           string `json:"mode" validate:"omitempty,oneof=online hybrid classroom"`
	DurationMonths int    `json:"duration_months" validate:"omitempty,min=0"`
	DurationHours  int    `json:"duration_hours" validate:"omitempty,min=0"`
	PricePaise     int64  `json:"price_paise" validate:"required,gt=0"`
	SlotPricePaise int64  `json:"slot_price_paise" validate:"omitempty,min=0"`
}

// CreateCourse handles POST /api/v1/admin/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}

	course := model.Course{
		Title:       validation.SanitizeString(req.Title),
		Slug:        strings.ToLower(strings.TrimSpace(req.Slug)),
		Description: req.Description,
		Category:    req.Category,
		IsPublished: published,
	}
	for _, t := range req.Tiers {
		course.Tiers = append(course.Tiers, model.CourseTier{
			Title:          validation.SanitizeString(t.Title),
			Mode:           t.Mode,
			DurationMonths: t.DurationMonths,
			DurationHours:  t.DurationHours,
			PricePaise:     t.PricePaise,
			SlotPricePaise: t.SlotPricePaise,
		})
	}

	if err := h.db.WithContext(c.Context()).Create(&course).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return response.Conflict(c, "A course with this slug already exists")
		}
		log.Printf("failed to create course: %v", err)
		return response.InternalServerError(c, "Failed to create course")
	}

	h.invalidateCache(c)

	return response.Created(c, course)
}

// UpdateCourseRequest represents an admin course update request
type UpdateCourseRequest struct {
	Title       string `json:"title" validate:"omitempty,min=2,max=255"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"omitempty,max=50"`
	IsPublished *bool  `json:"is_published"`
}

// UpdateCourse handles PUT /api/v1/admin/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.WithContext(c.Context()).First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if req.Title != "" {
		course.Title = validation.SanitizeString(req.Title)
	}
	if req.Description != "" {
		course.Description = req.Description
	}
	if req.Category != "" {
		course.Category = req.Category
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}

	if err := h.db.WithContext(c.Context()).Save(&course).Error; err != nil {
		log.Printf("failed to update course %d: %v", courseID, err)
		return response.InternalServerError(c, "Failed to update course")
	}

	h.invalidateCache(c)

	return response.Success(c, course)
}

// DeleteCourse handles DELETE /api/v1/admin/courses/:id (soft delete)
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	result := h.db.WithContext(c.Context()).Delete(&model.Course{}, courseID)
	if result.Error != nil {
		log.Printf("failed to delete course %d: %v", courseID, result.Error)
		return response.InternalServerError(c, "Failed to delete course")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Course not found")
	}

	h.invalidateCache(c)

	return response.Success(c, fiber.Map{
		"message": "Course deleted successfully",
	})
}

func (h *CourseHandler) invalidateCache(c *fiber.Ctx) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeletePattern(c.Context(), "courses:*"); err != nil {
		log.Printf("failed to invalidate course cache: %v", err)
	}
}
