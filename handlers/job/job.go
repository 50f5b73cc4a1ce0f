package job

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/skillbridge/skillbridge-api/model"
	"github.com/skillbridge/skillbridge-api/services/storage"
	"github.com/skillbridge/skillbridge-api/utils/middleware"
	"github.com/skillbridge/skillbridge-api/utils/pdfvalidation"
	"github.com/skillbridge/skillbridge-api/utils/response"
	"github.com/skillbridge/skillbridge-api/utils/validation"
	"gorm.io/gorm"
)

// JobHandler handles job listings, bookmarks, and applications
type JobHandler struct {
	db        *gorm.DB
	spaces    *storage.SpacesClient
	validator *validation.Validator
}

// NewJobHandler creates a new job handler
func NewJobHandler(db *gorm.DB, spaces *storage.SpacesClient) *JobHandler {
	return &JobHandler{
		db:        db,
		spaces:    spaces,
		validator: validation.NewValidator(),
	}
}

// ListJobs handles GET /api/v1/jobs with optional filters and pagination
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.WithContext(c.Context()).
		Model(&model.Job{}).
		Where("is_active = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now())

	if jobType := c.Query("type"); jobType != "" {
		query = query.Where("job_type = ?", jobType)
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("location ILIKE ?", "%"+location+"%")
	}
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		query = query.Where("title ILIKE ? OR company ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("failed to count jobs: %v", err)
		return response.InternalServerError(c, "Failed to fetch jobs")
	}

	var jobs []model.Job
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		log.Printf("failed to list jobs: %v", err)
		return response.InternalServerError(c, "Failed to fetch jobs")
	}

	return response.Paginated(c, jobs, response.CalculatePagination(page, limit, total))
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	jobID, err := c.ParamsInt("id")
	if err != nil || jobID <= 0 {
		return response.BadRequest(c, "Invalid job ID")
	}

	var job model.Job
	if err := h.db.WithContext(c.Context()).First(&job, jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Job not found")
		}
		return response.InternalServerError(c, "Failed to fetch job")
	}

	return response.Success(c, job)
}

// SaveJob handles POST /api/v1/jobs/:id/save. Saving an already saved job is
// a no-op success.
func (h *JobHandler) SaveJob(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	jobID, err := c.ParamsInt("id")
	if err != nil || jobID <= 0 {
		return response.BadRequest(c, "Invalid job ID")
	}

	var job model.Job
	if err := h.db.WithContext(c.Context()).First(&job, jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Job not found")
		}
		return response.InternalServerError(c, "Failed to fetch job")
	}

	saved := model.SavedJob{UserID: userID, JobID: uint(jobID)}
	if err := h.db.WithContext(c.Context()).Create(&saved).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return response.Success(c, fiber.Map{"message": "Job already saved"})
		}
		log.Printf("failed to save job %d for user %d: %v", jobID, userID, err)
		return response.InternalServerError(c, "Failed to save job")
	}

	return response.Success(c, fiber.Map{"message": "Job saved"})
}

// UnsaveJob handles DELETE /api/v1/jobs/:id/save
func (h *JobHandler) UnsaveJob(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	jobID, err := c.ParamsInt("id")
	if err != nil || jobID <= 0 {
		return response.BadRequest(c, "Invalid job ID")
	}

	result := h.db.WithContext(c.Context()).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Delete(&model.SavedJob{})
	if result.Error != nil {
		log.Printf("failed to unsave job %d for user %d: %v", jobID, userID, result.Error)
		return response.InternalServerError(c, "Failed to remove saved job")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Job is not in your saved list")
	}

	return response.Success(c, fiber.Map{"message": "Job removed from saved list"})
}

// SavedJobs handles GET /api/v1/jobs/saved
func (h *JobHandler) SavedJobs(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var saved []model.SavedJob
	err := h.db.WithContext(c.Context()).
		Preload("Job").
		Where("user_id = ?", userID).
		Order("saved_at DESC").
		Find(&saved).Error
	if err != nil {
		log.Printf("failed to list saved jobs for user %d: %v", userID, err)
		return response.InternalServerError(c, "Failed to fetch saved jobs")
	}

	return response.Success(c, fiber.Map{
		"saved_jobs": saved,
		"count":      len(saved),
	})
}

// Apply handles POST /api/v1/jobs/:id/apply with a multipart resume upload.
// The resume must be a real PDF within size and page limits.
func (h *JobHandler) Apply(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	jobID, err := c.ParamsInt("id")
	if err != nil || jobID <= 0 {
		return response.BadRequest(c, "Invalid job ID")
	}

	var job model.Job
	if err := h.db.WithContext(c.Context()).First(&job, jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Job not found")
		}
		return response.InternalServerError(c, "Failed to fetch job")
	}
	if !job.IsActive || (job.ExpiresAt != nil && job.ExpiresAt.Before(time.Now())) {
		return response.BadRequest(c, "This job listing is no longer accepting applications")
	}

	file, err := c.FormFile("resume")
	if err != nil {
		return response.BadRequest(c, "Resume file is required")
	}

	result, err := pdfvalidation.ValidatePDFFile(file, pdfvalidation.ResumeLimits)
	if err != nil {
		log.Printf("resume validation error for user %d: %v", userID, err)
		return response.InternalServerError(c, "Failed to validate resume")
	}
	if !result.Valid {
		return response.BadRequest(c, result.Error)
	}

	resumeURL := ""
	if h.spaces != nil {
		src, err := file.Open()
		if err != nil {
			return response.InternalServerError(c, "Failed to read resume")
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return response.InternalServerError(c, "Failed to read resume")
		}

		key := fmt.Sprintf("resumes/%d/%s.pdf", userID, uuid.New().String())
		resumeURL, err = h.spaces.UploadFile(c.Context(), key, bytes.NewReader(content), "application/pdf")
		if err != nil {
			log.Printf("resume upload failed for user %d: %v", userID, err)
			return response.InternalServerError(c, "Failed to upload resume")
		}
	}

	application := model.JobApplication{
		UserID:    userID,
		JobID:     uint(jobID),
		ResumeURL: resumeURL,
		Status:    "submitted",
	}
	if err := h.db.WithContext(c.Context()).Create(&application).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return response.Conflict(c, "You have already applied to this job")
		}
		log.Printf("failed to store application for user %d job %d: %v", userID, jobID, err)
		return response.InternalServerError(c, "Failed to submit application")
	}

	return response.Created(c, fiber.Map{
		"application_id": application.ID,
		"status":         application.Status,
		"resume_url":     resumeURL,
	})
}

// MyApplications handles GET /api/v1/jobs/applications
func (h *JobHandler) MyApplications(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var applications []model.JobApplication
	err := h.db.WithContext(c.Context()).
		Preload("Job").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&applications).Error
	if err != nil {
		log.Printf("failed to list applications for user %d: %v", userID, err)
		return response.InternalServerError(c, "Failed to fetch applications")
	}

	return response.Success(c, fiber.Map{
		"applications": applications,
		"count":        len(applications),
	})
}

// CreateJobRequest represents an admin job creation request
type CreateJobRequest struct {
	Title       string     `json:"title" validate:"required,min=2,max=255"`
	Company     string     `json:"company" validate:"required,min=2,max=255"`
	Location    string     `json:"location" validate:"omitempty,max=100"`
	JobType     string     `json:"job_type" validate:"omitempty,oneof=full_time internship contract"`
	Description string     `json:"description"`
	ApplyURL    string     `json:"apply_url" validate:"omitempty,url"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// CreateJob handles POST /api/v1/admin/jobs
func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	var req CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	job := model.Job{
		Title:       validation.SanitizeString(req.Title),
		Company:     validation.SanitizeString(req.Company),
		Location:    req.Location,
		JobType:     req.JobType,
		Description: req.Description,
		ApplyURL:    req.ApplyURL,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := h.db.WithContext(c.Context()).Create(&job).Error; err != nil {
		log.Printf("failed to create job: %v", err)
		return response.InternalServerError(c, "Failed to create job")
	}

	return response.Created(c, job)
}

// DeactivateJob handles DELETE /api/v1/admin/jobs/:id
func (h *JobHandler) DeactivateJob(c *fiber.Ctx) error {
	jobID, err := c.ParamsInt("id")
	if err != nil || jobID <= 0 {
		return response.BadRequest(c, "Invalid job ID")
	}

	result := h.db.WithContext(c.Context()).
		Model(&model.Job{}).
		Where("id = ? AND is_active = ?", jobID, true).
		Update("is_active", false)
	if result.Error != nil {
		log.Printf("failed to deactivate job %d: %v", jobID, result.Error)
		return response.InternalServerError(c, "Failed to deactivate job")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Active job not found")
	}

	return response.Success(c, fiber.Map{"message": "Job deactivated"})
}
