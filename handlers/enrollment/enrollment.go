package enrollment

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/skillbridge/skillbridge-api/services"
	"github.com/skillbridge/skillbridge-api/utils/middleware"
	"github.com/skillbridge/skillbridge-api/utils/response"
	"github.com/skillbridge/skillbridge-api/utils/validation"
)

// EnrollmentHandler handles enrollment leads and the student's enrollment list
type EnrollmentHandler struct {
	leads     *services.LeadService
	payments  *services.PaymentService
	validator *validation.Validator
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(leads *services.LeadService, payments *services.PaymentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		leads:     leads,
		payments:  payments,
		validator: validation.NewValidator(),
	}
}

// SaveLeadRequest is the enrollment form payload captured before checkout
type SaveLeadRequest struct {
	CourseID          uint   `json:"courseId" validate:"required,min=1"`
	CourseTierID      uint   `json:"courseTierId" validate:"required,min=1"`
	Email             string `json:"email" validate:"required,email"`
	FullName          string `json:"fullName" validate:"required,min=2,max=255"`
	MobileNo          string `json:"mobileNo" validate:"required,mobile"`
	AlternateMobileNo string `json:"alternateMobileNo" validate:"omitempty,mobile"`
	CourseTitle       string `json:"courseTitle" validate:"omitempty,max=255"`
	TierTitle         string `json:"tierTitle" validate:"omitempty,max=255"`
	CourseMode        string `json:"courseMode" validate:"omitempty,max=30"`
	DurationMonths    int    `json:"durationMonths" validate:"omitempty,min=0"`
	DurationHours     int    `json:"durationHours" validate:"omitempty,min=0"`
	TotalAmount       int64  `json:"totalAmount" validate:"required,gt=0"`
}

// SaveLead handles POST /api/v1/enrollment/save-lead. Repeated submissions for the
// same course tier update the existing unconverted lead rather than piling up
// new rows.
func (h *EnrollmentHandler) SaveLead(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req SaveLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	lead, err := h.leads.UpsertLead(c.Context(), services.UpsertLeadInput{
		UserID:            userID,
		CourseID:          req.CourseID,
		CourseTierID:      req.CourseTierID,
		Email:             validation.SanitizeString(req.Email),
		FullName:          validation.SanitizeString(req.FullName),
		MobileNo:          req.MobileNo,
		AlternateMobileNo: req.AlternateMobileNo,
		CourseTitle:       validation.SanitizeString(req.CourseTitle),
		TierTitle:         validation.SanitizeString(req.TierTitle),
		CourseMode:        req.CourseMode,
		DurationMonths:    req.DurationMonths,
		DurationHours:     req.DurationHours,
		TotalAmountPaise:  req.TotalAmount,
	})
	if err != nil {
		log.Printf("failed to save lead for user %d course %d: %v", userID, req.CourseID, err)
		return response.InternalServerError(c, "Failed to save enrollment details")
	}

	return response.SuccessWithMessage(c, "Enrollment details saved", fiber.Map{
		"leadId": lead.ID,
	})
}

// MyEnrollments handles GET /api/v1/enrollment/my. Access level is derived
// per row so the client never has to interpret payment bookkeeping.
func (h *EnrollmentHandler) MyEnrollments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollments, err := h.payments.ListEnrollments(c.Context(), userID)
	if err != nil {
		log.Printf("failed to list enrollments for user %d: %v", userID, err)
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	items := make([]fiber.Map, 0, len(enrollments))
	for _, e := range enrollments {
		items = append(items, fiber.Map{
			"id":              e.ID,
			"courseId":        e.CourseID,
			"courseTierId":    e.CourseTierID,
			"courseTitle":     e.CourseTitle,
			"tierTitle":       e.TierTitle,
			"courseMode":      e.CourseMode,
			"durationMonths":  e.DurationMonths,
			"durationHours":   e.DurationHours,
			"amountPaid":      e.AmountPaidPaise,
			"totalAmount":     e.TotalCoursePaise,
			"remainingAmount": e.RemainingAmountPaise,
			"accessLevel":     e.AccessLevel(),
			"paymentType":     e.PaymentType,
			"purchasedAt":     e.PurchasedAt,
		})
	}

	return response.Success(c, fiber.Map{
		"enrollments": items,
		"count":       len(items),
	})
}
