package payment

import (
	"errors"
	"log"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/skillbridge/skillbridge-api/services"
	"github.com/skillbridge/skillbridge-api/services/razorpay"
	"github.com/skillbridge/skillbridge-api/utils/middleware"
	"github.com/skillbridge/skillbridge-api/utils/response"
	"github.com/skillbridge/skillbridge-api/utils/validation"
)

// PaymentHandler handles order creation and payment verification
type PaymentHandler struct {
	orders    *razorpay.Service
	payments  *services.PaymentService
	validator *validation.Validator
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(orders *razorpay.Service, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		orders:    orders,
		payments:  payments,
		validator: validation.NewValidator(),
	}
}

// CreateOrderRequest represents the request body for creating a gateway order.
// Amount is bound as a float so a fractional value can be detected and
// rejected instead of silently truncated: charges are integer paise.
type CreateOrderRequest struct {
	CourseID     uint    `json:"courseId" validate:"required,min=1"`
	CourseTierID uint    `json:"courseTierId" validate:"required,min=1"`
	CourseTitle  string  `json:"courseTitle" validate:"omitempty,max=255"`
	TierTitle    string  `json:"tierTitle" validate:"omitempty,max=255"`
	Amount       float64 `json:"amount" validate:"required"`
}

// CreateOrderResponse is handed to the checkout widget
type CreateOrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// CreateOrder handles POST /api/v1/payment/create-order
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	// Integer paise only; fractional or non-positive amounts are rejected
	// before any gateway call
	if req.Amount <= 0 || req.Amount != math.Trunc(req.Amount) {
		return response.Error(c, fiber.StatusBadRequest, "Amount must be a positive integer in paise", "INVALID_AMOUNT")
	}

	order, err := h.orders.CreateOrder(c.Context(), userID, int64(req.Amount), "INR", map[string]interface{}{
		"course_id":      req.CourseID,
		"course_tier_id": req.CourseTierID,
		"course_title":   req.CourseTitle,
		"tier_title":     req.TierTitle,
	})
	if err != nil {
		if errors.Is(err, razorpay.ErrInvalidAmount) {
			return response.Error(c, fiber.StatusBadRequest, "Amount must be a positive integer in paise", "INVALID_AMOUNT")
		}
		log.Printf("order creation failed for user %d course %d: %v", userID, req.CourseID, err)
		return response.Error(c, fiber.StatusInternalServerError, "Failed to create payment order", "ORDER_CREATION_FAILED")
	}

	return response.Success(c, CreateOrderResponse{
		OrderID:  order.ID,
		Amount:   order.AmountPaise,
		Currency: order.Currency,
		KeyID:    h.orders.KeyID(),
	})
}

// VerifyPaymentRequest carries the gateway callback plus the business fields
// needed to reconcile and notify
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`

	CourseID           uint   `json:"courseId" validate:"required,min=1"`
	CourseTierID       uint   `json:"courseTierId" validate:"required,min=1"`
	Amount             int64  `json:"amount" validate:"required,gt=0"`
	TotalCourseAmount  int64  `json:"totalCourseAmount" validate:"required,gt=0"`
	PaymentType        string `json:"paymentType" validate:"omitempty,oneof=full partial"`
	IsRemainingPayment bool   `json:"isRemainingPayment"`
	LeadID             *uint  `json:"leadId"`

	Email             string `json:"email" validate:"omitempty,email"`
	FullName          string `json:"fullName" validate:"omitempty,max=255"`
	MobileNo          string `json:"mobileNo" validate:"omitempty,mobile"`
	AlternateMobileNo string `json:"alternateMobileNo" validate:"omitempty,mobile"`
	CourseTitle       string `json:"courseTitle" validate:"omitempty,max=255"`
	TierTitle         string `json:"tierTitle" validate:"omitempty,max=255"`
	CourseMode        string `json:"courseMode" validate:"omitempty,max=30"`
	DurationMonths    int    `json:"durationMonths" validate:"omitempty,min=0"`
	DurationHours     int    `json:"durationHours" validate:"omitempty,min=0"`
}

// VerifyPaymentResponse reports the reconciliation outcome
type VerifyPaymentResponse struct {
	EnrollmentID uint   `json:"enrollmentId"`
	AccessLevel  string `json:"accessLevel"` // full, partial
	Message      string `json:"message"`
}

// VerifyPayment handles POST /api/v1/payment/verify
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	cb := services.PaymentCallback{
		UserID:             userID,
		CourseID:           req.CourseID,
		CourseTierID:       req.CourseTierID,
		RazorpayOrderID:    req.RazorpayOrderID,
		RazorpayPaymentID:  req.RazorpayPaymentID,
		RazorpaySignature:  req.RazorpaySignature,
		AmountPaidPaise:    req.Amount,
		TotalCoursePaise:   req.TotalCourseAmount,
		PaymentType:        req.PaymentType,
		IsRemainingPayment: req.IsRemainingPayment,
		LeadID:             req.LeadID,
		Email:              req.Email,
		FullName:           req.FullName,
		MobileNo:           req.MobileNo,
		AlternateMobileNo:  req.AlternateMobileNo,
		CourseTitle:        req.CourseTitle,
		TierTitle:          req.TierTitle,
		CourseMode:         req.CourseMode,
		DurationMonths:     req.DurationMonths,
		DurationHours:      req.DurationHours,
	}

	result, err := h.payments.Reconcile(c.Context(), cb)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSignatureMismatch):
			return response.Error(c, fiber.StatusBadRequest, "Payment verification failed", "SIGNATURE_MISMATCH")
		case errors.Is(err, services.ErrAlreadyEnrolled):
			return response.Conflict(c, "You are already enrolled in this course tier")
		case errors.Is(err, services.ErrNoPartialEnrollment):
			return response.BadRequest(c, "No partially paid enrollment found for this course tier")
		default:
			// Money may be captured on the gateway with no record here; log
			// enough context for manual reconciliation.
			log.Printf("enrollment store failure: user=%d order=%s payment=%s err=%v",
				userID, req.RazorpayOrderID, req.RazorpayPaymentID, err)
			return response.InternalServerError(c, "Failed to record enrollment")
		}
	}

	return response.SuccessWithMessage(c, result.Message, VerifyPaymentResponse{
		EnrollmentID: result.EnrollmentID,
		AccessLevel:  result.AccessLevel,
		Message:      result.Message,
	})
}
