package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/skillbridge/skillbridge-api/model"
	"github.com/skillbridge/skillbridge-api/services/razorpay"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrSignatureMismatch means the callback could not be authenticated.
	// Nothing is created or mutated when this is returned.
	ErrSignatureMismatch = errors.New("payment signature verification failed")

	// ErrAlreadyEnrolled is returned for a fresh (non-remaining) payment
	// against a tuple that already has a completed enrollment
	ErrAlreadyEnrolled = errors.New("an enrollment already exists for this course and tier")

	// ErrNoPartialEnrollment is returned for a remaining-payment callback
	// when no partially-paid enrollment exists for the tuple
	ErrNoPartialEnrollment = errors.New("no partially paid enrollment found")

	// ErrEnrollmentStore wraps database write failures other than the
	// unique-violation success path
	ErrEnrollmentStore = errors.New("failed to persist enrollment")
)

// PaymentCallback is the verified-payment payload posted by the client after
// gateway checkout completes. Required vs. optional fields are declared here
// once; the handler normalizes the wire payload into this struct instead of
// scattering fallbacks through the flow.
type PaymentCallback struct {
	UserID       uint
	CourseID     uint
	CourseTierID uint

	RazorpayOrderID   string
	RazorpayPaymentID string
	RazorpaySignature string

	AmountPaidPaise    int64 // paid in this transaction
	TotalCoursePaise   int64 // full course fee including tax
	PaymentType        string
	IsRemainingPayment bool

	LeadID *uint

	// Contact/display fields for the notification email and receipt
	Email             string
	FullName          string
	MobileNo          string
	AlternateMobileNo string
	CourseTitle       string
	TierTitle         string
	CourseMode        string
	DurationMonths    int
	DurationHours     int
}

// ReconcileResult reports the outcome of processing a payment callback
type ReconcileResult struct {
	EnrollmentID     uint
	AccessLevel      string // "full" or "partial"
	AlreadyProcessed bool
	Message          string
}

// EnrollmentNotifier dispatches the receipt/failure email. Notification is
// fire-and-forget relative to the state change: implementations must never
// make the reconciler fail. The callback travels alongside the enrollment
// because the enrollments table stores no email address; the contact fields
// the client submitted are the recipient source.
type EnrollmentNotifier interface {
	NotifySuccess(ctx context.Context, enrollment *model.Enrollment, cb PaymentCallback)
	NotifyFailure(ctx context.Context, cb PaymentCallback, reason string)
}

// gatewayMetadata snapshots the first installment's gateway identifiers on the
// enrollment row. Settling a remaining payment overwrites the razorpay columns
// with the final transaction, so this is where the slot-booking payment id
// survives for idempotency checks and audits.
type gatewayMetadata struct {
	InitialOrderID     string `json:"initial_order_id"`
	InitialPaymentID   string `json:"initial_payment_id"`
	InitialAmountPaise int64  `json:"initial_amount_paise"`
}

func buildGatewayMetadata(cb PaymentCallback) datatypes.JSON {
	raw, err := json.Marshal(gatewayMetadata{
		InitialOrderID:     cb.RazorpayOrderID,
		InitialPaymentID:   cb.RazorpayPaymentID,
		InitialAmountPaise: cb.AmountPaidPaise,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// PaymentService reconciles verified payment callbacks against the
// enrollments table. All cross-request coordination goes through the store's
// unique constraint on razorpay_payment_id; there are no in-process locks.
type PaymentService struct {
	db        *gorm.DB
	keySecret string
	leads     *LeadService
	notifier  EnrollmentNotifier
}

// NewPaymentService creates a new payment reconciliation service
func NewPaymentService(db *gorm.DB, keySecret string, leads *LeadService, notifier EnrollmentNotifier) *PaymentService {
	return &PaymentService{
		db:        db,
		keySecret: keySecret,
		leads:     leads,
		notifier:  notifier,
	}
}

// Reconcile authenticates a payment callback and applies it: a new enrollment
// for a fresh payment, an in-place settle for a remaining payment, or an
// idempotent no-op for a re-delivered callback.
func (s *PaymentService) Reconcile(ctx context.Context, cb PaymentCallback) (*ReconcileResult, error) {
	if !razorpay.VerifyPaymentSignature(cb.RazorpayOrderID, cb.RazorpayPaymentID, cb.RazorpaySignature, s.keySecret) {
		s.notifyFailure(ctx, cb, "signature verification failed")
		return nil, ErrSignatureMismatch
	}

	// Idempotent short-circuit: the payment id has already been recorded
	if existing, err := s.findByPaymentID(ctx, cb.RazorpayPaymentID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnrollmentStore, err)
	} else if existing != nil {
		return &ReconcileResult{
			EnrollmentID:     existing.ID,
			AccessLevel:      existing.AccessLevel(),
			AlreadyProcessed: true,
			Message:          "payment already processed",
		}, nil
	}

	if cb.IsRemainingPayment {
		return s.settleRemaining(ctx, cb)
	}
	return s.createFresh(ctx, cb)
}

// createFresh handles a first payment for a (user, course, tier) tuple
func (s *PaymentService) createFresh(ctx context.Context, cb PaymentCallback) (*ReconcileResult, error) {
	// A completed enrollment for this tuple means the page-level redirect was
	// bypassed; reject instead of inserting a duplicate. One exception: a
	// re-delivered slot-booking callback whose payment id has since been
	// overwritten by the settling payment. That id is preserved in
	// gateway_metadata, and matching it is a harmless duplicate, not a
	// second purchase.
	var existing model.Enrollment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND course_tier_id = ? AND payment_status = ?",
			cb.UserID, cb.CourseID, cb.CourseTierID, model.PaymentStatusCompleted).
		First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrEnrollmentStore, err)
	}
	if err == nil {
		var meta gatewayMetadata
		if len(existing.GatewayMetadata) > 0 {
			_ = json.Unmarshal(existing.GatewayMetadata, &meta)
		}
		if meta.InitialPaymentID != "" && meta.InitialPaymentID == cb.RazorpayPaymentID {
			return &ReconcileResult{
				EnrollmentID:     existing.ID,
				AccessLevel:      existing.AccessLevel(),
				AlreadyProcessed: true,
				Message:          "payment already processed",
			}, nil
		}
		return nil, ErrAlreadyEnrolled
	}

	remaining := cb.TotalCoursePaise - cb.AmountPaidPaise
	if remaining < 0 {
		remaining = 0
	}

	paymentType := model.PaymentTypePartial
	if remaining == 0 {
		paymentType = model.PaymentTypeFull
	}

	leadID := cb.LeadID
	if leadID == nil {
		if lead, err := s.leads.LatestUnconverted(ctx, cb.UserID, cb.CourseID, cb.CourseTierID); err == nil && lead != nil {
			leadID = &lead.ID
		}
	}

	enrollment := model.Enrollment{
		UserID:               cb.UserID,
		CourseID:             cb.CourseID,
		CourseTierID:         cb.CourseTierID,
		RazorpayOrderID:      cb.RazorpayOrderID,
		RazorpayPaymentID:    cb.RazorpayPaymentID,
		RazorpaySignature:    cb.RazorpaySignature,
		PaymentStatus:        model.PaymentStatusCompleted,
		PaymentType:          paymentType,
		AmountPaidPaise:      cb.AmountPaidPaise,
		TotalCoursePaise:     cb.TotalCoursePaise,
		RemainingAmountPaise: remaining,
		FullAccessGranted:    remaining == 0,
		PartialAccessGranted: remaining != 0,
		PurchasedAt:          time.Now(),
		LeadID:               leadID,
		MobileNo:             cb.MobileNo,
		AlternateMobileNo:    cb.AlternateMobileNo,
		CourseTitle:          cb.CourseTitle,
		TierTitle:            cb.TierTitle,
		CourseMode:           cb.CourseMode,
		DurationMonths:       cb.DurationMonths,
		DurationHours:        cb.DurationHours,
		GatewayMetadata:      buildGatewayMetadata(cb),
	}

	if err := s.db.WithContext(ctx).Create(&enrollment).Error; err != nil {
		// A racing request for the same callback already inserted the row:
		// the unique payment-id constraint fired, which is a success outcome.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, lookupErr := s.findByPaymentID(ctx, cb.RazorpayPaymentID)
			if lookupErr == nil && existing != nil {
				return &ReconcileResult{
					EnrollmentID:     existing.ID,
					AccessLevel:      existing.AccessLevel(),
					AlreadyProcessed: true,
					Message:          "enrollment already exists",
				}, nil
			}
		}
		s.notifyFailure(ctx, cb, "failed to create enrollment")
		return nil, fmt.Errorf("%w: %v", ErrEnrollmentStore, err)
	}

	if leadID != nil {
		if err := s.leads.MarkConverted(ctx, *leadID); err != nil {
			// Conversion stamping is bookkeeping; the enrollment stands
			log.Printf("failed to mark lead %d converted: %v", *leadID, err)
		}
	}

	s.notifySuccess(ctx, &enrollment, cb)

	return &ReconcileResult{
		EnrollmentID: enrollment.ID,
		AccessLevel:  enrollment.AccessLevel(),
		Message:      "enrollment created",
	}, nil
}

// settleRemaining applies a remaining-balance payment to the existing
// partially-paid enrollment for the tuple. The mutation is a single guarded
// UPDATE whose expressions read the row's current values, so two concurrent
// callbacks cannot both apply their deltas: the second one matches zero rows.
// The signature is re-validated against the gateway secret here, not just at
// the Reconcile entry point: this is the privileged mutation path and must
// not trust its caller.
func (s *PaymentService) settleRemaining(ctx context.Context, cb PaymentCallback) (*ReconcileResult, error) {
	if !razorpay.VerifyPaymentSignature(cb.RazorpayOrderID, cb.RazorpayPaymentID, cb.RazorpaySignature, s.keySecret) {
		s.notifyFailure(ctx, cb, "signature verification failed")
		return nil, ErrSignatureMismatch
	}

	paid := cb.AmountPaidPaise

	// remaining_amount is clamped at zero: an overshooting payment must not
	// store a negative balance. The razorpay columns are overwritten with the
	// settling transaction; the slot-booking identifiers remain available in
	// gateway_metadata.
	res := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND course_tier_id = ? AND payment_status = ? AND full_access_granted = ? AND remaining_amount_paise > 0",
			cb.UserID, cb.CourseID, cb.CourseTierID, model.PaymentStatusCompleted, false).
		Updates(map[string]interface{}{
			"amount_paid_paise":      gorm.Expr("amount_paid_paise + ?", paid),
			"remaining_amount_paise": gorm.Expr("CASE WHEN remaining_amount_paise - ? > 0 THEN remaining_amount_paise - ? ELSE 0 END", paid, paid),
			"full_access_granted":    gorm.Expr("remaining_amount_paise - ? <= 0", paid),
			"partial_access_granted": gorm.Expr("remaining_amount_paise - ? > 0", paid),
			"payment_type":           gorm.Expr("CASE WHEN remaining_amount_paise - ? <= 0 THEN ? ELSE payment_type END", paid, model.PaymentTypeFull),
			"razorpay_order_id":      cb.RazorpayOrderID,
			"razorpay_payment_id":    cb.RazorpayPaymentID,
			"razorpay_signature":     cb.RazorpaySignature,
		})
	if res.Error != nil {
		s.notifyFailure(ctx, cb, "failed to update enrollment")
		return nil, fmt.Errorf("%w: %v", ErrEnrollmentStore, res.Error)
	}

	if res.RowsAffected == 0 {
		// Either a racing callback settled the row first, or there was never
		// a partial enrollment to settle. A fully-paid tuple is treated as a
		// harmless duplicate, never corrupted.
		if existing, err := s.findByPaymentID(ctx, cb.RazorpayPaymentID); err == nil && existing != nil {
			return &ReconcileResult{
				EnrollmentID:     existing.ID,
				AccessLevel:      existing.AccessLevel(),
				AlreadyProcessed: true,
				Message:          "payment already processed",
			}, nil
		}

		var settled model.Enrollment
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND course_id = ? AND course_tier_id = ? AND payment_status = ? AND full_access_granted = ?",
				cb.UserID, cb.CourseID, cb.CourseTierID, model.PaymentStatusCompleted, true).
			First(&settled).Error
		if err == nil {
			return &ReconcileResult{
				EnrollmentID:     settled.ID,
				AccessLevel:      settled.AccessLevel(),
				AlreadyProcessed: true,
				Message:          "enrollment already fully paid",
			}, nil
		}

		return nil, ErrNoPartialEnrollment
	}

	var updated model.Enrollment
	if err := s.db.WithContext(ctx).
		Preload("Lead").
		Where("razorpay_payment_id = ?", cb.RazorpayPaymentID).
		First(&updated).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnrollmentStore, err)
	}

	s.notifySuccess(ctx, &updated, cb)

	return &ReconcileResult{
		EnrollmentID: updated.ID,
		AccessLevel:  updated.AccessLevel(),
		Message:      "remaining payment applied",
	}, nil
}

func (s *PaymentService) findByPaymentID(ctx context.Context, paymentID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).
		Where("razorpay_payment_id = ?", paymentID).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (s *PaymentService) notifySuccess(ctx context.Context, enrollment *model.Enrollment, cb PaymentCallback) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifySuccess(ctx, enrollment, cb)
}

func (s *PaymentService) notifyFailure(ctx context.Context, cb PaymentCallback, reason string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyFailure(ctx, cb, reason)
}

// ListEnrollments returns a user's enrollments, newest first
func (s *PaymentService) ListEnrollments(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchased_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}
