package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment status values for enrollments
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment type values. The stored type describes the cumulative status of the
// purchase, not the individual transaction: once the remaining balance hits
// zero the row is marked "full" even if the first installment was partial.
const (
	PaymentTypeFull    = "full"
	PaymentTypePartial = "partial"
)

// Enrollment is the authoritative record of a course purchase, partial or
// full. RazorpayPaymentID is the single idempotency key: it is unique across
// all rows and prevents double-processing of a re-delivered gateway callback.
type Enrollment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID       uint `gorm:"not null;index:idx_enrollment_slot" json:"user_id"`
	CourseID     uint `gorm:"not null;index:idx_enrollment_slot" json:"course_id"`
	CourseTierID uint `gorm:"not null;index:idx_enrollment_slot" json:"course_tier_id"`

	RazorpayOrderID   string `gorm:"type:varchar(100);not null" json:"razorpay_order_id"`
	RazorpayPaymentID string `gorm:"type:varchar(100);uniqueIndex;not null" json:"razorpay_payment_id"`
	RazorpaySignature string `gorm:"type:varchar(200)" json:"-"`

	PaymentStatus string `gorm:"type:varchar(20);default:'completed'" json:"payment_status"`
	PaymentType   string `gorm:"type:varchar(10);not null" json:"payment_type"` // full, partial

	AmountPaidPaise      int64 `gorm:"not null" json:"amount_paid_paise"`
	TotalCoursePaise     int64 `gorm:"not null" json:"total_course_paise"` // including tax
	RemainingAmountPaise int64 `gorm:"not null;default:0" json:"remaining_amount_paise"`

	PartialAccessGranted bool `gorm:"default:false" json:"partial_access_granted"`
	FullAccessGranted    bool `gorm:"default:false" json:"full_access_granted"`

	PurchasedAt time.Time `gorm:"not null" json:"purchased_at"`
	LeadID      *uint     `gorm:"index" json:"lead_id"` // optional link to the originating lead

	// Contact and display fields denormalized for receipt generation
	MobileNo          string `gorm:"type:varchar(15)" json:"mobile_no"`
	AlternateMobileNo string `gorm:"type:varchar(15)" json:"alternate_mobile_no"`
	CourseTitle       string `json:"course_title"`
	TierTitle         string `json:"tier_title"`
	CourseMode        string `gorm:"type:varchar(30)" json:"course_mode"`
	DurationMonths    int    `json:"duration_months"`
	DurationHours     int    `json:"duration_hours"`

	// Snapshot of the first installment's gateway identifiers. The razorpay
	// columns above track the latest transaction and are overwritten when a
	// remaining payment settles the balance.
	GatewayMetadata datatypes.JSON `json:"gateway_metadata,omitempty"`

	// Relationships
	User User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Lead *EnrollmentLead `gorm:"foreignKey:LeadID" json:"-"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}

// AccessLevel returns "full" or "partial" from the access flags
func (e *Enrollment) AccessLevel() string {
	if e.FullAccessGranted {
		return "full"
	}
	return "partial"
}
