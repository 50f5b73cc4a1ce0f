package model

import (
	"time"

	"gorm.io/gorm"
)

// EnrollmentLead is a provisional, pre-payment record of a user's intent to
// enroll. At most one unconverted lead exists per (user, course, tier); a
// repeated form submission updates the existing row instead of inserting.
type EnrollmentLead struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID       uint `gorm:"not null;index:idx_lead_slot" json:"user_id"`
	CourseID     uint `gorm:"not null;index:idx_lead_slot" json:"course_id"`
	CourseTierID uint `gorm:"not null;index:idx_lead_slot" json:"course_tier_id"`

	// Contact fields carried into the payment flow
	Email             string `gorm:"not null" json:"email"`
	FullName          string `gorm:"not null" json:"full_name"`
	MobileNo          string `gorm:"type:varchar(15);not null" json:"mobile_no"`
	AlternateMobileNo string `gorm:"type:varchar(15)" json:"alternate_mobile_no"`

	// Denormalized display fields
	CourseTitle    string `json:"course_title"`
	TierTitle      string `json:"tier_title"`
	CourseMode     string `gorm:"type:varchar(30)" json:"course_mode"`
	DurationMonths int    `json:"duration_months"`
	DurationHours  int    `json:"duration_hours"`

	TotalAmountPaise int64      `gorm:"not null" json:"total_amount_paise"`
	ConvertedAt      *time.Time `gorm:"index" json:"converted_at"` // null until an enrollment is created
	FollowUpSentAt   *time.Time `json:"follow_up_sent_at"`         // null until a reminder email goes out

	// Relationships
	User   User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Tier   CourseTier `gorm:"foreignKey:CourseTierID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for EnrollmentLead
func (EnrollmentLead) TableName() string {
	return "enrollment_leads"
}

// IsConverted reports whether an enrollment was created from this lead
func (l *EnrollmentLead) IsConverted() bool {
	return l.ConvertedAt != nil
}
