package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a program in the catalog (e.g., "Full Stack Development")
type Course struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"not null" json:"title"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"type:varchar(50)" json:"category"`
	IsPublished bool           `gorm:"default:true;index" json:"is_published"`

	// Relationships
	Tiers []CourseTier `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"tiers,omitempty"`
}

// CourseTier is a priced variant of a course (duration/mode/fee combination)
type CourseTier struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID       uint           `gorm:"not null;index" json:"course_id"`
	Title          string         `gorm:"not null" json:"title"`                    // e.g., "Pro", "Mentorship"
	Mode           string         `gorm:"type:varchar(30)" json:"mode"`             // online, hybrid, classroom
	DurationMonths int            `gorm:"default:0" json:"duration_months"`
	DurationHours  int            `gorm:"default:0" json:"duration_hours"`
	PricePaise     int64          `gorm:"not null" json:"price_paise"` // total fee incl. tax, smallest currency unit
	SlotPricePaise int64          `gorm:"default:0" json:"slot_price_paise"` // partial "slot booking" installment

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for CourseTier
func (CourseTier) TableName() string {
	return "course_tiers"
}
