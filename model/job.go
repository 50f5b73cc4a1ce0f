package model

import (
	"time"

	"gorm.io/gorm"
)

// Job represents a job listing
type Job struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"not null" json:"title"`
	Company     string         `gorm:"not null" json:"company"`
	Location    string         `gorm:"type:varchar(100)" json:"location"`
	JobType     string         `gorm:"type:varchar(30)" json:"job_type"` // full_time, internship, contract
	Description string         `gorm:"type:text" json:"description"`
	ApplyURL    string         `gorm:"type:text" json:"apply_url"`
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
	ExpiresAt   *time.Time     `gorm:"index" json:"expires_at"`

	// Relationships
	SavedBy      []SavedJob       `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
	Applications []JobApplication `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
}

// SavedJob bookmarks a job listing for a user
type SavedJob struct {
	UserID  uint      `gorm:"primaryKey" json:"user_id"`
	JobID   uint      `gorm:"primaryKey" json:"job_id"`
	SavedAt time.Time `gorm:"autoCreateTime" json:"saved_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Job  Job  `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"job,omitempty"`
}

// TableName specifies the table name for SavedJob
func (SavedJob) TableName() string {
	return "saved_jobs"
}

// JobApplication records a user's application to a job, with an uploaded resume
type JobApplication struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_user_job_application" json:"user_id"`
	JobID     uint           `gorm:"not null;uniqueIndex:idx_user_job_application" json:"job_id"`
	ResumeURL string         `gorm:"type:text" json:"resume_url"`
	Status    string         `gorm:"type:varchar(20);default:'submitted'" json:"status"` // submitted, shortlisted, rejected

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Job  Job  `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"job,omitempty"`
}

// TableName specifies the table name for JobApplication
func (JobApplication) TableName() string {
	return "job_applications"
}
