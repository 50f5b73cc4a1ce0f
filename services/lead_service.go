package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skillbridge/skillbridge-api/model"
	"gorm.io/gorm"
)

// LeadService owns the enrollment_leads table. Its upsert semantics bound
// table growth under repeated form submissions: at most one unconverted lead
// exists per (user, course, tier), and a later payment is always attributed
// to the most recently touched one.
type LeadService struct {
	db *gorm.DB
}

// NewLeadService creates a new lead service
func NewLeadService(db *gorm.DB) *LeadService {
	return &LeadService{db: db}
}

// UpsertLeadInput carries the enrollment form fields. Mobile format
// validation happens at the handler boundary, before the store is touched.
type UpsertLeadInput struct {
	UserID            uint
	CourseID          uint
	CourseTierID      uint
	Email             string
	FullName          string
	MobileNo          string
	AlternateMobileNo string
	CourseTitle       string
	TierTitle         string
	CourseMode        string
	DurationMonths    int
	DurationHours     int
	TotalAmountPaise  int64
}

// UpsertLead updates the most recent unconverted lead for the
// (user, course, tier) tuple in place, or inserts a new one if none exists.
func (s *LeadService) UpsertLead(ctx context.Context, input UpsertLeadInput) (*model.EnrollmentLead, error) {
	var lead model.EnrollmentLead
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND course_tier_id = ? AND converted_at IS NULL",
			input.UserID, input.CourseID, input.CourseTierID).
		Order("updated_at DESC").
		First(&lead).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up lead: %w", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		lead = model.EnrollmentLead{
			UserID:       input.UserID,
			CourseID:     input.CourseID,
			CourseTierID: input.CourseTierID,
		}
	}

	lead.Email = input.Email
	lead.FullName = input.FullName
	lead.MobileNo = input.MobileNo
	lead.AlternateMobileNo = input.AlternateMobileNo
	lead.CourseTitle = input.CourseTitle
	lead.TierTitle = input.TierTitle
	lead.CourseMode = input.CourseMode
	lead.DurationMonths = input.DurationMonths
	lead.DurationHours = input.DurationHours
	lead.TotalAmountPaise = input.TotalAmountPaise

	if err := s.db.WithContext(ctx).Save(&lead).Error; err != nil {
		return nil, fmt.Errorf("failed to save lead: %w", err)
	}

	return &lead, nil
}

// MarkConverted stamps the conversion time on a lead. Idempotent: a lead that
// is already converted keeps its original timestamp.
func (s *LeadService) MarkConverted(ctx context.Context, leadID uint) error {
	return s.db.WithContext(ctx).
		Model(&model.EnrollmentLead{}).
		Where("id = ? AND converted_at IS NULL", leadID).
		Update("converted_at", time.Now()).Error
}

// LatestUnconverted returns the most recent unconverted lead for the tuple,
// or nil when none exists
func (s *LeadService) LatestUnconverted(ctx context.Context, userID, courseID, tierID uint) (*model.EnrollmentLead, error) {
	var lead model.EnrollmentLead
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND course_tier_id = ? AND converted_at IS NULL",
			userID, courseID, tierID).
		Order("updated_at DESC").
		First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}
