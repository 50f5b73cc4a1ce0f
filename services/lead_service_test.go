package services

import (
	"context"
	"testing"

	"github.com/skillbridge/skillbridge-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leadInput(userID uint) UpsertLeadInput {
	return UpsertLeadInput{
		UserID:           userID,
		CourseID:         10,
		CourseTierID:     100,
		Email:            "student@example.com",
		FullName:         "Test Student",
		MobileNo:         "9876543210",
		CourseTitle:      "Full Stack Development",
		TierTitle:        "Pro",
		TotalAmountPaise: 10000,
	}
}

func TestUpsertLeadDeduplicates(t *testing.T) {
	db := newTestDB(t)
	leads := NewLeadService(db)
	ctx := context.Background()

	first, err := leads.UpsertLead(ctx, leadInput(1))
	require.NoError(t, err)

	// Re-submission with changed contact details updates the same row
	input := leadInput(1)
	input.MobileNo = "9123456780"
	second, err := leads.UpsertLead(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "9123456780", second.MobileNo)

	var count int64
	db.Model(&model.EnrollmentLead{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpsertLeadAfterConversionCreatesNewRow(t *testing.T) {
	db := newTestDB(t)
	leads := NewLeadService(db)
	ctx := context.Background()

	first, err := leads.UpsertLead(ctx, leadInput(1))
	require.NoError(t, err)
	require.NoError(t, leads.MarkConverted(ctx, first.ID))

	second, err := leads.UpsertLead(ctx, leadInput(1))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID, "a converted lead is closed; a new submission opens a new lead")
}

func TestMarkConvertedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	leads := NewLeadService(db)
	ctx := context.Background()

	lead, err := leads.UpsertLead(ctx, leadInput(1))
	require.NoError(t, err)

	require.NoError(t, leads.MarkConverted(ctx, lead.ID))

	var converted model.EnrollmentLead
	require.NoError(t, db.First(&converted, lead.ID).Error)
	require.NotNil(t, converted.ConvertedAt)
	stamp := *converted.ConvertedAt

	// Second conversion keeps the original timestamp
	require.NoError(t, leads.MarkConverted(ctx, lead.ID))
	require.NoError(t, db.First(&converted, lead.ID).Error)
	assert.Equal(t, stamp.Unix(), converted.ConvertedAt.Unix())
}

func TestLatestUnconverted(t *testing.T) {
	db := newTestDB(t)
	leads := NewLeadService(db)
	ctx := context.Background()

	lead, err := leads.LatestUnconverted(ctx, 1, 10, 100)
	require.NoError(t, err)
	assert.Nil(t, lead, "no lead yet")

	created, err := leads.UpsertLead(ctx, leadInput(1))
	require.NoError(t, err)

	lead, err = leads.LatestUnconverted(ctx, 1, 10, 100)
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, created.ID, lead.ID)

	require.NoError(t, leads.MarkConverted(ctx, created.ID))

	lead, err = leads.LatestUnconverted(ctx, 1, 10, 100)
	require.NoError(t, err)
	assert.Nil(t, lead, "converted leads are out of scope")
}
