package services

import (
	"testing"

	"github.com/skillbridge/skillbridge-api/model"
	"github.com/stretchr/testify/assert"
)

func TestReceiptRecipientResolution(t *testing.T) {
	e := &EmailService{}

	// The callback email wins even when no associations are loaded, which is
	// the normal case: the reconciler hands over freshly built rows and the
	// enrollments table stores no email of its own.
	enrollment := &model.Enrollment{ID: 1}
	got := e.recipientFor(enrollment, PaymentCallback{Email: "student@example.com"})
	assert.Equal(t, "student@example.com", got)

	// Preloaded lead as fallback when the callback carried no email
	enrollment.Lead = &model.EnrollmentLead{Email: "lead@example.com"}
	assert.Equal(t, "lead@example.com", e.recipientFor(enrollment, PaymentCallback{}))

	// Owning user when neither callback nor lead has one
	enrollment.Lead = nil
	enrollment.User = model.User{Email: "user@example.com"}
	assert.Equal(t, "user@example.com", e.recipientFor(enrollment, PaymentCallback{}))

	assert.Empty(t, e.recipientFor(&model.Enrollment{}, PaymentCallback{}))
}
