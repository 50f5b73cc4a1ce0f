package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/skillbridge/skillbridge-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testKeySecret = "test_key_secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.CourseTier{},
		&model.EnrollmentLead{},
		&model.Enrollment{},
	))

	return db
}

func signCallback(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testKeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

type recordingNotifier struct {
	successes  []uint
	recipients []string
	failures   []string
}

func (n *recordingNotifier) NotifySuccess(ctx context.Context, enrollment *model.Enrollment, cb PaymentCallback) {
	n.successes = append(n.successes, enrollment.ID)
	n.recipients = append(n.recipients, cb.Email)
}

func (n *recordingNotifier) NotifyFailure(ctx context.Context, cb PaymentCallback, reason string) {
	n.failures = append(n.failures, reason)
}

func newTestPaymentService(t *testing.T) (*PaymentService, *gorm.DB, *recordingNotifier) {
	t.Helper()
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewPaymentService(db, testKeySecret, NewLeadService(db), notifier)
	return svc, db, notifier
}

func freshCallback(paymentID string, paid, total int64) PaymentCallback {
	orderID := "order_" + paymentID
	return PaymentCallback{
		UserID:            1,
		CourseID:          10,
		CourseTierID:      100,
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: signCallback(orderID, paymentID),
		AmountPaidPaise:   paid,
		TotalCoursePaise:  total,
		Email:             "student@example.com",
		FullName:          "Test Student",
		MobileNo:          "9876543210",
		CourseTitle:       "Full Stack Development",
		TierTitle:         "Pro",
	}
}

func TestReconcileRejectsBadSignature(t *testing.T) {
	svc, db, notifier := newTestPaymentService(t)

	cb := freshCallback("pay_bad_sig", 100000, 100000)
	cb.RazorpaySignature = "deadbeef"

	result, err := svc.Reconcile(context.Background(), cb)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Nil(t, result)

	var count int64
	db.Model(&model.Enrollment{}).Count(&count)
	assert.Zero(t, count, "no enrollment may be created for an unauthenticated callback")
	assert.Len(t, notifier.failures, 1)
	assert.Empty(t, notifier.successes)
}

func TestReconcileFullPayment(t *testing.T) {
	svc, db, notifier := newTestPaymentService(t)

	result, err := svc.Reconcile(context.Background(), freshCallback("pay_full_1", 1200000, 1200000))
	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, "full", result.AccessLevel)

	var enrollment model.Enrollment
	require.NoError(t, db.First(&enrollment, result.EnrollmentID).Error)
	assert.Equal(t, int64(1200000), enrollment.AmountPaidPaise)
	assert.Equal(t, int64(0), enrollment.RemainingAmountPaise)
	assert.Equal(t, model.PaymentTypeFull, enrollment.PaymentType)
	assert.True(t, enrollment.FullAccessGranted)
	assert.False(t, enrollment.PartialAccessGranted)
	assert.Len(t, notifier.successes, 1)
	assert.Equal(t, []string{"student@example.com"}, notifier.recipients,
		"the receipt email must be addressed to the callback's contact email")
}

func TestReconcilePartialPayment(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)

	result, err := svc.Reconcile(context.Background(), freshCallback("pay_partial_1", 100000, 1200000))
	require.NoError(t, err)
	assert.Equal(t, "partial", result.AccessLevel)

	var enrollment model.Enrollment
	require.NoError(t, db.First(&enrollment, result.EnrollmentID).Error)
	assert.Equal(t, int64(100000), enrollment.AmountPaidPaise)
	assert.Equal(t, int64(1100000), enrollment.RemainingAmountPaise)
	assert.Equal(t, model.PaymentTypePartial, enrollment.PaymentType)
	assert.False(t, enrollment.FullAccessGranted)
	assert.True(t, enrollment.PartialAccessGranted)

	var meta gatewayMetadata
	require.NoError(t, json.Unmarshal(enrollment.GatewayMetadata, &meta))
	assert.Equal(t, "pay_partial_1", meta.InitialPaymentID)
	assert.Equal(t, "order_pay_partial_1", meta.InitialOrderID)
	assert.Equal(t, int64(100000), meta.InitialAmountPaise)
}

func TestReconcileRedeliveredCallbackIsIdempotent(t *testing.T) {
	svc, db, notifier := newTestPaymentService(t)

	cb := freshCallback("pay_redelivered", 1200000, 1200000)

	first, err := svc.Reconcile(context.Background(), cb)
	require.NoError(t, err)

	second, err := svc.Reconcile(context.Background(), cb)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.EnrollmentID, second.EnrollmentID)

	var count int64
	db.Model(&model.Enrollment{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Len(t, notifier.successes, 1, "a re-delivered callback must not send a second receipt")
}

func TestReconcileRemainingPaymentSettlesBalance(t *testing.T) {
	svc, db, notifier := newTestPaymentService(t)

	// Slot booking: 1,000 of 10,000 paid
	_, err := svc.Reconcile(context.Background(), freshCallback("pay_slot", 1000, 10000))
	require.NoError(t, err)

	remaining := freshCallback("pay_balance", 9000, 10000)
	remaining.IsRemainingPayment = true

	result, err := svc.Reconcile(context.Background(), remaining)
	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, "full", result.AccessLevel)

	var enrollment model.Enrollment
	require.NoError(t, db.First(&enrollment, result.EnrollmentID).Error)
	assert.Equal(t, int64(10000), enrollment.AmountPaidPaise)
	assert.Equal(t, int64(0), enrollment.RemainingAmountPaise)
	assert.Equal(t, model.PaymentTypeFull, enrollment.PaymentType)
	assert.True(t, enrollment.FullAccessGranted)
	assert.False(t, enrollment.PartialAccessGranted)
	assert.Equal(t, "pay_balance", enrollment.RazorpayPaymentID)

	// The slot-booking identifiers survive the overwrite
	var meta gatewayMetadata
	require.NoError(t, json.Unmarshal(enrollment.GatewayMetadata, &meta))
	assert.Equal(t, "pay_slot", meta.InitialPaymentID)

	var count int64
	db.Model(&model.Enrollment{}).Count(&count)
	assert.Equal(t, int64(1), count, "settling must update in place, not insert")
	assert.Equal(t, []string{"student@example.com", "student@example.com"}, notifier.recipients,
		"both installments send a receipt to the callback's contact email")
}

func TestReconcileRedeliveredSlotBookingAfterSettlement(t *testing.T) {
	svc, db, notifier := newTestPaymentService(t)

	slot := freshCallback("pay_slot_redeliver", 1000, 10000)
	first, err := svc.Reconcile(context.Background(), slot)
	require.NoError(t, err)

	remaining := freshCallback("pay_settle_redeliver", 9000, 10000)
	remaining.IsRemainingPayment = true
	_, err = svc.Reconcile(context.Background(), remaining)
	require.NoError(t, err)

	// The settle overwrote the row's payment id; a re-delivery of the
	// original slot-booking callback must still read as a duplicate, not as
	// a second purchase.
	result, err := svc.Reconcile(context.Background(), slot)
	require.NoError(t, err)
	assert.True(t, result.AlreadyProcessed)
	assert.Equal(t, first.EnrollmentID, result.EnrollmentID)
	assert.Equal(t, "full", result.AccessLevel)

	var count int64
	db.Model(&model.Enrollment{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Len(t, notifier.successes, 2, "a re-delivered callback must not send a third receipt")
}

func TestReconcilePartialRemainingPaymentKeepsPartialAccess(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)

	_, err := svc.Reconcile(context.Background(), freshCallback("pay_slot_2", 1000, 10000))
	require.NoError(t, err)

	// Pays down only part of the balance
	remaining := freshCallback("pay_balance_2", 4000, 10000)
	remaining.IsRemainingPayment = true

	result, err := svc.Reconcile(context.Background(), remaining)
	require.NoError(t, err)
	assert.Equal(t, "partial", result.AccessLevel)

	var enrollment model.Enrollment
	require.NoError(t, db.First(&enrollment, result.EnrollmentID).Error)
	assert.Equal(t, int64(5000), enrollment.AmountPaidPaise)
	assert.Equal(t, int64(5000), enrollment.RemainingAmountPaise)
	assert.Equal(t, model.PaymentTypePartial, enrollment.PaymentType)
	assert.False(t, enrollment.FullAccessGranted)
}

func TestReconcileOverpaymentClampsRemainingAtZero(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)

	_, err := svc.Reconcile(context.Background(), freshCallback("pay_slot_3", 1000, 10000))
	require.NoError(t, err)

	remaining := freshCallback("pay_over", 20000, 10000)
	remaining.IsRemainingPayment = true

	result, err := svc.Reconcile(context.Background(), remaining)
	require.NoError(t, err)
	assert.Equal(t, "full", result.AccessLevel)

	var enrollment model.Enrollment
	require.NoError(t, db.First(&enrollment, result.EnrollmentID).Error)
	assert.Equal(t, int64(0), enrollment.RemainingAmountPaise, "remaining balance must never go negative")
	assert.True(t, enrollment.FullAccessGranted)
}

func TestReconcileRemainingWithoutPartialEnrollment(t *testing.T) {
	svc, _, _ := newTestPaymentService(t)

	remaining := freshCallback("pay_orphan", 9000, 10000)
	remaining.IsRemainingPayment = true

	result, err := svc.Reconcile(context.Background(), remaining)
	assert.ErrorIs(t, err, ErrNoPartialEnrollment)
	assert.Nil(t, result)
}

func TestReconcileRemainingAgainstFullyPaidEnrollment(t *testing.T) {
	svc, _, _ := newTestPaymentService(t)

	_, err := svc.Reconcile(context.Background(), freshCallback("pay_done", 10000, 10000))
	require.NoError(t, err)

	// A second remaining-payment callback with a new payment id after the
	// tuple has fully settled
	remaining := freshCallback("pay_late", 9000, 10000)
	remaining.IsRemainingPayment = true

	result, err := svc.Reconcile(context.Background(), remaining)
	require.NoError(t, err)
	assert.True(t, result.AlreadyProcessed)
	assert.Equal(t, "full", result.AccessLevel)
}

func TestReconcileFreshPaymentAgainstExistingEnrollment(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)

	_, err := svc.Reconcile(context.Background(), freshCallback("pay_first", 10000, 10000))
	require.NoError(t, err)

	result, err := svc.Reconcile(context.Background(), freshCallback("pay_second", 10000, 10000))
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Nil(t, result)

	var count int64
	db.Model(&model.Enrollment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReconcileLinksAndConvertsLead(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)
	leads := NewLeadService(db)

	lead, err := leads.UpsertLead(context.Background(), UpsertLeadInput{
		UserID:           1,
		CourseID:         10,
		CourseTierID:     100,
		Email:            "student@example.com",
		FullName:         "Test Student",
		MobileNo:         "9876543210",
		CourseTitle:      "Full Stack Development",
		TierTitle:        "Pro",
		TotalAmountPaise: 10000,
	})
	require.NoError(t, err)

	// Callback without an explicit lead id: the latest unconverted lead for
	// the tuple is picked up
	result, err := svc.Reconcile(context.Background(), freshCallback("pay_with_lead", 10000, 10000))
	require.NoError(t, err)

	var enrollment model.Enrollment
	require.NoError(t, db.First(&enrollment, result.EnrollmentID).Error)
	require.NotNil(t, enrollment.LeadID)
	assert.Equal(t, lead.ID, *enrollment.LeadID)

	var converted model.EnrollmentLead
	require.NoError(t, db.First(&converted, lead.ID).Error)
	assert.True(t, converted.IsConverted())
}

func TestReconcileDistinctTiersAreIndependent(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)

	first := freshCallback("pay_tier_a", 10000, 10000)
	_, err := svc.Reconcile(context.Background(), first)
	require.NoError(t, err)

	second := freshCallback("pay_tier_b", 5000, 20000)
	second.CourseTierID = 200

	result, err := svc.Reconcile(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, "partial", result.AccessLevel)

	var count int64
	db.Model(&model.Enrollment{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestListEnrollments(t *testing.T) {
	svc, _, _ := newTestPaymentService(t)

	for i := 0; i < 3; i++ {
		cb := freshCallback(fmt.Sprintf("pay_list_%d", i), 10000, 10000)
		cb.CourseTierID = uint(100 + i)
		_, err := svc.Reconcile(context.Background(), cb)
		require.NoError(t, err)
	}

	enrollments, err := svc.ListEnrollments(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, enrollments, 3)

	other, err := svc.ListEnrollments(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}
