package services

import (
	"testing"
	"time"

	"github.com/skillbridge/skillbridge-api/model"
	"github.com/stretchr/testify/assert"
)

func TestReceiptHTMLEscapesClientSuppliedTitles(t *testing.T) {
	enrollment := &model.Enrollment{
		CourseTitle:       `<script>alert("x")</script>`,
		TierTitle:         `Pro & "Premium"`,
		RazorpayOrderID:   "order_receipt_1",
		RazorpayPaymentID: "pay_receipt_1",
		AmountPaidPaise:   10000,
		TotalCoursePaise:  10000,
		PurchasedAt:       time.Now(),
	}

	out := buildReceiptHTML(enrollment)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "Pro &amp; &#34;Premium&#34;")
}

func TestReceiptHTMLShowsOutstandingBalance(t *testing.T) {
	enrollment := &model.Enrollment{
		CourseTitle:          "Full Stack Development",
		TierTitle:            "Pro",
		RazorpayOrderID:      "order_receipt_2",
		RazorpayPaymentID:    "pay_receipt_2",
		AmountPaidPaise:      100000,
		TotalCoursePaise:     1200000,
		RemainingAmountPaise: 1100000,
		PurchasedAt:          time.Now(),
	}

	out := buildReceiptHTML(enrollment)
	assert.Contains(t, out, "balance due")
	assert.Contains(t, out, "₹11000.00")
}
