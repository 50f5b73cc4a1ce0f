package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/skillbridge/skillbridge-api/config"
	"github.com/skillbridge/skillbridge-api/model"
)

// EmailService sends enrollment notifications via SMTP. It implements
// EnrollmentNotifier. Everything here is best-effort: a send failure is
// logged and swallowed, never surfaced to the payment flow.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
	receipts *ReceiptService
}

// NewEmailService creates a new email service instance
func NewEmailService(env *config.EnviornmentVariable, receipts *ReceiptService) *EmailService {
	port := env.SMTP_PORT
	if port == "" {
		port = "587"
	}

	from := env.SMTP_FROM
	if from == "" {
		from = "noreply@skillbridge.in"
	}

	return &EmailService{
		host:     env.SMTP_HOST,
		port:     port,
		username: env.SMTP_USERNAME,
		password: env.SMTP_PASSWORD,
		from:     from,
		receipts: receipts,
	}
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.host != "" && e.username != "" && e.password != ""
}

// NotifySuccess emails a payment receipt for a completed enrollment. A
// receipt-generation failure degrades to a plain email; an email failure is
// only logged.
func (e *EmailService) NotifySuccess(ctx context.Context, enrollment *model.Enrollment, cb PaymentCallback) {
	to := e.recipientFor(enrollment, cb)
	if to == "" {
		log.Printf("enrollment %d has no contact email, skipping receipt email", enrollment.ID)
		return
	}

	receiptURL := ""
	if e.receipts != nil {
		url, err := e.receipts.Generate(ctx, enrollment)
		if err != nil {
			log.Printf("receipt generation failed for enrollment %d: %v", enrollment.ID, err)
		} else {
			receiptURL = url
		}
	}

	subject := fmt.Sprintf("Payment received — %s", enrollment.CourseTitle)
	body := buildSuccessEmailBody(enrollment, receiptURL)

	if err := e.send(to, subject, body); err != nil {
		log.Printf("failed to send receipt email for enrollment %d: %v", enrollment.ID, err)
	}
}

// NotifyFailure emails a payment-failure notice with the recorded reason
func (e *EmailService) NotifyFailure(ctx context.Context, cb PaymentCallback, reason string) {
	if cb.Email == "" {
		log.Printf("payment failure for user %d (order %s): %s", cb.UserID, cb.RazorpayOrderID, reason)
		return
	}

	subject := "We could not confirm your payment"
	body := fmt.Sprintf(
		"Hi %s,\n\nWe could not confirm your payment for %s (%s).\nReason: %s\n\nIf money was deducted, it will be reconciled against the payment gateway's records. Please contact support with order id %s.\n",
		orDefault(cb.FullName, "there"), cb.CourseTitle, cb.TierTitle, reason, cb.RazorpayOrderID,
	)

	if err := e.send(cb.Email, subject, body); err != nil {
		log.Printf("failed to send payment failure email for order %s: %v", cb.RazorpayOrderID, err)
	}
}

// SendLeadFollowUp emails a checkout reminder for a lead that started the
// enrollment flow but never paid
func (e *EmailService) SendLeadFollowUp(ctx context.Context, lead *model.EnrollmentLead) error {
	if lead.Email == "" {
		return fmt.Errorf("lead %d has no email", lead.ID)
	}

	subject := fmt.Sprintf("Complete your enrollment — %s", lead.CourseTitle)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour seat for %s (%s) is still waiting. Complete your payment to confirm your enrollment.\n\nTotal fee: %s\n",
		orDefault(lead.FullName, "there"), lead.CourseTitle, lead.TierTitle, formatPaise(lead.TotalAmountPaise),
	)

	return e.send(lead.Email, subject, body)
}

// recipientFor resolves the receipt recipient. The enrollments table carries
// no email column, so the address the client submitted with the callback wins;
// preloaded lead or user associations are the fallback.
func (e *EmailService) recipientFor(enrollment *model.Enrollment, cb PaymentCallback) string {
	if cb.Email != "" {
		return cb.Email
	}
	if enrollment.Lead != nil && enrollment.Lead.Email != "" {
		return enrollment.Lead.Email
	}
	if enrollment.User.Email != "" {
		return enrollment.User.Email
	}
	return ""
}

func (e *EmailService) send(to, subject, body string) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured; would have sent %q to %s", subject, to)
		return nil
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", e.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", e.username, e.password, e.host)
	addr := fmt.Sprintf("%s:%s", e.host, e.port)
	return smtp.SendMail(addr, auth, e.from, []string{to}, []byte(msg))
}

func buildSuccessEmailBody(enrollment *model.Enrollment, receiptURL string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Your payment for %s (%s) has been received.\n\n", enrollment.CourseTitle, enrollment.TierTitle)
	fmt.Fprintf(&sb, "Amount paid: %s\n", formatPaise(enrollment.AmountPaidPaise))

	if enrollment.FullAccessGranted {
		sb.WriteString("You now have full access to the course.\n")
	} else {
		fmt.Fprintf(&sb, "Your slot is booked. Remaining balance: %s\n", formatPaise(enrollment.RemainingAmountPaise))
		sb.WriteString("Complete the remaining payment from your dashboard to unlock full access.\n")
	}

	if receiptURL != "" {
		fmt.Fprintf(&sb, "\nDownload your receipt: %s\n", receiptURL)
	}

	fmt.Fprintf(&sb, "\nPayment ID: %s\n", enrollment.RazorpayPaymentID)
	return sb.String()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
