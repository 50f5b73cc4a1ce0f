package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/skillbridge/skillbridge-api/model"
	"github.com/skillbridge/skillbridge-api/services/storage"
)

// ReceiptService renders an enrollment receipt and uploads it to object
// storage. The receipt is advisory: any failure here degrades the
// notification (email without a receipt link), never the enrollment.
type ReceiptService struct {
	spaces *storage.SpacesClient
}

// NewReceiptService creates a new receipt service. A nil spaces client is
// allowed; generation then returns an empty URL and the caller degrades.
func NewReceiptService(spaces *storage.SpacesClient) *ReceiptService {
	return &ReceiptService{spaces: spaces}
}

// Generate renders the receipt for an enrollment, uploads it, and returns the
// public URL
func (s *ReceiptService) Generate(ctx context.Context, enrollment *model.Enrollment) (string, error) {
	if s.spaces == nil {
		return "", fmt.Errorf("receipt storage not configured")
	}

	html := buildReceiptHTML(enrollment)
	key := fmt.Sprintf("receipts/%d/%s.html", enrollment.UserID, uuid.New().String())

	url, err := s.spaces.UploadFile(ctx, key, strings.NewReader(html), "text/html")
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}
	return url, nil
}

func buildReceiptHTML(e *model.Enrollment) string {
	paymentLine := "Paid in full"
	if e.RemainingAmountPaise > 0 {
		paymentLine = fmt.Sprintf("Slot booking payment — balance due: %s", formatPaise(e.RemainingAmountPaise))
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"UTF-8\"><title>Payment Receipt</title></head>\n<body>\n")
	sb.WriteString("<h2>Payment Receipt</h2>\n")
	sb.WriteString("<table>\n")
	writeRow(&sb, "Receipt for", e.CourseTitle)
	writeRow(&sb, "Plan", e.TierTitle)
	if e.CourseMode != "" {
		writeRow(&sb, "Mode", e.CourseMode)
	}
	if e.DurationMonths > 0 {
		writeRow(&sb, "Duration", fmt.Sprintf("%d months (%d hours)", e.DurationMonths, e.DurationHours))
	}
	writeRow(&sb, "Order ID", e.RazorpayOrderID)
	writeRow(&sb, "Payment ID", e.RazorpayPaymentID)
	writeRow(&sb, "Amount paid", formatPaise(e.AmountPaidPaise))
	writeRow(&sb, "Course fee (incl. tax)", formatPaise(e.TotalCoursePaise))
	writeRow(&sb, "Status", paymentLine)
	writeRow(&sb, "Date", e.PurchasedAt.Format("02 Jan 2006 15:04 MST"))
	sb.WriteString("</table>\n</body>\n</html>\n")
	return sb.String()
}

// writeRow escapes the value: course and tier titles originate from the
// client's callback payload and the receipt is publicly hosted HTML.
func writeRow(sb *strings.Builder, label, value string) {
	fmt.Fprintf(sb, "<tr><td><b>%s</b></td><td>%s</td></tr>\n", label, html.EscapeString(value))
}

// formatPaise renders an amount in paise as rupees
func formatPaise(paise int64) string {
	return fmt.Sprintf("₹%d.%02d", paise/100, paise%100)
}
