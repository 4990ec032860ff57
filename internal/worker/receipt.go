package worker

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/hms-api/internal/billing"
	"github.com/jwalitptl/hms-api/internal/model"
)

// Receipt renders the mail sent for a recorded payment.
func Receipt(ev model.PaymentEvent) (subject, body string) {
	subject = fmt.Sprintf("Payment receipt for %s", ev.BillNumber)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", ev.PatientName)
	if ev.Purpose == billing.PurposeCredit {
		fmt.Fprintf(&b, "We have received an advance of %s by %s towards %s.\n\n", ev.Amount.StringFixed(2), ev.Mode, ev.BillNumber)
	} else {
		fmt.Fprintf(&b, "We have received %s by %s towards %s.\n\n", ev.Amount.StringFixed(2), ev.Mode, ev.BillNumber)
	}
	fmt.Fprintf(&b, "Payment date: %s\n", ev.PaidAt.Format("02 Jan 2006"))
	fmt.Fprintf(&b, "Total paid:   %s\n", ev.PaidAmount.StringFixed(2))
	fmt.Fprintf(&b, "Balance due:  %s\n", ev.DueAmount.StringFixed(2))
	fmt.Fprintf(&b, "Bill status:  %s\n", strings.ReplaceAll(string(ev.BillStatus), "_", " "))
	b.WriteString("\nThank you.\n")
	return subject, b.String()
}
