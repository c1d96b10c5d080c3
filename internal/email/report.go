package email

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hotelops/frontdesk/internal/billing"
)

// ReportSubject builds the subject line for a handover report email.
func ReportSubject(report *billing.Report) string {
	if report.Start == report.End {
		return fmt.Sprintf("交接班报表 %s", report.Start)
	}
	return fmt.Sprintf("交接班报表 %s 至 %s", report.Start, report.End)
}

// FormatReport renders a handover report as a plain-text table, one line
// per channel plus a grand total.
func FormatReport(report *billing.Report) string {
	var b strings.Builder

	if report.Start == report.End {
		fmt.Fprintf(&b, "交接班报表 / Handover report for %s\n\n", report.Start)
	} else {
		fmt.Fprintf(&b, "交接班报表 / Handover report for %s to %s\n\n", report.Start, report.End)
	}

	for _, line := range report.Channels {
		fmt.Fprintf(&b, "%s (%s)\n", line.Label, line.Channel)
		fmt.Fprintf(&b, "  备用金 reserve:        %s\n", line.Reserve)
		fmt.Fprintf(&b, "  住宿收入 hotel income: %s\n", line.HotelIncome)
		fmt.Fprintf(&b, "  休息收入 rest income:  %s\n", line.RestIncome)
		fmt.Fprintf(&b, "  收入合计 total:        %s\n", line.TotalIncome)
		fmt.Fprintf(&b, "  住宿退款 hotel refund: %s\n", line.HotelRefund)
		fmt.Fprintf(&b, "  休息退款 rest refund:  %s\n", line.RestRefund)
		if !line.Retained.IsZero() {
			fmt.Fprintf(&b, "  留存 retained:         %s\n", line.Retained)
		}
		fmt.Fprintf(&b, "  交接 handover:         %s\n\n", line.Handover)
	}

	total := decimal.Zero
	for _, line := range report.Channels {
		total = total.Add(line.Handover)
	}
	fmt.Fprintf(&b, "交接总额 total handover: %s\n", total)

	return b.String()
}
