package models

// ComplianceSummary backs the dashboard "are we compliant" card.
type ComplianceSummary struct {
	UpcomingObligations int `json:"upcoming_obligations"`
	OverdueObligations  int `json:"overdue_obligations"`
	PaidThisYear        int `json:"paid_this_year"`
	RemindersThisMonth  int `json:"reminders_this_month"`
}
