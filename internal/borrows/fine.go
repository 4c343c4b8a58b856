package borrows

import "time"

const (
	// DailyFineRate is charged per whole calendar day past the due date.
	DailyFineRate = 100

	// LoanPeriod is the fixed lending window applied at borrow time.
	LoanPeriod = 14 * 24 * time.Hour
)

// DaysLate counts whole calendar days from due to ref, both truncated to
// UTC midnight. It never goes negative.
func DaysLate(due, ref time.Time) int {
	d := utcMidnight(due)
	r := utcMidnight(ref)
	if !r.After(d) {
		return 0
	}
	return int(r.Sub(d) / (24 * time.Hour))
}

// CalculateFine returns the fine owed at ref for a loan due at due.
func CalculateFine(due, ref time.Time) int {
	return DaysLate(due, ref) * DailyFineRate
}

// DueDateFor is the due date of a loan starting at borrowed.
func DueDateFor(borrowed time.Time) time.Time {
	return borrowed.Add(LoanPeriod)
}

func utcMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
