package summary

import "time"

// Query selects the borrow window. From and To together override Range.
type Query struct {
	Range string
	From  *time.Time
	To    *time.Time
}

// Window is the inclusive [Start, End] borrow-date interval. A nil Start
// means from the beginning.
type Window struct {
	Start *time.Time `json:"start,omitempty"`
	End   time.Time  `json:"end"`
}

// Stats are the headline counters.
type Stats struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalBooks    int64 `json:"totalBooks"`
	BorrowedBooks int64 `json:"borrowedBooks"`
	OverdueBooks  int64 `json:"overdueBooks"`
	ReturnedBooks int64 `json:"returnedBooks"`
	ActiveLoans   int64 `json:"activeLoans"`
	ActiveMembers int64 `json:"activeMembers"`
}

// LabelCount is one slice of the category chart.
type LabelCount struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// MonthCount is one bar of the monthly chart, keyed YYYY-MM.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// StatusCount is one slice of the status chart.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Charts groups chart series.
type Charts struct {
	CategoryChart []LabelCount  `json:"categoryChart"`
	MonthlyChart  []MonthCount  `json:"monthlyChart"`
	StatusChart   []StatusCount `json:"statusChart"`
}

// Summary is the admin dashboard payload.
type Summary struct {
	Window Window `json:"window"`
	Stats  Stats  `json:"stats"`
	Charts Charts `json:"charts"`
}
