package borrows

import (
	"time"

	"github.com/shelfwise/library-backend/pkg/db/models"
	"github.com/shelfwise/library-backend/pkg/enums"
)

// Derivation is the status and fine a record should carry at a given instant.
type Derivation struct {
	Status         enums.BorrowStatus
	FineAmount     int
	FineOverridden bool
	Changed        bool
}

// DeriveStatus recomputes an open record's status and fine at now. Closed
// records come back unchanged. A fine set by staff is never recomputed and a
// paid fine stops accruing. Moving the due date out clears the fine and the
// override.
func DeriveStatus(rec models.BorrowRecord, now time.Time) Derivation {
	d := Derivation{Status: rec.Status, FineAmount: rec.FineAmount, FineOverridden: rec.FineOverridden}
	if !rec.IsOpen() {
		return d
	}

	late := rec.DueDate.Before(now)
	switch rec.Status {
	case enums.BorrowStatusBorrowed, enums.BorrowStatusReading:
		if late {
			d.Status = enums.BorrowStatusOverdue
			if !rec.FineOverridden {
				d.FineAmount = CalculateFine(rec.DueDate, now)
			}
		}
	case enums.BorrowStatusOverdue:
		switch {
		case !late:
			d.Status = enums.BorrowStatusBorrowed
			d.FineAmount = 0
			d.FineOverridden = false
		case !rec.FinePaid && !rec.FineOverridden:
			d.FineAmount = CalculateFine(rec.DueDate, now)
		}
	}

	d.Changed = d.Status != rec.Status || d.FineAmount != rec.FineAmount || d.FineOverridden != rec.FineOverridden
	return d
}

func (d Derivation) applyTo(rec *models.BorrowRecord) {
	rec.Status = d.Status
	rec.FineAmount = d.FineAmount
	rec.FineOverridden = d.FineOverridden
}

// RefreshResult summarizes one sweep over open records.
type RefreshResult struct {
	Scanned       int `json:"scanned"`
	MarkedOverdue int `json:"markedOverdue"`
	Restored      int `json:"restored"`
	FinesUpdated  int `json:"finesUpdated"`
	Failed        int `json:"failed"`
}

func (r *RefreshResult) count(before enums.BorrowStatus, d Derivation) {
	switch {
	case before != enums.BorrowStatusOverdue && d.Status == enums.BorrowStatusOverdue:
		r.MarkedOverdue++
	case before == enums.BorrowStatusOverdue && d.Status != enums.BorrowStatusOverdue:
		r.Restored++
	default:
		r.FinesUpdated++
	}
}
