package enums

import "fmt"

// BorrowStatus tracks where a borrow record sits in its lifecycle.
type BorrowStatus string

const (
	BorrowStatusBorrowed BorrowStatus = "borrowed"
	// BorrowStatusReading is a display status: an open record that is not yet due.
	BorrowStatusReading  BorrowStatus = "reading"
	BorrowStatusOverdue  BorrowStatus = "overdue"
	BorrowStatusReturned BorrowStatus = "returned"
)

var validBorrowStatuses = []BorrowStatus{
	BorrowStatusBorrowed,
	BorrowStatusReading,
	BorrowStatusOverdue,
	BorrowStatusReturned,
}

// OpenBorrowStatuses lists statuses a record may hold while its copy is still out.
var OpenBorrowStatuses = []BorrowStatus{
	BorrowStatusBorrowed,
	BorrowStatusReading,
	BorrowStatusOverdue,
}

// String implements fmt.Stringer.
func (s BorrowStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BorrowStatus.
func (s BorrowStatus) IsValid() bool {
	for _, candidate := range validBorrowStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBorrowStatus converts raw input into a BorrowStatus.
func ParseBorrowStatus(value string) (BorrowStatus, error) {
	for _, candidate := range validBorrowStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid borrow status %q", value)
}
