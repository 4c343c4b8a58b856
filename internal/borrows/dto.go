package borrows

import (
	"time"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/pkg/db/models"
	"github.com/shelfwise/library-backend/pkg/enums"
)

// BorrowInput identifies who borrows which book. BookID wins over Title.
type BorrowInput struct {
	UserID uuid.UUID
	BookID *uuid.UUID
	Title  string
}

// ReturnInput carries the record to close and the acting user.
type ReturnInput struct {
	RecordID  uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// RecordPatch holds admin overrides. Nil fields are left untouched.
type RecordPatch struct {
	FineAmount *int       `json:"fineAmount" validate:"omitempty,gte=0"`
	DueDate    *time.Time `json:"dueDate"`
	FinePaid   *bool      `json:"finePaid"`
}

func (p RecordPatch) empty() bool {
	return p.FineAmount == nil && p.DueDate == nil && p.FinePaid == nil
}

// UserRef is the public slice of a borrower.
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// BookRef is the public slice of a borrowed book.
type BookRef struct {
	ID       uuid.UUID          `json:"id"`
	Title    string             `json:"title"`
	Author   string             `json:"author"`
	Category enums.BookCategory `json:"category"`
}

// RecordDTO is the full view of a borrow record.
type RecordDTO struct {
	ID             uuid.UUID          `json:"id"`
	UserID         uuid.UUID          `json:"userId"`
	BookID         uuid.UUID          `json:"bookId"`
	BorrowDate     time.Time          `json:"borrowDate"`
	DueDate        time.Time          `json:"dueDate"`
	ReturnDate     *time.Time         `json:"returnDate,omitempty"`
	FineAmount     int                `json:"fineAmount"`
	FinePaid       bool               `json:"finePaid"`
	FineOverridden bool               `json:"fineOverridden"`
	Status         enums.BorrowStatus `json:"status"`
	ReturnedLate   bool               `json:"returnedLate,omitempty"`
	User           *UserRef           `json:"user,omitempty"`
	Book           *BookRef           `json:"book,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ReturnReceipt is what a borrower sees after handing a book back.
type ReturnReceipt struct {
	ID         uuid.UUID          `json:"id"`
	Title      string             `json:"title"`
	Status     enums.BorrowStatus `json:"status"`
	Fine       int                `json:"fine"`
	ReturnedOn time.Time          `json:"returnedOn"`
}

// OverdueEntry is one line of the overdue report.
type OverdueEntry struct {
	ID       uuid.UUID `json:"id"`
	User     UserRef   `json:"user"`
	Book     BookRef   `json:"book"`
	DueDate  time.Time `json:"dueDate"`
	DaysLate int       `json:"daysLate"`
	Fine     int       `json:"fine"`
	FinePaid bool      `json:"finePaid"`
}

// OverdueReport lists open overdue loans.
type OverdueReport struct {
	TotalOverdue int            `json:"totalOverdue"`
	Records      []OverdueEntry `json:"records"`
}

// HistoryEntry is one loan in a member's own history.
type HistoryEntry struct {
	ID         uuid.UUID          `json:"id"`
	Title      string             `json:"title"`
	Author     string             `json:"author"`
	Category   enums.BookCategory `json:"category"`
	Status     enums.BorrowStatus `json:"status"`
	BorrowDate time.Time          `json:"borrowDate"`
	DueDate    time.Time          `json:"dueDate"`
	ReturnDate *time.Time         `json:"returnDate,omitempty"`
	Fine       int                `json:"fine"`
}

// HistoryReport is a member's borrowing history.
type HistoryReport struct {
	TotalBorrowed int            `json:"totalBorrowed"`
	Records       []HistoryEntry `json:"records"`
}

// Admin history states, as shown to staff.
const (
	HistoryStateReturned = "Returned"
	HistoryStateOverdue  = "Overdue"
	HistoryStateBorrowed = "Still Borrowed"
)

// AdminHistoryEntry is one loan in the staff view of a user's history.
type AdminHistoryEntry struct {
	ID         uuid.UUID          `json:"id"`
	Title      string             `json:"title"`
	Author     string             `json:"author"`
	Category   enums.BookCategory `json:"category"`
	BorrowedAt time.Time          `json:"borrowedAt"`
	DueDate    time.Time          `json:"dueDate"`
	ReturnedAt *time.Time         `json:"returnedAt,omitempty"`
	State      string             `json:"state"`
	Fine       int                `json:"fine"`
	FinePaid   bool               `json:"finePaid"`
}

// FineSummary totals a user's fines.
type FineSummary struct {
	TotalFine    int `json:"totalFine"`
	UnpaidFine   int `json:"unpaidFine"`
	OpenLoans    int `json:"openLoans"`
	OverdueLoans int `json:"overdueLoans"`
}

// ToDTO maps a record with its preloaded relations.
func ToDTO(m models.BorrowRecord) RecordDTO {
	dto := RecordDTO{
		ID:             m.ID,
		UserID:         m.UserID,
		BookID:         m.BookID,
		BorrowDate:     m.BorrowDate,
		DueDate:        m.DueDate,
		ReturnDate:     m.ReturnDate,
		FineAmount:     m.FineAmount,
		FinePaid:       m.FinePaid,
		FineOverridden: m.FineOverridden,
		Status:         m.Status,
		ReturnedLate:   returnedLate(m),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.User != nil {
		dto.User = &UserRef{ID: m.User.ID, Name: m.User.Name, Email: m.User.Email}
	}
	if m.Book != nil {
		ref := bookRef(m.Book)
		dto.Book = &ref
	}
	return dto
}

func toOverdueEntry(m models.BorrowRecord, now time.Time) OverdueEntry {
	entry := OverdueEntry{
		ID:       m.ID,
		DueDate:  m.DueDate,
		DaysLate: DaysLate(m.DueDate, now),
		Fine:     m.FineAmount,
		FinePaid: m.FinePaid,
	}
	if m.User != nil {
		entry.User = UserRef{ID: m.User.ID, Name: m.User.Name, Email: m.User.Email}
	}
	if m.Book != nil {
		entry.Book = bookRef(m.Book)
	}
	return entry
}

// toHistoryEntry shows open loans that are not yet due as reading.
func toHistoryEntry(m models.BorrowRecord, now time.Time) HistoryEntry {
	status := m.Status
	if m.IsOpen() && status == enums.BorrowStatusBorrowed && !m.DueDate.Before(now) {
		status = enums.BorrowStatusReading
	}
	entry := HistoryEntry{
		ID:         m.ID,
		Status:     status,
		BorrowDate: m.BorrowDate,
		DueDate:    m.DueDate,
		ReturnDate: m.ReturnDate,
		Fine:       m.FineAmount,
	}
	if m.Book != nil {
		entry.Title = m.Book.Title
		entry.Author = m.Book.Author
		entry.Category = m.Book.Category
	}
	return entry
}

func toAdminHistoryEntry(m models.BorrowRecord, now time.Time) AdminHistoryEntry {
	state := HistoryStateBorrowed
	switch {
	case m.ReturnDate != nil:
		state = HistoryStateReturned
	case now.After(m.DueDate):
		state = HistoryStateOverdue
	}
	entry := AdminHistoryEntry{
		ID:         m.ID,
		BorrowedAt: m.BorrowDate,
		DueDate:    m.DueDate,
		ReturnedAt: m.ReturnDate,
		State:      state,
		Fine:       m.FineAmount,
		FinePaid:   m.FinePaid,
	}
	if m.Book != nil {
		entry.Title = m.Book.Title
		entry.Author = m.Book.Author
		entry.Category = m.Book.Category
	}
	return entry
}

func bookRef(b *models.Book) BookRef {
	return BookRef{ID: b.ID, Title: b.Title, Author: b.Author, Category: b.Category}
}

func returnedLate(m models.BorrowRecord) bool {
	return m.ReturnDate != nil && m.ReturnDate.After(m.DueDate)
}
