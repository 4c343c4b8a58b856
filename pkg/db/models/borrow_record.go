package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/pkg/enums"
	"gorm.io/gorm"
)

// BorrowRecord is one loan of one copy. Records are never deleted.
type BorrowRecord struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	BookID         uuid.UUID          `gorm:"column:book_id;type:uuid;not null;index"`
	BorrowDate     time.Time          `gorm:"column:borrow_date;not null"`
	DueDate        time.Time          `gorm:"column:due_date;not null;index"`
	ReturnDate     *time.Time         `gorm:"column:return_date"`
	FineAmount     int                `gorm:"column:fine_amount;not null;default:0"`
	FinePaid       bool               `gorm:"column:fine_paid;not null;default:false"`
	// FineOverridden marks a fine set by staff; refresh passes leave it alone.
	FineOverridden bool               `gorm:"column:fine_overridden;not null;default:false"`
	Status         enums.BorrowStatus `gorm:"column:status;type:text;not null;index"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Book *Book `gorm:"foreignKey:BookID"`
	User *User `gorm:"foreignKey:UserID"`
}

func (r *BorrowRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsOpen reports whether the copy is still out.
func (r BorrowRecord) IsOpen() bool {
	return r.ReturnDate == nil && r.Status != enums.BorrowStatusReturned
}
