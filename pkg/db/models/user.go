package models

import (
	"time"

	"github.com/google/uuid"
	dbtypes "github.com/shelfwise/library-backend/pkg/db/types"
	"github.com/shelfwise/library-backend/pkg/enums"
	"gorm.io/gorm"
)

// User is a library account. BorrowRecordIDs is a history index only; the
// borrow_records table is authoritative.
type User struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Name            string            `gorm:"column:name;not null"`
	Email           string            `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash    string            `gorm:"column:password_hash;not null"`
	Role            enums.UserRole    `gorm:"column:role;type:text;not null;default:member"`
	BorrowRecordIDs dbtypes.UUIDArray `gorm:"type:uuid[];column:borrow_record_ids;not null"`
	LastLoginAt     *time.Time        `gorm:"column:last_login_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.BorrowRecordIDs == nil {
		u.BorrowRecordIDs = dbtypes.UUIDArray{}
	}
	return nil
}
