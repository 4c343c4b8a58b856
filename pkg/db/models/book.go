package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/pkg/enums"
	"gorm.io/gorm"
)

// Book is a catalog title and its physical copy counts.
type Book struct {
	ID              uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Title           string             `gorm:"column:title;not null"`
	Author          string             `gorm:"column:author;not null"`
	ISBN            *string            `gorm:"column:isbn;uniqueIndex"`
	Category        enums.BookCategory `gorm:"column:category;type:text;not null"`
	PublishedYear   *int               `gorm:"column:published_year"`
	TotalCopies     int                `gorm:"column:total_copies;not null"`
	AvailableCopies int                `gorm:"column:available_copies;not null"`
	IsDeleted       bool               `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Book) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
