package books

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/pkg/db/models"
	"github.com/shelfwise/library-backend/pkg/enums"
	"github.com/shelfwise/library-backend/pkg/pagination"
)

// BookRef identifies a book to borrow, by ID or by title.
type BookRef struct {
	ID    *uuid.UUID
	Title string
}

// CreateBookInput is the admin payload for adding a title.
type CreateBookInput struct {
	Title         string `json:"title" validate:"required,max=300"`
	Author        string `json:"author" validate:"required,max=200"`
	ISBN          string `json:"isbn" validate:"omitempty,max=20"`
	Category      string `json:"category" validate:"required"`
	PublishedYear *int   `json:"publishedYear" validate:"omitempty,gte=0,lte=9999"`
	TotalCopies   *int   `json:"totalCopies" validate:"omitempty,gte=0"`
}

// UpdateBookInput carries optional catalog edits.
type UpdateBookInput struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=300"`
	Author        *string `json:"author" validate:"omitempty,min=1,max=200"`
	ISBN          *string `json:"isbn" validate:"omitempty,max=20"`
	Category      *string `json:"category"`
	PublishedYear *int    `json:"publishedYear" validate:"omitempty,gte=0,lte=9999"`
	TotalCopies   *int    `json:"totalCopies" validate:"omitempty,gte=0"`
}

// ListFilter narrows catalog listings. Text filters are case-insensitive substrings.
type ListFilter struct {
	Title    string
	Author   string
	Category *enums.BookCategory
}

// ListParams bundles filter and cursor pagination.
type ListParams struct {
	Filter ListFilter
	pagination.Params
}

// ListResult is one page of catalog entries.
type ListResult struct {
	Books      []BookDTO `json:"books"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

// BookDTO is the public view of a catalog entry.
type BookDTO struct {
	ID              uuid.UUID          `json:"id"`
	Title           string             `json:"title"`
	Author          string             `json:"author"`
	ISBN            *string            `json:"isbn,omitempty"`
	Category        enums.BookCategory `json:"category"`
	PublishedYear   *int               `json:"publishedYear,omitempty"`
	TotalCopies     int                `json:"totalCopies"`
	AvailableCopies int                `json:"availableCopies"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// FromModel maps a book row to its public view.
func FromModel(m models.Book) BookDTO {
	return BookDTO{
		ID:              m.ID,
		Title:           m.Title,
		Author:          m.Author,
		ISBN:            m.ISBN,
		Category:        m.Category,
		PublishedYear:   m.PublishedYear,
		TotalCopies:     m.TotalCopies,
		AvailableCopies: m.AvailableCopies,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func normalizeISBN(raw string) *string {
	cleaned := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(raw)))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
