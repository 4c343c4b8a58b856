package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/pkg/db"
	"github.com/shelfwise/library-backend/pkg/db/models"
	"github.com/shelfwise/library-backend/pkg/enums"
	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"github.com/shelfwise/library-backend/pkg/pagination"
	"gorm.io/gorm"
)

type bookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	FindByTitle(ctx context.Context, title string) (*models.Book, error)
	List(ctx context.Context, params ListParams) ([]models.Book, *pagination.Cursor, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, fields map[string]any) error
	SetTotalCopies(ctx context.Context, id uuid.UUID, total int) error
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateBookInput) (*BookDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*BookDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*BookDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     bookRepository
	tx       txRunner
	withinTx func(tx *gorm.DB) bookRepository
}

// NewService builds the catalog service over the books repository.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("book repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		withinTx: func(gtx *gorm.DB) bookRepository { return repo.WithTx(gtx) },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateBookInput) (*BookDTO, error) {
	category, err := enums.ParseBookCategory(input.Category)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	copies := 1
	if input.TotalCopies != nil {
		copies = *input.TotalCopies
	}
	if copies < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "totalCopies must not be negative")
	}

	book := &models.Book{
		Title:           strings.TrimSpace(input.Title),
		Author:          strings.TrimSpace(input.Author),
		ISBN:            normalizeISBN(input.ISBN),
		Category:        category,
		PublishedYear:   input.PublishedYear,
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	if book.Title == "" || book.Author == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and author are required")
	}

	if err := s.repo.Create(ctx, book); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a book with this isbn already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create book")
	}
	dto := FromModel(*book)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*BookDTO, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookup(err)
	}
	dto := FromModel(*book)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		if errors.Is(err, ErrInvalidCursor) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list books")
	}
	result := &ListResult{Books: make([]BookDTO, 0, len(rows))}
	for _, row := range rows {
		result.Books = append(result.Books, FromModel(row))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*BookDTO, error) {
	fields := map[string]any{}
	if input.Title != nil {
		fields["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		fields["author"] = strings.TrimSpace(*input.Author)
	}
	if input.ISBN != nil {
		fields["isbn"] = normalizeISBN(*input.ISBN)
	}
	if input.Category != nil {
		category, err := enums.ParseBookCategory(*input.Category)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		fields["category"] = category
	}
	if v, ok := fields["title"]; ok && v == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must not be blank")
	}
	if v, ok := fields["author"]; ok && v == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author must not be blank")
	}
	if input.PublishedYear != nil {
		fields["published_year"] = *input.PublishedYear
	}
	if input.TotalCopies != nil && *input.TotalCopies < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "totalCopies must not be negative")
	}

	var updated *models.Book
	err := s.tx.WithTx(ctx, func(gtx *gorm.DB) error {
		repo := s.withinTx(gtx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return translateLookup(err)
		}
		if err := repo.UpdateDetails(ctx, id, fields); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a book with this isbn already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update book")
		}
		if input.TotalCopies != nil {
			if err := repo.SetTotalCopies(ctx, id, *input.TotalCopies); err != nil {
				if errors.Is(err, ErrCopiesOnLoan) {
					return pkgerrors.Wrap(pkgerrors.CodeInvalidState, err, "cannot reduce total copies below the number on loan")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update copies")
			}
		}
		book, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload book")
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete book")
	}
	if !deleted {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrBookNotFound, "book not found")
	}
	return nil
}

func translateLookup(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrBookNotFound, "book not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
}
