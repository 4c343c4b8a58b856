package books

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Inventory is the copy-count surface the borrow lifecycle depends on.
// Reserve and Release join the caller's transaction when tx is non-nil.
type Inventory interface {
	FindBorrowable(ctx context.Context, ref BookRef) (*models.Book, error)
	Reserve(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (bool, error)
}

// FindBorrowable resolves ref to a non-deleted book. The ID wins when both
// are supplied. Missing books yield ErrBookNotFound.
func (r *Repository) FindBorrowable(ctx context.Context, ref BookRef) (*models.Book, error) {
	var (
		book *models.Book
		err  error
	)
	switch {
	case ref.ID != nil:
		book, err = r.FindByID(ctx, *ref.ID)
	case ref.Title != "":
		book, err = r.FindByTitle(ctx, ref.Title)
	default:
		return nil, ErrBookNotFound
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	return book, err
}

// Reserve takes one copy of bookID off the shelf.
func (r *Repository) Reserve(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error {
	return r.bind(tx).DecrementAvailable(ctx, bookID)
}

// Release puts one copy of bookID back, reporting false when the shelf was already full.
func (r *Repository) Release(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (bool, error) {
	return r.bind(tx).IncrementAvailable(ctx, bookID)
}

func (r *Repository) bind(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return r.WithTx(tx)
}

var _ Inventory = (*Repository)(nil)
