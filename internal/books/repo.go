package books

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/pkg/db/models"
	"github.com/shelfwise/library-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists catalog entries and their copy counts.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Book{}).Where("is_deleted = ?", false)
}

// Create inserts a new book.
func (r *Repository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// FindByID loads a non-deleted book.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.active(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByTitle resolves a title, preferring an exact case-insensitive match
// and falling back to the most recently added partial match.
func (r *Repository) FindByTitle(ctx context.Context, title string) (*models.Book, error) {
	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var book models.Book
	err := r.active(ctx).
		Where("LOWER(title) = ?", needle).
		Order("created_at DESC").
		First(&book).Error
	if err == nil {
		return &book, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := r.active(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE '\'`, containsPattern(needle)).
		Order("created_at DESC").
		First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns one page of non-deleted books, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Book, *pagination.Cursor, error) {
	query := r.active(ctx)
	if t := strings.TrimSpace(params.Filter.Title); t != "" {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, containsPattern(strings.ToLower(t)))
	}
	if a := strings.TrimSpace(params.Filter.Author); a != "" {
		query = query.Where(`LOWER(author) LIKE ? ESCAPE '\'`, containsPattern(strings.ToLower(a)))
	}
	if params.Filter.Category != nil {
		query = query.Where("category = ?", *params.Filter.Category)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Book
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.Trim(rows, params.Limit, func(b models.Book) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	return page, next, nil
}

// UpdateDetails writes descriptive columns. Copy counts go through
// SetTotalCopies so they are never overwritten from a stale read.
func (r *Repository) UpdateDetails(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.active(ctx).Where("id = ?", id).Updates(fields).Error
}

// SetTotalCopies changes the owned copy count and shifts available copies by
// the same delta. It fails with ErrCopiesOnLoan when more copies are out than
// the new total allows.
func (r *Repository) SetTotalCopies(ctx context.Context, id uuid.UUID, total int) error {
	res := r.db.WithContext(ctx).Exec(`
UPDATE books
SET available_copies = available_copies + (? - total_copies),
    total_copies = ?,
    updated_at = ?
WHERE id = ? AND is_deleted = ? AND available_copies + (? - total_copies) >= 0
`, total, total, nowUTC(), id, false, total)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCopiesOnLoan
	}
	return nil
}

// SoftDelete hides a book from the catalog. Existing records keep pointing at it.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.active(ctx).Where("id = ?", id).Update("is_deleted", true)
	return res.RowsAffected > 0, res.Error
}

// DecrementAvailable takes one copy off the shelf. The guard lives in the
// UPDATE so two racing borrowers can never both take the last copy.
func (r *Repository) DecrementAvailable(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Exec(`
UPDATE books
SET available_copies = available_copies - 1,
    updated_at = ?
WHERE id = ? AND available_copies > 0 AND is_deleted = ?
`, nowUTC(), id, false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoAvailableCopies
	}
	return nil
}

// IncrementAvailable puts one copy back, never exceeding total_copies. It
// reports false when the cap suppressed the increment.
func (r *Repository) IncrementAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
UPDATE books
SET available_copies = available_copies + 1,
    updated_at = ?
WHERE id = ? AND available_copies < total_copies
`, nowUTC(), id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountActive reports how many non-deleted titles exist.
func (r *Repository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.active(ctx).Count(&n).Error
	return n, err
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func containsPattern(needle string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(needle)
	return "%" + escaped + "%"
}
