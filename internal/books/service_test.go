package books

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/pkg/db"
	"github.com/shelfwise/library-backend/pkg/db/dbtest"
	"github.com/shelfwise/library-backend/pkg/enums"
	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.NewFromConn(conn))
	require.NoError(t, err)
	return svc, repo
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestServiceCreateDefaultsAndValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	book, err := svc.Create(ctx, CreateBookInput{Title: " Dune ", Author: "Frank Herbert", Category: "fiction", ISBN: "978-0-441-17271-9"})
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, enums.BookCategoryFiction, book.Category)
	assert.Equal(t, 1, book.TotalCopies)
	assert.Equal(t, 1, book.AvailableCopies)
	require.NotNil(t, book.ISBN)
	assert.Equal(t, "9780441172719", *book.ISBN)

	_, err = svc.Create(ctx, CreateBookInput{Title: "Dune again", Author: "Frank Herbert", Category: "Fiction", ISBN: "9780441172719"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	_, err = svc.Create(ctx, CreateBookInput{Title: "Poems", Author: "Anon", Category: "Poetry"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	empty, err := svc.Create(ctx, CreateBookInput{Title: "Reference Only", Author: "Staff", Category: "Other", TotalCopies: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalCopies)
	assert.Equal(t, 0, empty.AvailableCopies)
}

func TestServiceUpdateAdjustsCopies(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	book, err := svc.Create(ctx, CreateBookInput{Title: "Cosmos", Author: "Carl Sagan", Category: "Science", TotalCopies: intPtr(2)})
	require.NoError(t, err)
	require.NoError(t, repo.DecrementAvailable(ctx, book.ID))

	updated, err := svc.Update(ctx, book.ID, UpdateBookInput{Title: strPtr("Cosmos (Illustrated)"), TotalCopies: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, "Cosmos (Illustrated)", updated.Title)
	assert.Equal(t, 4, updated.TotalCopies)
	assert.Equal(t, 3, updated.AvailableCopies)

	_, err = svc.Update(ctx, book.ID, UpdateBookInput{TotalCopies: intPtr(0)})
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.CodeOf(err))

	_, err = svc.Update(ctx, book.ID, UpdateBookInput{Author: strPtr("  ")})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Update(ctx, uuid.New(), UpdateBookInput{Title: strPtr("x")})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestServiceDeleteHidesBook(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	book, err := svc.Create(ctx, CreateBookInput{Title: "SICP", Author: "Abelson", Category: "Technology"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, book.ID))
	_, err = svc.Get(ctx, book.ID)
	require.ErrorIs(t, err, ErrBookNotFound)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	err = svc.Delete(ctx, book.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	list, err := svc.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Empty(t, list.Books)
}
