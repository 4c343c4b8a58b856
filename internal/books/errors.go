package books

import "errors"

var (
	// ErrBookNotFound means no non-deleted book matched the reference.
	ErrBookNotFound = errors.New("book not found")

	// ErrNoAvailableCopies means every copy of the book is out.
	ErrNoAvailableCopies = errors.New("no copies available")

	// ErrCopiesOnLoan means a copy-count change would strand borrowed copies.
	ErrCopiesOnLoan = errors.New("more copies are on loan than the new total")

	ErrInvalidCursor = errors.New("invalid cursor")
)
