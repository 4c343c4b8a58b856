package borrows

import "errors"

var (
	// ErrRecordNotFound means no borrow record has the requested ID.
	ErrRecordNotFound = errors.New("borrow record not found")

	// ErrAlreadyReturned means the record's copy is already back on the shelf.
	ErrAlreadyReturned = errors.New("book already returned")

	// ErrNotRecordOwner means a member tried to act on someone else's loan.
	ErrNotRecordOwner = errors.New("borrow record belongs to another user")
)
