package enums

import "testing"

func TestParseBookCategoryIgnoresCase(t *testing.T) {
	got, err := ParseBookCategory(" non-fiction ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != BookCategoryNonFiction {
		t.Fatalf("expected Non-Fiction, got %s", got)
	}
	if _, err := ParseBookCategory("Poetry"); err == nil {
		t.Fatal("expected unknown category to fail")
	}
	if len(BookCategories()) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(BookCategories()))
	}
}

func TestBorrowStatusValidity(t *testing.T) {
	for _, s := range []BorrowStatus{BorrowStatusBorrowed, BorrowStatusReading, BorrowStatusOverdue, BorrowStatusReturned} {
		if !s.IsValid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if BorrowStatus("lost").IsValid() {
		t.Fatal("unexpected valid status")
	}
	if _, err := ParseBorrowStatus("Returned"); err == nil {
		t.Fatal("borrow status parsing is case-sensitive")
	}
}

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole("ADMIN")
	if err != nil || role != UserRoleAdmin {
		t.Fatalf("expected admin, got %q (%v)", role, err)
	}
	if _, err := ParseUserRole("owner"); err == nil {
		t.Fatal("expected owner to be rejected")
	}
}
