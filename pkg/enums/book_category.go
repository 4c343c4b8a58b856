package enums

import (
	"fmt"
	"strings"
)

// BookCategory is the fixed catalog taxonomy.
type BookCategory string

const (
	BookCategoryFiction    BookCategory = "Fiction"
	BookCategoryNonFiction BookCategory = "Non-Fiction"
	BookCategoryScience    BookCategory = "Science"
	BookCategoryTechnology BookCategory = "Technology"
	BookCategoryHistory    BookCategory = "History"
	BookCategoryChildren   BookCategory = "Children"
	BookCategoryEducation  BookCategory = "Education"
	BookCategoryFantasy    BookCategory = "Fantasy"
	BookCategoryBiography  BookCategory = "Biography"
	BookCategoryOther      BookCategory = "Other"
)

var validBookCategories = []BookCategory{
	BookCategoryFiction,
	BookCategoryNonFiction,
	BookCategoryScience,
	BookCategoryTechnology,
	BookCategoryHistory,
	BookCategoryChildren,
	BookCategoryEducation,
	BookCategoryFantasy,
	BookCategoryBiography,
	BookCategoryOther,
}

// BookCategories returns every known category in display order.
func BookCategories() []BookCategory {
	out := make([]BookCategory, len(validBookCategories))
	copy(out, validBookCategories)
	return out
}

// String implements fmt.Stringer.
func (c BookCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known BookCategory.
func (c BookCategory) IsValid() bool {
	for _, candidate := range validBookCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBookCategory converts raw input into a BookCategory, ignoring case.
func ParseBookCategory(value string) (BookCategory, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validBookCategories {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid book category %q", value)
}
