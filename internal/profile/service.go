// Package profile assembles a user's account details with their borrowing
// history and outstanding fines.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/internal/borrows"
	"github.com/shelfwise/library-backend/internal/users"
	"github.com/shelfwise/library-backend/pkg/db/models"
	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"gorm.io/gorm"
)

// Profile is the member-facing account summary.
type Profile struct {
	User          *users.UserDTO         `json:"user"`
	TotalFine     int                    `json:"totalFine"`
	UnpaidFine    int                    `json:"unpaidFine"`
	OpenLoans     int                    `json:"openLoans"`
	OverdueLoans  int                    `json:"overdueLoans"`
	BorrowHistory []borrows.HistoryEntry `json:"borrowHistory"`
}

// AdminProfile is the staff view of any user.
type AdminProfile struct {
	User      *users.UserDTO              `json:"user"`
	TotalFine int                         `json:"totalFine"`
	Records   []borrows.AdminHistoryEntry `json:"records"`
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type borrowReader interface {
	UserHistory(ctx context.Context, userID uuid.UUID) (*borrows.HistoryReport, error)
	AdminUserHistory(ctx context.Context, userID uuid.UUID) ([]borrows.AdminHistoryEntry, error)
	UserFineSummary(ctx context.Context, userID uuid.UUID) (*borrows.FineSummary, error)
}

// Service builds profile views.
type Service interface {
	Mine(ctx context.Context, userID uuid.UUID) (*Profile, error)
	ForAdmin(ctx context.Context, userID uuid.UUID) (*AdminProfile, error)
}

type service struct {
	users   userReader
	borrows borrowReader
}

// NewService wires the profile composer.
func NewService(usersRepo userReader, borrowSvc borrowReader) (Service, error) {
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if borrowSvc == nil {
		return nil, fmt.Errorf("borrow service required")
	}
	return &service{users: usersRepo, borrows: borrowSvc}, nil
}

func (s *service) Mine(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.borrows.UserHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	fines, err := s.borrows.UserFineSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		User:          users.FromModel(user),
		TotalFine:     fines.TotalFine,
		UnpaidFine:    fines.UnpaidFine,
		OpenLoans:     fines.OpenLoans,
		OverdueLoans:  fines.OverdueLoans,
		BorrowHistory: history.Records,
	}, nil
}

func (s *service) ForAdmin(ctx context.Context, userID uuid.UUID) (*AdminProfile, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.borrows.AdminUserHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, r := range records {
		total += r.Fine
	}
	return &AdminProfile{User: users.FromModel(user), TotalFine: total, Records: records}, nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
