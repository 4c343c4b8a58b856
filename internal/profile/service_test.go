package profile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/internal/borrows"
	"github.com/shelfwise/library-backend/pkg/db/models"
	"github.com/shelfwise/library-backend/pkg/enums"
	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUsers struct{ user *models.User }

func (s stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type stubBorrows struct{}

func (stubBorrows) UserHistory(context.Context, uuid.UUID) (*borrows.HistoryReport, error) {
	return &borrows.HistoryReport{TotalBorrowed: 1, Records: []borrows.HistoryEntry{{Title: "Efuru", Status: enums.BorrowStatusOverdue, Fine: 300}}}, nil
}

func (stubBorrows) AdminUserHistory(context.Context, uuid.UUID) ([]borrows.AdminHistoryEntry, error) {
	return []borrows.AdminHistoryEntry{
		{Title: "Efuru", State: borrows.HistoryStateOverdue, Fine: 300},
		{Title: "Ake", State: borrows.HistoryStateReturned, Fine: 200},
	}, nil
}

func (stubBorrows) UserFineSummary(context.Context, uuid.UUID) (*borrows.FineSummary, error) {
	return &borrows.FineSummary{TotalFine: 300, UnpaidFine: 300, OpenLoans: 1, OverdueLoans: 1}, nil
}

func TestProfileViews(t *testing.T) {
	user := &models.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", Role: enums.UserRoleMember}
	svc, err := NewService(stubUsers{user: user}, stubBorrows{})
	require.NoError(t, err)

	mine, err := svc.Mine(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", mine.User.Name)
	assert.Equal(t, 300, mine.TotalFine)
	assert.Equal(t, 1, mine.OverdueLoans)
	assert.Len(t, mine.BorrowHistory, 1)

	admin, err := svc.ForAdmin(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, admin.TotalFine)
	assert.Len(t, admin.Records, 2)

	_, err = svc.ForAdmin(context.Background(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
