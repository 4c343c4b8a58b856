// Package app assembles the domain services shared by the binaries under cmd/.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shelfwise/library-backend/internal/books"
	"github.com/shelfwise/library-backend/internal/borrows"
	"github.com/shelfwise/library-backend/internal/profile"
	"github.com/shelfwise/library-backend/internal/summary"
	"github.com/shelfwise/library-backend/internal/users"
	"github.com/shelfwise/library-backend/pkg/db"
	"github.com/shelfwise/library-backend/pkg/logger"
	"github.com/shelfwise/library-backend/pkg/metrics"
)

// Services holds the database-backed domain services.
type Services struct {
	Users   *users.Repository
	Books   books.Service
	Borrows borrows.Service
	Profile profile.Service
	Summary summary.Service
}

// NewServices wires repositories and services over one database client.
// reg may be nil, in which case borrow metrics are not exported.
func NewServices(client *db.Client, reg prometheus.Registerer, logg *logger.Logger) (*Services, error) {
	if client == nil {
		return nil, fmt.Errorf("database client required")
	}
	conn := client.DB()
	usersRepo := users.NewRepository(conn)
	booksRepo := books.NewRepository(conn)

	bookSvc, err := books.NewService(booksRepo, client)
	if err != nil {
		return nil, fmt.Errorf("books service: %w", err)
	}
	borrowSvc, err := borrows.NewService(borrows.ServiceParams{
		Records:   borrows.NewRepository(conn),
		Inventory: booksRepo,
		History:   usersRepo,
		Tx:        client,
		Metrics:   metrics.NewBorrowMetrics(reg),
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("borrow service: %w", err)
	}
	profileSvc, err := profile.NewService(usersRepo, borrowSvc)
	if err != nil {
		return nil, fmt.Errorf("profile service: %w", err)
	}
	summarySvc, err := summary.NewService(summary.NewRepository(conn), func(ctx context.Context) error {
		_, err := borrowSvc.RefreshOverdue(ctx)
		return err
	}, logg)
	if err != nil {
		return nil, fmt.Errorf("summary service: %w", err)
	}

	return &Services{
		Users:   usersRepo,
		Books:   bookSvc,
		Borrows: borrowSvc,
		Profile: profileSvc,
		Summary: summarySvc,
	}, nil
}
