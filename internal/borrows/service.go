package borrows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/internal/books"
	"github.com/shelfwise/library-backend/pkg/db/models"
	"github.com/shelfwise/library-backend/pkg/enums"
	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"github.com/shelfwise/library-backend/pkg/logger"
	"github.com/shelfwise/library-backend/pkg/metrics"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// HistoryAppender records a new loan on the borrower's history index.
type HistoryAppender interface {
	AppendBorrowRecord(ctx context.Context, tx *gorm.DB, userID, recordID uuid.UUID) error
}

// Service owns the borrow lifecycle and the link between open records and
// available copies.
type Service interface {
	Borrow(ctx context.Context, input BorrowInput) (*RecordDTO, error)
	Return(ctx context.Context, input ReturnInput) (*ReturnReceipt, error)
	UpdateRecord(ctx context.Context, id uuid.UUID, patch RecordPatch) (*RecordDTO, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*RecordDTO, error)
	ListRecords(ctx context.Context, name string) ([]RecordDTO, error)
	BookHistory(ctx context.Context, bookID uuid.UUID) ([]RecordDTO, error)
	ListDueBefore(ctx context.Context, before time.Time) ([]RecordDTO, error)
	ListOverdue(ctx context.Context) (*OverdueReport, error)
	SearchOverdue(ctx context.Context, name, title string) (*OverdueReport, error)
	UserHistory(ctx context.Context, userID uuid.UUID) (*HistoryReport, error)
	AdminUserHistory(ctx context.Context, userID uuid.UUID) ([]AdminHistoryEntry, error)
	UserFineSummary(ctx context.Context, userID uuid.UUID) (*FineSummary, error)
	RefreshOverdue(ctx context.Context) (RefreshResult, error)
}

// ServiceParams wires the lifecycle manager. Metrics, Logger and Now are optional.
type ServiceParams struct {
	Records   Repository
	Inventory books.Inventory
	History   HistoryAppender
	Tx        txRunner
	Metrics   *metrics.BorrowMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	records   Repository
	inventory books.Inventory
	history   HistoryAppender
	tx        txRunner
	metrics   *metrics.BorrowMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the borrow lifecycle manager.
func NewService(params ServiceParams) (Service, error) {
	if params.Records == nil {
		return nil, fmt.Errorf("borrow record repository required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("book inventory required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history appender required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		records:   params.Records,
		inventory: params.Inventory,
		history:   params.History,
		tx:        params.Tx,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       func() time.Time { return now().UTC() },
	}, nil
}

func (s *service) Borrow(ctx context.Context, input BorrowInput) (*RecordDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	title := strings.TrimSpace(input.Title)
	if input.BookID == nil && title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bookId or title is required")
	}

	book, err := s.inventory.FindBorrowable(ctx, books.BookRef{ID: input.BookID, Title: title})
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			s.metrics.ObserveBorrow("not_found")
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "book not found")
		}
		s.metrics.ObserveBorrow("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	if book.AvailableCopies <= 0 {
		s.metrics.ObserveBorrow("unavailable")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidState, books.ErrNoAvailableCopies, "no available copies of this book")
	}

	borrowedAt := s.now()
	record := &models.BorrowRecord{
		UserID:     input.UserID,
		BookID:     book.ID,
		BorrowDate: borrowedAt,
		DueDate:    DueDateFor(borrowedAt),
		Status:     enums.BorrowStatusBorrowed,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.inventory.Reserve(ctx, tx, book.ID); err != nil {
			if errors.Is(err, books.ErrNoAvailableCopies) {
				return pkgerrors.Wrap(pkgerrors.CodeInvalidState, err, "no available copies of this book")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve copy")
		}
		if err := s.records.WithTx(tx).Create(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create borrow record")
		}
		if err := s.history.AppendBorrowRecord(ctx, tx, input.UserID, record.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append borrow history")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeInvalidState {
			s.metrics.ObserveBorrow("unavailable")
		} else {
			s.metrics.ObserveBorrow("error")
		}
		return nil, err
	}
	s.metrics.ObserveBorrow("ok")

	if s.logg != nil {
		logCtx := s.logg.WithRecordID(ctx, record.ID.String())
		logCtx = s.logg.WithBookID(logCtx, book.ID.String())
		s.logg.Info(logCtx, "borrow.created")
	}

	book.AvailableCopies--
	record.Book = book
	dto := ToDTO(*record)
	return &dto, nil
}

func (s *service) Return(ctx context.Context, input ReturnInput) (*ReturnReceipt, error) {
	record, err := s.records.FindByID(ctx, input.RecordID)
	if err != nil {
		return nil, translateRecordLookup(err)
	}
	if input.ActorRole != enums.UserRoleAdmin && record.UserID != input.ActorID {
		return nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, ErrNotRecordOwner, "you can only return your own books")
	}
	if !record.IsOpen() {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidState, ErrAlreadyReturned, "book already returned")
	}

	returnedAt := s.now()
	status := enums.BorrowStatusReturned
	fine := 0
	late := returnedAt.After(record.DueDate)
	if late {
		status = enums.BorrowStatusOverdue
		fine = CalculateFine(record.DueDate, returnedAt)
		if record.FineOverridden {
			fine = record.FineAmount
		}
	}

	released := true
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		closed, err := s.records.WithTx(tx).MarkReturned(ctx, record.ID, returnedAt, status, fine)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close borrow record")
		}
		if !closed {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidState, ErrAlreadyReturned, "book already returned")
		}
		ok, err := s.inventory.Release(ctx, tx, record.BookID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release copy")
		}
		released = ok
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveReturn(late, fine)

	if s.logg != nil {
		logCtx := s.logg.WithRecordID(ctx, record.ID.String())
		logCtx = s.logg.WithBookID(logCtx, record.BookID.String())
		if !released {
			s.logg.Warn(logCtx, "borrow.return.copies_at_capacity")
		}
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{"status": status, "fine": fine}), "borrow.returned")
	}

	receipt := &ReturnReceipt{
		ID:         record.ID,
		Status:     status,
		Fine:       fine,
		ReturnedOn: returnedAt,
	}
	if record.Book != nil {
		receipt.Title = record.Book.Title
	}
	return receipt, nil
}

// UpdateRecord applies admin overrides verbatim. A fine written here is
// marked as overridden so refresh passes keep it. Status is not re-derived
// here; the next refresh pass does that.
func (s *service) UpdateRecord(ctx context.Context, id uuid.UUID, patch RecordPatch) (*RecordDTO, error) {
	if patch.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	fields := map[string]any{}
	if patch.FineAmount != nil {
		if *patch.FineAmount < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fineAmount must not be negative")
		}
		fields["fine_amount"] = *patch.FineAmount
		fields["fine_overridden"] = true
	}
	if patch.DueDate != nil {
		if patch.DueDate.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "dueDate is invalid")
		}
		fields["due_date"] = patch.DueDate.UTC()
	}
	if patch.FinePaid != nil {
		fields["fine_paid"] = *patch.FinePaid
	}

	ok, err := s.records.Update(ctx, id, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update borrow record")
	}
	if !ok {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrRecordNotFound, "borrow record not found")
	}

	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, translateRecordLookup(err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithRecordID(ctx, id.String()), "borrow.record.updated")
	}
	dto := ToDTO(*record)
	return &dto, nil
}

func (s *service) GetRecord(ctx context.Context, id uuid.UUID) (*RecordDTO, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, translateRecordLookup(err)
	}
	list := []models.BorrowRecord{*record}
	s.refreshLoaded(ctx, list)
	dto := ToDTO(list[0])
	return &dto, nil
}

func (s *service) ListRecords(ctx context.Context, name string) ([]RecordDTO, error) {
	return s.listRefreshed(ctx, RecordFilter{UserName: name}, "list borrow records")
}

// BookHistory lists every loan of one book, newest first.
func (s *service) BookHistory(ctx context.Context, bookID uuid.UUID) ([]RecordDTO, error) {
	if bookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	return s.listRefreshed(ctx, RecordFilter{BookID: &bookID}, "list book borrow records")
}

// ListDueBefore lists open loans due strictly before the given instant,
// including ones already overdue.
func (s *service) ListDueBefore(ctx context.Context, before time.Time) ([]RecordDTO, error) {
	if before.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "before is required")
	}
	return s.listRefreshed(ctx, RecordFilter{OpenOnly: true, DueBefore: &before}, "list due borrow records")
}

func (s *service) listRefreshed(ctx context.Context, filter RecordFilter, op string) ([]RecordDTO, error) {
	records, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
	}
	s.refreshLoaded(ctx, records)
	out := make([]RecordDTO, 0, len(records))
	for _, record := range records {
		out = append(out, ToDTO(record))
	}
	return out, nil
}

func (s *service) ListOverdue(ctx context.Context) (*OverdueReport, error) {
	return s.SearchOverdue(ctx, "", "")
}

func (s *service) SearchOverdue(ctx context.Context, name, title string) (*OverdueReport, error) {
	if _, err := s.RefreshOverdue(ctx); err != nil {
		s.warn(ctx, "borrow.refresh.partial", err)
	}
	records, err := s.records.List(ctx, RecordFilter{
		Statuses:  []enums.BorrowStatus{enums.BorrowStatusOverdue},
		OpenOnly:  true,
		UserName:  name,
		BookTitle: title,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue records")
	}

	now := s.now()
	report := &OverdueReport{Records: make([]OverdueEntry, 0, len(records))}
	for _, record := range records {
		report.Records = append(report.Records, toOverdueEntry(record, now))
	}
	report.TotalOverdue = len(report.Records)
	return report, nil
}

func (s *service) UserHistory(ctx context.Context, userID uuid.UUID) (*HistoryReport, error) {
	records, err := s.userRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	report := &HistoryReport{TotalBorrowed: len(records), Records: make([]HistoryEntry, 0, len(records))}
	for _, record := range records {
		report.Records = append(report.Records, toHistoryEntry(record, now))
	}
	return report, nil
}

func (s *service) AdminUserHistory(ctx context.Context, userID uuid.UUID) ([]AdminHistoryEntry, error) {
	records, err := s.userRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]AdminHistoryEntry, 0, len(records))
	for _, record := range records {
		out = append(out, toAdminHistoryEntry(record, now))
	}
	return out, nil
}

func (s *service) UserFineSummary(ctx context.Context, userID uuid.UUID) (*FineSummary, error) {
	records, err := s.userRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &FineSummary{}
	for _, record := range records {
		summary.TotalFine += record.FineAmount
		if !record.FinePaid {
			summary.UnpaidFine += record.FineAmount
		}
		if record.IsOpen() {
			summary.OpenLoans++
			if record.Status == enums.BorrowStatusOverdue {
				summary.OverdueLoans++
			}
		}
	}
	return summary, nil
}

// RefreshOverdue sweeps every open record whose status or fine may be stale.
// Failures on single records are collected and the sweep carries on.
func (s *service) RefreshOverdue(ctx context.Context) (RefreshResult, error) {
	now := s.now()
	candidates, err := s.records.FindRefreshCandidates(ctx, now)
	if err != nil {
		return RefreshResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refresh candidates")
	}

	result := RefreshResult{Scanned: len(candidates)}
	var errs error
	for i := range candidates {
		before := candidates[i].Status
		d, applied, err := s.apply(ctx, &candidates[i], now)
		if err != nil {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("record %s: %w", candidates[i].ID, err))
			continue
		}
		if applied {
			result.count(before, d)
		}
	}

	if s.logg != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"scanned":        result.Scanned,
			"marked_overdue": result.MarkedOverdue,
			"restored":       result.Restored,
			"fines_updated":  result.FinesUpdated,
			"failed":         result.Failed,
		}), "borrow.refresh.complete")
	}
	return result, errs
}

func (s *service) userRecords(ctx context.Context, userID uuid.UUID) ([]models.BorrowRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	records, err := s.records.List(ctx, RecordFilter{UserID: &userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user borrow records")
	}
	s.refreshLoaded(ctx, records)
	return records, nil
}

// refreshLoaded brings already-loaded records up to date in place. Persist
// failures are logged; the caller still sees the derived values.
func (s *service) refreshLoaded(ctx context.Context, records []models.BorrowRecord) {
	now := s.now()
	for i := range records {
		d := DeriveStatus(records[i], now)
		if !d.Changed {
			continue
		}
		if _, _, err := s.apply(ctx, &records[i], now); err != nil {
			s.warn(s.logRecord(ctx, records[i].ID), "borrow.refresh.persist_failed", err)
			d.applyTo(&records[i])
		}
	}
}

func (s *service) apply(ctx context.Context, record *models.BorrowRecord, now time.Time) (Derivation, bool, error) {
	d := DeriveStatus(*record, now)
	if !d.Changed {
		return d, false, nil
	}
	ok, err := s.records.ApplyRefresh(ctx, record.ID, d)
	if err != nil {
		return d, false, err
	}
	if !ok {
		return d, false, nil
	}
	if d.Status != record.Status {
		s.metrics.ObserveTransition(d.Status.String())
	}
	d.applyTo(record)
	return d, true, nil
}

func (s *service) logRecord(ctx context.Context, id uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithRecordID(ctx, id.String())
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

func translateRecordLookup(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrRecordNotFound, "borrow record not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load borrow record")
}
