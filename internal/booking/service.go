// Package booking is the client-side workflow behind every labtrack command: validate, check for
// collisions, persist through the reservation facade and record the audit trail.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"lab-inventory-backend/internal/audit"
	"lab-inventory-backend/internal/collision"
	"lab-inventory-backend/internal/model"
	"lab-inventory-backend/internal/parse"
	"lab-inventory-backend/internal/report"
	"lab-inventory-backend/internal/reservations"
)

var (
	// ErrInvalidRequest wraps validation failures of user input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound is returned when a reservation id is not in the current listing.
	ErrNotFound = errors.New("reservation not found")
)

// ReservationStore is the facade the service persists reservations through.
type ReservationStore interface {
	List(ctx context.Context, lab model.Lab) reservations.ListResult
	Create(ctx context.Context, r model.Reservation) reservations.CreateResult
	Delete(ctx context.Context, r model.Reservation) reservations.DeleteResult
}

// AuditLog records history events.
type AuditLog interface {
	Record(ev model.HistoryEvent) *audit.Task
	Replay(ctx context.Context) (audit.ReplayResult, error)
}

// LoanAPI manages loans on the server. Loans have no offline mode.
type LoanAPI interface {
	ListLoans(ctx context.Context, lab model.Lab) ([]model.Loan, error)
	CreateLoan(ctx context.Context, l model.Loan) (model.Loan, error)
	ReturnLoan(ctx context.Context, id string) (model.Loan, error)
}

// HistorySource reads the server-side audit trail.
type HistorySource interface {
	ListHistory(ctx context.Context, lab model.Lab, limit int) ([]model.HistoryEvent, error)
	// HistoryWindow returns every event of lab created within [since, until]; zero bounds are open.
	HistoryWindow(ctx context.Context, lab model.Lab, since, until time.Time, pageSize int) ([]model.HistoryEvent, error)
}

// Config tunes the service.
type Config struct {
	// User is stamped on every history event.
	User string
	// StrictRanges rejects reservations whose time range does not parse instead of saving them unchecked.
	StrictRanges bool
	// HistoryLimit bounds history listings and is the page size of report reads.
	HistoryLimit int
}

// Service runs the reservation, loan and report workflows.
type Service struct {
	reservations ReservationStore
	audit        AuditLog
	loans        LoanAPI
	history      HistorySource
	cfg          Config
	logger       *zap.Logger
}

// NewService wires the service.
func NewService(rs ReservationStore, log AuditLog, loans LoanAPI, history HistorySource, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		reservations: rs,
		audit:        log,
		loans:        loans,
		history:      history,
		cfg:          cfg,
		logger:       logger,
	}
}

// ReserveRequest is the user input for a new reservation.
type ReserveRequest struct {
	Lab       string
	Date      string
	TimeRange string
	Requester string
	Group     string
	Notes     string
}

// ReserveResult is a stored reservation.
type ReserveResult struct {
	Reservation model.Reservation
	// Unchecked is set when the time range did not parse and the collision check was skipped.
	Unchecked bool
	// RemoteErr is set when the API was unreachable and the reservation was saved locally.
	RemoteErr error
	Audit     *audit.Task
}

// Reserve validates req, rejects it with a *collision.ConflictError when it overlaps an existing
// reservation, and otherwise stores it and records a create event.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (ReserveResult, error) {
	candidate, err := s.candidate(req)
	if err != nil {
		return ReserveResult{}, err
	}

	var res ReserveResult
	if _, err := parse.ParseTimeRange(candidate.TimeRange); err != nil {
		if s.cfg.StrictRanges {
			return ReserveResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		res.Unchecked = true
	}

	if !res.Unchecked {
		listing := s.reservations.List(ctx, candidate.Lab)
		if err := collision.Check(candidate, listing.Reservations); err != nil {
			s.logger.Info("Reservation blocked by collision",
				zap.String("lab", string(candidate.Lab)),
				zap.String("date", candidate.Date),
				zap.String("time_range", candidate.TimeRange),
			)
			return ReserveResult{}, err
		}
	}

	created := s.reservations.Create(ctx, candidate)
	if created.Rejected != nil {
		return ReserveResult{}, fmt.Errorf("server refused reservation: %w", created.Rejected)
	}
	if !created.Saved() {
		return ReserveResult{}, fmt.Errorf("reservation could not be saved: %w", errors.Join(created.RemoteErr, created.LocalErr))
	}

	res.Reservation = created.Reservation
	res.RemoteErr = created.RemoteErr
	res.Audit = s.audit.Record(model.HistoryEvent{
		Lab:        created.Reservation.Lab,
		Action:     model.ActionCreate,
		EntityType: model.EntityReservation,
		EntityID:   created.Reservation.ID,
		User:       s.cfg.User,
		Data:       created.Reservation.Snapshot(),
	})
	return res, nil
}

func (s *Service) candidate(req ReserveRequest) (model.Reservation, error) {
	lab := model.NormalizeLab(req.Lab)
	if lab == model.LabUnknown {
		return model.Reservation{}, fmt.Errorf("%w: unknown lab %q", ErrInvalidRequest, req.Lab)
	}
	date := strings.TrimSpace(req.Date)
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return model.Reservation{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidRequest, req.Date)
	}
	return model.Reservation{
		Lab:       lab,
		Date:      date,
		TimeRange: strings.TrimSpace(req.TimeRange),
		Requester: strings.TrimSpace(req.Requester),
		Group:     strings.TrimSpace(req.Group),
		Notes:     strings.TrimSpace(req.Notes),
	}, nil
}

// Reservations lists reservations for lab, or every lab when lab is empty.
func (s *Service) Reservations(ctx context.Context, lab model.Lab) reservations.ListResult {
	return s.reservations.List(ctx, lab)
}

// CancelResult is a removed reservation.
type CancelResult struct {
	Reservation model.Reservation
	// RemoteErr is set when the remote delete failed; the reservation is gone from the local view anyway.
	RemoteErr error
	Audit     *audit.Task
}

// Cancel deletes the reservation id of lab and records a delete event.
func (s *Service) Cancel(ctx context.Context, lab model.Lab, id string) (CancelResult, error) {
	id = strings.TrimSpace(id)
	listing := s.reservations.List(ctx, lab)

	var target *model.Reservation
	for i := range listing.Reservations {
		if listing.Reservations[i].ID == id {
			target = &listing.Reservations[i]
			break
		}
	}
	if target == nil {
		return CancelResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	deleted := s.reservations.Delete(ctx, *target)
	task := s.audit.Record(model.HistoryEvent{
		Lab:        target.Lab,
		Action:     model.ActionDelete,
		EntityType: model.EntityReservation,
		EntityID:   target.ID,
		User:       s.cfg.User,
		Data:       target.Snapshot(),
	})
	return CancelResult{Reservation: *target, RemoteErr: deleted.RemoteErr, Audit: task}, nil
}

// LendRequest is the user input for a new loan.
type LendRequest struct {
	Lab      string
	Item     string
	Borrower string
	Room     string
	DueDate  string
	Notes    string
}

// Lend registers a loan on the server and records a create event.
func (s *Service) Lend(ctx context.Context, req LendRequest) (model.Loan, *audit.Task, error) {
	loan := model.Loan{
		Lab:      model.NormalizeLab(req.Lab),
		Item:     strings.TrimSpace(req.Item),
		Borrower: strings.TrimSpace(req.Borrower),
		Room:     strings.TrimSpace(req.Room),
		DueDate:  strings.TrimSpace(req.DueDate),
		Notes:    strings.TrimSpace(req.Notes),
	}
	if loan.Lab == model.LabUnknown {
		loan.Lab = model.LabLibrary
	}
	if loan.Item == "" || loan.Borrower == "" {
		return model.Loan{}, nil, fmt.Errorf("%w: item and borrower are required", ErrInvalidRequest)
	}

	created, err := s.loans.CreateLoan(ctx, loan)
	if err != nil {
		return model.Loan{}, nil, fmt.Errorf("failed to create loan: %w", err)
	}

	task := s.audit.Record(model.HistoryEvent{
		Lab:        created.Lab,
		Action:     model.ActionCreate,
		EntityType: model.EntityLoan,
		EntityID:   created.ID,
		User:       s.cfg.User,
		Data:       created.Snapshot(),
	})
	return created, task, nil
}

// Return marks loan id as returned and records a return event.
func (s *Service) Return(ctx context.Context, id string) (model.Loan, *audit.Task, error) {
	returned, err := s.loans.ReturnLoan(ctx, strings.TrimSpace(id))
	if err != nil {
		return model.Loan{}, nil, fmt.Errorf("failed to return loan %s: %w", id, err)
	}

	task := s.audit.Record(model.HistoryEvent{
		Lab:        returned.Lab,
		Action:     model.ActionReturn,
		EntityType: model.EntityLoan,
		EntityID:   returned.ID,
		User:       s.cfg.User,
		Data:       returned.Snapshot(),
	})
	return returned, task, nil
}

// Loans lists loans for lab, or every lab when lab is empty.
func (s *Service) Loans(ctx context.Context, lab model.Lab) ([]model.Loan, error) {
	return s.loans.ListLoans(ctx, lab)
}

// History returns the newest limit events for lab, or every lab when lab is empty.
func (s *Service) History(ctx context.Context, lab model.Lab, limit int) ([]model.HistoryEvent, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	return s.history.ListHistory(ctx, lab, limit)
}

// Replay delivers queued history events.
func (s *Service) Replay(ctx context.Context) (audit.ReplayResult, error) {
	return s.audit.Replay(ctx)
}

// Report flushes the audit queue, reads every server event inside the filter window and aggregates them.
func (s *Service) Report(ctx context.Context, filter report.Filter) (report.Window, error) {
	if _, err := s.audit.Replay(ctx); err != nil {
		s.logger.Warn("Audit replay before report failed", zap.Error(err))
	}

	events, err := s.history.HistoryWindow(ctx, filter.Lab, filter.From, filter.To, s.cfg.HistoryLimit)
	if err != nil {
		return report.Window{}, fmt.Errorf("failed to load history: %w", err)
	}
	return report.Aggregate(events, filter), nil
}
