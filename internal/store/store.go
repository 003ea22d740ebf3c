package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lab-inventory-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	ListReservations(ctx context.Context, lab model.Lab) ([]model.Reservation, error)
	ListReservationsOn(ctx context.Context, lab model.Lab, date string) ([]model.Reservation, error)
	CreateReservation(ctx context.Context, r *model.Reservation) error
	DeleteReservation(ctx context.Context, id string) error

	ListHistory(ctx context.Context, filter HistoryFilter) ([]model.HistoryEvent, error)
	RecordHistory(ctx context.Context, ev *model.HistoryEvent) error

	ListLoans(ctx context.Context, lab model.Lab) ([]model.Loan, error)
	CreateLoan(ctx context.Context, l *model.Loan) error
	ReturnLoan(ctx context.Context, id string, at time.Time) (model.Loan, error)

	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db    *gorm.DB
	newID func() string
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, newID: uuid.NewString}
}

// ListReservations returns reservations ordered by date and time range. An empty lab lists every lab.
func (s *gormStore) ListReservations(ctx context.Context, lab model.Lab) ([]model.Reservation, error) {
	q := s.db.WithContext(ctx).Model(&model.Reservation{})
	if lab != "" {
		q = q.Where("lab = ?", lab)
	}

	var out []model.Reservation
	if err := q.Order("date ASC").Order("time_range ASC").Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return withOrigin(out), nil
}

// ListReservationsOn returns the reservations of one lab whose date starts with the given day.
func (s *gormStore) ListReservationsOn(ctx context.Context, lab model.Lab, date string) ([]model.Reservation, error) {
	var out []model.Reservation
	err := s.db.WithContext(ctx).
		Where("lab = ? AND date LIKE ?", lab, date+"%").
		Order("time_range ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations for %s on %s: %w", lab, date, err)
	}
	return withOrigin(out), nil
}

// CreateReservation assigns a server id and inserts the reservation.
func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	r.ID = s.newID()
	r.Origin = ""
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	r.Origin = model.OriginRemote
	return nil
}

// DeleteReservation removes a reservation by id.
func (s *gormStore) DeleteReservation(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Reservation{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete reservation %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListHistory returns history events, newest first.
func (s *gormStore) ListHistory(ctx context.Context, filter HistoryFilter) ([]model.HistoryEvent, error) {
	q := s.db.WithContext(ctx).Model(&model.HistoryEvent{})
	if filter.Lab != "" {
		q = q.Where("lab = ?", filter.Lab)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		q = q.Where("created_at <= ?", filter.Until.UTC())
	}
	if !filter.Before.IsZero() {
		before := filter.Before.UTC()
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", before, before, filter.BeforeID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var out []model.HistoryEvent
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return out, nil
}

// RecordHistory stores an event. The client-stamped CreatedAt is kept, converted to UTC.
func (s *gormStore) RecordHistory(ctx context.Context, ev *model.HistoryEvent) error {
	ev.ID = s.newID()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	ev.CreatedAt = ev.CreatedAt.UTC()
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to record history event: %w", err)
	}
	return nil
}

// ListLoans returns loans, most recent first. An empty lab lists every lab.
func (s *gormStore) ListLoans(ctx context.Context, lab model.Lab) ([]model.Loan, error) {
	q := s.db.WithContext(ctx).Model(&model.Loan{})
	if lab != "" {
		q = q.Where("lab = ?", lab)
	}

	var out []model.Loan
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return out, nil
}

// CreateLoan assigns a server id and inserts the loan as out.
func (s *gormStore) CreateLoan(ctx context.Context, l *model.Loan) error {
	l.ID = s.newID()
	l.Status = model.LoanOut
	l.ReturnedAt = nil
	if err := s.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// ReturnLoan marks an outstanding loan as returned.
func (s *gormStore) ReturnLoan(ctx context.Context, id string, at time.Time) (model.Loan, error) {
	var loan model.Loan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&loan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if loan.Status == model.LoanReturned {
			return ErrAlreadyReturned
		}

		loan.Status = model.LoanReturned
		loan.ReturnedAt = &at
		return tx.Model(&model.Loan{}).Where("id = ?", id).Updates(map[string]any{
			"status":      model.LoanReturned,
			"returned_at": at,
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyReturned) {
			return model.Loan{}, err
		}
		return model.Loan{}, fmt.Errorf("failed to return loan %s: %w", id, err)
	}
	return loan, nil
}

// Ping checks the database connection.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func withOrigin(rs []model.Reservation) []model.Reservation {
	for i := range rs {
		rs[i].Origin = model.OriginRemote
	}
	return rs
}
