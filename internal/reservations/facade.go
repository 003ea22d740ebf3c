// Package reservations composes the remote API and the local cache into one reservation store that
// keeps working while the API is unreachable.
package reservations

import (
	"context"

	"go.uber.org/zap"

	"lab-inventory-backend/internal/model"
)

// Store is a reservation backend.
type Store interface {
	List(ctx context.Context, lab model.Lab) ([]model.Reservation, error)
	Create(ctx context.Context, r model.Reservation) (model.Reservation, error)
	Delete(ctx context.Context, id string) error
}

// Cache is the local backend. Besides Store it can take a fresh remote snapshot.
type Cache interface {
	Store
	Put(ctx context.Context, r model.Reservation) error
	ReplaceRemote(ctx context.Context, lab model.Lab, rs []model.Reservation) error
}

// ListResult is a reservation listing and where it came from.
type ListResult struct {
	Reservations []model.Reservation
	Origin       model.Origin
	// RemoteErr is the swallowed remote failure when Origin is local.
	RemoteErr error
}

// Degraded reports whether the remote store could not serve the call.
func (r ListResult) Degraded() bool { return r.RemoteErr != nil }

// CreateResult is the stored reservation. Reservation.Origin tells which store accepted it.
type CreateResult struct {
	Reservation model.Reservation
	// Rejected is a definitive remote refusal; nothing was stored.
	Rejected  error
	RemoteErr error
	// LocalErr is set when the local fallback failed too; Reservation is then zero.
	LocalErr error
}

// Degraded reports whether the reservation only exists locally (or nowhere).
func (r CreateResult) Degraded() bool { return r.RemoteErr != nil }

// Saved reports whether any store accepted the reservation.
func (r CreateResult) Saved() bool { return r.Rejected == nil && r.LocalErr == nil }

// DeleteResult reports the outcome of a delete.
type DeleteResult struct {
	Origin    model.Origin
	RemoteErr error
}

// Degraded reports whether the remote delete failed.
func (r DeleteResult) Degraded() bool { return r.RemoteErr != nil }

// Facade tries the remote store first and falls back to the local cache. It never returns errors;
// failures are reported on the results instead.
type Facade struct {
	remote   Store
	local    Cache
	logger   *zap.Logger
	rejected func(error) bool
}

// Option configures a Facade.
type Option func(*Facade)

// WithRejection marks remote create errors for which fn returns true as final answers rather than
// outages, so they are reported instead of saved locally.
func WithRejection(fn func(error) bool) Option {
	return func(f *Facade) { f.rejected = fn }
}

// NewFacade composes remote and local.
func NewFacade(remote Store, local Cache, logger *zap.Logger, opts ...Option) *Facade {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Facade{
		remote:   remote,
		local:    local,
		logger:   logger,
		rejected: func(error) bool { return false },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// List returns the remote listing when reachable, refreshing the cache from it, or the cached listing
// otherwise. Pending local-only reservations are part of both.
func (f *Facade) List(ctx context.Context, lab model.Lab) ListResult {
	remote, err := f.remote.List(ctx, lab)
	if err != nil {
		f.logger.Warn("Remote reservation list failed, serving local cache",
			zap.String("lab", string(lab)), zap.Error(err))
		cached, lerr := f.local.List(ctx, lab)
		if lerr != nil {
			f.logger.Error("Local reservation list failed", zap.String("lab", string(lab)), zap.Error(lerr))
		}
		return ListResult{Reservations: cached, Origin: model.OriginLocal, RemoteErr: err}
	}

	for i := range remote {
		remote[i].Origin = model.OriginRemote
	}
	if err := f.local.ReplaceRemote(ctx, lab, remote); err != nil {
		f.logger.Warn("Failed to refresh local reservation cache", zap.String("lab", string(lab)), zap.Error(err))
	}

	out := remote
	cached, err := f.local.List(ctx, lab)
	if err != nil {
		f.logger.Warn("Failed to read pending local reservations", zap.String("lab", string(lab)), zap.Error(err))
	}
	for _, r := range cached {
		if r.Origin == model.OriginLocal {
			out = append(out, r)
		}
	}
	return ListResult{Reservations: out, Origin: model.OriginRemote}
}

// Create stores r remotely, or locally with a synthesized id when the remote store fails.
func (f *Facade) Create(ctx context.Context, r model.Reservation) CreateResult {
	created, err := f.remote.Create(ctx, r)
	if err == nil {
		created.Origin = model.OriginRemote
		if perr := f.local.Put(ctx, created); perr != nil {
			f.logger.Warn("Failed to cache created reservation", zap.String("id", created.ID), zap.Error(perr))
		}
		return CreateResult{Reservation: created}
	}
	if f.rejected(err) {
		f.logger.Info("Remote store refused reservation", zap.String("lab", string(r.Lab)), zap.Error(err))
		return CreateResult{Rejected: err}
	}

	f.logger.Warn("Remote reservation create failed, saving locally",
		zap.String("lab", string(r.Lab)), zap.String("date", r.Date), zap.Error(err))
	saved, lerr := f.local.Create(ctx, r)
	if lerr != nil {
		f.logger.Error("Local reservation create failed", zap.Error(lerr))
		return CreateResult{RemoteErr: err, LocalErr: lerr}
	}
	return CreateResult{Reservation: saved, RemoteErr: err}
}

// Delete removes r. Local-origin reservations never touch the remote store. Remote ones are deleted
// remotely and dropped from the local view whatever the remote outcome.
func (f *Facade) Delete(ctx context.Context, r model.Reservation) DeleteResult {
	if r.Origin == model.OriginLocal {
		if err := f.local.Delete(ctx, r.ID); err != nil {
			f.logger.Warn("Local reservation delete failed", zap.String("id", r.ID), zap.Error(err))
		}
		return DeleteResult{Origin: model.OriginLocal}
	}

	err := f.remote.Delete(ctx, r.ID)
	if err != nil {
		f.logger.Warn("Remote reservation delete failed", zap.String("id", r.ID), zap.Error(err))
	}
	if lerr := f.local.Delete(ctx, r.ID); lerr != nil {
		f.logger.Debug("Reservation was not cached locally", zap.String("id", r.ID), zap.Error(lerr))
	}
	return DeleteResult{Origin: model.OriginRemote, RemoteErr: err}
}
