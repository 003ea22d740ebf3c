package reservations

import (
	"context"

	"lab-inventory-backend/internal/model"
	"lab-inventory-backend/internal/remote"
)

// RemoteStore adapts the API client to Store.
type RemoteStore struct {
	Client *remote.Client
}

func (s RemoteStore) List(ctx context.Context, lab model.Lab) ([]model.Reservation, error) {
	return s.Client.ListReservations(ctx, lab)
}

func (s RemoteStore) Create(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	return s.Client.CreateReservation(ctx, r)
}

func (s RemoteStore) Delete(ctx context.Context, id string) error {
	return s.Client.DeleteReservation(ctx, id)
}
