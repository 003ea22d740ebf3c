package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"lab-inventory-backend/internal/model"
)

const reservationPrefix = "res/"

// ErrNotFound is returned when deleting an id the cache does not hold.
var ErrNotFound = errors.New("reservation not in local cache")

func reservationKey(id string) []byte {
	return []byte(reservationPrefix + id)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// NewID builds a local reservation id of the form RES-<unix millis>-<random>.
func (s *Store) NewID() string {
	return fmt.Sprintf("RES-%d-%s", s.now().UnixMilli(), s.suffix())
}

// List returns cached reservations for lab, or every lab when lab is empty, in key order.
func (s *Store) List(ctx context.Context, lab model.Lab) ([]model.Reservation, error) {
	var out []model.Reservation
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(reservationPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r model.Reservation
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				s.logger.Sugar().Warnf("Skipping unreadable cached reservation %s: %v", it.Item().Key(), err)
				continue
			}
			if lab != "" && model.NormalizeLab(string(r.Lab)) != lab {
				continue
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list cached reservations: %w", err)
	}
	return out, nil
}

// Create stores a reservation that could not reach the API, assigning a local id.
func (s *Store) Create(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return model.Reservation{}, err
	}
	r.ID = s.NewID()
	r.Origin = model.OriginLocal
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	if err := s.Put(ctx, r); err != nil {
		return model.Reservation{}, err
	}
	return r, nil
}

// Put inserts or overwrites a cached reservation.
func (s *Store) Put(ctx context.Context, r model.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode reservation %s: %w", r.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(reservationKey(r.ID), val)
	})
}

// Delete removes a cached reservation.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(reservationKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(reservationKey(id))
	})
}

// ReplaceRemote swaps the cached remote-origin reservations of lab (every lab when empty) for rs.
// Local-origin reservations are left untouched.
func (s *Store) ReplaceRemote(ctx context.Context, lab model.Lab, rs []model.Reservation) error {
	cached, err := s.List(ctx, lab)
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, r := range cached {
		if r.Origin == model.OriginLocal {
			continue
		}
		if err := wb.Delete(reservationKey(r.ID)); err != nil {
			return fmt.Errorf("refresh cached reservations: %w", err)
		}
	}
	for _, r := range rs {
		if r.ID == "" {
			continue
		}
		r.Origin = model.OriginRemote
		val, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode reservation %s: %w", r.ID, err)
		}
		if err := wb.Set(reservationKey(r.ID), val); err != nil {
			return fmt.Errorf("refresh cached reservations: %w", err)
		}
	}
	return wb.Flush()
}
