package local

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"lab-inventory-backend/internal/model"
)

const (
	queuePrefix = "auditq/"
	queueSeqKey = "seq/auditq"
)

// queueKey orders entries by their sequence number under byte-wise comparison.
func queueKey(n uint64) []byte {
	key := make([]byte, len(queuePrefix)+8)
	copy(key, queuePrefix)
	binary.BigEndian.PutUint64(key[len(queuePrefix):], n)
	return key
}

// Enqueue appends an event to the audit queue.
func (s *Store) Enqueue(ctx context.Context, ev model.HistoryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	n, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("allocate audit queue slot: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(queueKey(n), val)
	})
}

type queued struct {
	key      []byte
	ev       model.HistoryEvent
	unusable bool
}

func (s *Store) pending() ([]queued, error) {
	var out []queued
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(queuePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			q := queued{key: item.KeyCopy(nil)}
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &q.ev)
			}); err != nil {
				s.logger.Sugar().Warnf("Dropping unreadable audit queue entry %x: %v", q.key, err)
				q.unusable = true
			}
			out = append(out, q)
		}
		return nil
	})
	return out, err
}

// Drain hands queued events to deliver, oldest first. Delivered entries are removed; failed ones stay
// where they were. Events enqueued while draining are left for the next drain.
func (s *Store) Drain(ctx context.Context, deliver func(context.Context, model.HistoryEvent) error) (delivered, remaining int, err error) {
	entries, err := s.pending()
	if err != nil {
		return 0, 0, fmt.Errorf("read audit queue: %w", err)
	}

	for i, q := range entries {
		if q.unusable {
			if err := s.remove(q.key); err != nil {
				return delivered, remaining + len(entries) - i, err
			}
			continue
		}
		if ctx.Err() != nil {
			return delivered, remaining + len(entries) - i, nil
		}
		if derr := deliver(ctx, q.ev); derr != nil {
			remaining++
			continue
		}
		if err := s.remove(q.key); err != nil {
			return delivered, remaining + len(entries) - i, err
		}
		delivered++
	}
	return delivered, remaining, nil
}

// Len returns the number of queued events.
func (s *Store) Len(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(queuePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s *Store) remove(key []byte) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	}); err != nil {
		return fmt.Errorf("remove audit queue entry: %w", err)
	}
	return nil
}
