// Package local is the client's durable on-disk state: a reservation cache used while the API is
// unreachable and the queue of audit events waiting for delivery. Both live in one BadgerDB.
package local

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Config selects where the database lives.
type Config struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps everything in RAM; used by tests.
	InMemory bool
	Logger   *zap.Logger
}

// Store wraps the badger handle shared by the reservation cache and the audit queue.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *zap.Logger
	now    func() time.Time
	suffix func() string
}

// badgerLogger routes badger's own messages through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...interface{})    { l.s.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// Open opens (creating if needed) the local database.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("local data directory is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{s: logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}

	seq, err := db.GetSequence([]byte(queueSeqKey), 64)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open audit queue sequence: %w", err)
	}

	return &Store{
		db:     db,
		seq:    seq,
		logger: logger,
		now:    time.Now,
		suffix: randomSuffix,
	}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	var errs []error
	if err := s.seq.Release(); err != nil {
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
