package store

import (
	"errors"
	"time"

	"lab-inventory-backend/internal/model"
)

// ErrNotFound is returned when a record addressed by id does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyReturned is returned when returning a loan that is not out.
var ErrAlreadyReturned = errors.New("loan already returned")

// HistoryFilter narrows history queries. A zero Lab selects every lab; Limit <= 0 means no limit.
// Since and Until are inclusive bounds on CreatedAt. A non-zero Before resumes a newest-first listing
// after the event (Before, BeforeID).
type HistoryFilter struct {
	Lab      model.Lab
	Limit    int
	Since    time.Time
	Until    time.Time
	Before   time.Time
	BeforeID string
}
