// Package collision decides whether a candidate reservation overlaps an existing booking
// of the same lab on the same day.
package collision

import (
	"fmt"

	"lab-inventory-backend/internal/model"
)

// ConflictError describes a blocked reservation.
type ConflictError struct {
	Lab  model.Lab
	Date string
	With model.Reservation
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("the %s lab is already reserved on %s", e.Lab, e.Date)
	if e.With.TimeRange != "" {
		msg += fmt.Sprintf(" (%s", e.With.TimeRange)
		if e.With.Requester != "" {
			msg += ", " + e.With.Requester
		}
		msg += ")"
	}
	return msg
}

// Detect reports whether candidate overlaps any entry of existing.
func Detect(candidate model.Reservation, existing []model.Reservation) bool {
	_, found := FindConflict(candidate, existing)
	return found
}

// FindConflict returns the first existing reservation that collides with candidate.
// Entries whose time range does not parse, on either side, never collide.
func FindConflict(candidate model.Reservation, existing []model.Reservation) (model.Reservation, bool) {
	want, err := candidate.Interval()
	if err != nil {
		return model.Reservation{}, false
	}
	lab := model.NormalizeLab(string(candidate.Lab))
	day := candidate.DateKey()

	for _, other := range existing {
		if model.NormalizeLab(string(other.Lab)) != lab || other.DateKey() != day {
			continue
		}
		have, err := other.Interval()
		if err != nil {
			continue
		}
		if want.Overlaps(have) {
			return other, true
		}
	}
	return model.Reservation{}, false
}

// Check is FindConflict as an error: nil when candidate is free, *ConflictError otherwise.
func Check(candidate model.Reservation, existing []model.Reservation) error {
	other, found := FindConflict(candidate, existing)
	if !found {
		return nil
	}
	return &ConflictError{
		Lab:  model.NormalizeLab(string(candidate.Lab)),
		Date: candidate.DateKey(),
		With: other,
	}
}
