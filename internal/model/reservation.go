package model

import (
	"time"

	"lab-inventory-backend/internal/parse"
)

// Origin records which store holds the authoritative copy of a record.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

// DateLayout is the calendar date format used for Reservation.Date.
const DateLayout = "2006-01-02"

// Reservation books a lab for a time range on a given day.
type Reservation struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Lab       Lab       `gorm:"size:16;not null;index:idx_reservations_lab_date,priority:1" json:"lab"`
	Date      string    `gorm:"size:32;not null;index:idx_reservations_lab_date,priority:2" json:"date"`
	TimeRange string    `gorm:"size:32" json:"timeRange"`
	Requester string    `gorm:"size:128" json:"requester"`
	Group     string    `gorm:"column:group_name;size:128" json:"group"`
	Notes     string    `gorm:"size:1024" json:"notes"`
	Origin    Origin    `gorm:"-" json:"origin,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DateKey returns the date-only part of Date, ignoring any time-of-day suffix.
func (r Reservation) DateKey() string {
	if len(r.Date) > 10 {
		return r.Date[:10]
	}
	return r.Date
}

// Interval parses TimeRange.
func (r Reservation) Interval() (parse.Interval, error) {
	return parse.ParseTimeRange(r.TimeRange)
}

// Snapshot returns the reservation fields as an audit payload.
func (r Reservation) Snapshot() map[string]any {
	return map[string]any{
		"id":        r.ID,
		"lab":       string(r.Lab),
		"date":      r.Date,
		"timeRange": r.TimeRange,
		"requester": r.Requester,
		"group":     r.Group,
		"notes":     r.Notes,
		"origin":    string(r.Origin),
	}
}
