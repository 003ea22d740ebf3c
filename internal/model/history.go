package model

import "time"

// Well-known actions and entity types written by the client.
const (
	ActionCreate = "create"
	ActionDelete = "delete"
	ActionReturn = "return"

	EntityReservation = "reservation"
	EntityLoan        = "loan"
)

// HistoryEvent is an append-only audit record of a mutating action.
type HistoryEvent struct {
	ID         string         `gorm:"primaryKey;size:64" json:"id,omitempty"`
	Lab        Lab            `gorm:"size:16;not null;index" json:"lab"`
	Action     string         `gorm:"size:32;not null" json:"action"`
	EntityType string         `gorm:"size:32;not null" json:"entityType"`
	EntityID   string         `gorm:"size:64;index" json:"entityId"`
	User       string         `gorm:"column:user_name;size:128" json:"user"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"createdAt"`
	Data       map[string]any `gorm:"serializer:json" json:"data,omitempty"`
}
