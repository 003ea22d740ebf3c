package model

import "time"

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanOut      LoanStatus = "out"
	LoanReturned LoanStatus = "returned"
)

// Loan lends a book or piece of equipment to a person.
type Loan struct {
	ID         string     `gorm:"primaryKey;size:64" json:"id"`
	Lab        Lab        `gorm:"size:16;not null;index" json:"lab"`
	Item       string     `gorm:"size:256;not null" json:"item"`
	Borrower   string     `gorm:"size:128;not null" json:"borrower"`
	Room       string     `gorm:"size:128" json:"room"`
	DueDate    string     `gorm:"size:32" json:"dueDate,omitempty"`
	Notes      string     `gorm:"size:1024" json:"notes,omitempty"`
	Status     LoanStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`
}

// Snapshot returns the loan fields as an audit payload.
func (l Loan) Snapshot() map[string]any {
	data := map[string]any{
		"id":       l.ID,
		"lab":      string(l.Lab),
		"item":     l.Item,
		"borrower": l.Borrower,
		"room":     l.Room,
		"status":   string(l.Status),
	}
	if l.DueDate != "" {
		data["dueDate"] = l.DueDate
	}
	return data
}
