package models

import "time"

// Bill is a household payment with an amount and a due date.
type Bill struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	DueDate     string     `json:"dueDate"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	UpdatedAt   *string    `json:"updatedAt,omitempty"`
	CreatedByID int        `json:"createdById,omitempty"`
	HouseholdID int        `json:"householdId,omitempty"`
	CreatedBy   *CreatedBy `json:"createdBy,omitempty"`
}

const day = 24 * time.Hour

func (b Bill) FormattedDueDate() string     { return FormatDate(b.DueDate) }
func (b Bill) FormattedCreatedDate() string { return FormatCreated(b.CreatedAt) }
func (b Bill) FormattedAmount() string      { return FormatMoney(b.Amount) }

func (b Bill) IsOverdue(now time.Time) bool {
	due, err := ParseTimestamp(b.DueDate)
	if err != nil {
		return false
	}
	return due.Before(now)
}

// DaysUntilDue is the number of whole days until the due date, truncated
// toward zero. It is 0 for unparseable dates.
func (b Bill) DaysUntilDue(now time.Time) int {
	due, err := ParseTimestamp(b.DueDate)
	if err != nil {
		return 0
	}
	return int(due.Sub(now) / day)
}

func (b Bill) Author() string { return username(b.CreatedBy) }

// BillSummary splits bills into overdue ones and ones due within a week.
type BillSummary struct {
	Overdue []Bill
	DueSoon []Bill
	Total   float64
}

func SummarizeBills(bills []Bill, now time.Time) BillSummary {
	var s BillSummary
	for _, b := range bills {
		s.Total += b.Amount
		switch {
		case b.IsOverdue(now):
			s.Overdue = append(s.Overdue, b)
		case b.DaysUntilDue(now) <= 7:
			s.DueSoon = append(s.DueSoon, b)
		}
	}
	return s
}
