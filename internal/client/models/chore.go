package models

import (
	"strconv"
	"time"
)

type ChoresResponse struct {
	Chores []Chore `json:"chores"`
	Count  int     `json:"count"`
}

// Chore is a household task with a due date and a priority from 1 (low)
// to 4 (urgent).
type Chore struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	DueDate     string     `json:"dueDate"`
	Priority    int        `json:"priority"`
	Done        bool       `json:"done"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	UpdatedAt   *string    `json:"updatedAt,omitempty"`
	CreatedByID int        `json:"createdById,omitempty"`
	DoneByID    *int       `json:"doneById,omitempty"`
	HouseholdID int        `json:"householdId,omitempty"`
	CreatedBy   *CreatedBy `json:"createdBy,omitempty"`
	DoneBy      *CreatedBy `json:"doneBy,omitempty"`
}

var (
	priorityLabels = map[int]string{1: "Low", 2: "Medium", 3: "High", 4: "Urgent"}
	priorityColors = map[int]string{1: "#4CAF50", 2: "#FF9800", 3: "#F44336", 4: "#9C27B0"}

	overviewPriorityLabels = map[int]string{1: "Low Priority", 2: "Medium Priority", 3: "High Priority"}
	overviewPriorityColors = map[int]string{1: "#4CAF50", 2: "#FF9800", 3: "#FF5722"}
)

const defaultPriorityColor = "#757575"

func (c Chore) FormattedDueDate() string     { return FormatDate(c.DueDate) }
func (c Chore) FormattedCreatedDate() string { return FormatCreated(c.CreatedAt) }

func (c Chore) PriorityLabel() string {
	if l, ok := priorityLabels[c.Priority]; ok {
		return l
	}
	return Unknown
}

func (c Chore) PriorityColor() string {
	if col, ok := priorityColors[c.Priority]; ok {
		return col
	}
	return defaultPriorityColor
}

// OverviewPriorityLabel is the wording used on the overview screen.
func (c Chore) OverviewPriorityLabel() string {
	if l, ok := overviewPriorityLabels[c.Priority]; ok {
		return l
	}
	return "Priority " + strconv.Itoa(c.Priority)
}

func (c Chore) OverviewPriorityColor() string {
	if col, ok := overviewPriorityColors[c.Priority]; ok {
		return col
	}
	return defaultPriorityColor
}

// IsOverdue reports whether an open chore is past its due date. Done chores
// and unparseable dates are never overdue.
func (c Chore) IsOverdue(now time.Time) bool {
	if c.Done {
		return false
	}
	due, err := ParseTimestamp(c.DueDate)
	if err != nil {
		return false
	}
	return due.Before(now)
}

func (c Chore) Author() string { return username(c.CreatedBy) }
