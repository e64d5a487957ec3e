package models

import "strings"

type EventsResponse struct {
	Events []Event `json:"events"`
	Count  int     `json:"count"`
}

// Event is a household calendar entry. The overview endpoint sends a subset
// of the fields plus CreatedBy.
type Event struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Date          string     `json:"date"`
	Cycle         *int       `json:"cycle,omitempty"`
	RepeatCount   *int       `json:"repeatCount,omitempty"`
	Location      string     `json:"location"`
	CreatedAt     string     `json:"createdAt,omitempty"`
	UpdatedAt     *string    `json:"updatedAt,omitempty"`
	CreatedByID   int        `json:"createdById,omitempty"`
	HouseholdID   *int       `json:"householdId,omitempty"`
	ParentEventID *int       `json:"parentEventId,omitempty"`
	Attendees     []Attendee `json:"attendees,omitempty"`
	CreatedBy     *CreatedBy `json:"createdBy,omitempty"`
}

type Attendee struct {
	EventID int       `json:"eventId"`
	UserID  int       `json:"userId"`
	User    *UserData `json:"user,omitempty"`
}

func (e Event) FormattedDate() string { return FormatDate(e.Date) }

// AttendeeNames lists the usernames of attendees with a loaded user.
func (e Event) AttendeeNames() []string {
	names := make([]string, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		if a.User != nil {
			names = append(names, a.User.Username)
		}
	}
	return names
}

func (e Event) AttendeeList() string {
	return strings.Join(e.AttendeeNames(), ", ")
}

// IsRecurring reports whether the event repeats on a cycle.
func (e Event) IsRecurring() bool {
	return e.Cycle != nil && *e.Cycle > 0
}

func (e Event) Author() string { return username(e.CreatedBy) }
