package models

import "strconv"

// UserData is the profile returned by user/get.
type UserData struct {
	ID               int     `json:"id"`
	Username         string  `json:"username"`
	Email            *string `json:"email,omitempty"`
	PasswordHash     *string `json:"passwordHash,omitempty"`
	CreatedAt        *string `json:"createdAt,omitempty"`
	ProfilePictureID *int    `json:"profilePictureId,omitempty"`
	HouseholdID      *int    `json:"householdId,omitempty"`
}

// Household returns the household id as a string, or false when the user
// has not joined one.
func (u UserData) Household() (string, bool) {
	if u.HouseholdID == nil {
		return "", false
	}
	return strconv.Itoa(*u.HouseholdID), true
}

// CreatedBy is the embedded author (or buyer) reference of list items.
type CreatedBy struct {
	Username string `json:"username"`
}

func username(c *CreatedBy) string {
	if c == nil {
		return Unknown
	}
	return c.Username
}
