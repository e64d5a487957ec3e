package models

// Overview payloads wrap their lists in a named field.
type (
	OverviewEvents struct {
		Events []Event `json:"events"`
	}
	OverviewChores struct {
		Chores []Chore `json:"chores"`
	}
	OverviewBills struct {
		Bills []Bill `json:"bills"`
	}
	OverviewShopping struct {
		ShoppingItems []ShoppingItem `json:"shoppingItems"`
	}
)
