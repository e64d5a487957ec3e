package models

// ShoppingItem is one entry of the household shopping list. It is bought
// once BoughtBy is set.
type ShoppingItem struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Cost      float64    `json:"cost"`
	CreatedAt string     `json:"createdAt"`
	CreatedBy *CreatedBy `json:"createdBy,omitempty"`
	BoughtBy  *CreatedBy `json:"boughtBy,omitempty"`
	BoughtAt  *string    `json:"boughtAt,omitempty"`
}

func (s ShoppingItem) IsBought() bool { return s.BoughtBy != nil }

func (s ShoppingItem) FormattedCost() string        { return FormatMoney(s.Cost) }
func (s ShoppingItem) FormattedCreatedDate() string { return FormatDate(s.CreatedAt) }

func (s ShoppingItem) FormattedBoughtDate() string {
	if s.BoughtAt == nil {
		return NotBought
	}
	return FormatDate(*s.BoughtAt)
}

func (s ShoppingItem) Author() string { return username(s.CreatedBy) }

// TotalCost sums the cost of items.
func TotalCost(items []ShoppingItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Cost
	}
	return total
}
