package store

import (
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/models"
)

// Seeded household ids.
const (
	HouseholdHome  = 1
	HouseholdFlat  = 2
	seedCreatedAgo = 30 * 24 * time.Hour
)

// Seed builds a store with sample data dated around now. Every user signs
// in with password; cost is the bcrypt cost.
//
//	alice, bob  household 1
//	dave        household 2
//	carol       no household
func Seed(now time.Time, password string, cost int) (*Store, error) {
	s := New()
	home, flat := HouseholdHome, HouseholdFlat
	created := now.Add(-seedCreatedAgo)

	for _, u := range []User{
		{ID: 1, Username: "alice", Email: "alice@example.com", HouseholdID: &home, CreatedAt: created},
		{ID: 2, Username: "bob", HouseholdID: &home, CreatedAt: created},
		{ID: 3, Username: "carol", CreatedAt: created},
		{ID: 4, Username: "dave", HouseholdID: &flat, CreatedAt: created},
	} {
		if err := s.AddUser(u, password, cost); err != nil {
			return nil, err
		}
	}

	alice := &models.CreatedBy{Username: "alice"}
	bob := &models.CreatedBy{Username: "bob"}
	dave := &models.CreatedBy{Username: "dave"}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	at := func(days, hour int) string { return timestamp(today.AddDate(0, 0, days).Add(time.Duration(hour) * time.Hour)) }
	createdAt := timestamp(created)
	weekly := 7

	aliceUser := models.UserData{ID: 1, Username: "alice"}
	bobUser := models.UserData{ID: 2, Username: "bob"}

	s.AddEvent(models.Event{
		ID: 1, Name: "Family dinner", Description: "Pasta night", Date: at(0, 18), Location: "Home",
		CreatedAt: createdAt, CreatedByID: 1, HouseholdID: &home, CreatedBy: alice,
		Attendees: []models.Attendee{
			{EventID: 1, UserID: 1, User: &aliceUser},
			{EventID: 1, UserID: 2, User: &bobUser},
		},
	})
	s.AddEvent(models.Event{
		ID: 2, Name: "Piano lesson", Date: at(2, 16), Cycle: &weekly, Location: "Music school",
		CreatedAt: createdAt, CreatedByID: 2, HouseholdID: &home, CreatedBy: bob,
		Attendees: []models.Attendee{{EventID: 2, UserID: 2, User: &bobUser}},
	})
	s.AddEvent(models.Event{
		ID: 3, Name: "Flat meeting", Date: at(0, 20), Location: "Kitchen",
		CreatedAt: createdAt, CreatedByID: 4, HouseholdID: &flat, CreatedBy: dave,
	})

	s.AddChore(models.Chore{ID: 1, Name: "Take out trash", DueDate: at(0, 20), Priority: 2, CreatedAt: createdAt, CreatedByID: 1, HouseholdID: home, CreatedBy: alice})
	s.AddChore(models.Chore{ID: 2, Name: "Clean bathroom", DueDate: at(-1, 12), Priority: 3, CreatedAt: createdAt, CreatedByID: 2, HouseholdID: home, CreatedBy: bob})
	s.AddChore(models.Chore{ID: 3, Name: "Fix sink", DueDate: at(3, 10), Priority: 4, CreatedAt: createdAt, CreatedByID: 1, HouseholdID: home, CreatedBy: alice})
	s.AddChore(models.Chore{ID: 4, Name: "Water plants", DueDate: at(-2, 9), Priority: 1, Done: true, CreatedAt: createdAt, CreatedByID: 2, HouseholdID: home, CreatedBy: bob, DoneBy: alice})
	s.AddChore(models.Chore{ID: 5, Name: "Mop floors", DueDate: at(1, 9), Priority: 2, CreatedAt: createdAt, CreatedByID: 4, HouseholdID: flat, CreatedBy: dave})

	s.AddBill(models.Bill{ID: 1, Name: "Electricity", Amount: 84.2, DueDate: at(3, 0), CreatedAt: createdAt, CreatedByID: 1, HouseholdID: home, CreatedBy: alice}, false)
	s.AddBill(models.Bill{ID: 2, Name: "Internet", Amount: 39.99, DueDate: at(-1, 0), CreatedAt: createdAt, CreatedByID: 2, HouseholdID: home, CreatedBy: bob}, false)
	s.AddBill(models.Bill{ID: 3, Name: "Rent", Amount: 1200, DueDate: at(-10, 0), CreatedAt: createdAt, CreatedByID: 1, HouseholdID: home, CreatedBy: alice}, true)
	s.AddBill(models.Bill{ID: 4, Name: "Water", Amount: 22.5, DueDate: at(5, 0), CreatedAt: createdAt, CreatedByID: 4, HouseholdID: flat, CreatedBy: dave}, false)

	boughtAt := at(-1, 17)
	s.AddShoppingItem(home, models.ShoppingItem{ID: 1, Name: "Milk", Cost: 1.49, CreatedAt: createdAt, CreatedBy: alice})
	s.AddShoppingItem(home, models.ShoppingItem{ID: 2, Name: "Bread", Cost: 2.3, CreatedAt: createdAt, CreatedBy: alice, BoughtBy: bob, BoughtAt: &boughtAt})
	s.AddShoppingItem(home, models.ShoppingItem{ID: 3, Name: "Coffee", Cost: 8.99, CreatedAt: createdAt, CreatedBy: bob})
	s.AddShoppingItem(flat, models.ShoppingItem{ID: 4, Name: "Dish soap", Cost: 3.1, CreatedAt: createdAt, CreatedBy: dave})

	return s, nil
}
