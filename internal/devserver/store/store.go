// Package store is the in-memory household data of the development
// backend. It serves the same payloads the production backend does for a
// fixed seed: two households, a few users and a week of activity.
package store

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/errors"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ShoppingPageSize is the number of shopping items per skip page.
const ShoppingPageSize = 20

type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash []byte
	HouseholdID  *int
	CreatedAt    time.Time
}

// Data converts u to the user/get payload. The password hash is never sent.
func (u User) Data() models.UserData {
	created := timestamp(u.CreatedAt)
	d := models.UserData{ID: u.ID, Username: u.Username, CreatedAt: &created, HouseholdID: u.HouseholdID}
	if u.Email != "" {
		email := u.Email
		d.Email = &email
	}
	return d
}

type bill struct {
	models.Bill
	Paid bool
}

type shoppingItem struct {
	models.ShoppingItem
	HouseholdID int
}

type Store struct {
	mu sync.RWMutex

	users    map[int]User
	byName   map[string]int
	events   []models.Event
	chores   []models.Chore
	bills    []bill
	shopping []shoppingItem
}

func New() *Store {
	return &Store{users: map[int]User{}, byName: map[string]int{}}
}

// AddUser stores u with a bcrypt hash of password.
func (s *Store) AddUser(u User, password string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	u.PasswordHash = hash

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[u.Username]; ok {
		return errors.Errorf("user %s already exists", u.Username)
	}
	s.users[u.ID] = u
	s.byName[u.Username] = u.ID
	return nil
}

// Authenticate checks username and password. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Store) Authenticate(username, password string) (User, error) {
	s.mu.RLock()
	id, ok := s.byName[username]
	u := s.users[id]
	s.mu.RUnlock()

	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Store) User(id int) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, errors.Wrapf(ErrNotFound, "user %d", id)
	}
	return u, nil
}

func (s *Store) AddEvent(e models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *Store) AddChore(c models.Chore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chores = append(s.chores, c)
}

func (s *Store) AddBill(b models.Bill, paid bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills = append(s.bills, bill{Bill: b, Paid: paid})
}

func (s *Store) AddShoppingItem(household int, it models.ShoppingItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shopping = append(s.shopping, shoppingItem{ShoppingItem: it, HouseholdID: household})
}

// Events lists the household's events ordered by date.
func (s *Store) Events(household int) []models.Event {
	return s.filterEvents(household, func(models.Event) bool { return true })
}

// Chores pages the household's open (done=false) or done chores ordered
// by due date. count is the total before paging.
func (s *Store) Chores(household int, done bool, limit, skip int) (page []models.Chore, count int) {
	all := s.filterChores(household, func(c models.Chore) bool { return c.Done == done })
	return paginate(all, limit, skip), len(all)
}

func (s *Store) Bills(household int, paid bool) []models.Bill {
	return s.filterBills(household, func(b bill) bool { return b.Paid == paid })
}

// Shopping returns one page of the household's shopping list starting at
// skip.
func (s *Store) Shopping(household int, skip int) []models.ShoppingItem {
	all := s.filterShopping(household, func(models.ShoppingItem) bool { return true })
	return paginate(all, ShoppingPageSize, skip)
}

// OverviewEvents lists the events on day (UTC).
func (s *Store) OverviewEvents(household int, day time.Time) []models.Event {
	from, to := dayBounds(day)
	return s.filterEvents(household, func(e models.Event) bool {
		return within(e.Date, from, to)
	})
}

// OverviewChores lists the open chores due by the end of day, overdue
// ones included.
func (s *Store) OverviewChores(household int, day time.Time) []models.Chore {
	_, to := dayBounds(day)
	return s.filterChores(household, func(c models.Chore) bool {
		return !c.Done && before(c.DueDate, to)
	})
}

// OverviewBills lists the unpaid bills due by the end of day.
func (s *Store) OverviewBills(household int, day time.Time) []models.Bill {
	_, to := dayBounds(day)
	return s.filterBills(household, func(b bill) bool {
		return !b.Paid && before(b.DueDate, to)
	})
}

// OverviewShopping lists the items nobody bought yet.
func (s *Store) OverviewShopping(household int) []models.ShoppingItem {
	return s.filterShopping(household, func(it models.ShoppingItem) bool { return !it.IsBought() })
}

func (s *Store) filterEvents(household int, keep func(models.Event) bool) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Event{}
	for _, e := range s.events {
		if e.HouseholdID != nil && *e.HouseholdID == household && keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (s *Store) filterChores(household int, keep func(models.Chore) bool) []models.Chore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Chore{}
	for _, c := range s.chores {
		if c.HouseholdID == household && keep(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate < out[j].DueDate })
	return out
}

func (s *Store) filterBills(household int, keep func(bill) bool) []models.Bill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Bill{}
	for _, b := range s.bills {
		if b.HouseholdID == household && keep(b) {
			out = append(out, b.Bill)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate < out[j].DueDate })
	return out
}

func (s *Store) filterShopping(household int, keep func(models.ShoppingItem) bool) []models.ShoppingItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.ShoppingItem{}
	for _, it := range s.shopping {
		if it.HouseholdID == household && keep(it.ShoppingItem) {
			out = append(out, it.ShoppingItem)
		}
	}
	return out
}

func paginate[T any](items []T, limit, skip int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func timestamp(t time.Time) string {
	return t.UTC().Format(models.TimestampLayout)
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}

func within(ts string, from, to time.Time) bool {
	t, err := models.ParseTimestamp(ts)
	return err == nil && !t.Before(from) && t.Before(to)
}

func before(ts string, to time.Time) bool {
	t, err := models.ParseTimestamp(ts)
	return err == nil && t.Before(to)
}
