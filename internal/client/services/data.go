package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/client"
	"github.com/dmitrijs2005/forttask/internal/client/models"
)

// DateParam is the layout of the overview date query parameter.
const DateParam = "2006-01-02"

// DataService wraps the protected read endpoints. Errors keep the client
// classification: client.ErrParse for undecodable bodies, client.ErrNetwork
// or client.ErrDataUnavailable when nothing usable came back.
type DataService interface {
	Events(ctx context.Context) (models.EventsResponse, error)
	Chores(ctx context.Context, done bool, limit, skip int) (models.ChoresResponse, error)
	Bills(ctx context.Context, paid bool) ([]models.Bill, error)
	ShoppingList(ctx context.Context, skip int) ([]models.ShoppingItem, error)

	OverviewEvents(ctx context.Context, date time.Time) ([]models.Event, error)
	OverviewChores(ctx context.Context, date time.Time) ([]models.Chore, error)
	OverviewBills(ctx context.Context, date time.Time) ([]models.Bill, error)
	OverviewShopping(ctx context.Context) ([]models.ShoppingItem, error)
}

type dataService struct {
	client client.Client
}

func NewDataService(c client.Client) DataService {
	return &dataService{client: c}
}

func get[T any](ctx context.Context, c client.Client, path string) (T, error) {
	var v T
	if err := c.GetJSON(ctx, path, &v); err != nil {
		return v, fmt.Errorf("get %s: %w", path, err)
	}
	return v, nil
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func (d *dataService) Events(ctx context.Context) (models.EventsResponse, error) {
	return get[models.EventsResponse](ctx, d.client, "events/get")
}

// Chores lists open (done=false) or finished chores. Non-positive limit and
// negative skip are left out of the query.
func (d *dataService) Chores(ctx context.Context, done bool, limit, skip int) (models.ChoresResponse, error) {
	path := "chores/todo/get"
	if done {
		path = "chores/done/get"
	}
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if skip >= 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	return get[models.ChoresResponse](ctx, d.client, withQuery(path, q))
}

func (d *dataService) Bills(ctx context.Context, paid bool) ([]models.Bill, error) {
	path := "bill/mobile/notpaid"
	if paid {
		path = "bill/mobile/paid"
	}
	return get[[]models.Bill](ctx, d.client, path)
}

func (d *dataService) ShoppingList(ctx context.Context, skip int) ([]models.ShoppingItem, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(max(skip, 0)))
	return get[[]models.ShoppingItem](ctx, d.client, withQuery("shoppingList", q))
}

func dated(path string, date time.Time) string {
	q := url.Values{}
	q.Set("date", date.Format(DateParam))
	return withQuery(path, q)
}

func (d *dataService) OverviewEvents(ctx context.Context, date time.Time) ([]models.Event, error) {
	r, err := get[models.OverviewEvents](ctx, d.client, dated("overview/events", date))
	return r.Events, err
}

func (d *dataService) OverviewChores(ctx context.Context, date time.Time) ([]models.Chore, error) {
	r, err := get[models.OverviewChores](ctx, d.client, dated("overview/chores", date))
	return r.Chores, err
}

func (d *dataService) OverviewBills(ctx context.Context, date time.Time) ([]models.Bill, error) {
	r, err := get[models.OverviewBills](ctx, d.client, dated("overview/bills", date))
	return r.Bills, err
}

func (d *dataService) OverviewShopping(ctx context.Context) ([]models.ShoppingItem, error) {
	r, err := get[models.OverviewShopping](ctx, d.client, "overview/shoppingList")
	return r.ShoppingItems, err
}
