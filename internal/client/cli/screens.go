package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/screens"
)

// screen is the coordinator surface the CLI drives.
type screen interface {
	Mount(ctx context.Context)
	Unmount(ctx context.Context)
	Changes() <-chan struct{}
}

type view struct {
	screen screen
	render func(w io.Writer)
}

func (a *App) views() map[string]view {
	return map[string]view{
		"overview": {a.screens.Overview, func(w io.Writer) { renderOverview(w, a.screens.Overview.State()) }},
		"events":   {a.screens.Events, func(w io.Writer) { renderEvents(w, a.screens.Events.State()) }},
		"chores":   {a.screens.Chores, func(w io.Writer) { renderChores(w, a.screens.Chores.State(), a.now()) }},
		"bills":    {a.screens.Bills, func(w io.Writer) { renderBills(w, a.screens.Bills.State()) }},
		"shopping": {a.screens.Shopping, func(w io.Writer) { renderShopping(w, a.screens.Shopping.State()) }},
	}
}

// show mounts the named screen for one render. Mount performs the initial load before it
// returns; adjust runs against the mounted screen before rendering.
func (a *App) show(ctx context.Context, name string, adjust func() error) error {
	v := a.views()[name]
	v.screen.Mount(ctx)
	defer v.screen.Unmount(ctx)

	if adjust != nil {
		if err := adjust(); err != nil {
			return err
		}
	}
	v.render(a.out)
	return nil
}

func (a *App) Overview(ctx context.Context, date string) error {
	var (
		day time.Time
		err error
	)
	if date != "" {
		day, err = time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
		}
	}
	return a.show(ctx, "overview", func() error {
		if day.IsZero() {
			return nil
		}
		return a.screens.Overview.SelectDate(ctx, day)
	})
}

func (a *App) Events(ctx context.Context) error {
	return a.show(ctx, "events", nil)
}

func (a *App) Chores(ctx context.Context, filter string) error {
	f, err := parseChoreFilter(filter)
	if err != nil {
		return err
	}
	return a.show(ctx, "chores", func() error {
		return a.screens.Chores.SwitchFilter(ctx, f)
	})
}

func (a *App) Bills(ctx context.Context, filter string) error {
	f, err := parseBillFilter(filter)
	if err != nil {
		return err
	}
	return a.show(ctx, "bills", func() error {
		return a.screens.Bills.SwitchFilter(ctx, f)
	})
}

func (a *App) Shopping(ctx context.Context, filter string) error {
	f, err := parseShoppingFilter(filter)
	if err != nil {
		return err
	}
	a.screens.Shopping.SetFilter(f)
	return a.show(ctx, "shopping", nil)
}

// Watch mounts the named screen and re-renders it on every state change
// until the user presses Enter.
func (a *App) Watch(ctx context.Context, name string) error {
	v, ok := a.views()[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown screen %q", name)
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v.screen.Mount(wctx)
	defer v.screen.Unmount(ctx)

	// the initial load already signalled
	select {
	case <-v.screen.Changes():
	default:
	}
	v.render(a.out)
	fmt.Fprintln(a.out, "Watching for live updates, press Enter to stop")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-wctx.Done():
				return
			case <-v.screen.Changes():
				v.render(a.out)
			}
		}
	}()

	_, err := a.reader.ReadString('\n')
	cancel()
	<-done

	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parseChoreFilter(s string) (screens.ChoreFilter, error) {
	switch strings.ToLower(s) {
	case "", "todo":
		return screens.ChoresTodo, nil
	case "done":
		return screens.ChoresDone, nil
	}
	return "", fmt.Errorf("unknown chores filter %q, expected todo or done", s)
}

func parseBillFilter(s string) (screens.BillFilter, error) {
	switch strings.ToLower(s) {
	case "", "notpaid":
		return screens.BillsNotPaid, nil
	case "paid":
		return screens.BillsPaid, nil
	}
	return "", fmt.Errorf("unknown bills filter %q, expected notpaid or paid", s)
}

func parseShoppingFilter(s string) (screens.ShoppingFilter, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return screens.ShoppingAll, nil
	case "bought":
		return screens.ShoppingBought, nil
	case "pending":
		return screens.ShoppingPending, nil
	}
	return "", fmt.Errorf("unknown shopping filter %q, expected all, bought or pending", s)
}
