package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/screens"
)

// sectionHeader prints the title and reports whether the items should be
// listed.
func sectionHeader[T any](w io.Writer, title string, s screens.Section[T]) bool {
	fmt.Fprintf(w, "== %s ==\n", title)
	switch {
	case s.Loading:
		fmt.Fprintln(w, "Loading...")
		return false
	case s.Error != "" && len(s.Items) == 0:
		fmt.Fprintln(w, s.Error)
		return false
	case s.Error != "":
		fmt.Fprintln(w, s.Error)
	case s.Refreshing:
		fmt.Fprintln(w, "Refreshing...")
	}
	if len(s.Items) == 0 {
		fmt.Fprintf(w, "No %s\n", strings.ToLower(title))
		return false
	}
	return true
}

func renderEvents(w io.Writer, s screens.Section[models.Event]) {
	if !sectionHeader(w, "Events", s) {
		return
	}
	for _, e := range s.Items {
		line := fmt.Sprintf("- %s  %s", e.Name, e.FormattedDate())
		if e.Location != "" {
			line += "  @ " + e.Location
		}
		if e.IsRecurring() {
			line += "  (recurring)"
		}
		fmt.Fprintln(w, line)
		if names := e.AttendeeList(); names != "" {
			fmt.Fprintln(w, "    attendees:", names)
		}
	}
}

func renderChores(w io.Writer, s screens.ChoresState, now time.Time) {
	title := "Chores"
	if s.Filter == screens.ChoresDone {
		title = "Done chores"
	}
	if !sectionHeader(w, title, s.Section) {
		return
	}
	for _, c := range s.Items {
		line := fmt.Sprintf("- [%s] %s  due %s", c.PriorityLabel(), c.Name, c.FormattedDueDate())
		if c.IsOverdue(now) {
			line += "  OVERDUE"
		}
		fmt.Fprintln(w, line)
	}
	if s.Count > len(s.Items) {
		fmt.Fprintf(w, "(%d of %d)\n", len(s.Items), s.Count)
	}
}

func renderBills(w io.Writer, s screens.BillsState) {
	title := "Unpaid bills"
	if s.Filter == screens.BillsPaid {
		title = "Paid bills"
	}
	if !sectionHeader(w, title, s.Section) {
		return
	}
	for _, b := range s.Items {
		fmt.Fprintf(w, "- %s  %s  due %s\n", b.Name, b.FormattedAmount(), b.FormattedDueDate())
	}
	if s.Filter != screens.BillsPaid {
		fmt.Fprintf(w, "Overdue: %d, due within 7 days: %d, total %s\n",
			len(s.Summary.Overdue), len(s.Summary.DueSoon), models.FormatMoney(s.Summary.Total))
	}
}

func renderShopping(w io.Writer, s screens.ShoppingState) {
	visible := s.Section
	visible.Items = s.Visible()
	if !sectionHeader(w, "Shopping list", visible) {
		return
	}
	for _, it := range visible.Items {
		mark := " "
		if it.IsBought() {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] %s  %s  %s\n", mark, it.Name, it.FormattedCost(), it.FormattedBoughtDate())
	}
	fmt.Fprintln(w, "Total:", models.FormatMoney(models.TotalCost(visible.Items)))
}

func renderOverview(w io.Writer, s screens.OverviewState) {
	fmt.Fprintf(w, "Overview for %s\n", s.Date.Format("02 Jan 2006"))

	if sectionHeader(w, "Events", s.Events) {
		for _, e := range s.Events.Items {
			fmt.Fprintf(w, "- %s  %s  by %s\n", e.Name, e.FormattedDate(), e.Author())
		}
	}
	if sectionHeader(w, "Chores", s.Chores) {
		for _, c := range s.Chores.Items {
			fmt.Fprintf(w, "- [%s] %s  due %s\n", c.OverviewPriorityLabel(), c.Name, c.FormattedDueDate())
		}
	}
	if sectionHeader(w, "Bills", s.Bills) {
		for _, b := range s.Bills.Items {
			fmt.Fprintf(w, "- %s  %s  due %s\n", b.Name, b.FormattedAmount(), b.FormattedDueDate())
		}
	}
	if sectionHeader(w, "Shopping list", s.Shopping) {
		for _, it := range s.Shopping.Items {
			fmt.Fprintf(w, "- %s  %s\n", it.Name, it.FormattedCost())
		}
	}
}
