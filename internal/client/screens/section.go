package screens

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/forttask/internal/client/client"
)

// Section is the state of one list: its items plus load status.
type Section[T any] struct {
	Loading    bool
	Refreshing bool
	Error      string
	Items      []T
	Count      int
}

func (s *Section[T]) start(refreshing bool) {
	if refreshing {
		s.Refreshing = true
	} else {
		s.Loading = true
	}
}

func (s *Section[T]) done(items []T, count int) {
	s.Loading, s.Refreshing = false, false
	s.Error = ""
	s.Items = items
	s.Count = count
}

// fail keeps the previous items so a refresh error does not blank the list.
func (s *Section[T]) fail(msg string) {
	s.Loading, s.Refreshing = false, false
	s.Error = msg
}

// errorText maps a load error to the message shown for thing.
func errorText(thing string, err error) string {
	if errors.Is(err, client.ErrParse) {
		return fmt.Sprintf("Failed to parse %s data: %v", thing, err)
	}
	return "Failed to fetch " + thing
}
