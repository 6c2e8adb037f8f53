// Package event resolves country holiday calendars into the observed days that fall in
// a time range.
package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var (
	ErrStartAfterEnd      = errors.New("event start time is after end time")
	ErrUnsetTime          = errors.New("unset event start or end time")
	ErrNoEventName        = errors.New("no event name")
	ErrUnsupportedCountry = errors.New("unsupported holiday country")
	ErrUnknownHolidayName = errors.New("unknown holiday name")
)

var calendars = map[string][]*cal.Holiday{
	"US": us.Holidays,
}

// Event is one observed occurrence of a holiday covering a whole calendar day
type Event struct {
	Name  string
	Start time.Time
	End   time.Time
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Countries lists the supported holiday calendars
func Countries() []string {
	res := make([]string, 0, len(calendars))
	for c := range calendars {
		res = append(res, c)
	}
	sort.Strings(res)
	return res
}

// Calendar returns the holidays of a country. Country codes are case-insensitive.
func Calendar(country string) ([]*cal.Holiday, error) {
	hols, exists := calendars[strings.ToUpper(country)]
	if !exists {
		return nil, fmt.Errorf("%q, %w", country, ErrUnsupportedCountry)
	}
	return hols, nil
}

// Lookup finds a holiday of a country calendar by name
func Lookup(country, name string) (*cal.Holiday, error) {
	hols, err := Calendar(country)
	if err != nil {
		return nil, err
	}
	for _, hol := range hols {
		if hol.Name == name {
			return hol, nil
		}
	}
	return nil, fmt.Errorf("%q in %s calendar, %w", name, country, ErrUnknownHolidayName)
}

// Holiday returns every observed day of a holiday between start and end inclusive. The
// observed day is expressed as midnight in the location of start.
func Holiday(hol *cal.Holiday, start, end time.Time) ([]Event, error) {
	if start.After(end) {
		return nil, ErrStartAfterEnd
	}
	loc := start.Location()
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	var events []Event
	// observed days can shift into the neighboring year, e.g. new year's day on a saturday
	for year := start.Year() - 1; year <= end.Year()+1; year++ {
		_, observed := hol.Calc(year)
		if observed.IsZero() {
			continue
		}
		day := time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, loc)
		if day.Before(startDay) || day.After(end) {
			continue
		}
		events = append(events, NewEvent(hol.Name, day, day.Add(24*time.Hour)))
	}
	return events, nil
}

// Holidays returns the observed days of every holiday of a country between start and end,
// grouped by holiday in calendar order. Holidays without an occurrence in the range are
// omitted.
func Holidays(country string, start, end time.Time) ([][]Event, error) {
	hols, err := Calendar(country)
	if err != nil {
		return nil, err
	}
	var res [][]Event
	for _, hol := range hols {
		events, err := Holiday(hol, start, end)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			continue
		}
		res = append(res, events)
	}
	return res, nil
}

// Days returns the start of every event
func Days(events []Event) []time.Time {
	res := make([]time.Time, 0, len(events))
	for _, e := range events {
		res = append(res, e.Start)
	}
	return res
}
