package forecast

import (
	"time"

	"github.com/aouyang1/revforecast/event"
	"github.com/aouyang1/revforecast/feature"
)

// holidayFeatures returns one indicator feature per holiday of the country observed
// between start and end
func holidayFeatures(country string, start, end time.Time) ([]feature.Feature, error) {
	observed, err := event.Holidays(country, start, end)
	if err != nil {
		return nil, err
	}
	res := make([]feature.Feature, 0, len(observed))
	for _, events := range observed {
		res = append(res, feature.NewHoliday(events[0].Name))
	}
	return res, nil
}

// observedHolidays returns the observed days of every country holiday within the range
// of t keyed by holiday name
func observedHolidays(country string, t []time.Time) (map[string][]time.Time, error) {
	res := make(map[string][]time.Time)
	if len(t) == 0 {
		return res, nil
	}
	start, end := t[0], t[0]
	for _, tPnt := range t[1:] {
		if tPnt.Before(start) {
			start = tPnt
		}
		if tPnt.After(end) {
			end = tPnt
		}
	}

	observed, err := event.Holidays(country, start, end)
	if err != nil {
		return nil, err
	}
	for _, events := range observed {
		res[events[0].Name] = event.Days(events)
	}
	return res, nil
}
