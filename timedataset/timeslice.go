package timedataset

import (
	"errors"
	"sort"
	"time"
)

var ErrNonPositiveStep = errors.New("extension step must be positive")

// TimeSlice is an ordered slice of time points
type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}
	return t[len(t)-1]
}

// Span returns the duration between the first and last time point
func (t TimeSlice) Span() time.Duration {
	if len(t) < 2 {
		return 0
	}
	return t.EndTime().Sub(t.StartTime())
}

// MinSpacing returns the smallest positive gap between consecutive time points. Zero
// is returned if there is no positive gap.
func (t TimeSlice) MinSpacing() time.Duration {
	var minDelta time.Duration
	for i := 1; i < len(t); i++ {
		delta := t[i].Sub(t[i-1])
		if delta <= 0 {
			continue
		}
		if minDelta == 0 || delta < minDelta {
			minDelta = delta
		}
	}
	return minDelta
}

// Unique returns a sorted copy of the time points with repeated instants removed
func (t TimeSlice) Unique() TimeSlice {
	sorted := make(TimeSlice, len(t))
	copy(sorted, t)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Before(sorted[j])
	})

	res := make(TimeSlice, 0, len(sorted))
	for i, tPnt := range sorted {
		if i > 0 && tPnt.Equal(res[len(res)-1]) {
			continue
		}
		res = append(res, tPnt)
	}
	return res
}

// Extend returns the unique sorted time points followed by n points spaced by step
// after the last one.
func (t TimeSlice) Extend(n int, step time.Duration) (TimeSlice, error) {
	if step <= 0 {
		return nil, ErrNonPositiveStep
	}
	hist := t.Unique()
	if n < 0 {
		n = 0
	}
	res := make(TimeSlice, 0, len(hist)+n)
	res = append(res, hist...)

	lastTime := hist.EndTime()
	for i := 1; i <= n; i++ {
		res = append(res, lastTime.Add(time.Duration(i)*step))
	}
	return res, nil
}
