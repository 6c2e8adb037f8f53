package feature

import (
	"fmt"
	"strings"
	"time"
)

const holidayDateLayout = "2006-01-02"

// Holiday is an indicator feature that is 1.0 on the observed calendar day of a holiday
// and 0.0 elsewhere. All occurrences across years share the name and therefore a single
// weight.
type Holiday struct {
	Name string `json:"name"`
}

func NewHoliday(name string) *Holiday {
	return &Holiday{name}
}

func (h Holiday) String() string {
	return fmt.Sprintf("hol_%s", strings.ReplaceAll(strings.ToLower(h.Name), " ", "_"))
}

func (h Holiday) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return h.Name, true
	}
	return "", false
}

func (h Holiday) Type() FeatureType {
	return FeatureTypeHoliday
}

func (h Holiday) Decode() map[string]string {
	return map[string]string{"name": h.Name}
}

// Generate marks every time point that falls on one of the observed dates. Dates are
// compared by calendar day in the location of each time point.
func (h Holiday) Generate(t []time.Time, observed []time.Time) []float64 {
	days := make(map[string]struct{}, len(observed))
	for _, o := range observed {
		days[o.Format(holidayDateLayout)] = struct{}{}
	}
	res := make([]float64, len(t))
	for i, tPnt := range t {
		if _, exists := days[tPnt.Format(holidayDateLayout)]; exists {
			res[i] = 1.0
		}
	}
	return res
}
