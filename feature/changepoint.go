package feature

import (
	"fmt"
	"strconv"
	"strings"
)

// Changepoint is a hinge in the trend: zero before the changepoint and growing linearly
// with scaled time after it. Its weight is the change in slope at that point.
type Changepoint struct {
	Name string `json:"name"`

	// Position is the changepoint location in scaled time
	Position float64 `json:"position"`
}

func NewChangepoint(name string, position float64) *Changepoint {
	return &Changepoint{name, position}
}

// String returns the string representation of the changepoint feature
func (c Changepoint) String() string {
	return fmt.Sprintf("chpnt_%s", c.Name)
}

// Get returns the value of an arbitrary label and returns the value along with whether
// the label exists
func (c Changepoint) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return c.Name, true
	case "position":
		return strconv.FormatFloat(c.Position, 'g', -1, 64), true
	}
	return "", false
}

// Type returns the type of this feature
func (c Changepoint) Type() FeatureType {
	return FeatureTypeChangepoint
}

// Decode converts the feature into a map of label values
func (c Changepoint) Decode() map[string]string {
	return map[string]string{
		"name":     c.Name,
		"position": strconv.FormatFloat(c.Position, 'g', -1, 64),
	}
}

// Generate computes max(0, ts - position) for every scaled time point
func (c Changepoint) Generate(ts []float64) []float64 {
	res := make([]float64, len(ts))
	for i, tScaled := range ts {
		if tScaled > c.Position {
			res[i] = tScaled - c.Position
		}
	}
	return res
}
