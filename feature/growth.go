package feature

import (
	"fmt"
	"strings"
)

const (
	GrowthIntercept = "intercept"
	GrowthLinear    = "linear"
)

// Growth is the base trend of the model: a constant intercept or a linear slope over
// scaled time.
type Growth struct {
	Name string `json:"name"`
}

func Intercept() *Growth {
	return &Growth{GrowthIntercept}
}

func Linear() *Growth {
	return &Growth{GrowthLinear}
}

// String returns the string representation of the growth feature
func (g Growth) String() string {
	return fmt.Sprintf("growth_%s", g.Name)
}

// Get returns the value of an arbitrary label and returns the value along with whether
// the label exists
func (g Growth) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return g.Name, true
	}
	return "", false
}

// Type returns the type of this feature
func (g Growth) Type() FeatureType {
	return FeatureTypeGrowth
}

// Decode converts the feature into a map of label values
func (g Growth) Decode() map[string]string {
	return map[string]string{"name": g.Name}
}

// Generate computes the feature values given scaled time in [0, 1] over the training
// window.
func (g Growth) Generate(ts []float64) []float64 {
	res := make([]float64, len(ts))
	for i, tScaled := range ts {
		switch g.Name {
		case GrowthIntercept:
			res[i] = 1.0
		case GrowthLinear:
			res[i] = tScaled
		}
	}
	return res
}
