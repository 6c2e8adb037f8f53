// Package feature describes the regressors of the forecast model. Each feature has a
// stable string label, a type, and a label map used to serialize model weights.
package feature

import "errors"

var ErrUnknownFeatureType = errors.New("unknown feature type")

type FeatureType string

const (
	FeatureTypeGrowth      FeatureType = "growth"
	FeatureTypeChangepoint FeatureType = "changepoint"
	FeatureTypeSeasonality FeatureType = "seasonality"
	FeatureTypeHoliday     FeatureType = "holiday"
)

// Feature is a single named regressor column of the design matrix
type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}
