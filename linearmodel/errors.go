// Package linearmodel fits the linear forecast model with cyclic coordinate descent
package linearmodel

import "errors"

var (
	ErrNoOptions          = errors.New("no initialized model options")
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrNoTargetArray      = errors.New("no target array")
	ErrTargetLenMismatch  = errors.New("target length does not match training rows")
	ErrPenaltyLenMismatch = errors.New("number of penalties does not match number of features")
	ErrNegativePenalty    = errors.New("negative penalty")
	ErrNegativeIterations = errors.New("negative iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
	ErrNotFinite          = errors.New("fit produced non-finite coefficients")
)
