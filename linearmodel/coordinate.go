package linearmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultIterations = 2000
	DefaultTolerance  = 1e-7
)

// Options configures the coordinate descent fit. The minimized objective is
//
//	1/(2m) * ||y - Xb||^2 + sum_j L1[j]*|b_j| + sum_j L2[j]/2 * b_j^2
//
// where m is the number of observations. A nil L1 or L2 slice means no penalty of that
// kind on any coefficient. There is no implicit intercept; add a constant column.
type Options struct {
	L1 []float64
	L2 []float64

	// Iterations is the maximum number of passes over all coefficients
	Iterations int

	// Tolerance stops the fit once the largest coefficient update of a pass is below
	// Tolerance times the largest coefficient magnitude.
	Tolerance float64
}

// NewDefaultOptions returns unpenalized options, which converge to ordinary least squares
func NewDefaultOptions() *Options {
	return &Options{
		Iterations: DefaultIterations,
		Tolerance:  DefaultTolerance,
	}
}

// Validate runs basic validation on the options given n features
func (o *Options) Validate(n int) (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	if o.L1 != nil && len(o.L1) != n {
		return nil, fmt.Errorf("got %d l1 penalties for %d features, %w", len(o.L1), n, ErrPenaltyLenMismatch)
	}
	if o.L2 != nil && len(o.L2) != n {
		return nil, fmt.Errorf("got %d l2 penalties for %d features, %w", len(o.L2), n, ErrPenaltyLenMismatch)
	}
	for j := 0; j < len(o.L1); j++ {
		if o.L1[j] < 0 {
			return nil, fmt.Errorf("l1 penalty of feature %d, %w", j, ErrNegativePenalty)
		}
	}
	for j := 0; j < len(o.L2); j++ {
		if o.L2[j] < 0 {
			return nil, fmt.Errorf("l2 penalty of feature %d, %w", j, ErrNegativePenalty)
		}
	}
	if o.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if o.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	return o, nil
}

// CoordinateDescent is a penalized linear regression solved one coefficient at a time
type CoordinateDescent struct {
	opt  *Options
	coef []float64
	iter int
}

// NewCoordinateDescent initializes a model ready for fitting
func NewCoordinateDescent(opt *Options) *CoordinateDescent {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &CoordinateDescent{opt: opt}
}

// Fit the model according to the design matrix x (m observations by n features) and
// target y of length m.
func (c *CoordinateDescent) Fit(x mat.Matrix, y []float64) error {
	if c == nil || c.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetArray
	}

	m, n := x.Dims()
	if len(y) != m {
		return fmt.Errorf("training data has %d rows and target has %d rows, %w", m, len(y), ErrTargetLenMismatch)
	}

	opt, err := c.opt.Validate(n)
	if err != nil {
		return err
	}
	iterations := opt.Iterations
	if iterations == 0 {
		iterations = DefaultIterations
	}

	invM := 1.0 / float64(m)
	xcols := make([][]float64, n)
	xdot := make([]float64, n)
	for j := 0; j < n; j++ {
		xcols[j] = mat.Col(nil, j, x)
		xdot[j] = floats.Dot(xcols[j], xcols[j]) * invM
	}

	beta := make([]float64, n)
	residual := make([]float64, m)
	copy(residual, y)

	c.iter = 0
	for i := 0; i < iterations; i++ {
		c.iter = i + 1
		maxCoef := 0.0
		maxUpdate := 0.0

		for j := 0; j < n; j++ {
			denom := xdot[j] + penalty(opt.L2, j)
			if denom == 0 {
				// all zero column so nothing to learn
				continue
			}

			betaCurr := beta[j]
			rho := floats.Dot(xcols[j], residual)*invM + xdot[j]*betaCurr
			betaNext := SoftThreshold(rho, penalty(opt.L1, j)) / denom

			if delta := betaNext - betaCurr; delta != 0 {
				floats.AddScaled(residual, -delta, xcols[j])
				maxUpdate = math.Max(maxUpdate, math.Abs(delta))
			}
			beta[j] = betaNext
			maxCoef = math.Max(maxCoef, math.Abs(betaNext))
		}

		if maxUpdate <= opt.Tolerance*math.Max(maxCoef, 1e-12) {
			break
		}
	}

	for j, b := range beta {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return fmt.Errorf("coefficient %d is %f, %w", j, b, ErrNotFinite)
		}
	}
	c.coef = beta
	return nil
}

// Coef returns a copy of the fit coefficients in feature order
func (c *CoordinateDescent) Coef() []float64 {
	if c == nil {
		return nil
	}
	coef := make([]float64, len(c.coef))
	copy(coef, c.coef)
	return coef
}

// Iterations returns the number of passes the last fit ran
func (c *CoordinateDescent) Iterations() int {
	if c == nil {
		return 0
	}
	return c.iter
}

// SoftThreshold shrinks x towards zero by gamma
func SoftThreshold(x, gamma float64) float64 {
	switch {
	case x > gamma:
		return x - gamma
	case x < -gamma:
		return x + gamma
	}
	return 0
}

func penalty(p []float64, j int) float64 {
	if p == nil {
		return 0
	}
	return p[j]
}
