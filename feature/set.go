package feature

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrSetLenMismatch = errors.New("feature data length does not match the set")

// Set stores feature data keyed by the string representation of each feature and keeps
// the insertion order of the features. That order is the column order of the design
// matrix and of the model coefficients.
type Set struct {
	m      int
	set    map[string][]float64
	labels []Feature
}

func NewSet() *Set {
	return &Set{
		set: make(map[string][]float64),
	}
}

// Set adds or replaces the data of a feature. All features must have the same number
// of observations.
func (s *Set) Set(f Feature, data []float64) error {
	if s.m != 0 && len(data) != s.m {
		return fmt.Errorf("%s has %d observations, expected %d, %w", f, len(data), s.m, ErrSetLenMismatch)
	}
	s.m = len(data)

	label := f.String()
	if _, exists := s.set[label]; !exists {
		s.labels = append(s.labels, f)
	}
	s.set[label] = data
	return nil
}

// Get returns the data of a feature if it exists in the set
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	data, exists := s.set[f.String()]
	return data, exists
}

// Labels returns a copy of the features in column order
func (s *Set) Labels() []Feature {
	if s == nil {
		return nil
	}
	labels := make([]Feature, len(s.labels))
	copy(labels, s.labels)
	return labels
}

// Len returns the number of features
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Matrix returns the design matrix with one row per observation and one column per
// feature. Nil is returned for an empty set.
func (s *Set) Matrix() *mat.Dense {
	if s == nil || len(s.labels) == 0 || s.m == 0 {
		return nil
	}
	n := len(s.labels)
	x := mat.NewDense(s.m, n, nil)
	for j, f := range s.labels {
		x.SetCol(j, s.set[f.String()])
	}
	return x
}
