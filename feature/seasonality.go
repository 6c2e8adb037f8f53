package feature

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type FourierComp string

const (
	FourierCompSin FourierComp = "sin"
	FourierCompCos FourierComp = "cos"
)

// Seasonality is one sine or cosine Fourier term of a periodic component. Order 1 has
// the full period, order 2 half of it, and so on.
type Seasonality struct {
	Name        string        `json:"name"`
	Period      time.Duration `json:"period"`
	FourierComp FourierComp   `json:"fourier_component"`
	Order       int           `json:"order"`
}

func NewSeasonality(name string, period time.Duration, fcomp FourierComp, order int) *Seasonality {
	return &Seasonality{name, period, fcomp, order}
}

func (s Seasonality) String() string {
	return fmt.Sprintf("seas_%s_%02d_%s", s.Name, s.Order, s.FourierComp)
}

func (s Seasonality) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return s.Name, true
	case "period":
		return s.Period.String(), true
	case "fourier_component":
		return string(s.FourierComp), true
	case "order":
		return strconv.Itoa(s.Order), true
	}
	return "", false
}

func (s Seasonality) Type() FeatureType {
	return FeatureTypeSeasonality
}

func (s Seasonality) Decode() map[string]string {
	return map[string]string{
		"name":              s.Name,
		"period":            s.Period.String(),
		"fourier_component": string(s.FourierComp),
		"order":             strconv.Itoa(s.Order),
	}
}

// Generate computes the Fourier term on absolute epoch time so the phase does not depend
// on the training window.
func (s Seasonality) Generate(t []time.Time) []float64 {
	res := make([]float64, len(t))
	periodSec := s.Period.Seconds()
	if periodSec <= 0 {
		return res
	}
	omega := 2.0 * math.Pi * float64(s.Order) / periodSec
	for i, tPnt := range t {
		rad := omega * float64(tPnt.UnixNano()) / 1e9
		switch s.FourierComp {
		case FourierCompSin:
			res[i] = math.Sin(rad)
		case FourierCompCos:
			res[i] = math.Cos(rad)
		}
	}
	return res
}
