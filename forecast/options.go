package forecast

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

const (
	DefaultNumChangepoints       = 25
	DefaultChangepointRange      = 0.8
	DefaultChangepointPriorScale = 0.05
	DefaultSeasonalityPriorScale = 10.0
	DefaultHolidayPriorScale     = 10.0
	DefaultIntervalWidth         = 0.8
	DefaultUncertaintySamples    = 1000

	// penalties are these bases divided by the prior scale so a larger scale lets the
	// component fit more flexibly
	changepointL1Base = 5e-4
	seasonalityL2Base = 1e-2
	holidayL2Base     = 1e-2

	LabelSeasYearly = "yearly"
	LabelSeasWeekly = "weekly"
	LabelSeasDaily  = "daily"
)

var (
	ErrNegativeChangepoints    = errors.New("negative number of changepoints")
	ErrChangepointRange        = errors.New("changepoint range must be in (0, 1]")
	ErrNonPositivePriorScale   = errors.New("prior scale must be positive")
	ErrIntervalWidth           = errors.New("interval width must be in (0, 1)")
	ErrNegativeSamples         = errors.New("negative number of uncertainty samples")
	ErrInvalidSeasonality      = errors.New("invalid seasonality config")
	ErrUnknownSeasonalityMode  = errors.New("unknown seasonality mode")
	ErrDuplicateSeasonalityCfg = errors.New("duplicate seasonality name")
)

// SeasonalityMode controls whether a seasonality is always, never or automatically fit
type SeasonalityMode string

const (
	SeasonalityAuto SeasonalityMode = "auto"
	SeasonalityOn   SeasonalityMode = "on"
	SeasonalityOff  SeasonalityMode = "off"
)

// SeasonalityConfig represents a single seasonality to model with Fourier series of the
// specified period and number of orders. E.g. a period of 7 days with 3 orders generates
// sine and cosine terms with periods of 7 days, 3.5 days and 2.33 days.
type SeasonalityConfig struct {
	Name   string          `json:"name"`
	Period time.Duration   `json:"period"`
	Orders int             `json:"orders"`
	Mode   SeasonalityMode `json:"mode"`
}

func NewSeasonalityConfig(name string, period time.Duration, orders int, mode SeasonalityMode) SeasonalityConfig {
	if orders < 0 {
		orders = 0
	}
	return SeasonalityConfig{
		Name:   name,
		Period: period,
		Orders: orders,
		Mode:   mode,
	}
}

func NewYearlySeasonalityConfig(mode SeasonalityMode) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasYearly, time.Duration(365.25*24*float64(time.Hour)), 10, mode)
}

func NewWeeklySeasonalityConfig(mode SeasonalityMode) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasWeekly, 7*24*time.Hour, 3, mode)
}

func NewDailySeasonalityConfig(mode SeasonalityMode) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasDaily, 24*time.Hour, 4, mode)
}

// Enabled reports whether the seasonality is fit for a history with the given span and
// minimum spacing between distinct observations. In auto mode the history must cover at
// least two full periods and be sampled more finely than the period.
func (s SeasonalityConfig) Enabled(span, minSpacing time.Duration) bool {
	switch s.Mode {
	case SeasonalityOn:
		return true
	case SeasonalityOff:
		return false
	}
	return span >= 2*s.Period && minSpacing < s.Period
}

// Options configures the trend changepoints, seasonalities, holidays and uncertainty
// intervals of a forecast
type Options struct {
	// NumChangepoints is the maximum number of automatically placed changepoints
	NumChangepoints int `json:"num_changepoints"`

	// ChangepointRange is the leading fraction of the history where changepoints are placed
	ChangepointRange      float64 `json:"changepoint_range"`
	ChangepointPriorScale float64 `json:"changepoint_prior_scale"`

	SeasonalityConfigs    []SeasonalityConfig `json:"seasonality_configs"`
	SeasonalityPriorScale float64             `json:"seasonality_prior_scale"`

	// HolidayCountry enables holiday indicators from the country calendar. Empty disables.
	HolidayCountry    string  `json:"holiday_country"`
	HolidayPriorScale float64 `json:"holiday_prior_scale"`

	IntervalWidth      float64 `json:"interval_width"`
	UncertaintySamples int     `json:"uncertainty_samples"`

	// Seed of the interval sampling. Zero draws a random seed for every forecast.
	Seed uint64 `json:"seed"`

	// solver options, zero values use the solver defaults
	Iterations int     `json:"iterations"`
	Tolerance  float64 `json:"tolerance"`
}

// NewDefaultOptions returns a set of default forecast options with automatic yearly,
// weekly and daily seasonality and no holidays
func NewDefaultOptions() *Options {
	return &Options{
		NumChangepoints:       DefaultNumChangepoints,
		ChangepointRange:      DefaultChangepointRange,
		ChangepointPriorScale: DefaultChangepointPriorScale,
		SeasonalityConfigs: []SeasonalityConfig{
			NewYearlySeasonalityConfig(SeasonalityAuto),
			NewWeeklySeasonalityConfig(SeasonalityAuto),
			NewDailySeasonalityConfig(SeasonalityAuto),
		},
		SeasonalityPriorScale: DefaultSeasonalityPriorScale,
		HolidayPriorScale:     DefaultHolidayPriorScale,
		IntervalWidth:         DefaultIntervalWidth,
		UncertaintySamples:    DefaultUncertaintySamples,
	}
}

// Validate checks the options and returns an error naming the first invalid field
func (o *Options) Validate() error {
	if o == nil {
		return nil
	}
	if o.NumChangepoints < 0 {
		return ErrNegativeChangepoints
	}
	if o.ChangepointRange <= 0 || o.ChangepointRange > 1 {
		return fmt.Errorf("got %.3f, %w", o.ChangepointRange, ErrChangepointRange)
	}
	if o.ChangepointPriorScale <= 0 {
		return fmt.Errorf("changepoint prior scale %.3f, %w", o.ChangepointPriorScale, ErrNonPositivePriorScale)
	}
	if o.SeasonalityPriorScale <= 0 {
		return fmt.Errorf("seasonality prior scale %.3f, %w", o.SeasonalityPriorScale, ErrNonPositivePriorScale)
	}
	if o.HolidayCountry != "" && o.HolidayPriorScale <= 0 {
		return fmt.Errorf("holiday prior scale %.3f, %w", o.HolidayPriorScale, ErrNonPositivePriorScale)
	}
	if o.IntervalWidth <= 0 || o.IntervalWidth >= 1 {
		return fmt.Errorf("got %.3f, %w", o.IntervalWidth, ErrIntervalWidth)
	}
	if o.UncertaintySamples < 0 {
		return ErrNegativeSamples
	}

	names := make(map[string]struct{}, len(o.SeasonalityConfigs))
	for _, s := range o.SeasonalityConfigs {
		if s.Name == "" || s.Period <= 0 || s.Orders <= 0 {
			return fmt.Errorf("seasonality %q with period %s and %d orders, %w", s.Name, s.Period, s.Orders, ErrInvalidSeasonality)
		}
		switch s.Mode {
		case SeasonalityAuto, SeasonalityOn, SeasonalityOff:
		default:
			return fmt.Errorf("seasonality %q mode %q, %w", s.Name, s.Mode, ErrUnknownSeasonalityMode)
		}
		if _, exists := names[s.Name]; exists {
			return fmt.Errorf("%q, %w", s.Name, ErrDuplicateSeasonalityCfg)
		}
		names[s.Name] = struct{}{}
	}
	return nil
}

func (o *Options) changepointL1() float64 {
	return changepointL1Base / o.ChangepointPriorScale
}

func (o *Options) seasonalityL2() float64 {
	return seasonalityL2Base / o.SeasonalityPriorScale
}

func (o *Options) holidayL2() float64 {
	return holidayL2Base / o.HolidayPriorScale
}

func (o *Options) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sChangepoints: max %d in first %.0f%%, prior scale %.3f\n",
		prefix, indentExpand(indent, indentGrowth),
		o.NumChangepoints, o.ChangepointRange*100, o.ChangepointPriorScale); err != nil {
		return err
	}

	noCfg := " None"
	if len(o.SeasonalityConfigs) > 0 {
		noCfg = ""
	}
	if _, err := fmt.Fprintf(w, "%s%sSeasonality:%s\n", prefix, indentExpand(indent, indentGrowth), noCfg); err != nil {
		return err
	}
	if len(o.SeasonalityConfigs) > 0 {
		tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tbl, "%s%sName\tPeriod\tOrders\tMode\t\n", prefix, indentExpand(indent, indentGrowth+1))
		for _, s := range o.SeasonalityConfigs {
			fmt.Fprintf(tbl, "%s%s%s\t%s\t%d\t%s\t\n",
				prefix, indentExpand(indent, indentGrowth+1),
				s.Name, s.Period, s.Orders, s.Mode)
		}
		if err := tbl.Flush(); err != nil {
			return err
		}
	}

	holidays := "None"
	if o.HolidayCountry != "" {
		holidays = fmt.Sprintf("%s, prior scale %.3f", o.HolidayCountry, o.HolidayPriorScale)
	}
	if _, err := fmt.Fprintf(w, "%s%sHolidays: %s\n", prefix, indentExpand(indent, indentGrowth), holidays); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%s%sInterval: %.0f%% over %d samples\n",
		prefix, indentExpand(indent, indentGrowth),
		o.IntervalWidth*100, o.UncertaintySamples)
	return err
}

func indentExpand(indent string, growth int) string {
	indentByte := []byte(indent)
	out := make([]byte, 0, len(indent)*growth)
	for i := 0; i < growth; i++ {
		out = append(out, indentByte...)
	}
	return string(out)
}
