package models

import (
	"math"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"github.com/senselab/hindcast/forecast"
	"github.com/senselab/hindcast/timeseries"
	"gonum.org/v1/gonum/stat"
)

// Trend is the reference predictor. It extrapolates a least-squares trend
// over the trailing window, blends the result toward the historical
// time-of-day mean, damps the deviation from the last observed value by d0^k,
// and adds bounded noise matched to the recent volatility.
type Trend struct {
	opt      *Options
	calendar *cal.BusinessCalendar
}

func NewTrend(opt *Options) (*Trend, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	tr := &Trend{opt: opt}
	if opt.WorkdayProfile {
		bc := cal.NewBusinessCalendar()
		bc.AddHoliday(us.Holidays...)
		tr.calendar = bc
	}
	return tr, nil
}

func (tr *Trend) PredictNext(c *forecast.Context) (float64, error) {
	if c == nil {
		return 0, ErrNoContext
	}
	last, err := c.LastObserved()
	if err != nil {
		return 0, err
	}
	vals := c.EffectiveValues()
	if len(vals) < forecast.MinHistory {
		return 0, forecast.ErrInsufficientHistory
	}

	w := tr.opt.Window
	if w > len(vals) {
		w = len(vals)
	}
	win := vals[len(vals)-w:]
	intercept, slope := fitLine(win)

	anchor := last.Value
	raw := anchor + slope*float64(c.Step+1)

	if tr.opt.BlendWeight > 0 {
		if mean, ok := tr.bucketMean(c.History, c.Timestamp); ok {
			raw = (1-tr.opt.BlendWeight)*raw + tr.opt.BlendWeight*mean
		}
	}

	// deviation from the anchor decays as the horizon grows, which keeps a
	// strong recent trend from extrapolating off to infinity
	v := anchor + (raw-anchor)*math.Pow(tr.opt.Damping, float64(c.Step))

	if tr.opt.NoiseScale > 0 && c.Rand != nil {
		if sigma := residualStdDev(win, intercept, slope); sigma > 0 {
			noise := c.Rand.NormFloat64() * sigma * tr.opt.NoiseScale
			bound := 2 * sigma * tr.opt.NoiseScale
			v += math.Max(-bound, math.Min(bound, noise))
		}
	}
	return v, nil
}

// fitLine fits values against their 0-based index, returning intercept and
// per-step slope. Short windows fall back to the endpoint difference since a
// least-squares fit over 2-3 points adds nothing but noise sensitivity.
func fitLine(win []float64) (intercept, slope float64) {
	n := len(win)
	if n < 4 {
		return win[0], (win[n-1] - win[0]) / float64(n-1)
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return stat.LinearRegression(xs, win, nil, false)
}

// residualStdDev measures recent volatility as the standard deviation of the
// fit residuals. A perfectly flat or perfectly linear window yields zero.
func residualStdDev(win []float64, intercept, slope float64) float64 {
	resid := make([]float64, len(win))
	for i, v := range win {
		resid[i] = v - (intercept + slope*float64(i))
	}
	sigma := stat.StdDev(resid, nil)
	if math.IsNaN(sigma) {
		return 0
	}
	return sigma
}

// bucketMean returns the historical mean for the time-of-day bucket of ts.
// With the workday profile enabled, observations from the other day class
// (workday vs weekend/holiday) are excluded.
func (tr *Trend) bucketMean(h *timeseries.Series, ts time.Time) (float64, bool) {
	target := tr.bucketOf(ts)

	var sum float64
	var n int
	for _, o := range h.Observations {
		if tr.bucketOf(o.Timestamp) != target {
			continue
		}
		if tr.calendar != nil && tr.calendar.IsWorkday(o.Timestamp) != tr.calendar.IsWorkday(ts) {
			continue
		}
		sum += o.Value
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (tr *Trend) bucketOf(ts time.Time) int {
	secs := ts.Hour()*3600 + ts.Minute()*60 + ts.Second()
	return secs * tr.opt.BucketsPerDay / (24 * 60 * 60)
}
