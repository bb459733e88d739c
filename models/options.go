package models

// Options tunes the reference predictors. Everything is passed in explicitly
// so the predictors stay pure and testable.
type Options struct {
	// Window is the number of trailing points the trend is fit over.
	Window int

	// Damping is the per-step factor d0 in d0^k pulling predictions back
	// toward the last observed value as the horizon grows.
	Damping float64

	// BlendWeight is the weight of the time-of-day historical mean against
	// the raw trend extrapolation. Zero disables the adjustment.
	BlendWeight float64

	// NoiseScale scales the volatility-matched noise term. Zero disables
	// noise entirely.
	NoiseScale float64

	// BucketsPerDay is the time-of-day bucketing resolution.
	BucketsPerDay int

	// WorkdayProfile keeps separate time-of-day profiles for workdays and
	// weekends/holidays.
	WorkdayProfile bool
}

func NewDefaultOptions() *Options {
	return &Options{
		Window:        24,
		Damping:       0.95,
		BlendWeight:   0.5,
		NoiseScale:    1.0,
		BucketsPerDay: 48,
	}
}

// Validate fills in defaults on the zero value and rejects out-of-range
// settings.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.Window == 0 {
		o.Window = 24
	}
	if o.Damping == 0 {
		o.Damping = 0.95
	}
	if o.BucketsPerDay == 0 {
		o.BucketsPerDay = 48
	}

	if o.Window < 2 {
		return nil, ErrBadWindow
	}
	if o.Damping < 0 || o.Damping > 1 {
		return nil, ErrBadDamping
	}
	if o.BlendWeight < 0 || o.BlendWeight > 1 {
		return nil, ErrBadBlendWeight
	}
	if o.BucketsPerDay < 1 || o.BucketsPerDay > 24*60*60 {
		return nil, ErrBadBuckets
	}
	return o, nil
}
