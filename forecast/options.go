package forecast

import (
	"errors"
	"math/rand/v2"
	"time"
)

var ErrBadHorizonCap = errors.New("horizon cap must be positive")

// DefaultHorizonCap bounds every forecast request: 72 steps is 6 hours at
// 5-minute sampling.
const DefaultHorizonCap = 72

// Options configures the forecast engine. The randomness source is explicit
// so tests and repeatable runs can inject a fixed seed instead of relying on
// ambient global state.
type Options struct {
	HorizonCap int

	// Rand drives predictor noise. Leave nil for a time-seeded source; pass
	// a fixed-seed source for fully deterministic output.
	Rand *rand.Rand
}

func NewDefaultOptions() *Options {
	return &Options{
		HorizonCap: DefaultHorizonCap,
	}
}

// Validate returns the options with defaults filled in, or an error if a set
// value is out of range.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.HorizonCap == 0 {
		o.HorizonCap = DefaultHorizonCap
	}
	if o.HorizonCap < 0 {
		return nil, ErrBadHorizonCap
	}
	return o, nil
}

func (o *Options) rand() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>32))
}
