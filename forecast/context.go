package forecast

import (
	"math/rand/v2"
	"time"

	"github.com/senselab/hindcast/timeseries"
)

// Predictor is the single-step prediction capability. Any conforming
// implementation can be injected into Forecast, from the reference heuristics
// to a loaded serialized model.
type Predictor interface {
	PredictNext(c *Context) (float64, error)
}

// PredictorFunc adapts a plain function to the Predictor capability.
type PredictorFunc func(c *Context) (float64, error)

func (f PredictorFunc) PredictNext(c *Context) (float64, error) {
	return f(c)
}

// Context is what a predictor sees for one step: the observed history, the
// points already emitted for earlier steps, and the randomness source for
// this forecast run. Predictors must not mutate the history.
type Context struct {
	History   *timeseries.Series
	Emitted   []Point
	Step      int
	Timestamp time.Time
	Interval  time.Duration
	Rand      *rand.Rand
}

// LastObserved returns the final observation of the history, the anchor that
// damped predictors pull back toward.
func (c *Context) LastObserved() (timeseries.Observation, error) {
	return c.History.Last()
}

// EffectiveValues returns the history values followed by the already emitted
// predictions. Consuming them makes a predictor autoregressive.
func (c *Context) EffectiveValues() []float64 {
	vals := c.History.Values()
	for _, p := range c.Emitted {
		vals = append(vals, p.Predicted)
	}
	return vals
}
