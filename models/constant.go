package models

import (
	"github.com/senselab/hindcast/forecast"
)

// Constant always predicts the last observed value. Useful as a baseline and
// as the degraded mode when a richer predictor cannot run.
type Constant struct{}

func NewConstant() *Constant {
	return &Constant{}
}

func (cn *Constant) PredictNext(c *forecast.Context) (float64, error) {
	if c == nil {
		return 0, ErrNoContext
	}
	last, err := c.LastObserved()
	if err != nil {
		return 0, err
	}
	return last.Value, nil
}
