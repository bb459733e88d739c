// Package models is a collection of single-step predictor implementations to
// be plugged into the forecast engine, plus a name registry so callers can
// select one at request time.
package models

import (
	"fmt"
	"sort"

	"github.com/senselab/hindcast/forecast"
)

// Factory builds a predictor from the shared predictor options.
type Factory func(opt *Options) (forecast.Predictor, error)

var registry = map[string]Factory{
	"trend": func(opt *Options) (forecast.Predictor, error) {
		return NewTrend(opt)
	},
	"constant": func(_ *Options) (forecast.Predictor, error) {
		return NewConstant(), nil
	},
}

// Register adds a predictor factory under the given name, replacing any
// previous registration.
func Register(name string, f Factory) {
	registry[name] = f
}

// New builds the named predictor.
func New(name string, opt *Options) (forecast.Predictor, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%q, %w", name, ErrUnknownModel)
	}
	return f(opt)
}

// List returns the registered predictor names in sorted order.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
