package models

import (
	"errors"
)

var (
	ErrUnknownModel   = errors.New("unknown model")
	ErrBadWindow      = errors.New("window must be at least 2")
	ErrBadDamping     = errors.New("damping factor must be in (0, 1]")
	ErrBadBlendWeight = errors.New("blend weight must be in [0, 1]")
	ErrBadBuckets     = errors.New("buckets per day must divide a day evenly")
	ErrNoContext      = errors.New("no prediction context")
)
