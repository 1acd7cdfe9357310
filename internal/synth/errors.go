package synth

import "errors"

var (
	ErrUnavailable     = errors.New("synthesis provider unavailable")
	ErrTimeout         = errors.New("synthesis timeout")
	ErrInvalidResponse = errors.New("synthesis provider returned invalid response")
)
