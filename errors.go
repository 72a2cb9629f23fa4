package rtvi

import "errors"

var (
	ErrInvalidTransportParams = errors.New("rtvi: invalid transport params")
	ErrMissingRequiredField   = errors.New("rtvi: missing required field")
	ErrConnectTimeout         = errors.New("rtvi: connect timeout")
	ErrTransportReleased      = errors.New("rtvi: transport released")
	ErrNotRTVIMessage         = errors.New("rtvi: not an rtvi message")
)
