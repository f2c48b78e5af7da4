package model

import "errors"

var (
	// ErrInvalidInput is returned when a token on the stream is not a number
	ErrInvalidInput = errors.New("invalid input")

	// ErrPrematureTermination is returned when the stream stops before any
	// metric could be computed
	ErrPrematureTermination = errors.New("not enough data to compute the average")

	// ErrInvalidArgument is returned for a missing, malformed or non-positive period
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrorKind names the failure class of err for diagnostics
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrPrematureTermination):
		return "PrematureTermination"
	case errors.Is(err, ErrInvalidArgument):
		return "InvalidArgument"
	default:
		return "GroundhogError"
	}
}
