package analysis

import "fmt"

// ParamError reports a caller-supplied parameter that fails validation.
// These are rejected before any computation and are not retryable.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// CoordinateError reports a point with a non-finite or out-of-range
// coordinate. Such input is a contract violation of the ingestion boundary;
// the engine refuses it rather than propagate NaN through a result.
type CoordinateError struct {
	Index int
	Lat   float64
	Lon   float64
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("point %d has invalid coordinates (%v, %v)", e.Index, e.Lat, e.Lon)
}
