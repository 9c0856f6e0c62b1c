package ports

import (
	"errors"
	"fmt"
)

var (
	// ErrOracleUnavailable means the routing service is not configured or not reachable.
	ErrOracleUnavailable = errors.New("routing oracle unavailable")

	// ErrRouteNotFound means the oracle answered but found no route for the pair.
	ErrRouteNotFound = errors.New("route not found")
)

// StatusError carries a non-OK oracle status.
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("oracle status %s", e.Status)
}

// ZERO_RESULTS and NOT_FOUND are route-not-found; every other status is an
// availability problem (quota, denied, unknown).
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRouteNotFound:
		return e.Status == "ZERO_RESULTS" || e.Status == "NOT_FOUND"
	case ErrOracleUnavailable:
		return e.Status != "ZERO_RESULTS" && e.Status != "NOT_FOUND"
	}
	return false
}
