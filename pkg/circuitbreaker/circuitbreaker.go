package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"
)

var (
	// MaxNumOfFailingRequests is the minimum number of requests observed
	// before the breaker may trip.
	MaxNumOfFailingRequests = 10
	// FailingRatio is the failure ratio at which the breaker trips.
	FailingRatio = 0.6
	// OpenStateTimeout is how long the breaker stays open before probing
	// the chain source again.
	OpenStateTimeout = 30 * time.Second
)

// NewCircuitBreaker returns a *gobreaker.CircuitBreaker guarding calls to
// the remote chain-data source. It trips once the overall number of
// requests has reached MaxNumOfFailingRequests and the failing ratio has
// met FailingRatio.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: OpenStateTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
	})
}
