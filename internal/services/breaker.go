package services

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrStoreUnavailable stands in for the durable adapter when none was
// configured (schema not provisioned yet). It takes the same absorbed
// path as a network failure.
var ErrStoreUnavailable = errors.New("durable store unavailable")

// newStoreBreaker builds the circuit breaker guarding one durable adapter.
// While open, service calls skip straight to the fallback store instead of
// paying a network timeout on every request. Tuned for a backend that is
// either up or down, not flapping: trip fast on consecutive failures,
// probe again after 30 seconds.
func newStoreBreaker(name string, log zerolog.Logger) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("durable store breaker state change")
		},
	})
}
