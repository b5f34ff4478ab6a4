package apiclient

import (
	"context"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// NewBreaker returns the breaker guarding the storefront api, or nil when disabled.
func NewBreaker(cfg config.BreakerConfig, logg *logger.Logger) *Breaker {
	if !cfg.Enabled {
		return nil
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "storefront-api",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "circuit breaker state changed")
		},
	})
}

// BreakerProbe reports the storefront api as unavailable while the breaker
// is open.
type BreakerProbe struct {
	Breaker *Breaker
}

func (p BreakerProbe) Ping(context.Context) error {
	if p.Breaker != nil && p.Breaker.State() == gobreaker.StateOpen {
		return pkgerrors.New(pkgerrors.CodeDependency, "storefront api circuit open")
	}
	return nil
}
