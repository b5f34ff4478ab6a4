package app

import (
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/apiclient"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

// Deps are the process-wide dependencies shared by every session state.
type Deps struct {
	API      *apiclient.Client
	Sessions session.Store
	Logger   *logger.Logger
	Metrics  *metrics.Storefront
	Policy   pricing.Policy
	Promos   pricing.PromoValidator

	RefetchAttempts uint64
	RefetchBackoff  time.Duration
	PollInterval    time.Duration
}

func (d Deps) validate() error {
	if d.API == nil {
		return fmt.Errorf("storefront api client required")
	}
	if d.Sessions == nil {
		return fmt.Errorf("session store required")
	}
	return nil
}
