package instance

import (
	"os"

	"github.com/angelmondragon/storefront/pkg/env"
)

// GetID names this BFF process in logs: an explicit id, the dyno name, the
// hostname, then "local".
func GetID() string {
	if id := env.Get("STOREFRONT_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
