// Package obs owns the service's observability surface: the shared logger
// and the Prometheus metrics.
package obs

import (
	"go.uber.org/zap"
)

// NewLogger builds the production logger used across the service.
func NewLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// NewDevelopmentLogger builds a human-readable logger for local runs.
func NewDevelopmentLogger() (*zap.Logger, error) {
	return zap.NewDevelopment()
}
