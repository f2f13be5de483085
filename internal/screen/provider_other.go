//go:build !darwin && !linux

package screen

import (
	"context"

	"pressviz/internal/logging"
)

type stubProvider struct{}

// NewPlatformProvider returns a provider that always fails, so callers fall
// back to the configured topology.
func NewPlatformProvider(logger *logging.Logger) Provider {
	return stubProvider{}
}

func (stubProvider) Displays(ctx context.Context) (Topology, error) {
	return nil, ErrNoProvider
}
