// Package repository records started simulation runs in the cache so their
// launch metadata can be looked up while the run is alive.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"evdemo/internal/common/cache"
	"evdemo/internal/demo/model"
	appErr "evdemo/pkg/errors"
)

const runKeyPrefix = "demo:run:"

// RunRepository stores launch metadata keyed by simulation id.
type RunRepository struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRunRepository creates a run repository with the given record lifetime.
func NewRunRepository(c cache.Cache, ttl time.Duration) (*RunRepository, error) {
	if c == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("run ttl must be positive, got %v", ttl)
	}
	return &RunRepository{cache: c, ttl: ttl}, nil
}

// Record stores the run metadata under its simulation id.
func (r *RunRepository) Record(ctx context.Context, run *model.SimulationRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return appErr.InternalError(err)
	}
	if err := r.cache.Set(ctx, runKey(run.SimulationID), string(data), r.ttl); err != nil {
		return appErr.Wrapf(err, appErr.InternalServerError,
			"recording simulation run failed: %v", err)
	}
	return nil
}

// Get returns the recorded run for the simulation id, or a NotFound error
// when no record exists or it has expired.
func (r *RunRepository) Get(ctx context.Context, simulationID string) (*model.SimulationRun, error) {
	data, err := r.cache.Get(ctx, runKey(simulationID))
	if err != nil {
		if err == cache.ErrNotFound {
			return nil, appErr.Newf(appErr.NotFound,
				"no recorded run for simulation '%s'", simulationID)
		}
		return nil, appErr.InternalError(err)
	}

	var run model.SimulationRun
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, appErr.InternalError(err)
	}
	return &run, nil
}

func runKey(simulationID string) string {
	return runKeyPrefix + simulationID
}
