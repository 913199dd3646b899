package service

import (
	"context"
	"fmt"

	"evdemo/internal/demo/compose"
	"evdemo/internal/demo/launch"
	"evdemo/internal/demo/model"
	"evdemo/internal/demo/repository"
	"evdemo/pkg/utils/logger"

	"go.uber.org/zap"
)

// Config holds the dependencies of the demo service.
type Config struct {
	Composer *compose.Composer
	Launcher *launch.Launcher
	Runs     *repository.RunRepository
}

// DemoService runs the full request pipeline: validate the request, compose
// the configuration artifacts, launch the platform manager container, and
// record the run.
type DemoService struct {
	composer *compose.Composer
	launcher *launch.Launcher
	runs     *repository.RunRepository
}

// NewDemoService creates the demo service, validating required dependencies.
func NewDemoService(cfg Config) (*DemoService, error) {
	if cfg.Composer == nil {
		return nil, fmt.Errorf("composer is required")
	}
	if cfg.Launcher == nil {
		return nil, fmt.Errorf("launcher is required")
	}
	if cfg.Runs == nil {
		return nil, fmt.Errorf("run repository is required")
	}
	return &DemoService{
		composer: cfg.Composer,
		launcher: cfg.Launcher,
		runs:     cfg.Runs,
	}, nil
}

// StartSimulation validates the request and starts a simulation run,
// returning the launch metadata. The container keeps running after the
// response; only the launch itself is awaited.
func (s *DemoService) StartSimulation(ctx context.Context, req *model.DemoRequest) (*model.SimulationRun, error) {
	params, err := ValidateRequest(req)
	if err != nil {
		return nil, err
	}

	simulationID := s.launcher.NewSimulationID()
	logger.Info(ctx, "starting simulation",
		zap.String("simulation_id", simulationID),
		zap.String("name", params.Name),
		zap.Int("users", len(params.Users)),
		zap.Int("stations", len(params.Stations)),
	)

	artifacts, err := s.composer.Compose(ctx, params, simulationID)
	if err != nil {
		return nil, err
	}

	run, err := s.launcher.Launch(ctx, simulationID, artifacts.Environment, artifacts.StartMessageFile)
	if err != nil {
		return nil, err
	}

	// The simulation is already running; a failed record only loses the
	// lookup entry.
	if err := s.runs.Record(ctx, run); err != nil {
		logger.Warn(ctx, "recording simulation run failed",
			zap.String("simulation_id", run.SimulationID),
			zap.Error(err),
		)
	}

	return run, nil
}

// GetRun returns the recorded metadata of a started simulation.
func (s *DemoService) GetRun(ctx context.Context, simulationID string) (*model.SimulationRun, error) {
	return s.runs.Get(ctx, simulationID)
}
