// Package launch starts platform manager containers for composed simulation
// runs. The container runtime sits behind a narrow interface so the service
// is testable without a Docker daemon.
package launch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"evdemo/internal/demo/model"
	appErr "evdemo/pkg/errors"
	"evdemo/pkg/utils/logger"

	"go.uber.org/zap"
)

// LaunchSpec describes one container to be started.
type LaunchSpec struct {
	// ContainerName is the base name; the runtime prefixes it with a free
	// simulation index.
	ContainerName string
	// Image is the platform manager image reference.
	Image string
	// Environment holds KEY=VALUE entries.
	Environment []string
	// Networks are the networks to attach, first one at create time.
	Networks []string
	// Volumes are bind specifications in "host:container[:mode]" form.
	Volumes []string
}

// ContainerRuntime starts containers. Implementations must be safe for
// concurrent use.
type ContainerRuntime interface {
	// Launch creates and starts a container, returning its id and the full
	// name it was given.
	Launch(ctx context.Context, spec LaunchSpec) (containerID, containerName string, err error)
	Close() error
}

// Config holds the fixed parts of every launch.
type Config struct {
	Image         string
	ContainerName string
	Networks      []string
	Volumes       []string
}

// Launcher starts one platform manager container per simulation run.
type Launcher struct {
	runtime ContainerRuntime
	cfg     Config
	now     func() time.Time
}

// NewLauncher creates a launcher over the given runtime.
func NewLauncher(runtime ContainerRuntime, cfg Config) (*Launcher, error) {
	if runtime == nil {
		return nil, fmt.Errorf("container runtime is required")
	}
	if cfg.Image == "" {
		return nil, fmt.Errorf("platform manager image is required")
	}
	if cfg.ContainerName == "" {
		return nil, fmt.Errorf("container name is required")
	}
	return &Launcher{
		runtime: runtime,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

// NewSimulationID returns a fresh simulation identifier for the current
// instant.
func (l *Launcher) NewSimulationID() string {
	return model.SimulationID(l.now())
}

// Launch starts a platform manager container for the composed run and
// returns its metadata. The container is not tracked after starting.
func (l *Launcher) Launch(ctx context.Context, simulationID string, environment map[string]string, startMessageFile string) (*model.SimulationRun, error) {
	spec := LaunchSpec{
		ContainerName: l.cfg.ContainerName,
		Image:         l.cfg.Image,
		Environment:   flattenEnvironment(environment),
		Networks:      l.cfg.Networks,
		Volumes:       l.cfg.Volumes,
	}

	containerID, containerName, err := l.runtime.Launch(ctx, spec)
	if err != nil {
		if appErr.GetCode(err) == appErr.InternalServerError {
			err = appErr.LaunchError(err, "starting the platform manager container failed")
		}
		return nil, err
	}

	logger.Info(ctx, "platform manager container started",
		zap.String("simulation_id", simulationID),
		zap.String("container_id", containerID),
		zap.String("container_name", containerName),
	)

	return &model.SimulationRun{
		SimulationID:     simulationID,
		ContainerID:      containerID,
		ContainerName:    containerName,
		Image:            l.cfg.Image,
		StartMessageFile: startMessageFile,
		CreatedAt:        l.now().UTC(),
	}, nil
}

// flattenEnvironment renders the environment map as sorted KEY=VALUE entries.
func flattenEnvironment(environment map[string]string) []string {
	entries := make([]string, 0, len(environment))
	for key, value := range environment {
		entries = append(entries, fmt.Sprintf("%s=%s", key, value))
	}
	sort.Strings(entries)
	return entries
}
