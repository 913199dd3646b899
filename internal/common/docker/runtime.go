// Package docker implements the container runtime over the Docker Engine API.
package docker

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"evdemo/internal/demo/launch"
	appErr "evdemo/pkg/errors"
	"evdemo/pkg/utils/logger"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"go.uber.org/zap"
)

// maxSimulationIndex bounds the Sim<index>_ container name prefix.
const maxSimulationIndex = 100

var simulationNamePattern = regexp.MustCompile(`^Sim([0-9]{2})_`)

// Runtime starts platform manager containers through the Docker daemon.
type Runtime struct {
	cli *client.Client

	// nameMu serializes name-index allocation between concurrent launches.
	nameMu sync.Mutex
}

// NewRuntime connects to the Docker daemon using the standard environment
// settings (DOCKER_HOST and friends) and verifies the connection.
func NewRuntime(ctx context.Context) (*Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.RuntimeUnavailable,
			"creating docker client failed: %v", err)
	}
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, appErr.Wrapf(err, appErr.RuntimeUnavailable,
			"docker daemon is not reachable: %v", err)
	}
	return &Runtime{cli: cli}, nil
}

// Launch creates and starts one container from the launch spec. It joins
// the first network at create time and the remaining networks before start.
// AutoRemove is set so finished simulations clean up after themselves.
func (r *Runtime) Launch(ctx context.Context, spec launch.LaunchSpec) (string, string, error) {
	r.nameMu.Lock()
	defer r.nameMu.Unlock()

	name, err := r.nextContainerName(ctx, spec.ContainerName)
	if err != nil {
		return "", "", err
	}

	config := &container.Config{
		Image: spec.Image,
		Env:   spec.Environment,
	}
	hostConfig := &container.HostConfig{
		Binds:      spec.Volumes,
		AutoRemove: true,
	}
	networkConfig := &network.NetworkingConfig{}
	if len(spec.Networks) > 0 {
		networkConfig.EndpointsConfig = map[string]*network.EndpointSettings{
			spec.Networks[0]: {},
		}
	}

	created, err := r.cli.ContainerCreate(ctx, config, hostConfig, networkConfig, nil, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", "", appErr.Wrapf(err, appErr.ImageNotFound,
				"image '%s' not found: %v", spec.Image, err)
		}
		return "", "", appErr.LaunchError(err, "creating container failed")
	}

	if len(spec.Networks) > 1 {
		for _, networkName := range spec.Networks[1:] {
			if err := r.cli.NetworkConnect(ctx, networkName, created.ID, nil); err != nil {
				r.removeContainer(ctx, created.ID)
				return "", "", appErr.LaunchError(err,
					fmt.Sprintf("connecting container to network '%s' failed", networkName))
			}
		}
	}

	if err := r.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		r.removeContainer(ctx, created.ID)
		return "", "", appErr.LaunchError(err, "starting container failed")
	}

	logger.Debug(ctx, "container started",
		zap.String("container_id", created.ID),
		zap.String("container_name", name),
	)
	return created.ID, name, nil
}

// Close releases the client connection.
func (r *Runtime) Close() error {
	return r.cli.Close()
}

// nextContainerName returns "Sim<index>_<base>" using the lowest index not
// taken by an existing container.
func (r *Runtime) nextContainerName(ctx context.Context, base string) (string, error) {
	containers, err := r.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return "", appErr.Wrapf(err, appErr.RuntimeUnavailable,
			"listing containers failed: %v", err)
	}

	used := make(map[int]bool, len(containers))
	for _, existing := range containers {
		for _, existingName := range existing.Names {
			markUsedIndex(used, existingName)
		}
	}

	for index := 0; index < maxSimulationIndex; index++ {
		if !used[index] {
			return fmt.Sprintf("Sim%02d_%s", index, base), nil
		}
	}
	return "", appErr.New(appErr.NoFreeSimulationIdx)
}

// markUsedIndex records the simulation index of a container name, if any.
// Docker reports names with a leading slash.
func markUsedIndex(used map[int]bool, name string) {
	if len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	match := simulationNamePattern.FindStringSubmatch(name)
	if match == nil {
		return
	}
	index, err := strconv.Atoi(match[1])
	if err != nil {
		return
	}
	used[index] = true
}

// removeContainer cleans up a container whose launch did not complete.
func (r *Runtime) removeContainer(ctx context.Context, containerID string) {
	err := r.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
	if err != nil && !client.IsErrNotFound(err) {
		logger.Warn(ctx, "removing failed container",
			zap.String("container_id", containerID),
			zap.Error(err),
		)
	}
}
