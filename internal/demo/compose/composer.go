// Package compose turns validated simulation parameters into the artifacts
// consumed by the platform manager container: the start-message file, the
// container environment, and parameter-substituted component manifests.
package compose

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"evdemo/internal/demo/model"
	appErr "evdemo/pkg/errors"
	"evdemo/pkg/utils/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Environment variable names recognized by the platform manager.
const (
	EnvSimulationName        = "SIMULATION_NAME"
	EnvSimulationEpochLength = "SIMULATION_EPOCH_LENGTH"
	EnvConfigurationFile     = "SIMULATION_CONFIGURATION_FILE"
)

// containerSimulationsPath is where the simulations folder is mounted inside
// the platform manager container.
const containerSimulationsPath = "/simulations"

// Config holds the composer folder layout and pass-through settings.
type Config struct {
	// ConfigurationFolder holds the env files listed in EnvFiles.
	ConfigurationFolder string
	// ManifestFolder holds the component manifest templates.
	ManifestFolder string
	// SimulationsFolder receives start messages and substituted manifests.
	SimulationsFolder string
	// EnvFiles are read from ConfigurationFolder into the container
	// environment, in order.
	EnvFiles []string
	// Topics are message-topic names passed through to the container
	// environment as-is.
	Topics map[string]string
}

// Artifacts is everything the launcher needs to start a simulation run.
type Artifacts struct {
	// StartMessageFile is the file name of the start message inside the
	// simulations folder.
	StartMessageFile string
	// StartMessagePath is the host path of the written start message.
	StartMessagePath string
	// Environment is the full container environment.
	Environment map[string]string
	// ManifestFiles are the host paths of the substituted manifests.
	ManifestFiles []string
}

// Composer builds and writes the configuration artifacts for one run.
type Composer struct {
	cfg Config
}

// NewComposer creates a composer for the given folder layout.
func NewComposer(cfg Config) *Composer {
	return &Composer{cfg: cfg}
}

// Compose writes the start message and substituted manifests for the given
// simulation id and returns them together with the container environment.
func (c *Composer) Compose(ctx context.Context, params *model.DemoParameters, simulationID string) (*Artifacts, error) {
	environment, err := c.buildEnvironment(ctx, params, simulationID)
	if err != nil {
		return nil, err
	}

	startMessage := BuildStartMessage(params)
	content, err := yaml.Marshal(startMessage)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.StartMessageFailed)
	}

	fileName := StartMessageFileName(simulationID)
	filePath := filepath.Join(c.cfg.SimulationsFolder, fileName)
	if err := writeFileAtomic(filePath, content); err != nil {
		return nil, appErr.ComposeError(err, "writing the simulation start message failed").
			WithDetail("file", filePath)
	}
	logger.Debug(ctx, "start message written", zap.String("file", filePath))

	manifests, err := c.substituteManifests(ctx, environment, simulationID)
	if err != nil {
		return nil, err
	}

	return &Artifacts{
		StartMessageFile: fileName,
		StartMessagePath: filePath,
		Environment:      environment,
		ManifestFiles:    manifests,
	}, nil
}

// BuildStartMessage assembles the start-message document for the platform
// manager from validated parameters.
func BuildStartMessage(params *model.DemoParameters) *model.StartMessage {
	earliest := params.EarliestArrival()
	latest := params.LatestLeaving()

	spanSeconds := int(latest.Sub(earliest).Seconds())
	maxEpochCount := spanSeconds/params.EpochLength + 2
	initialStart := earliest.Add(-secondsDuration(params.EpochLength))

	userComponents := make(map[string]model.UserComponent, len(params.Users))
	for _, user := range params.Users {
		userComponents[fmt.Sprintf("User%d", user.UserID)] = model.UserComponent{
			UserID:              user.UserID,
			UserName:            user.UserName,
			StationID:           user.StationID,
			ArrivalTime:         model.FromDateTime(user.ArrivalTime),
			StateOfCharge:       user.StateOfCharge,
			CarBatteryCapacity:  user.CarBatteryCapacity,
			CarModel:            model.DefaultCarModel,
			CarMaxPower:         user.CarMaxPower,
			TargetStateOfCharge: user.TargetStateOfCharge,
			TargetTime:          model.FromDateTime(user.TargetTime),
		}
	}

	stationComponents := make(map[string]model.StationComponent, len(params.Stations))
	for _, station := range params.Stations {
		stationComponents[fmt.Sprintf("Station%s", station.StationID)] = model.StationComponent{
			StationID: station.StationID,
			MaxPower:  station.MaxPower,
		}
	}

	return &model.StartMessage{
		Simulation: model.SimulationBlock{
			Name: params.Name,
			Description: fmt.Sprintf(
				"Simulation '%s' started by EVCommunities demo application.", params.Name),
			InitialStartTime: model.FromDateTime(initialStart),
			EpochLength:      params.EpochLength,
			MaxEpochCount:    maxEpochCount,
		},
		Components: model.ComponentsBlock{
			ICComponent: map[string]model.ControllerComponent{
				"IntelligentController": {TotalMaxPower: params.TotalMaxPower},
			},
			UserComponent:    userComponents,
			StationComponent: stationComponents,
		},
	}
}

// StartMessageFileName derives the start-message file name from the
// simulation identifier. Distinct identifiers map to distinct names, so
// concurrent requests never write the same file.
func StartMessageFileName(simulationID string) string {
	clean := strings.NewReplacer("-", "", ":", "").Replace(simulationID)
	clean = strings.NewReplacer("T", "-", ".", "-", "Z", "").Replace(clean)
	return fmt.Sprintf("simulation_%s.yaml", clean)
}

// buildEnvironment merges the env files, the configured topics, and the
// per-run variables into the container environment.
func (c *Composer) buildEnvironment(ctx context.Context, params *model.DemoParameters, simulationID string) (map[string]string, error) {
	environment := make(map[string]string)

	for _, name := range c.cfg.EnvFiles {
		filePath := filepath.Join(c.cfg.ConfigurationFolder, name)
		if err := readEnvFile(filePath, environment); err != nil {
			if os.IsNotExist(err) {
				logger.Warn(ctx, "environment file not found", zap.String("file", filePath))
				continue
			}
			return nil, appErr.Wrapf(err, appErr.EnvironmentFailed,
				"reading environment file '%s' failed: %v", filePath, err)
		}
	}

	for name, topic := range c.cfg.Topics {
		environment[name] = topic
	}

	environment[EnvSimulationName] = params.Name
	environment[EnvSimulationEpochLength] = fmt.Sprintf("%d", params.EpochLength)
	environment[EnvConfigurationFile] = path.Join(containerSimulationsPath, StartMessageFileName(simulationID))

	return environment, nil
}

// substituteManifests copies the manifest templates next to the start
// message with ${VAR} references replaced from the environment. A missing
// manifest folder is not an error; the platform image ships defaults.
func (c *Composer) substituteManifests(ctx context.Context, environment map[string]string, simulationID string) ([]string, error) {
	if c.cfg.ManifestFolder == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(c.cfg.ManifestFolder)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug(ctx, "manifest folder not found", zap.String("folder", c.cfg.ManifestFolder))
			return nil, nil
		}
		return nil, appErr.Wrap(err, appErr.ManifestFailed)
	}

	targetFolder := filepath.Join(c.cfg.SimulationsFolder, manifestFolderName(simulationID))
	var written []string
	for _, entry := range entries {
		if entry.IsDir() || !isManifestFile(entry.Name()) {
			continue
		}
		templatePath := filepath.Join(c.cfg.ManifestFolder, entry.Name())
		template, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.ManifestFailed,
				"reading manifest template '%s' failed: %v", templatePath, err)
		}

		substituted := os.Expand(string(template), func(name string) string {
			if value, ok := environment[name]; ok {
				return value
			}
			// Unknown references are kept verbatim for the platform manager.
			return fmt.Sprintf("${%s}", name)
		})

		targetPath := filepath.Join(targetFolder, entry.Name())
		if err := writeFileAtomic(targetPath, []byte(substituted)); err != nil {
			return nil, appErr.ComposeError(err, "writing substituted manifest failed").
				WithDetail("file", targetPath)
		}
		written = append(written, targetPath)
	}

	sort.Strings(written)
	return written, nil
}

func isManifestFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yml" || ext == ".yaml"
}

func manifestFolderName(simulationID string) string {
	name := StartMessageFileName(simulationID)
	return strings.TrimSuffix(name, ".yaml") + "_manifests"
}
