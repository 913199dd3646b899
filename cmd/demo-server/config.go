package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"evdemo/internal/common/cache"
	"evdemo/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8081"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultConfigurationFolder = "configuration"
	defaultManifestFolder      = "manifests"
	defaultSimulationsFolder   = "simulations"
	defaultRunTTL              = 24 * time.Hour

	defaultImage         = "ghcr.io/simcesplatform/platform-manager:latest"
	defaultContainerName = "platform-manager"

	// privateTokenEnv overrides the configured token so the secret can stay
	// out of the config file.
	privateTokenEnv = "DEMO_PRIVATE_TOKEN"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	BasePath     string        `yaml:"basePath"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// AuthConfig holds the shared request secret.
type AuthConfig struct {
	PrivateToken string `yaml:"privateToken"`
}

// SimulationConfig holds the folder layout and composition settings.
type SimulationConfig struct {
	ConfigurationFolder string            `yaml:"configurationFolder"`
	ManifestFolder      string            `yaml:"manifestFolder"`
	SimulationsFolder   string            `yaml:"simulationsFolder"`
	EnvFiles            []string          `yaml:"envFiles"`
	Topics              map[string]string `yaml:"topics"`
	RunTTL              time.Duration     `yaml:"runTTL"`
}

// DockerConfig holds the platform manager container settings.
type DockerConfig struct {
	Image         string   `yaml:"image"`
	ContainerName string   `yaml:"containerName"`
	Networks      []string `yaml:"networks"`
	Volumes       []string `yaml:"volumes"`
	ImageListFile string   `yaml:"imageListFile"`
	PullOnStart   bool     `yaml:"pullOnStart"`
}

// AppConfig holds demo-server configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Logger     logger.Config      `yaml:"logger"`
	Auth       AuthConfig         `yaml:"auth"`
	Production bool               `yaml:"production"`
	Redis      *cache.RedisConfig `yaml:"redis"`
	Simulation SimulationConfig   `yaml:"simulation"`
	Docker     DockerConfig       `yaml:"docker"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	cfg.Server.BasePath = normalizeBasePath(cfg.Server.BasePath)
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}

	if token := os.Getenv(privateTokenEnv); token != "" {
		cfg.Auth.PrivateToken = token
	}
	if cfg.Auth.PrivateToken == "" {
		return nil, fmt.Errorf("private token is required (set auth.privateToken or %s)", privateTokenEnv)
	}

	if cfg.Simulation.ConfigurationFolder == "" {
		cfg.Simulation.ConfigurationFolder = defaultConfigurationFolder
	}
	if cfg.Simulation.ManifestFolder == "" {
		cfg.Simulation.ManifestFolder = defaultManifestFolder
	}
	if cfg.Simulation.SimulationsFolder == "" {
		cfg.Simulation.SimulationsFolder = defaultSimulationsFolder
	}
	if len(cfg.Simulation.EnvFiles) == 0 {
		cfg.Simulation.EnvFiles = []string{"common.env", "mongodb.env", "rabbitmq.env"}
	}
	if cfg.Simulation.RunTTL == 0 {
		cfg.Simulation.RunTTL = defaultRunTTL
	}

	if cfg.Docker.Image == "" {
		cfg.Docker.Image = defaultImage
	}
	if cfg.Docker.ContainerName == "" {
		cfg.Docker.ContainerName = defaultContainerName
	}
	if len(cfg.Docker.Networks) == 0 {
		cfg.Docker.Networks = []string{"simces_platform_network", "simces_rabbitmq_network"}
	}
	if len(cfg.Docker.Volumes) == 0 {
		cfg.Docker.Volumes = []string{
			"./configuration:/configuration",
			"./manifests:/manifests:ro",
			"./simulations:/simulations",
			"simces_simulation_logs:/logs",
			"simces_simulation_resources:/resources",
			"/var/run/docker.sock:/var/run/docker.sock:ro",
		}
	}
	volumes, err := resolveVolumes(cfg.Docker.Volumes)
	if err != nil {
		return nil, err
	}
	cfg.Docker.Volumes = volumes

	return &cfg, nil
}

// normalizeBasePath ensures the base path starts with a slash and has no
// trailing slash. An empty path means the simulation endpoint is at "/".
func normalizeBasePath(basePath string) string {
	basePath = strings.TrimSuffix(basePath, "/")
	if basePath == "" {
		return ""
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return basePath
}

// resolveVolumes makes relative host paths in bind specifications absolute,
// since the Docker daemon treats relative sources as named volumes.
func resolveVolumes(volumes []string) ([]string, error) {
	resolved := make([]string, 0, len(volumes))
	for _, volume := range volumes {
		if !strings.HasPrefix(volume, "./") && !strings.HasPrefix(volume, "../") {
			resolved = append(resolved, volume)
			continue
		}
		parts := strings.SplitN(volume, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid volume specification %q", volume)
		}
		absolute, err := filepath.Abs(parts[0])
		if err != nil {
			return nil, fmt.Errorf("resolving volume path %q failed: %w", parts[0], err)
		}
		resolved = append(resolved, absolute+":"+parts[1])
	}
	return resolved, nil
}
