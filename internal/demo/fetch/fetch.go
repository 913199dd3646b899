// Package fetch downloads component manifest files from GitHub and GitLab
// repositories into the local manifest folder.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	appErr "evdemo/pkg/errors"
	"evdemo/pkg/utils/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Supported repository server types.
const (
	ServerTypeGitHub = "github"
	ServerTypeGitLab = "gitlab"
)

// Defaults applied to repository entries.
const (
	DefaultManifestFile = "component_manifest.yml"
	DefaultBranch       = "master"
)

// Config lists the manifest servers to fetch from.
type Config struct {
	Servers []ServerConfig `yaml:"servers"`
}

// ServerConfig describes one GitHub or GitLab server.
type ServerConfig struct {
	Type string `yaml:"type"`
	Host string `yaml:"host"`
	// Certificate disables TLS verification when explicitly set to false,
	// for self-hosted servers with private certificates.
	Certificate *bool `yaml:"certificate"`
	// AccessToken may be a literal token or "${VAR}" to read it from the
	// environment.
	AccessToken  string             `yaml:"access_token"`
	Repositories []RepositoryConfig `yaml:"repositories"`
}

// RepositoryConfig names one repository and the manifest file to fetch.
type RepositoryConfig struct {
	Name   string `yaml:"name"`
	File   string `yaml:"file"`
	Branch string `yaml:"branch"`
}

// LoadConfig reads and validates a fetch configuration file.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading fetch configuration: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing fetch configuration: %w", err)
	}
	for i := range cfg.Servers {
		server := &cfg.Servers[i]
		serverType := strings.ToLower(server.Type)
		if serverType != ServerTypeGitHub && serverType != ServerTypeGitLab {
			return nil, fmt.Errorf("unsupported server type %q", server.Type)
		}
		server.Type = serverType
		if server.Host == "" {
			return nil, fmt.Errorf("server %d has no host", i)
		}
		for j := range server.Repositories {
			repo := &server.Repositories[j]
			if repo.Name == "" {
				return nil, fmt.Errorf("server %q repository %d has no name", server.Host, j)
			}
			if repo.File == "" {
				repo.File = DefaultManifestFile
			}
			if repo.Branch == "" {
				repo.Branch = DefaultBranch
			}
		}
	}
	return &cfg, nil
}

// Fetcher downloads manifest files into an output folder.
type Fetcher struct {
	outputFolder string
}

// NewFetcher creates a fetcher writing under the given folder.
func NewFetcher(outputFolder string) *Fetcher {
	return &Fetcher{outputFolder: outputFolder}
}

// FetchAll downloads every configured manifest, returning the written file
// paths. A failed download is logged and skipped so one unreachable server
// does not block the rest.
func (f *Fetcher) FetchAll(ctx context.Context, cfg *Config) ([]string, error) {
	var written []string
	for _, server := range cfg.Servers {
		client := newClient(server)
		for _, repo := range server.Repositories {
			filePath, err := f.fetchOne(ctx, client, server, repo)
			if err != nil {
				logger.Warn(ctx, "manifest fetch failed",
					zap.String("host", server.Host),
					zap.String("repository", repo.Name),
					zap.Error(err),
				)
				continue
			}
			written = append(written, filePath)
		}
	}
	return written, nil
}

func newClient(server ServerConfig) *resty.Client {
	client := resty.New()
	if server.Certificate != nil && !*server.Certificate {
		client.SetTLSClientConfig(insecureTLSConfig())
	}
	return client
}

func (f *Fetcher) fetchOne(ctx context.Context, client *resty.Client, server ServerConfig, repo RepositoryConfig) (string, error) {
	request := client.R().SetContext(ctx)

	var fileURL string
	switch server.Type {
	case ServerTypeGitHub:
		fileURL = githubRawURL(server.Host, repo)
		if token := resolveToken(server.AccessToken); token != "" {
			request.SetHeader("Authorization", "token "+token)
		}
	case ServerTypeGitLab:
		fileURL = gitlabFileURL(server.Host, repo)
		if token := resolveToken(server.AccessToken); token != "" {
			request.SetHeader("Private-Token", token)
		}
	default:
		return "", fmt.Errorf("unsupported server type %q", server.Type)
	}

	resp, err := request.Get(fileURL)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.ManifestFailed,
			"fetching '%s' failed: %v", fileURL, err)
	}
	if resp.StatusCode() != 200 {
		return "", appErr.Newf(appErr.ManifestFailed,
			"fetching '%s' failed with status %d", fileURL, resp.StatusCode())
	}

	targetPath := f.targetPath(server, repo)
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(targetPath, resp.Body(), 0o644); err != nil {
		return "", err
	}

	logger.Info(ctx, "manifest fetched",
		zap.String("repository", repo.Name),
		zap.String("file", targetPath),
	)
	return targetPath, nil
}

// targetPath lays fetched files out as <folder>/<type>/<repo>/<file>.
func (f *Fetcher) targetPath(server ServerConfig, repo RepositoryConfig) string {
	repoBase := path.Base(strings.TrimSuffix(repo.Name, "/"))
	fileBase := path.Base(repo.File)
	return filepath.Join(f.outputFolder, server.Type, repoBase, fileBase)
}

// githubRawURL addresses the file through the raw content host.
func githubRawURL(host string, repo RepositoryConfig) string {
	rawHost := host
	if strings.Contains(host, "github.com") {
		rawHost = strings.Replace(host, "github.com", "raw.githubusercontent.com", 1)
	}
	return fmt.Sprintf("%s/%s/%s/%s",
		strings.TrimSuffix(rawHost, "/"), repo.Name, repo.Branch, repo.File)
}

// gitlabFileURL addresses the file through the GitLab repository files API.
func gitlabFileURL(host string, repo RepositoryConfig) string {
	return fmt.Sprintf("%s/api/v4/projects/%s/repository/files/%s/raw?ref=%s",
		strings.TrimSuffix(host, "/"),
		url.PathEscape(repo.Name),
		url.PathEscape(repo.File),
		url.QueryEscape(repo.Branch))
}

// insecureTLSConfig is used for servers declaring certificate: false.
func insecureTLSConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true}
}

// resolveToken resolves "${VAR}" references through the environment.
func resolveToken(token string) string {
	if strings.HasPrefix(token, "${") && strings.HasSuffix(token, "}") {
		return os.Getenv(token[2 : len(token)-1])
	}
	return token
}
