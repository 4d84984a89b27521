package swift

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// Scheme is the URI scheme of paths served by this filesystem.
const Scheme = "swift"

// DefaultPartSize is the write size at which uploads switch to numbered
// part objects finalized by a manifest.
const DefaultPartSize int64 = 128 * 1024 * 1024

// Config holds Swift filesystem configuration.
type Config struct {
	// RootURI identifies the filesystem root as "swift://container.service/".
	// The container is taken from the authority; the service suffix names
	// the store instance for multi-endpoint deployments.
	RootURI string

	// AuthURL is the v1.0 authentication endpoint
	AuthURL string

	// User is the account user (e.g., "test:tester")
	User string

	// Key is the account key/password
	Key string

	// Timeout bounds each store round-trip (default: 30s)
	Timeout time.Duration

	// Retries is the transport-level retry count for failed requests
	// (default: 0; retrying is the transport's concern, never the core's)
	Retries int

	// PartSize is the threshold at which writes are split into part
	// objects joined by a manifest (default: DefaultPartSize)
	PartSize int64

	// Transport is an optional pre-configured transport.
	// If provided, AuthURL/User/Key/Timeout/Retries are ignored.
	Transport Transport

	// Logger receives debug traces and rename-skip warnings.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Registry, if set, receives transport request metrics.
	Registry prometheus.Registerer
}

// LoadConfig reads a Config from a YAML file. The timeout field accepts Go
// duration syntax ("30s", "2m").
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		RootURI  string `yaml:"root_uri"`
		AuthURL  string `yaml:"auth_url"`
		User     string `yaml:"user"`
		Key      string `yaml:"key"`
		Timeout  string `yaml:"timeout"`
		Retries  int    `yaml:"retries"`
		PartSize int64  `yaml:"part_size"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Config{
		RootURI:  raw.RootURI,
		AuthURL:  raw.AuthURL,
		User:     raw.User,
		Key:      raw.Key,
		Retries:  raw.Retries,
		PartSize: raw.PartSize,
	}
	if raw.Timeout != "" {
		timeout, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: invalid timeout %q: %w", raw.Timeout, err)
		}
		cfg.Timeout = timeout
	}

	return cfg, nil
}

// validate checks if the configuration is valid.
// Either Transport OR (AuthURL + User + Key) must be provided; RootURI is
// required in all cases.
func (c *Config) validate() error {
	if _, _, err := splitRootURI(c.RootURI); err != nil {
		return err
	}

	// If Transport is provided, we're done (connection fields are ignored)
	if c.Transport != nil {
		return nil
	}

	if c.AuthURL == "" {
		return fmt.Errorf("auth url is required when transport is not provided")
	}
	if c.User == "" {
		return fmt.Errorf("user is required when transport is not provided")
	}
	if c.Key == "" {
		return fmt.Errorf("key is required when transport is not provided")
	}

	return nil
}

// splitRootURI breaks a "swift://container.service/" root URI into its
// container and service parts. A malformed URI is a configuration error.
func splitRootURI(root string) (container, service string, err error) {
	if root == "" {
		return "", "", fmt.Errorf("root uri is required")
	}

	u, err := url.Parse(root)
	if err != nil {
		return "", "", fmt.Errorf("invalid root uri %q: %w", root, err)
	}
	if u.Scheme != Scheme {
		return "", "", fmt.Errorf("invalid root uri %q: scheme must be %q", root, Scheme)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid root uri %q: missing container", root)
	}

	container, service, _ = strings.Cut(u.Host, ".")
	if container == "" {
		return "", "", fmt.Errorf("invalid root uri %q: empty container", root)
	}

	return container, service, nil
}
