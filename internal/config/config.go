// Package config resolves the runtime configuration of an export run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// TokenEnvVar is the environment variable holding the GitLab API token.
const TokenEnvVar = "GITLAB_TOKEN"

const (
	DefaultBaseURL    = "https://gitlab.com"
	DefaultGroupPath  = "batchnz/work"
	DefaultOutputPath = "gitlab_projects_report.csv"
	DefaultEnvFile    = ".env"
	DefaultTimeout    = 30 * time.Second
)

// AuthScheme selects how the token is attached to API requests.
type AuthScheme string

const (
	// AuthPrivateToken sends the token in the PRIVATE-TOKEN header.
	AuthPrivateToken AuthScheme = "private-token"
	// AuthBearer sends the token as an OAuth2 bearer token.
	AuthBearer AuthScheme = "bearer"
)

// ErrMissingToken is returned by Load when no token is available.
var ErrMissingToken = errors.New(TokenEnvVar + " not found")

// Config is built once at startup and handed to each stage of the export.
type Config struct {
	BaseURL    string
	GroupPath  string
	Token      string
	OutputPath string
	AuthScheme AuthScheme
	// Timeout bounds each HTTP request. Zero disables the bound.
	Timeout time.Duration
	// MaxPages caps project listing. Zero means no cap.
	MaxPages int
}

// Default returns a Config populated with the built-in defaults and no token.
func Default() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		GroupPath:  DefaultGroupPath,
		OutputPath: DefaultOutputPath,
		AuthScheme: AuthPrivateToken,
		Timeout:    DefaultTimeout,
	}
}

// LoadEnvFile loads variables from a dotenv file without overriding ones already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %q: %w", path, err)
	}
	return nil
}

// Load fills in the token using getenv and validates the result.
// ErrMissingToken is checked first so that nothing else runs without credentials.
func Load(cfg Config, getenv func(string) string) (Config, error) {
	cfg.Token = strings.TrimSpace(getenv(TokenEnvVar))
	if cfg.Token == "" {
		return Config{}, ErrMissingToken
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return Config{}, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, fmt.Errorf("invalid base URL %q: must be an absolute http(s) URL", cfg.BaseURL)
	}

	cfg.GroupPath = strings.Trim(strings.TrimSpace(cfg.GroupPath), "/")
	if cfg.GroupPath == "" {
		return Config{}, errors.New("group path must not be empty")
	}
	if cfg.OutputPath == "" {
		return Config{}, errors.New("output path must not be empty")
	}

	switch cfg.AuthScheme {
	case AuthPrivateToken, AuthBearer:
	case "":
		cfg.AuthScheme = AuthPrivateToken
	default:
		return Config{}, fmt.Errorf("unknown auth scheme %q (want %q or %q)", cfg.AuthScheme, AuthPrivateToken, AuthBearer)
	}

	if cfg.Timeout < 0 {
		return Config{}, fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	if cfg.MaxPages < 0 {
		return Config{}, fmt.Errorf("max pages must not be negative, got %d", cfg.MaxPages)
	}
	return cfg, nil
}
