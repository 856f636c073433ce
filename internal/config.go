package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	Images    ImagesConfig      `yaml:"images"`
	Git       GitConfig         `yaml:"git"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.Images.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WorkspaceConfig holds the draft workspace settings.
type WorkspaceConfig struct {
	Path   string `yaml:"path"`
	Author string `yaml:"author"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Author, validation.Required),
	)
}

// ImagesConfig holds canonical image URL settings.
type ImagesConfig struct {
	BaseURL    string `yaml:"base_url"`
	SlotPrefix string `yaml:"slot_prefix"`
}

// Validate validates the images configuration.
func (c *ImagesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
	)
}

// GitConfig holds the push workflow settings. RepoRoot is optional: when
// empty the repository root is discovered by walking upward from the working
// directory. Token is optional: when set, pushes authenticate by rewriting
// the remote URL per call instead of relying on ambient credentials.
type GitConfig struct {
	RepoRoot     string `yaml:"repo_root"`
	Remote       string `yaml:"remote"`
	BranchPrefix string `yaml:"branch_prefix"`
	Token        string `yaml:"token"`
	Username     string `yaml:"username"`
	UserName     string `yaml:"user_name"`
	UserEmail    string `yaml:"user_email"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8459,
			},
		},
		Workspace: WorkspaceConfig{
			Path:   "./workspace",
			Author: "JH8459",
		},
		Images: ImagesConfig{
			BaseURL:    "https://jh8459.s3.ap-northeast-2.amazonaws.com/blog",
			SlotPrefix: "ILLUSTRATION",
		},
		Git: GitConfig{
			Remote:       "origin",
			BranchPrefix: "draft",
			Username:     "x-access-token",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
