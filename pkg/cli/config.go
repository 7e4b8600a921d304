package cli

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the per-user configuration directory name.
	DefaultBaseDir = ".ai01"
	// DefaultConfigFile is the configuration filename inside it.
	DefaultConfigFile = "config.yaml"
)

// Config holds named credential contexts, kubectl-style: several sets
// of project credentials live side by side and one is current.
type Config struct {
	// CurrentContext names the active context.
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts maps context name to its credentials.
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is one named set of credentials.
type Context struct {
	Name string `yaml:"name"`

	// ProjectID is the Huddle01 project ID.
	ProjectID string `yaml:"project_id,omitempty"`

	// APIKey is the Huddle01 project API key.
	APIKey string `yaml:"api_key,omitempty"`

	// OpenAIAPIKey authorizes realtime voice sessions.
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`

	// GeminiAPIKey is the Google AI Studio key.
	GeminiAPIKey string `yaml:"gemini_api_key,omitempty"`

	// APIURL overrides the Huddle01 management API endpoint.
	APIURL string `yaml:"api_url,omitempty"`

	// SignalURL overrides the Huddle01 signaling endpoint.
	SignalURL string `yaml:"signal_url,omitempty"`

	// Extra carries application-specific settings.
	Extra map[string]string `yaml:"extra,omitempty"`
}

// LoadConfig loads ~/.ai01/config.yaml, creating an empty config on
// first run.
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath("")
}

// LoadConfigWithPath is LoadConfig with an explicit file path; an empty
// path selects the default location.
func LoadConfigWithPath(customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, DefaultConfigFile)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		return cfg, cfg.Save()
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	cfg.configPath = configPath
	return cfg, nil
}

// Save writes the config back to its file, world-unreadable since it
// carries API keys.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file location.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory holding the config file.
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext stores (or replaces) a context under name and saves.
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context, clearing CurrentContext if it
// pointed there, and saves.
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext switches the current context and saves.
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext looks up a context by name.
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// GetCurrentContext returns the active context.
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}
	return c.GetContext(c.CurrentContext)
}

// ResolveContext returns the named context, falling back to the current
// one when name is empty.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		return c.GetCurrentContext()
	}
	return c.GetContext(name)
}

// ListContexts returns all context names, sorted.
func (c *Config) ListContexts() []string {
	return slices.Sorted(maps.Keys(c.Contexts))
}

// GetExtra reads an application-specific setting.
func (ctx *Context) GetExtra(key string) string {
	if ctx.Extra == nil {
		return ""
	}
	return ctx.Extra[key]
}

// SetExtra stores an application-specific setting.
func (ctx *Context) SetExtra(key, value string) {
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
}

// MaskAPIKey hides the middle of a key for display, keeping at most the
// first and last four characters.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
