package runtime

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default agent identity, used when the agent block omits fields.
const (
	defaultRunTimeout = Duration(5 * time.Minute)

	defaultAgentName        = "calculator_agent"
	defaultAgentDescription = "A helpful calculator assistant."
	defaultInstructions     = "You have two capabilities: evaluate arithmetic expressions with the " +
		"calculator tool, and add two numbers with the remote add_numbers function. Use the " +
		"calculator for general expressions; use the remote function when asked to, or for plain " +
		"addition. Always show your work."
)

// Config is the top-level runtime configuration.
type Config struct {
	Listen    string           `yaml:"listen"`
	Provider  ProviderConfig   `yaml:"provider"`
	Agent     AgentConfig      `yaml:"agent"`
	Functions []FunctionConfig `yaml:"functions"`
}

// ProviderConfig describes the LLM provider instance.
type ProviderConfig struct {
	Kind    string `yaml:"kind"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Model   string `yaml:"model"`
}

// AgentConfig describes the agent served by the runtime.
type AgentConfig struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Instructions  string   `yaml:"instructions"`
	MaxIterations int      `yaml:"max_iterations"`
	Timeout       Duration `yaml:"timeout"`
}

// Duration is a time.Duration that unmarshals from YAML strings such as
// "90s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// FunctionConfig describes a remote function server to spawn and connect to.
type FunctionConfig struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// LoadConfig reads a YAML file and returns a Config. Environment variables
// referenced as ${VAR} or $VAR in the YAML are expanded before parsing, so
// API keys can live in the environment (e.g. loaded from a .env file)
// rather than committed in the config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-provided configuration
	if err != nil {
		return Config{}, fmt.Errorf("runtime: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("runtime: parse config: %w", err)
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Agent.Name == "" {
		c.Agent.Name = defaultAgentName
	}
	if c.Agent.Description == "" {
		c.Agent.Description = defaultAgentDescription
	}
	if c.Agent.Instructions == "" {
		c.Agent.Instructions = defaultInstructions
	}
	if c.Agent.MaxIterations == 0 {
		c.Agent.MaxIterations = 10
	}
	if c.Agent.Timeout == 0 {
		c.Agent.Timeout = defaultRunTimeout
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Provider.Kind == "" {
		return fmt.Errorf("runtime: config: provider kind is required")
	}
	if c.Provider.Model == "" {
		return fmt.Errorf("runtime: config: provider model is required")
	}

	seen := make(map[string]struct{}, len(c.Functions))
	for _, f := range c.Functions {
		if f.Name == "" {
			return fmt.Errorf("runtime: config: function name is required")
		}
		if f.Command == "" {
			return fmt.Errorf("runtime: config: function %q: command is required", f.Name)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("runtime: config: duplicate function %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	return nil
}
