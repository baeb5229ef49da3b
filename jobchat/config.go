package jobchat

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/jobchat.yaml
var defaultConfigYAML []byte

// Config holds the chat workflow's tunables. The embedded defaults are
// always valid; a file loaded with LoadConfigFromFile overrides them
// field by field only where the file sets a value.
type Config struct {
	// Model is the default model when a request does not name one.
	Model string `yaml:"model"`

	// MaxTokens caps response length per generation call.
	MaxTokens int `yaml:"max_tokens"`

	// Thinking enables progress narration on streaming calls.
	Thinking bool `yaml:"thinking"`

	// Correction configures the patch correction pathway.
	Correction CorrectionConfig `yaml:"correction"`
}

// CorrectionConfig controls the secondary generation call used to
// re-anchor failed edits.
type CorrectionConfig struct {
	// Enabled turns the correction pathway on.
	Enabled bool `yaml:"enabled"`

	// Model is the model used for correction calls; it can be cheaper
	// than the chat model since the task is narrow.
	Model string `yaml:"model"`

	// MaxTokens caps the correction response.
	MaxTokens int `yaml:"max_tokens"`
}

// DefaultConfig returns the embedded default configuration.
func DefaultConfig() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultConfigYAML, &cfg); err != nil {
		panic(fmt.Sprintf("jobchat: embedded config invalid: %v", err))
	}
	return &cfg
}

// LoadConfigFromFile reads a YAML config file over the embedded
// defaults. Fields absent from the file keep their default values.
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
