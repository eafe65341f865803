package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/agora-debate/agora/pkg/models"
)

// ProviderConfig describes one entry in the Completion Provider registry:
// which backend family to construct and where its credentials live.
type ProviderConfig struct {
	Type          string   `yaml:"type" validate:"required,oneof=openai anthropic google mistral stub"`
	ModelPrefixes []string `yaml:"model_prefixes" validate:"required,min=1"`
	APIKeyEnv     string   `yaml:"api_key_env"`
	BaseURLEnv    string   `yaml:"base_url_env,omitempty"`
}

// ParticipantPreset is a reusable named debater profile a client can refer
// to by name instead of repeating a provider/model/system-prompt triple on
// every create-debate request.
type ParticipantPreset struct {
	Name         string `yaml:"name" validate:"required"`
	Provider     string `yaml:"provider" validate:"required"`
	Model        string `yaml:"model" validate:"required"`
	SystemPrompt string `yaml:"system_prompt,omitempty"`
}

// RuntimeConfig holds the orchestrator- and pipeline-wide tunables that
// aren't per-conversation (those live on models.Conversation itself).
type RuntimeConfig struct {
	TurnDeadline         time.Duration `yaml:"turn_deadline,omitempty"`
	ProviderConcurrency  int64         `yaml:"provider_concurrency,omitempty" validate:"omitempty,min=1"`
	DefaultMaxRounds     int           `yaml:"default_max_rounds,omitempty" validate:"omitempty,min=1"`
	ContextWindowRounds  int           `yaml:"context_window_rounds,omitempty" validate:"omitempty,min=1"`
	CostWarningThreshold float64       `yaml:"cost_warning_threshold,omitempty" validate:"omitempty,gt=0"`
}

// Config is the umbrella debate-engine configuration: the provider
// registry, reusable participant presets, quality-scoring weights, and
// runtime tunables. Loaded once at startup and passed by value to the
// components that need it (no global state, no registries-by-reference
// the way the teacher's agent/chain/MCP registries worked).
type Config struct {
	Providers    map[string]ProviderConfig `yaml:"providers" validate:"required,min=1,dive"`
	Participants []ParticipantPreset       `yaml:"participants,omitempty" validate:"dive"`
	Health       models.HealthWeights      `yaml:"health_weights,omitempty"`
	Runtime      RuntimeConfig             `yaml:"runtime,omitempty"`
}

// Default returns a Config with every field a runnable process needs even
// when no YAML file is supplied: the stub provider plus the teacher's
// default health weighting and runtime tunables, matching
// orchestrator.NewDeps' and models.DefaultHealthWeights' own defaults.
func Default() *Config {
	return &Config{
		Providers: map[string]ProviderConfig{
			"stub": {Type: "stub", ModelPrefixes: []string{"stub"}},
		},
		Health: models.DefaultHealthWeights(),
		Runtime: RuntimeConfig{
			TurnDeadline:         120 * time.Second,
			ProviderConcurrency:  16,
			DefaultMaxRounds:     10,
			ContextWindowRounds:  6,
			CostWarningThreshold: 5.0,
		},
	}
}

// Load reads a YAML file at path, expanding ${VAR}/$VAR references via
// ExpandEnv before parsing, applies Default()'s values for anything the
// file leaves zero, and validates the result. A missing path is not an
// error: Default() alone is returned, since a debate engine with only the
// stub provider configured is a legitimate (if inert) configuration.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	mergeLoaded(cfg, loaded)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if err := validateProviderSecrets(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeLoaded overlays loaded onto defaults: loaded providers/participants
// fully replace the defaults' placeholder set when non-empty, and zero
// runtime/health fields fall back to the default value field by field.
func mergeLoaded(defaults, loaded *Config) {
	if len(loaded.Providers) > 0 {
		defaults.Providers = loaded.Providers
	}
	if len(loaded.Participants) > 0 {
		defaults.Participants = loaded.Participants
	}
	if loaded.Health != (models.HealthWeights{}) {
		defaults.Health = loaded.Health
	}

	r := loaded.Runtime
	if r.TurnDeadline > 0 {
		defaults.Runtime.TurnDeadline = r.TurnDeadline
	}
	if r.ProviderConcurrency > 0 {
		defaults.Runtime.ProviderConcurrency = r.ProviderConcurrency
	}
	if r.DefaultMaxRounds > 0 {
		defaults.Runtime.DefaultMaxRounds = r.DefaultMaxRounds
	}
	if r.ContextWindowRounds > 0 {
		defaults.Runtime.ContextWindowRounds = r.ContextWindowRounds
	}
	if r.CostWarningThreshold > 0 {
		defaults.Runtime.CostWarningThreshold = r.CostWarningThreshold
	}
}

// validateProviderSecrets confirms every configured API-key env var is
// actually set, mirroring the teacher's LLM-provider validation in
// validator.go but scoped to the providers this Config actually declares.
func validateProviderSecrets(cfg *Config) error {
	for name, p := range cfg.Providers {
		if p.Type == "stub" || p.APIKeyEnv == "" {
			continue
		}
		if os.Getenv(p.APIKeyEnv) == "" {
			return NewValidationError("provider", name, "api_key_env",
				fmt.Errorf("environment variable %s is not set", p.APIKeyEnv))
		}
	}
	return nil
}
