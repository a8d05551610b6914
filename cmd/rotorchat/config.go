package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/alexschlessinger/rotorchat/llm"
	"github.com/alexschlessinger/rotorchat/prompts"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Default values from environment variables
var (
	defaultModel     = getEnvOrDefault("ROTORCHAT_MODEL", "fireworks/accounts/fireworks/models/gpt-oss-120b")
	defaultBaseURL   = getEnvOrDefault("ROTORCHAT_BASEURL", "")
	defaultReasoning = getEnvOrDefault("ROTORCHAT_REASONING", string(llm.ReasoningOff))
	defaultSession   = getEnvOrDefault("ROTORCHAT_SESSION", "")
	defaultTemp      = getEnvFloat("ROTORCHAT_TEMP", 1.0)
	defaultMaxTokens = getEnvInt("ROTORCHAT_MAXTOKENS", 4096)
	defaultTimeout   = getEnvDuration("ROTORCHAT_TIMEOUT", 2*time.Minute)
)

// Config is the merged configuration for a run. The yaml tags describe the
// config file; flags and environment fill the same fields.
type Config struct {
	Model            string               `yaml:"model"`
	BaseURL          string               `yaml:"baseurl"`
	Temperature      float64              `yaml:"temperature"`
	MaxTokens        int                  `yaml:"maxtokens"`
	Timeout          time.Duration        `yaml:"timeout"`
	Reasoning        string               `yaml:"reasoning"`
	SystemPrompt     string               `yaml:"system"`
	Session          string               `yaml:"session"`
	SessionDir       string               `yaml:"session_dir"`
	MaxHistoryTokens int                  `yaml:"max_history_tokens"`
	Hints            prompts.RequestHints `yaml:"hints"`
	APIKeys          map[string]string    `yaml:"keys"`

	// Flag-only switches
	Raw   bool `yaml:"-"`
	Debug bool `yaml:"-"`
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// loadAPIKeys reads ROTORCHAT_<PROVIDER>KEY for every known provider
func loadAPIKeys() map[string]string {
	keys := make(map[string]string)
	for _, p := range llm.Providers {
		if v := os.Getenv(llm.EnvVarForProvider(p)); v != "" {
			keys[p] = v
		}
	}
	return keys
}

// envConfig holds the environment and built-in defaults
func envConfig() Config {
	return Config{
		Model:       defaultModel,
		BaseURL:     defaultBaseURL,
		Temperature: defaultTemp,
		MaxTokens:   defaultMaxTokens,
		Timeout:     defaultTimeout,
		Reasoning:   defaultReasoning,
		Session:     defaultSession,
		APIKeys:     loadAPIKeys(),
	}
}

// defaultConfigPath is ~/.rotorchat/config.yaml
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rotorchat", "config.yaml")
}

// readConfigFile parses a YAML config file. A missing file is only an
// error when it was asked for explicitly.
func readConfigFile(path string, explicit bool) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// flagConfig collects only the flags set on the command line
func flagConfig(cmd *cli.Command) Config {
	var cfg Config
	if cmd.IsSet("model") {
		cfg.Model = cmd.String("model")
	}
	if cmd.IsSet("baseurl") {
		cfg.BaseURL = cmd.String("baseurl")
	}
	if cmd.IsSet("temp") {
		cfg.Temperature = cmd.Float64("temp")
	}
	if cmd.IsSet("maxtokens") {
		cfg.MaxTokens = cmd.Int("maxtokens")
	}
	if cmd.IsSet("timeout") {
		cfg.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("reasoning") {
		cfg.Reasoning = cmd.String("reasoning")
	}
	if cmd.IsSet("system") {
		cfg.SystemPrompt = cmd.String("system")
	}
	if cmd.IsSet("session") {
		cfg.Session = cmd.String("session")
	}
	return cfg
}

// mergeConfig layers file over env over defaults, then flags over both.
// Zero values never override.
func mergeConfig(env, file, flags Config) (Config, error) {
	out := env
	if err := mergo.Merge(&out, file, mergo.WithOverride); err != nil {
		return out, fmt.Errorf("failed to merge config file: %w", err)
	}
	if err := mergo.Merge(&out, flags, mergo.WithOverride); err != nil {
		return out, fmt.Errorf("failed to merge flags: %w", err)
	}
	return out, nil
}

// loadConfig builds the run configuration from env, file and flags
func loadConfig(cmd *cli.Command) (*Config, error) {
	path, explicit := cmd.String("config"), cmd.IsSet("config")
	if path == "" {
		path = defaultConfigPath()
	}

	file, err := readConfigFile(path, explicit)
	if err != nil {
		return nil, err
	}

	cfg, err := mergeConfig(envConfig(), file, flagConfig(cmd))
	if err != nil {
		return nil, err
	}
	cfg.Raw = cmd.Bool("raw")
	cfg.Debug = cmd.Bool("debug")

	effort, err := llm.ParseReasoningEffort(cfg.Reasoning)
	if err != nil {
		return nil, err
	}
	cfg.Reasoning = string(effort)
	return &cfg, nil
}

// systemPrompt returns the configured prompt or the Aviaid default
func (c *Config) systemPrompt() string {
	if c.SystemPrompt != "" {
		return c.SystemPrompt
	}
	effort, _ := llm.ParseReasoningEffort(c.Reasoning)
	return prompts.SystemPrompt(effort.IsEnabled(), c.Hints)
}
