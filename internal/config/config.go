package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirName is the name of both the global (~/.clinicseo) and repo-level config directories.
const DirName = ".clinicseo"

// LLMConfig selects and tunes the text-generation service.
type LLMConfig struct {
	// Provider is one of "gemini", "openai", "deepseek" or "mock".
	Provider string `json:"provider,omitempty"`

	// Model is the chat model name sent to the provider.
	Model string `json:"model,omitempty"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible API).
	BaseURL string `json:"base_url,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	// Empty means the provider default (GEMINI_API_KEY, OPENAI_API_KEY, ...).
	APIKeyEnv string `json:"api_key_env,omitempty"`

	// MaxRetries is the number of retries after the first attempt. Zero keeps
	// the default; a negative value disables retries.
	MaxRetries     int `json:"max_retries,omitempty"`
	RetryDelayMS   int `json:"retry_delay_ms,omitempty"`
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// Config holds application configuration.
type Config struct {
	LLM LLMConfig `json:"llm"`

	// DefaultWordCount is used when a request does not specify a word count.
	DefaultWordCount int `json:"default_word_count"`

	// MinWordCount and MaxWordCount bound the accepted word count (inclusive).
	MinWordCount int `json:"min_word_count"`
	MaxWordCount int `json:"max_word_count"`

	// WordCountStep is the increment offered by the web form's number input.
	WordCountStep int `json:"word_count_step"`

	// RecordMaxBytes is the maximum size of an uploaded clinic record.
	RecordMaxBytes int `json:"record_max_bytes"`

	// TemplateMaxChars is the maximum size of a saved prompt template.
	TemplateMaxChars int `json:"template_max_chars"`

	// AllowedPaths is an allowlist of directories for HTML exports.
	// Paths outside ~/.clinicseo/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for exports.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names to disable entirely.
	// Known types: "clinic", "prompt", "content".
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// LogMode is "development" (default) or "production".
	LogMode string `json:"log_mode,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "gemini",
			Model:          "gemini-2.0-flash",
			MaxRetries:     3,
			RetryDelayMS:   1000,
			TimeoutSeconds: 120,
		},
		DefaultWordCount: 500,
		MinWordCount:     500,
		MaxWordCount:     800,
		WordCountStep:    10,
		RecordMaxBytes:   1 << 20,
		TemplateMaxChars: 20000,
		LogMode:          "development",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.clinicseo.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.clinicseo) and repo (.clinicseo) directories.
// Repo config is found by walking upward from startDir to find the nearest .clinicseo/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	cfg := Merge(Merge(DefaultConfig(), global), repo)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .clinicseo/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return merged, nil
}

// Validate checks that the word-count settings can be satisfied together.
func (c *Config) Validate() error {
	if c.MinWordCount <= 0 || c.MaxWordCount <= 0 {
		return fmt.Errorf("min_word_count and max_word_count must be positive")
	}
	if c.MinWordCount > c.MaxWordCount {
		return fmt.Errorf("min_word_count (%d) is greater than max_word_count (%d)", c.MinWordCount, c.MaxWordCount)
	}
	if c.DefaultWordCount < c.MinWordCount || c.DefaultWordCount > c.MaxWordCount {
		return fmt.Errorf("default_word_count (%d) must be between min_word_count (%d) and max_word_count (%d)",
			c.DefaultWordCount, c.MinWordCount, c.MaxWordCount)
	}
	if c.WordCountStep < 0 {
		return fmt.Errorf("word_count_step must not be negative")
	}
	return nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		LLM: LLMConfig{
			Provider:       overlayString(base.LLM.Provider, overlay.LLM.Provider),
			Model:          overlayString(base.LLM.Model, overlay.LLM.Model),
			BaseURL:        overlayString(base.LLM.BaseURL, overlay.LLM.BaseURL),
			APIKeyEnv:      overlayString(base.LLM.APIKeyEnv, overlay.LLM.APIKeyEnv),
			MaxRetries:     overlayInt(base.LLM.MaxRetries, overlay.LLM.MaxRetries),
			RetryDelayMS:   overlayInt(base.LLM.RetryDelayMS, overlay.LLM.RetryDelayMS),
			TimeoutSeconds: overlayInt(base.LLM.TimeoutSeconds, overlay.LLM.TimeoutSeconds),
		},
		DefaultWordCount: overlayInt(base.DefaultWordCount, overlay.DefaultWordCount),
		MinWordCount:     overlayInt(base.MinWordCount, overlay.MinWordCount),
		MaxWordCount:     overlayInt(base.MaxWordCount, overlay.MaxWordCount),
		WordCountStep:    overlayInt(base.WordCountStep, overlay.WordCountStep),
		RecordMaxBytes:   overlayInt(base.RecordMaxBytes, overlay.RecordMaxBytes),
		TemplateMaxChars: overlayInt(base.TemplateMaxChars, overlay.TemplateMaxChars),
		DBMaxOpenConns:   overlayInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns:   overlayInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns),
		LogMode:          overlayString(base.LogMode, overlay.LogMode),
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// overlayInt returns overlay if non-zero, else base.
func overlayInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// overlayString returns overlay if non-blank, else base.
func overlayString(base, overlay string) string {
	if strings.TrimSpace(overlay) != "" {
		return strings.TrimSpace(overlay)
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
