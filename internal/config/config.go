// Package config provides configuration management for the
// completion-review hook. Configuration is loaded from (highest to
// lowest priority):
// 1. Command-line flags
// 2. Environment variables (COMPLETION_REVIEW_*)
// 3. Project config (.claude/completion-review.yaml in cwd)
// 4. Home config (~/.claude/completion-review.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all completion-review configuration.
type Config struct {
	// StateDir is the directory state, audit logs, and locks live under.
	StateDir string `yaml:"state_dir" json:"state_dir"`

	// Verbose enables verbose diagnostic logging to stderr.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// EnabledAdapters lists the external adapter names allowed to run,
	// by key into Adapters. An empty list means self-review only.
	EnabledAdapters []string `yaml:"enabled_adapters" json:"enabled_adapters"`

	// Adapters configures each named external adapter's transport.
	Adapters map[string]AdapterConfig `yaml:"adapters" json:"adapters"`

	// CompletionReview controls the completion-detection gate.
	CompletionReview CompletionReviewConfig `yaml:"completion_review" json:"completion_review"`

	// Debate controls the DebateEngine.
	Debate DebateConfig `yaml:"debate" json:"debate"`

	// ConflictResolution holds per-adapter weights used by the debate
	// engine's weighted-vote fallback.
	ConflictResolution ConflictResolutionConfig `yaml:"conflict_resolution" json:"conflict_resolution"`

	// Security controls secret masking.
	Security SecurityConfig `yaml:"security" json:"security"`

	// TimeoutSeconds bounds the shared deadline for one fan-out round;
	// the initial fan-out and each debate fan-out get their own deadline.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`

	// SelfReview controls the self-review adapter's prompt selection.
	SelfReview SelfReviewConfig `yaml:"self_review" json:"self_review"`
}

// AdapterConfig configures one external adapter's transport.
type AdapterConfig struct {
	// Transport is "http" or "subprocess".
	Transport string   `yaml:"transport" json:"transport"`
	URL       string   `yaml:"url,omitempty" json:"url,omitempty"`
	APIKey    string   `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Binary    string   `yaml:"binary,omitempty" json:"binary,omitempty"`
	Args      []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// CompletionReviewConfig controls which reviewers run and how many
// reviews a session may trigger. DebounceSeconds is loaded and merged
// but nothing reads it; no debounce is applied between reviews.
type CompletionReviewConfig struct {
	IncludeSelfReview     bool `yaml:"include_self_review" json:"include_self_review"`
	IncludeExternalReview bool `yaml:"include_external_review" json:"include_external_review"`
	MaxReviews            int  `yaml:"max_reviews" json:"max_reviews"`
	DebounceSeconds       int  `yaml:"debounce_seconds" json:"debounce_seconds"`
}

// DebateConfig controls the DebateEngine.
type DebateConfig struct {
	Enabled                bool `yaml:"enabled" json:"enabled"`
	MaxRounds              int  `yaml:"max_rounds" json:"max_rounds"`
	TriggerOnDisagreement  bool `yaml:"trigger_on_disagreement" json:"trigger_on_disagreement"`
	TriggerOnSevereFinding bool `yaml:"trigger_on_high" json:"trigger_on_high"`
}

// ConflictResolutionConfig holds the weighted-vote weights, by adapter
// name.
type ConflictResolutionConfig struct {
	Weights map[string]float64 `yaml:"weights" json:"weights"`
}

// SecurityConfig controls secret masking. Subprocess input sanitization
// is always applied and has no setting here.
type SecurityConfig struct {
	MaskSensitiveData bool     `yaml:"mask_sensitive_data" json:"mask_sensitive_data"`
	SensitivePatterns []string `yaml:"sensitive_patterns" json:"sensitive_patterns"`
}

// SelfReviewConfig controls the self-review adapter.
type SelfReviewConfig struct {
	UseSubagent bool `yaml:"use_subagent" json:"use_subagent"`
}

const (
	defaultStateDir        = ".claude/completion-review"
	defaultMaxReviews      = 3
	defaultDebounceSeconds = 30
	defaultMaxRounds       = 3
	defaultTimeoutSeconds  = 60
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		StateDir:        defaultStateDir,
		Verbose:         false,
		EnabledAdapters: nil,
		Adapters:        map[string]AdapterConfig{},
		CompletionReview: CompletionReviewConfig{
			IncludeSelfReview:     true,
			IncludeExternalReview: true,
			MaxReviews:            defaultMaxReviews,
			DebounceSeconds:       defaultDebounceSeconds,
		},
		Debate: DebateConfig{
			Enabled:                true,
			MaxRounds:              defaultMaxRounds,
			TriggerOnDisagreement:  true,
			TriggerOnSevereFinding: true,
		},
		ConflictResolution: ConflictResolutionConfig{
			Weights: map[string]float64{},
		},
		Security: SecurityConfig{
			MaskSensitiveData: true,
			SensitivePatterns: []string{
				"password", "api_key", "secret", "token", "credential",
				"private_key", "access_key", "auth_token",
			},
		},
		TimeoutSeconds: defaultTimeoutSeconds,
		SelfReview:     SelfReviewConfig{UseSubagent: false},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	if homeConfig, err := loadFromPath(homeConfigPath()); err == nil && homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	if projectConfig, err := loadFromPath(projectConfigPath()); err == nil && projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "completion-review.yaml")
}

func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("COMPLETION_REVIEW_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".claude", "completion-review.yaml")
}

// loadFromPath loads config from a YAML file. A missing file is not an
// error — it simply contributes nothing to the merge chain, matching
// the hook's "absent config means defaults" invariant.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("COMPLETION_REVIEW_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("COMPLETION_REVIEW_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("COMPLETION_REVIEW_ENABLED_ADAPTERS"); v != "" {
		cfg.EnabledAdapters = strings.Split(v, ",")
	}
	if v := os.Getenv("COMPLETION_REVIEW_MAX_REVIEWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CompletionReview.MaxReviews = n
		}
	}
	if v := os.Getenv("COMPLETION_REVIEW_DEBATE_ENABLED"); v != "" {
		cfg.Debate.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("COMPLETION_REVIEW_INCLUDE_SELF_REVIEW"); v != "" {
		cfg.CompletionReview.IncludeSelfReview = v == "true" || v == "1"
	}
	if v := os.Getenv("COMPLETION_REVIEW_INCLUDE_EXTERNAL_REVIEW"); v != "" {
		cfg.CompletionReview.IncludeExternalReview = v == "true" || v == "1"
	}
	if v := os.Getenv("COMPLETION_REVIEW_MASK_SENSITIVE_DATA"); v != "" {
		cfg.Security.MaskSensitiveData = v == "true" || v == "1"
	}
	if v := os.Getenv("COMPLETION_REVIEW_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
	return cfg
}

// merge merges src into dst, with non-zero-value src fields taking
// precedence. Maps are merged key-by-key rather than replaced wholesale,
// so a project config can add one adapter without erasing the home
// config's others.
func merge(dst, src *Config) *Config {
	if src.StateDir != "" {
		dst.StateDir = src.StateDir
	}
	if src.Verbose {
		dst.Verbose = true
	}
	if len(src.EnabledAdapters) > 0 {
		dst.EnabledAdapters = src.EnabledAdapters
	}
	for name, ac := range src.Adapters {
		if dst.Adapters == nil {
			dst.Adapters = map[string]AdapterConfig{}
		}
		dst.Adapters[name] = ac
	}
	if src.CompletionReview.IncludeSelfReview {
		dst.CompletionReview.IncludeSelfReview = true
	}
	if src.CompletionReview.IncludeExternalReview {
		dst.CompletionReview.IncludeExternalReview = true
	}
	if src.CompletionReview.MaxReviews != 0 {
		dst.CompletionReview.MaxReviews = src.CompletionReview.MaxReviews
	}
	if src.CompletionReview.DebounceSeconds != 0 {
		dst.CompletionReview.DebounceSeconds = src.CompletionReview.DebounceSeconds
	}
	if src.Debate.Enabled {
		dst.Debate.Enabled = true
	}
	if src.Debate.MaxRounds != 0 {
		dst.Debate.MaxRounds = src.Debate.MaxRounds
	}
	if src.Debate.TriggerOnDisagreement {
		dst.Debate.TriggerOnDisagreement = true
	}
	if src.Debate.TriggerOnSevereFinding {
		dst.Debate.TriggerOnSevereFinding = true
	}
	for name, w := range src.ConflictResolution.Weights {
		if dst.ConflictResolution.Weights == nil {
			dst.ConflictResolution.Weights = map[string]float64{}
		}
		dst.ConflictResolution.Weights[name] = w
	}
	if src.Security.MaskSensitiveData {
		dst.Security.MaskSensitiveData = true
	}
	if len(src.Security.SensitivePatterns) > 0 {
		dst.Security.SensitivePatterns = src.Security.SensitivePatterns
	}
	if src.TimeoutSeconds != 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if src.SelfReview.UseSubagent {
		dst.SelfReview.UseSubagent = true
	}
	return dst
}
