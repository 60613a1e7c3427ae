package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.StateDir != ".claude/completion-review" {
		t.Errorf("Default StateDir = %q, want %q", cfg.StateDir, ".claude/completion-review")
	}
	if cfg.Verbose {
		t.Error("Default Verbose = true, want false")
	}
	if cfg.CompletionReview.MaxReviews != 3 {
		t.Errorf("Default MaxReviews = %d, want 3", cfg.CompletionReview.MaxReviews)
	}
	if !cfg.Debate.Enabled {
		t.Error("Default Debate.Enabled = false, want true")
	}
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("Default TimeoutSeconds = %d, want 60", cfg.TimeoutSeconds)
	}
	if len(cfg.Security.SensitivePatterns) == 0 {
		t.Error("Default Security.SensitivePatterns should not be empty")
	}
	if !cfg.CompletionReview.IncludeSelfReview {
		t.Error("Default CompletionReview.IncludeSelfReview = false, want true")
	}
	if !cfg.CompletionReview.IncludeExternalReview {
		t.Error("Default CompletionReview.IncludeExternalReview = false, want true")
	}
	if !cfg.Security.MaskSensitiveData {
		t.Error("Default Security.MaskSensitiveData = false, want true")
	}
	found := false
	for _, p := range cfg.Security.SensitivePatterns {
		if p == "auth_token" {
			found = true
		}
	}
	if !found {
		t.Error("Default Security.SensitivePatterns should include auth_token")
	}
}

func TestMergeStringAndIntFields(t *testing.T) {
	dst := Default()
	src := &Config{
		StateDir:       "/custom/state",
		TimeoutSeconds: 120,
	}

	result := merge(dst, src)

	if result.StateDir != "/custom/state" {
		t.Errorf("merge StateDir = %q, want %q", result.StateDir, "/custom/state")
	}
	if result.TimeoutSeconds != 120 {
		t.Errorf("merge TimeoutSeconds = %d, want 120", result.TimeoutSeconds)
	}
	// Defaults should be preserved when not overridden.
	if result.CompletionReview.MaxReviews != 3 {
		t.Errorf("merge preserved MaxReviews = %d, want 3", result.CompletionReview.MaxReviews)
	}
}

func TestMergeAdaptersByKey(t *testing.T) {
	dst := Default()
	dst.Adapters["gemini"] = AdapterConfig{Transport: "subprocess", Binary: "gemini"}
	src := &Config{
		Adapters: map[string]AdapterConfig{
			"codex": {Transport: "http", URL: "https://example.invalid/review"},
		},
	}

	result := merge(dst, src)

	if _, ok := result.Adapters["gemini"]; !ok {
		t.Error("merge should preserve the pre-existing gemini adapter")
	}
	if _, ok := result.Adapters["codex"]; !ok {
		t.Error("merge should add the new codex adapter")
	}
}

func TestMergeWeightsByKey(t *testing.T) {
	dst := Default()
	dst.ConflictResolution.Weights["self"] = 1.0
	src := &Config{
		ConflictResolution: ConflictResolutionConfig{
			Weights: map[string]float64{"gemini": 2.0},
		},
	}

	result := merge(dst, src)

	if result.ConflictResolution.Weights["self"] != 1.0 {
		t.Error("merge should preserve the pre-existing self weight")
	}
	if result.ConflictResolution.Weights["gemini"] != 2.0 {
		t.Error("merge should add the new gemini weight")
	}
}

func TestLoadFromPathMissingFileIsNotError(t *testing.T) {
	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("loadFromPath: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config for a missing file, got %+v", cfg)
	}
}

func TestLoadFromPathParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "completion-review.yaml")
	content := "state_dir: /tmp/custom-state\ntimeout_seconds: 90\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath: %v", err)
	}
	if cfg.StateDir != "/tmp/custom-state" {
		t.Errorf("StateDir = %q, want %q", cfg.StateDir, "/tmp/custom-state")
	}
	if cfg.TimeoutSeconds != 90 {
		t.Errorf("TimeoutSeconds = %d, want 90", cfg.TimeoutSeconds)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("COMPLETION_REVIEW_STATE_DIR", "/env/state")
	t.Setenv("COMPLETION_REVIEW_MAX_REVIEWS", "7")
	t.Setenv("COMPLETION_REVIEW_VERBOSE", "1")

	cfg := applyEnv(Default())

	if cfg.StateDir != "/env/state" {
		t.Errorf("StateDir = %q, want %q", cfg.StateDir, "/env/state")
	}
	if cfg.CompletionReview.MaxReviews != 7 {
		t.Errorf("MaxReviews = %d, want 7", cfg.CompletionReview.MaxReviews)
	}
	if !cfg.Verbose {
		t.Error("expected Verbose=true from env override")
	}
}

func TestApplyEnvOverridesCompletionAndSecurityToggles(t *testing.T) {
	t.Setenv("COMPLETION_REVIEW_INCLUDE_SELF_REVIEW", "0")
	t.Setenv("COMPLETION_REVIEW_INCLUDE_EXTERNAL_REVIEW", "false")
	t.Setenv("COMPLETION_REVIEW_MASK_SENSITIVE_DATA", "0")

	cfg := applyEnv(Default())

	if cfg.CompletionReview.IncludeSelfReview {
		t.Error("expected IncludeSelfReview=false from env override")
	}
	if cfg.CompletionReview.IncludeExternalReview {
		t.Error("expected IncludeExternalReview=false from env override")
	}
	if cfg.Security.MaskSensitiveData {
		t.Error("expected MaskSensitiveData=false from env override")
	}
}
