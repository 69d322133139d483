package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Classifier.PhraseConfidence != 0.95 {
		t.Errorf("expected phrase confidence 0.95, got %v", cfg.Classifier.PhraseConfidence)
	}
	if cfg.Classifier.FallbackThreshold != 0.70 {
		t.Errorf("expected fallback threshold 0.70, got %v", cfg.Classifier.FallbackThreshold)
	}
	if cfg.Classifier.AmbiguityFloor != 0.30 {
		t.Errorf("expected ambiguity floor 0.30, got %v", cfg.Classifier.AmbiguityFloor)
	}
	if cfg.Classifier.ContextBoost != 0.15 {
		t.Errorf("expected context boost 0.15, got %v", cfg.Classifier.ContextBoost)
	}
	if cfg.Gate.Autonomous {
		t.Error("autonomous mode should be off by default")
	}
}

func TestLoadFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cscx.yaml")
	content := `
address: ":9000"
classifier:
  fallback_threshold: 0.5
  llm_timeout: 5s
  synonyms:
    create: [assemble]
gate:
  autonomous: true
  autonomous_risk_limit: medium
  executor_timeout: 90s
llm:
  model: test-model
  max_tokens: 256
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadFile(cfg, path); err != nil {
		t.Fatalf("loadFile failed: %v", err)
	}

	if cfg.Address != ":9000" {
		t.Errorf("expected address :9000, got %s", cfg.Address)
	}
	if cfg.Classifier.FallbackThreshold != 0.5 {
		t.Errorf("expected fallback threshold 0.5, got %v", cfg.Classifier.FallbackThreshold)
	}
	if cfg.Classifier.LLMTimeout != 5*time.Second {
		t.Errorf("expected llm timeout 5s, got %v", cfg.Classifier.LLMTimeout)
	}
	if cfg.Classifier.Synonyms["create"][0] != "assemble" {
		t.Error("expected synonym override to load")
	}
	if !cfg.Gate.Autonomous || cfg.Gate.AutonomousRiskLimit != "medium" {
		t.Error("expected gate overrides to load")
	}
	if cfg.Gate.ExecutorTimeout != 90*time.Second {
		t.Errorf("expected executor timeout 90s, got %v", cfg.Gate.ExecutorTimeout)
	}
	if cfg.LLM.Model != "test-model" || cfg.LLM.MaxTokens != 256 {
		t.Error("expected llm overrides to load")
	}
	// Untouched fields keep their defaults
	if cfg.Classifier.PhraseConfidence != 0.95 {
		t.Errorf("expected phrase confidence default preserved, got %v", cfg.Classifier.PhraseConfidence)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Defaults()
	err := loadFile(cfg, filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Errorf("expected IsNotExist error, got %v", err)
	}
}
