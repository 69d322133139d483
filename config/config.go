package config

import (
	"os"
	"time"

	"github.com/rohanthewiz/logger"
)

const (
	// Default Anthropic API URL
	defaultAnthropicAPIURL = "https://api.anthropic.com/v1/messages"
	defaultModel           = "claude-3-5-sonnet-20241022"
)

// ClassifierConfig holds the tuned constants of the classification tiers.
// The defaults come from product tuning, not derivation; deployments
// override them in cscx.yaml rather than editing code.
type ClassifierConfig struct {
	PhraseConfidence  float64             `yaml:"phrase_confidence"`
	FuzzyBase         float64             `yaml:"fuzzy_base"`
	FuzzyCeiling      float64             `yaml:"fuzzy_ceiling"`
	FallbackThreshold float64             `yaml:"fallback_threshold"`
	AmbiguityFloor    float64             `yaml:"ambiguity_floor"`
	ContextBoost      float64             `yaml:"context_boost"`
	LLMTimeout        time.Duration       `yaml:"-"`
	Synonyms          map[string][]string `yaml:"synonyms,omitempty"`
}

// GateConfig controls the approval gate and autonomous execution.
type GateConfig struct {
	// Autonomous lets plans at or under the risk ceiling start executing
	// without human sign-off. Individual steps above the ceiling still pause.
	Autonomous          bool          `yaml:"autonomous"`
	AutonomousRiskLimit string        `yaml:"autonomous_risk_limit"`
	ExecutorTimeout     time.Duration `yaml:"-"`
}

// LLMConfig holds settings for the text-completion collaborator.
type LLMConfig struct {
	APIURL    string `yaml:"api_url"`
	APIKey    string `yaml:"-"` // env only, never from file
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// Config holds application configuration
type Config struct {
	Address    string           `yaml:"address"`
	DBPath     string           `yaml:"db_path"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Gate       GateConfig       `yaml:"gate"`
	LLM        LLMConfig        `yaml:"llm"`
}

// globalConfig holds the application configuration instance
var globalConfig *Config

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Address: ":8010",
		Classifier: ClassifierConfig{
			PhraseConfidence:  0.95,
			FuzzyBase:         0.45,
			FuzzyCeiling:      0.90,
			FallbackThreshold: 0.70,
			AmbiguityFloor:    0.30,
			ContextBoost:      0.15,
			LLMTimeout:        20 * time.Second,
		},
		Gate: GateConfig{
			Autonomous:          false,
			AutonomousRiskLimit: "low",
			ExecutorTimeout:     60 * time.Second,
		},
		LLM: LLMConfig{
			APIURL:    defaultAnthropicAPIURL,
			Model:     defaultModel,
			MaxTokens: 1024,
		},
	}
}

// Initialize sets up the configuration from defaults, an optional YAML file,
// and environment variable overrides, in that precedence order.
func Initialize() {
	cfg := Defaults()

	path := os.Getenv("CSCX_CONFIG")
	if path == "" {
		path = "cscx.yaml"
	}
	if err := loadFile(cfg, path); err != nil {
		if !os.IsNotExist(err) {
			logger.LogErr(err, "failed to load config file", "path", path)
		}
	} else {
		logger.Info("Loaded config file", "path", path)
	}

	applyEnv(cfg)
	globalConfig = cfg
}

// Get returns the global configuration instance
func Get() *Config {
	if globalConfig == nil {
		Initialize()
	}
	return globalConfig
}

// applyEnv overlays environment variables onto the config.
func applyEnv(cfg *Config) {
	if addr := os.Getenv("CSCX_ADDR"); addr != "" {
		cfg.Address = addr
	}
	if dbPath := os.Getenv("CSCX_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	// MSG_PROXY routes LLM calls through a local proxy when set
	if proxyURL := os.Getenv("MSG_PROXY"); proxyURL != "" {
		cfg.LLM.APIURL = proxyURL + "/v1/messages"
	}
	if os.Getenv("CSCX_AUTONOMOUS") == "true" {
		cfg.Gate.Autonomous = true
	}
}
