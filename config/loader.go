package config

import (
	"os"
	"time"

	"github.com/rohanthewiz/serr"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML decoding. Durations are strings in the
// file ("30s", "2m") and parsed into the real config.
type fileConfig struct {
	Address    string `yaml:"address"`
	DBPath     string `yaml:"db_path"`
	Classifier struct {
		PhraseConfidence  *float64            `yaml:"phrase_confidence"`
		FuzzyBase         *float64            `yaml:"fuzzy_base"`
		FuzzyCeiling      *float64            `yaml:"fuzzy_ceiling"`
		FallbackThreshold *float64            `yaml:"fallback_threshold"`
		AmbiguityFloor    *float64            `yaml:"ambiguity_floor"`
		ContextBoost      *float64            `yaml:"context_boost"`
		LLMTimeout        string              `yaml:"llm_timeout"`
		Synonyms          map[string][]string `yaml:"synonyms"`
	} `yaml:"classifier"`
	Gate struct {
		Autonomous          *bool  `yaml:"autonomous"`
		AutonomousRiskLimit string `yaml:"autonomous_risk_limit"`
		ExecutorTimeout     string `yaml:"executor_timeout"`
	} `yaml:"gate"`
	LLM struct {
		APIURL    string `yaml:"api_url"`
		Model     string `yaml:"model"`
		MaxTokens *int   `yaml:"max_tokens"`
	} `yaml:"llm"`
}

// loadFile merges a YAML config file into cfg. Missing files surface as
// os.IsNotExist so the caller can treat them as optional.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return serr.Wrap(err, "failed to parse config file")
	}

	if fc.Address != "" {
		cfg.Address = fc.Address
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}

	cc := &cfg.Classifier
	setFloat(&cc.PhraseConfidence, fc.Classifier.PhraseConfidence)
	setFloat(&cc.FuzzyBase, fc.Classifier.FuzzyBase)
	setFloat(&cc.FuzzyCeiling, fc.Classifier.FuzzyCeiling)
	setFloat(&cc.FallbackThreshold, fc.Classifier.FallbackThreshold)
	setFloat(&cc.AmbiguityFloor, fc.Classifier.AmbiguityFloor)
	setFloat(&cc.ContextBoost, fc.Classifier.ContextBoost)
	if err := setDuration(&cc.LLMTimeout, fc.Classifier.LLMTimeout); err != nil {
		return serr.Wrap(err, "invalid classifier.llm_timeout")
	}
	if len(fc.Classifier.Synonyms) > 0 {
		cc.Synonyms = fc.Classifier.Synonyms
	}

	gc := &cfg.Gate
	if fc.Gate.Autonomous != nil {
		gc.Autonomous = *fc.Gate.Autonomous
	}
	if fc.Gate.AutonomousRiskLimit != "" {
		gc.AutonomousRiskLimit = fc.Gate.AutonomousRiskLimit
	}
	if err := setDuration(&gc.ExecutorTimeout, fc.Gate.ExecutorTimeout); err != nil {
		return serr.Wrap(err, "invalid gate.executor_timeout")
	}

	if fc.LLM.APIURL != "" {
		cfg.LLM.APIURL = fc.LLM.APIURL
	}
	if fc.LLM.Model != "" {
		cfg.LLM.Model = fc.LLM.Model
	}
	if fc.LLM.MaxTokens != nil {
		cfg.LLM.MaxTokens = *fc.LLM.MaxTokens
	}

	return nil
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src string) error {
	if src == "" {
		return nil
	}
	d, err := time.ParseDuration(src)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
