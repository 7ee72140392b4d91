// Package config loads agentgate's configuration: file paths, timeouts,
// and the approval/classifier flags that govern a bootstrap. Loading is
// env+file+flag layered via viper, grounded on the teacher's
// cmd/root.go initConfig; the struct's nested-sub-struct shape (one
// struct per concern) is grounded on
// tim-coutinho-agentops/cli/internal/config/config.go.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// IntentConfig locates the declarative intent store.
type IntentConfig struct {
	Path string `mapstructure:"path"`
}

// IgnoreConfig locates the ignore-rule file.
type IgnoreConfig struct {
	Path string `mapstructure:"path"`
}

// LockConfig tunes LockManager's reaper.
type LockConfig struct {
	ReapInterval time.Duration `mapstructure:"reap_interval"`
}

// SessionConfig tunes SessionRegistry's reaper.
type SessionConfig struct {
	ReapInterval time.Duration `mapstructure:"reap_interval"`
}

// TraceConfig locates the trace journal and its optional SQLite index.
type TraceConfig struct {
	JournalPath   string `mapstructure:"journal_path"`
	IndexPath     string `mapstructure:"index_path"`
	IntentMapPath string `mapstructure:"intent_map_path"`
}

// LessonConfig locates the lesson log.
type LessonConfig struct {
	Path string `mapstructure:"path"`
}

// ApprovalConfig selects the UserApprovalPort implementation.
// Mode is one of "terminal" (interactive, default), "null" (always
// reject, for headless/CI runs), or "always" (always approve, for
// trusted automation).
type ApprovalConfig struct {
	Mode string `mapstructure:"mode"`
}

// MutationConfig gates MutationClassifier's optional LLM-assisted
// backend, off by default.
type MutationConfig struct {
	LLMBackend      bool   `mapstructure:"llm_backend"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	AnthropicModel  string `mapstructure:"anthropic_model"`
}

// FallbackConfig holds FallbackPipeline's settings. HealthCheckInterval
// sets the health-check cadence. BypassDuration is loaded and reported by
// `agentgate config` but is not passed to FallbackPipeline, whose bypass
// window is the fixed pipeline.BypassDuration (60s).
type FallbackConfig struct {
	BypassDuration      time.Duration `mapstructure:"bypass_duration"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
}

// SelectIntentConfig controls select_intent's curated-vs-enhanced
// context default.
type SelectIntentConfig struct {
	Enhanced bool `mapstructure:"enhanced"`
}

// Config holds every setting agentgate's bootstrap needs.
type Config struct {
	StateDir string `mapstructure:"state_dir"`
	RepoRoot string `mapstructure:"repo_root"`

	Intent       IntentConfig       `mapstructure:"intent"`
	Ignore       IgnoreConfig       `mapstructure:"ignore"`
	Lock         LockConfig         `mapstructure:"lock"`
	Session      SessionConfig      `mapstructure:"session"`
	Trace        TraceConfig        `mapstructure:"trace"`
	Lesson       LessonConfig       `mapstructure:"lesson"`
	Approval     ApprovalConfig     `mapstructure:"approval"`
	Mutation     MutationConfig     `mapstructure:"mutation"`
	Fallback     FallbackConfig     `mapstructure:"fallback"`
	SelectIntent SelectIntentConfig `mapstructure:"select_intent"`
}

// Load reads configuration with the teacher's precedence: explicit
// --config file, else ~/.config/agentgate/config.yaml, layered under
// AGENTGATE_*-prefixed environment variables, layered under defaults.
// cfgFile may be empty.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "agentgate"))
		}
		v.AddConfigPath(".agentgate")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("AGENTGATE")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".local", "state", "agentgate")

	v.SetDefault("state_dir", stateDir)
	v.SetDefault("repo_root", ".")

	v.SetDefault("intent.path", filepath.Join(stateDir, "intents.yaml"))
	v.SetDefault("ignore.path", filepath.Join(stateDir, "agentgate.ignore"))
	v.SetDefault("lock.reap_interval", 10*time.Second)
	v.SetDefault("session.reap_interval", 60*time.Second)
	v.SetDefault("trace.journal_path", filepath.Join(stateDir, "trace.jsonl"))
	v.SetDefault("trace.index_path", filepath.Join(stateDir, "trace.db"))
	v.SetDefault("trace.intent_map_path", filepath.Join(stateDir, "intent_map.md"))
	v.SetDefault("lesson.path", filepath.Join(stateDir, "lessons.md"))
	v.SetDefault("approval.mode", "terminal")
	v.SetDefault("mutation.llm_backend", false)
	v.SetDefault("mutation.anthropic_model", "claude-haiku-4-5-20251001")
	v.SetDefault("fallback.bypass_duration", 60*time.Second)
	v.SetDefault("fallback.health_check_interval", 15*time.Second)
	v.SetDefault("select_intent.enhanced", false)
}
