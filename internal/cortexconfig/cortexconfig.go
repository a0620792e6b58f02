// Package cortexconfig owns the engine's configuration: a viper-backed
// singleton seeded with defaults and overridable by CORTEX_* environment
// variables and .memory/config.yaml, plus a direct-YAML fast path for
// callers that need to read config.yaml before (or without) initializing
// viper.
package cortexconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config keys, dotted per viper convention.
const (
	KeyLineBudgetTotal           = "surface.line-budget.total"
	KeyLineBudgetArchitecture    = "surface.line-budget.architecture"
	KeyLineBudgetDecision        = "surface.line-budget.decision"
	KeyLineBudgetPattern         = "surface.line-budget.pattern"
	KeyLineBudgetGotcha          = "surface.line-budget.gotcha"
	KeyLineBudgetContext         = "surface.line-budget.context"
	KeyLineBudgetProgress        = "surface.line-budget.progress"
	KeyLineBudgetCodeDescription = "surface.line-budget.code-description"

	KeyRecencyHalfLifeDays  = "ranking.recency-half-life-days"
	KeyTokenTargetPerCall   = "extract.token-target-per-call"
	KeyMaxConsolidatePasses = "consolidate.max-passes"
	KeyLockTimeout          = "lock.timeout"
	KeyEmbeddingModel       = "embed.remote-model"
	KeyLocalEmbeddingModel  = "embed.local-model"
)

var (
	mu   sync.Mutex
	v    *viper.Viper
	once sync.Once
)

// registerDefaults seeds every tunable with its default value.
func registerDefaults(vv *viper.Viper) {
	vv.SetDefault(KeyLineBudgetTotal, 200)
	vv.SetDefault(KeyLineBudgetArchitecture, 40)
	vv.SetDefault(KeyLineBudgetDecision, 40)
	vv.SetDefault(KeyLineBudgetPattern, 40)
	vv.SetDefault(KeyLineBudgetGotcha, 40)
	vv.SetDefault(KeyLineBudgetContext, 20)
	vv.SetDefault(KeyLineBudgetProgress, 20)
	vv.SetDefault(KeyLineBudgetCodeDescription, 20)

	vv.SetDefault(KeyRecencyHalfLifeDays, 14)
	vv.SetDefault(KeyTokenTargetPerCall, 4000)
	vv.SetDefault(KeyMaxConsolidatePasses, 3)
	vv.SetDefault(KeyLockTimeout, "30s")
	vv.SetDefault(KeyEmbeddingModel, "voyage-3")
	vv.SetDefault(KeyLocalEmbeddingModel, "all-MiniLM-L6-v2")
}

// Init initializes the config singleton rooted at memoryDir (the project's
// .memory directory), reading config.yaml if present and applying CORTEX_*
// env overrides. Safe to call more than once; subsequent calls re-init with
// the new memoryDir.
func Init(memoryDir string) error {
	mu.Lock()
	defer mu.Unlock()

	vv := viper.New()
	registerDefaults(vv)
	vv.SetEnvPrefix("CORTEX")
	vv.AutomaticEnv()

	vv.SetConfigName("config")
	vv.SetConfigType("yaml")
	if memoryDir != "" {
		vv.AddConfigPath(memoryDir)
	}
	if err := vv.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("cortexconfig: read config.yaml: %w", err)
		}
	}

	v = vv
	return nil
}

func singleton() *viper.Viper {
	once.Do(func() {
		if v == nil {
			v = viper.New()
			registerDefaults(v)
			v.SetEnvPrefix("CORTEX")
			v.AutomaticEnv()
		}
	})
	mu.Lock()
	defer mu.Unlock()
	return v
}

// GetInt returns the int value for key.
func GetInt(key string) int { return singleton().GetInt(key) }

// GetString returns the string value for key.
func GetString(key string) string { return singleton().GetString(key) }

// GetDuration returns the time.Duration value for key.
func GetDuration(key string) time.Duration { return singleton().GetDuration(key) }

// LocalConfig is the subset of config.yaml read directly, bypassing viper,
// for callers that need config before Init runs or from a different
// .memory directory than the one viper was initialized with.
type LocalConfig struct {
	LineBudgetTotal int    `yaml:"line-budget-total"`
	EmbeddingModel  string `yaml:"embed-model"`
}

// LoadLocalConfig reads .memory/config.yaml directly from memoryDir. Returns
// an empty (not nil) LocalConfig if the file is absent or malformed.
func LoadLocalConfig(memoryDir string) *LocalConfig {
	path := filepath.Join(memoryDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return &LocalConfig{}
	}
	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}
