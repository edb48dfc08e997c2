package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// OperationalConfig holds settings an operator may change without a redeploy:
// scheduler cadence, job toggles, and the letterhead printed on statements.
type OperationalConfig struct {
	RunInterval     time.Duration `mapstructure:"runInterval"`
	LockTTL         time.Duration `mapstructure:"lockTTL"`
	DisabledJobs    []string      `mapstructure:"disabledJobs"`
	StatementIssuer Issuer        `mapstructure:"statementIssuer"`
}

type Issuer struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	Email   string `mapstructure:"email"`
}

func DefaultOperationalConfig() OperationalConfig {
	return OperationalConfig{
		RunInterval: time.Hour,
		LockTTL:     5 * time.Minute,
		StatementIssuer: Issuer{
			Name: "HubSpaces",
		},
	}
}

func (c OperationalConfig) JobEnabled(name string) bool {
	for _, disabled := range c.DisabledJobs {
		if strings.EqualFold(strings.TrimSpace(disabled), name) {
			return false
		}
	}
	return true
}

// OperationalHolder serves the current OperationalConfig and hot-reloads it
// when the backing file changes.
type OperationalHolder struct {
	current atomic.Value // holds OperationalConfig
}

func NewOperationalHolder(log *zap.Logger) (*OperationalHolder, error) {
	log = log.Named("config.operations")

	v := viper.New()

	v.SetConfigName("operations")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/billingd")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BILLINGD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultOperationalConfig()
	v.SetDefault("operations.runInterval", defaults.RunInterval)
	v.SetDefault("operations.lockTTL", defaults.LockTTL)
	v.SetDefault("operations.statementIssuer", defaults.StatementIssuer)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg OperationalConfig
	if err := v.UnmarshalKey("operations", &cfg); err != nil {
		return nil, err
	}
	if err := validateOperationalConfig(cfg); err != nil {
		return nil, err
	}

	holder := &OperationalHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated OperationalConfig
		if err := v.UnmarshalKey("operations", &updated); err != nil {
			log.Warn("operational config reload failed", zap.Error(err))
			return
		}
		if err := validateOperationalConfig(updated); err != nil {
			log.Warn("invalid operational config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("operational config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticOperationalHolder wraps a fixed config with no file watching.
func NewStaticOperationalHolder(cfg OperationalConfig) *OperationalHolder {
	holder := &OperationalHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *OperationalHolder) Get() OperationalConfig {
	return h.current.Load().(OperationalConfig)
}

func validateOperationalConfig(cfg OperationalConfig) error {
	if cfg.RunInterval < 0 {
		return errors.New("operations.runInterval cannot be negative")
	}
	if cfg.LockTTL < 0 {
		return errors.New("operations.lockTTL cannot be negative")
	}
	return nil
}
