package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the tunables of the billing pipeline. The slip
// creation delay exists to let the request-time invoice-number commit
// settle before the background job re-reads the invoice.
type BillingConfig struct {
	SlipCreationDelay time.Duration `mapstructure:"slipCreationDelay"`
	GenerationCron    string        `mapstructure:"generationCron"`
	ValidationCron    string        `mapstructure:"validationCron"`
	WorkerPoolSize    int           `mapstructure:"workerPoolSize"`
	PollInterval      time.Duration `mapstructure:"pollInterval"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		SlipCreationDelay: 30 * time.Second,
		GenerationCron:    "0 10 * * *",
		ValidationCron:    "0 11 * * *",
		WorkerPoolSize:    4,
		PollInterval:      time.Second,
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

// NewBillingConfigHolder reads billing.yml and keeps watching it so the
// pipeline tunables can change without a restart.
func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/snarf/config")
	v.AddConfigPath("/etc/snarf")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SNARF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.slipCreationDelay", defaults.SlipCreationDelay)
	v.SetDefault("billing.generationCron", defaults.GenerationCron)
	v.SetDefault("billing.validationCron", defaults.ValidationCron)
	v.SetDefault("billing.workerPoolSize", defaults.WorkerPoolSize)
	v.SetDefault("billing.pollInterval", defaults.PollInterval)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	if watch {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated BillingConfig
			if err := v.UnmarshalKey("billing", &updated); err != nil {
				log.Printf("[billing-config] reload failed: %v", err)
				return
			}
			if err := validateBillingConfig(updated); err != nil {
				log.Printf("[billing-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[billing-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

// NewTestBillingConfigHolder wraps a fixed config without file watching.
func NewTestBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.SlipCreationDelay < 0 {
		return errors.New("billing.slipCreationDelay cannot be negative")
	}
	if cfg.WorkerPoolSize <= 0 {
		return errors.New("billing.workerPoolSize must be positive")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("billing.pollInterval must be positive")
	}
	return nil
}
