package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// Config is the full process configuration, shared by every subcommand.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	MySQL    DatabaseConfig `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Shopify  ShopifyConfig  `mapstructure:"shopify"`
	Producer ProducerConfig `mapstructure:"producer"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Recovery RecoveryConfig `mapstructure:"recovery"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type HTTPConfig struct {
	Addr   string `mapstructure:"addr"`
	APIKey string `mapstructure:"api_key"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	GroupID        string   `mapstructure:"group_id"`
	TopicPrefix    string   `mapstructure:"topic_prefix"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

type ShopifyConfig struct {
	APIVersion string `mapstructure:"api_version"`
	TimeoutMs  int    `mapstructure:"timeout_ms"`
	PageLimit  int    `mapstructure:"page_limit"`
}

type ProducerConfig struct {
	Interval          time.Duration `mapstructure:"interval"`
	TenantParallelism int           `mapstructure:"tenant_parallelism"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
}

type WorkerConfig struct {
	Count       int `mapstructure:"count"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

type BreakerConfig struct {
	FailThreshold int `mapstructure:"fail_threshold" yaml:"fail_threshold"`
	OpenForMs     int `mapstructure:"open_for_ms"    yaml:"open_for_ms"`
}

type RecoveryProviderConfig struct {
	Name      string        `mapstructure:"name"`
	Enabled   bool          `mapstructure:"enabled"`
	URL       string        `mapstructure:"url"`
	TimeoutMs int           `mapstructure:"timeout_ms"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

type RecoveryConfig struct {
	MaxAttempts int                      `mapstructure:"max_attempts"`
	Providers   []RecoveryProviderConfig `mapstructure:"providers"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (XENO_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (XENO_*)
	v.SetEnvPrefix("XENO")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateCore checks settings every pipeline process needs. Missing
// credentials are fatal at startup only, never mid-run.
func (c Config) ValidateCore() error {
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}
	return nil
}
