package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/spendwise/spendwise/internal/shared/config"
)

type Config struct {
	Server     sharedConfig.ServerConfig     `mapstructure:"server"`
	Database   sharedConfig.DatabaseConfig   `mapstructure:"database"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Auth       sharedConfig.AuthConfig       `mapstructure:"auth"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	Tenancy    sharedConfig.TenancyConfig    `mapstructure:"tenancy"`
	Quota      sharedConfig.QuotaConfig      `mapstructure:"quota"`
	Audit      sharedConfig.AuditConfig      `mapstructure:"audit"`
	RateLimit  sharedConfig.RateLimitConfig  `mapstructure:"ratelimit"`
	Permission sharedConfig.PermissionConfig `mapstructure:"permission"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("SPENDWISE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The override header is a development aid; production traffic never honours it.
	if config.Server.IsRelease() {
		config.Tenancy.AllowOverrideHeader = false
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "spendwise_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)
	viper.SetDefault("database.connect_retries", 5)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	viper.SetDefault("auth.password.bcrypt_cost", 12)
	viper.SetDefault("auth.jwt.secret", "change-me-in-production")
	viper.SetDefault("auth.jwt.session_exp_days", 7)
	viper.SetDefault("auth.jwt.issuer", "spendwise")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("tenancy.apex_domains", []string{"spendwise.local"})
	viper.SetDefault("tenancy.operator_hosts", []string{"admin.spendwise.local"})
	viper.SetDefault("tenancy.reserved_subdomains", []string{
		"www", "admin", "api", "app", "mail", "static", "cdn", "docs",
		"status", "support", "billing", "auth", "dashboard",
	})
	viper.SetDefault("tenancy.override_header", "X-Tenant-Slug")
	viper.SetDefault("tenancy.allow_override_header", false)
	viper.SetDefault("tenancy.trust_forwarded_host", false)
	viper.SetDefault("tenancy.public_paths", []string{"/health", "/metrics", "/auth/login"})
	viper.SetDefault("tenancy.upgrade_url", "/billing/upgrade")
	viper.SetDefault("tenancy.cache_ttl_seconds", 30)
	viper.SetDefault("tenancy.default_plan", "free")
	viper.SetDefault("tenancy.default_trial_days", 14)
	viper.SetDefault("tenancy.plan_catalog_path", "./configs/plans.yaml")
	viper.SetDefault("tenancy.biz_timezone", "UTC")

	viper.SetDefault("quota.source.records_table", "expenses")
	viper.SetDefault("quota.source.records_date_column", "created_at")
	viper.SetDefault("quota.source.storage_table", "attachments")
	viper.SetDefault("quota.source.storage_size_column", "size_bytes")
	viper.SetDefault("quota.reconcile_interval_minutes", 60)
	viper.SetDefault("quota.reconcile_concurrency", 4)

	viper.SetDefault("audit.retention_days", 180)
	viper.SetDefault("audit.dispatcher_buffer", 1024)
	viper.SetDefault("audit.sweep_cron", "30 3 * * *")

	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.requests_per_minute", 600)
	viper.SetDefault("ratelimit.local_capacity", 10000)

	viper.SetDefault("permission.model_path", "./configs/rbac_model.conf")
}
