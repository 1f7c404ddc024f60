package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsRelease reports whether the server runs in production (gin release) mode.
func (s *ServerConfig) IsRelease() bool {
	return s.Mode == "release"
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	ConnectRetries  int    `mapstructure:"connect_retries"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type PasswordConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type JWTConfig struct {
	Secret         string `mapstructure:"secret"`
	SessionExpDays int    `mapstructure:"session_exp_days"`
	Issuer         string `mapstructure:"issuer"`
}

type AuthConfig struct {
	Password PasswordConfig `mapstructure:"password"`
	JWT      JWTConfig      `mapstructure:"jwt"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// TenancyConfig controls how inbound requests are bound to a tenant.
type TenancyConfig struct {
	ApexDomains         []string `mapstructure:"apex_domains"`
	OperatorHosts       []string `mapstructure:"operator_hosts"`
	ReservedSubdomains  []string `mapstructure:"reserved_subdomains"`
	OverrideHeader      string   `mapstructure:"override_header"`
	AllowOverrideHeader bool     `mapstructure:"allow_override_header"`
	TrustForwardedHost  bool     `mapstructure:"trust_forwarded_host"`
	PublicPaths         []string `mapstructure:"public_paths"`
	UpgradeURL          string   `mapstructure:"upgrade_url"`
	CacheTTLSeconds     int      `mapstructure:"cache_ttl_seconds"`
	DefaultPlan         string   `mapstructure:"default_plan"`
	DefaultTrialDays    int      `mapstructure:"default_trial_days"`
	PlanCatalogPath     string   `mapstructure:"plan_catalog_path"`
	BizTimezone         string   `mapstructure:"biz_timezone"`
}

func (t *TenancyConfig) CacheTTL() time.Duration {
	if t.CacheTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(t.CacheTTLSeconds) * time.Second
}

// UsageSourceConfig names the tables counted when usage is reconciled.
type UsageSourceConfig struct {
	RecordsTable      string `mapstructure:"records_table"`
	RecordsDateColumn string `mapstructure:"records_date_column"`
	StorageTable      string `mapstructure:"storage_table"`
	StorageSizeColumn string `mapstructure:"storage_size_column"`
}

type QuotaConfig struct {
	Source                   UsageSourceConfig `mapstructure:"source"`
	ReconcileIntervalMinutes int               `mapstructure:"reconcile_interval_minutes"`
	ReconcileConcurrency     int               `mapstructure:"reconcile_concurrency"`
}

type AuditConfig struct {
	RetentionDays    int    `mapstructure:"retention_days"`
	DispatcherBuffer int    `mapstructure:"dispatcher_buffer"`
	SweepCron        string `mapstructure:"sweep_cron"`
}

func (a *AuditConfig) RetentionHorizon() time.Duration {
	days := a.RetentionDays
	if days <= 0 {
		days = 180
	}
	return time.Duration(days) * 24 * time.Hour
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	LocalCapacity     int  `mapstructure:"local_capacity"`
}

type PermissionConfig struct {
	ModelPath string `mapstructure:"model_path"`
}
