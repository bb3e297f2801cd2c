package config

import "time"

type AuthConfig struct {
	Secret    string `mapstructure:"secret" validate:"required"`
	ExpiryMin int    `mapstructure:"expiry_min"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
}

type RabbitMQConfig struct {
	BrokerLink   string `mapstructure:"broker_link" validate:"required"`
	ExchangeName string `mapstructure:"exchange_name"`
	ExchangeType string `mapstructure:"exchange_type"`
	RoutingKey   string `mapstructure:"routing_key"`
}

// SchedulerConfig drives the background loop that pops due routes from
// the redis schedule set.
type SchedulerConfig struct {
	Interval          time.Duration `mapstructure:"interval"`
	BatchSize         int           `mapstructure:"batch_size"`
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout"`
	WorkerCount       int           `mapstructure:"worker_count"`
}

type ReclaimerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Limit    int           `mapstructure:"limit"`
}

type QuotaConfig struct {
	DailyLimit int32 `mapstructure:"daily_limit" validate:"gte=1"`
}

type PollConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	RetryBudget     int64         `mapstructure:"retry_budget"`
}

type BaselineConfig struct {
	MinSessions int `mapstructure:"min_sessions" validate:"gte=1"`
}

type RetentionConfig struct {
	MaxAge    time.Duration `mapstructure:"max_age"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

type TripleTestConfig struct {
	ShotCount   int           `mapstructure:"shot_count" validate:"gte=1"`
	ShotSpacing time.Duration `mapstructure:"shot_spacing"`
	ShotTimeout time.Duration `mapstructure:"shot_timeout"`
}

type HolidayConfig struct {
	Dates []string `mapstructure:"dates"` // YYYY-MM-DD
}

// ProviderConfig declares one travel time provider endpoint.
type ProviderConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"required"`
	APIKey  string `mapstructure:"api_key"`
}

type Config struct {
	Port        int              `mapstructure:"port"`
	Env         string           `mapstructure:"env"`
	ServiceName string           `mapstructure:"service_name"`
	DB          DBConfig         `mapstructure:"db"`
	Redis       RedisConfig      `mapstructure:"redis"`
	RabbitMQ    RabbitMQConfig   `mapstructure:"rabbitmq"`
	Auth        AuthConfig       `mapstructure:"auth"`
	Scheduler   SchedulerConfig  `mapstructure:"scheduler"`
	Reclaimer   ReclaimerConfig  `mapstructure:"reclaimer"`
	Quota       QuotaConfig      `mapstructure:"quota"`
	Poll        PollConfig       `mapstructure:"poll"`
	Baseline    BaselineConfig   `mapstructure:"baseline"`
	Retention   RetentionConfig  `mapstructure:"retention"`
	TripleTest  TripleTestConfig `mapstructure:"tripletest"`
	Holiday     HolidayConfig    `mapstructure:"holiday"`
	Providers   []ProviderConfig `mapstructure:"providers"`
}
