// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Exchange names as they appear in configuration keys.
const (
	Binance  = "binance"
	Bybit    = "bybit"
	WhiteBIT = "whitebit"
	Poloniex = "poloniex"
	JBEX     = "jbex"
)

// ExchangeOrder is the order sources are queried and reported in.
var ExchangeOrder = []string{Binance, JBEX, Poloniex, Bybit, WhiteBIT}

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Exchanges ExchangesConfig `mapstructure:"exchanges"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// ExchangesConfig holds one block per supported exchange.
type ExchangesConfig struct {
	Binance  ExchangeConfig `mapstructure:"binance"`
	Bybit    ExchangeConfig `mapstructure:"bybit"`
	WhiteBIT ExchangeConfig `mapstructure:"whitebit"`
	Poloniex ExchangeConfig `mapstructure:"poloniex"`
	JBEX     ExchangeConfig `mapstructure:"jbex"`
}

// ByName returns the block for an exchange key.
func (e ExchangesConfig) ByName(name string) (ExchangeConfig, bool) {
	switch name {
	case Binance:
		return e.Binance, true
	case Bybit:
		return e.Bybit, true
	case WhiteBIT:
		return e.WhiteBIT, true
	case Poloniex:
		return e.Poloniex, true
	case JBEX:
		return e.JBEX, true
	}
	return ExchangeConfig{}, false
}

// Enabled returns the enabled exchange keys in ExchangeOrder.
func (e ExchangesConfig) Enabled() []string {
	var names []string
	for _, name := range ExchangeOrder {
		if ex, _ := e.ByName(name); ex.Enabled {
			names = append(names, name)
		}
	}
	return names
}

// ExchangeConfig configures one exchange adapter.
type ExchangeConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// FetchConfig holds the retry policy applied to every exchange call.
type FetchConfig struct {
	Attempts int           `mapstructure:"attempts" validate:"gte=1,lte=10"`
	Delay    time.Duration `mapstructure:"delay" validate:"gte=0"`
	// Timeout bounds a whole command; zero means no deadline.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// CatalogConfig holds common pair cache settings.
type CatalogConfig struct {
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
}

// RedisConfig holds the redis connection used by the redis catalog backend.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"gte=0,lte=15"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ArbitrageConfig holds opportunity scan defaults.
type ArbitrageConfig struct {
	MinProfit     float64       `mapstructure:"min_profit" validate:"gte=0"`
	Top           int           `mapstructure:"top" validate:"gte=0"`
	WatchInterval time.Duration `mapstructure:"watch_interval" validate:"gt=0"`
	ScanTimeout   time.Duration `mapstructure:"scan_timeout" validate:"gte=0"`
}

// MinProfitDecimal returns min profit as decimal.Decimal.
func (c *ArbitrageConfig) MinProfitDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfit)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceExporter  string `mapstructure:"trace_exporter" validate:"oneof=otlp-grpc otlp-http zipkin console none"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	ZipkinURL      string `mapstructure:"zipkin_url" validate:"omitempty,url"`
	OTLPMetrics    bool   `mapstructure:"otlp_metrics"`
	PrometheusPort int    `mapstructure:"prometheus_port" validate:"gte=0,lte=65535"`
}

// Headers parses OTLPHeaders ("k1=v1,k2=v2").
func (c *TelemetryConfig) Headers() map[string]string {
	headers := make(map[string]string)
	for _, kv := range strings.Split(c.OTLPHeaders, ",") {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if ok && k != "" {
			headers[k] = strings.TrimSpace(v)
		}
	}
	return headers
}

// HealthConfig holds the watch mode health server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: ARB_EXCHANGES_BINANCE_API_KEY etc.
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Exchanges
	for _, name := range ExchangeOrder {
		upper := strings.ToUpper(name)
		v.BindEnv("exchanges."+name+".enabled", "ARB_"+upper+"_ENABLED", upper+"_ENABLED")
		v.BindEnv("exchanges."+name+".base_url", "ARB_"+upper+"_BASE_URL", upper+"_BASE_URL")
		v.BindEnv("exchanges."+name+".api_key", "ARB_"+upper+"_API_KEY", upper+"_API_KEY")
	}

	// Catalog and redis
	v.BindEnv("catalog.backend", "ARB_CACHE_BACKEND", "CACHE_DRIVER")
	v.BindEnv("redis.addr", "ARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "ARB_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Arbitrage
	v.BindEnv("arbitrage.min_profit", "ARB_MIN_PROFIT")
	v.BindEnv("arbitrage.watch_interval", "ARB_WATCH_INTERVAL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "ARB_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "arbitrage-scanner")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Exchange defaults
	baseURLs := map[string]string{
		Binance:  "https://api.binance.com",
		Bybit:    "https://api.bybit.com",
		WhiteBIT: "https://whitebit.com",
		Poloniex: "https://api.poloniex.com",
		JBEX:     "https://api.jbex.com",
	}
	for name, url := range baseURLs {
		v.SetDefault("exchanges."+name+".enabled", true)
		v.SetDefault("exchanges."+name+".base_url", url)
		v.SetDefault("exchanges."+name+".api_key", "")
		v.SetDefault("exchanges."+name+".requests_per_minute", 1200)
		v.SetDefault("exchanges."+name+".timeout", "10s")
	}

	// Fetch defaults
	v.SetDefault("fetch.attempts", 3)
	v.SetDefault("fetch.delay", "200ms")
	v.SetDefault("fetch.timeout", "60s")

	// Catalog defaults
	v.SetDefault("catalog.ttl", "1h")
	v.SetDefault("catalog.backend", "memory")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "arbitrage:")

	// Arbitrage defaults
	v.SetDefault("arbitrage.min_profit", 0.1)
	v.SetDefault("arbitrage.top", 0)
	v.SetDefault("arbitrage.watch_interval", "30s")
	v.SetDefault("arbitrage.scan_timeout", "45s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "arbitrage-scanner")
	v.SetDefault("telemetry.trace_exporter", "none")
	v.SetDefault("telemetry.otlp_metrics", false)
	v.SetDefault("telemetry.prometheus_port", 2223)

	// Health defaults
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := NewValidator().Validate(c); err != nil {
		return err
	}

	for _, name := range c.Exchanges.Enabled() {
		ex, _ := c.Exchanges.ByName(name)
		if ex.BaseURL == "" {
			return fmt.Errorf("exchanges.%s.base_url is required when enabled", name)
		}
	}
	if c.Catalog.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required for the redis catalog backend")
	}
	if c.Telemetry.Enabled {
		switch c.Telemetry.TraceExporter {
		case "otlp-grpc", "otlp-http":
			if c.Telemetry.OTLPEndpoint == "" {
				return fmt.Errorf("telemetry.otlp_endpoint is required for %s", c.Telemetry.TraceExporter)
			}
		case "zipkin":
			if c.Telemetry.ZipkinURL == "" {
				return fmt.Errorf("telemetry.zipkin_url is required for zipkin")
			}
		}
		if c.Telemetry.OTLPMetrics && c.Telemetry.OTLPEndpoint == "" {
			return fmt.Errorf("telemetry.otlp_endpoint is required for otlp metrics")
		}
	}
	return nil
}
