package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ServiceName    = "storefront"
	ServiceVersion = "0.1.0"

	envPrefix = "STOREFRONT"
)

type HTTP struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GRPC struct {
	Addr string `mapstructure:"addr"`
}

type MySQL struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type Kafka struct {
	Brokers       []string `mapstructure:"brokers"`
	GroupID       string   `mapstructure:"group_id"`
	OrderTopic    string   `mapstructure:"order_topic"`
	CustomerTopic string   `mapstructure:"customer_topic"`
	Enabled       bool     `mapstructure:"enabled"`
}

type Gateway struct {
	// Version names the current cache store; any other store is evicted on activate.
	Version    string   `mapstructure:"version"`
	Origin     string   `mapstructure:"origin"`
	SeedAssets []string `mapstructure:"seed_assets"`
	// AllowedHosts are extra hosts the forward proxy may reach besides the origin.
	AllowedHosts []string      `mapstructure:"allowed_hosts"`
	Storage      string        `mapstructure:"storage"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

type Inventory struct {
	LowStockThreshold int `mapstructure:"low_stock_threshold"`
}

type Contact struct {
	Inbox string `mapstructure:"inbox"`
}

type Log struct {
	Debug bool `mapstructure:"debug"`
}

type Otel struct {
	Endpoint   string `mapstructure:"endpoint"`
	AuthHeader string `mapstructure:"auth_header"`
	Insecure   bool   `mapstructure:"insecure"`
}

type Config struct {
	HTTP      HTTP      `mapstructure:"http"`
	GRPC      GRPC      `mapstructure:"grpc"`
	MySQL     MySQL     `mapstructure:"mysql"`
	Redis     Redis     `mapstructure:"redis"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Gateway   Gateway   `mapstructure:"gateway"`
	Inventory Inventory `mapstructure:"inventory"`
	Contact   Contact   `mapstructure:"contact"`
	Log       Log       `mapstructure:"log"`
	Otel      Otel      `mapstructure:"otel"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTP{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		GRPC: GRPC{Addr: ":50051"},
		MySQL: MySQL{
			DSN:             "root:root@tcp(localhost:3306)/storefront?parseTime=true",
			MaxOpenConns:    50,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: Redis{Addr: "localhost:6379", PoolSize: 100},
		Kafka: Kafka{
			Brokers:       []string{"localhost:9092"},
			GroupID:       "storefront-triggers",
			OrderTopic:    "orders.created",
			CustomerTopic: "customers.created",
			Enabled:       true,
		},
		Gateway: Gateway{
			Version:      "v1",
			Origin:       "http://localhost:3000",
			SeedAssets:   []string{"/", "/index.html", "/manifest.json", "/favicon.ico"},
			Storage:      "redis",
			FetchTimeout: 10 * time.Second,
		},
		Inventory: Inventory{LowStockThreshold: 5},
		Contact:   Contact{Inbox: "support@localhost"},
	}
}

// Load reads an optional .env file, then the YAML config at path (if it
// exists), then STOREFRONT_* environment overrides on top of Default.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Gateway.Version == "" {
		return errors.New("gateway.version is required")
	}
	if c.Gateway.Storage != "redis" && c.Gateway.Storage != "memory" {
		return fmt.Errorf("gateway.storage must be redis or memory, got %q", c.Gateway.Storage)
	}
	if c.Inventory.LowStockThreshold < 0 {
		return errors.New("inventory.low_stock_threshold must not be negative")
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("http.shutdown_timeout", d.HTTP.ShutdownTimeout)
	v.SetDefault("grpc.addr", d.GRPC.Addr)
	v.SetDefault("mysql.dsn", d.MySQL.DSN)
	v.SetDefault("mysql.max_open_conns", d.MySQL.MaxOpenConns)
	v.SetDefault("mysql.max_idle_conns", d.MySQL.MaxIdleConns)
	v.SetDefault("mysql.conn_max_lifetime", d.MySQL.ConnMaxLifetime)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.group_id", d.Kafka.GroupID)
	v.SetDefault("kafka.order_topic", d.Kafka.OrderTopic)
	v.SetDefault("kafka.customer_topic", d.Kafka.CustomerTopic)
	v.SetDefault("kafka.enabled", d.Kafka.Enabled)
	v.SetDefault("gateway.version", d.Gateway.Version)
	v.SetDefault("gateway.origin", d.Gateway.Origin)
	v.SetDefault("gateway.seed_assets", d.Gateway.SeedAssets)
	v.SetDefault("gateway.storage", d.Gateway.Storage)
	v.SetDefault("gateway.fetch_timeout", d.Gateway.FetchTimeout)
	v.SetDefault("inventory.low_stock_threshold", d.Inventory.LowStockThreshold)
	v.SetDefault("contact.inbox", d.Contact.Inbox)
	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("otel.endpoint", d.Otel.Endpoint)
	v.SetDefault("otel.auth_header", d.Otel.AuthHeader)
	v.SetDefault("otel.insecure", d.Otel.Insecure)
}
