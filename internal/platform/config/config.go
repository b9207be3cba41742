package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	defaultListenAddr     = ":10000"
	defaultMongoDatabase  = "nanasync"
	defaultConnectTimeout = 5 * time.Second
	defaultJWTTTL         = 24 * time.Hour
	defaultBcryptCost     = 10
	defaultKafkaTopic     = "nanasync.events"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultAllowedOrigin  = "https://stickershub1.github.io"
)

// Config はアプリケーション全体の設定を表現します。
// YAML ファイルを読み込んだ後、環境変数で上書きされます。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig は HTTP / gRPC ヘルスサーバーに関する設定です。
type ServerConfig struct {
	ListenAddr         string   `yaml:"listen_addr" env:"LISTEN_ADDR"`
	Port               string   `yaml:"-" env:"PORT"`
	HealthAddr         string   `yaml:"health_addr" env:"HEALTH_ADDR"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// StoreConfig は利用するストアドライバを指定します。
type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER"`
}

// MongoConfig は MongoDB 接続に関する設定です。
type MongoConfig struct {
	URI               string        `yaml:"uri" env:"MONGO_URI"`
	Database          string        `yaml:"database" env:"MONGO_DATABASE"`
	ConnectTimeout    time.Duration `yaml:"-"`
	ConnectTimeoutRaw string        `yaml:"connect_timeout" env:"MONGO_CONNECT_TIMEOUT"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host" env:"DB_HOST"`
	Port               int           `yaml:"port" env:"DB_PORT"`
	User               string        `yaml:"user" env:"DB_USER"`
	Password           string        `yaml:"password" env:"DB_PASSWORD"`
	Name               string        `yaml:"name" env:"DB_NAME"`
	SSLMode            string        `yaml:"ssl_mode" env:"DB_SSLMODE"`
	IsolationLevel     string        `yaml:"isolation_level" env:"DB_ISOLATION_LEVEL"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// AuthConfig は認証に関する設定です。JWTSecret が空の場合トークンは発行されません。
type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTTTL       time.Duration `yaml:"-"`
	JWTTTLRaw    string        `yaml:"jwt_ttl" env:"JWT_TTL"`
	RequireToken bool          `yaml:"require_token" env:"AUTH_REQUIRE_TOKEN"`
	BcryptCost   int           `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
}

// KafkaConfig はドメインイベント送信に関する設定です。Brokers が空なら無効です。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC"`
}

// LogConfig はロガーに関する設定です。
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Load は設定ファイルを読み込み、.env と環境変数で上書きします。
// path が存在しない場合は環境変数と既定値のみで構成します。
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse yaml: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}

	if c.Store.Driver == "" {
		c.Store.Driver = DriverMongo
	}
	c.Store.Driver = strings.ToLower(c.Store.Driver)

	switch c.Store.Driver {
	case DriverMongo:
		if err := c.Mongo.validateAndNormalize(); err != nil {
			return err
		}
	case DriverPostgres:
		if err := c.Database.validateAndNormalize(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("config: store.driver must be %q or %q, got %q", DriverMongo, DriverPostgres, c.Store.Driver)
	}

	if err := c.Auth.validateAndNormalize(); err != nil {
		return err
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = defaultKafkaTopic
	}
	c.Kafka.Brokers = compact(c.Kafka.Brokers)

	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("config: log.format must be json or console, got %q", c.Log.Format)
	}

	return nil
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.Port != "" {
		if _, err := strconv.Atoi(s.Port); err != nil {
			return fmt.Errorf("config: PORT must be numeric: %w", err)
		}
		s.ListenAddr = ":" + s.Port
	}
	if s.ListenAddr == "" {
		s.ListenAddr = defaultListenAddr
	}

	s.CORSAllowedOrigins = compact(s.CORSAllowedOrigins)
	if len(s.CORSAllowedOrigins) == 0 {
		s.CORSAllowedOrigins = []string{defaultAllowedOrigin}
	}
	return nil
}

func (m *MongoConfig) validateAndNormalize() error {
	if m.URI == "" {
		return fmt.Errorf("config: mongo.uri must be set")
	}
	if m.Database == "" {
		m.Database = defaultMongoDatabase
	}

	timeout, err := parseDurationAllowEmpty(m.ConnectTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: mongo.connect_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = defaultConnectTimeout
	}
	m.ConnectTimeout = timeout
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	d.IsolationLevel = strings.ToLower(strings.TrimSpace(d.IsolationLevel))
	switch d.IsolationLevel {
	case "", "read committed", "repeatable read", "serializable":
	default:
		return fmt.Errorf("config: database.isolation_level must be read committed, repeatable read or serializable, got %q", d.IsolationLevel)
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (a *AuthConfig) validateAndNormalize() error {
	ttl, err := parseDurationAllowEmpty(a.JWTTTLRaw)
	if err != nil {
		return fmt.Errorf("config: auth.jwt_ttl: %w", err)
	}
	if ttl == 0 {
		ttl = defaultJWTTTL
	}
	a.JWTTTL = ttl

	if a.BcryptCost == 0 {
		a.BcryptCost = defaultBcryptCost
	}
	if a.RequireToken && a.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set when auth.require_token is enabled")
	}
	return nil
}

// loadDotEnv は .env を環境変数に読み込みます。ファイルが存在しない場合のみ無視します。
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// DSN は pgx / golang-migrate 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
