package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment names recognised by the API.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers.
const (
	StoreDriverSQLite = "sqlite"
	StoreDriverMongo  = "mongo"
)

// Config is the root configuration structure for the school site API.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Environment string          `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Store       StoreConfig     `yaml:"store"`
	WebSocket   WebSocketConfig `yaml:"websocket"`
	Logging     LoggingConfig   `yaml:"logging"`
	Security    SecurityConfig  `yaml:"security"`
	MQTT        MQTTConfig      `yaml:"mqtt"`
	InfluxDB    InfluxDBConfig  `yaml:"influxdb"`
	Media       MediaConfig     `yaml:"media"`
	Mail        MailConfig      `yaml:"mail"`
}

// ServerConfig contains HTTP API server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	TLS      TLSConfig           `yaml:"tls"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig          `yaml:"cors"`

	// StaticDir holds the compiled frontend. Empty serves the API only.
	StaticDir string `yaml:"static_dir"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// DatabaseConfig contains settings for the SQLite system database
// (accounts, audit trail, and the default content store).
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// StoreConfig selects the document store that holds site content.
type StoreConfig struct {
	Driver string      `yaml:"driver"`
	Mongo  MongoConfig `yaml:"mongo"`
}

// MongoConfig contains MongoDB connection settings.
type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig is used when Output is "file".
type FileLoggingConfig struct {
	Path string `yaml:"path"`
}

// SecurityConfig contains authentication settings.
type SecurityConfig struct {
	Session SessionConfig    `yaml:"session"`
	Admin   IdentityConfig   `yaml:"admin"`
	Editors []IdentityConfig `yaml:"editors"`
}

// SessionConfig contains session token settings.
type SessionConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// IdentityConfig describes a configured login. Either Password or
// PasswordHash must be set; PasswordHash wins when both are present.
type IdentityConfig struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	DisplayName  string `yaml:"display_name"`
}

// MQTTConfig contains MQTT broker settings for the cross-instance event relay.
type MQTTConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains InfluxDB connection settings for request metrics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MediaConfig contains object storage settings for image uploads.
type MediaConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Bucket        string `yaml:"bucket"`
	UseSSL        bool   `yaml:"use_ssl"`
	PublicBaseURL string `yaml:"public_base_url"`
	MaxUploadMB   int    `yaml:"max_upload_mb"`
}

// MailConfig contains SMTP settings for contact form delivery.
type MailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	// TLS is "starttls" (default), "ssl" for implicit TLS on port 465,
	// or "none" for a plain local relay.
	TLS string `yaml:"tls"`
}

// Mail TLS modes.
const (
	MailTLSStartTLS = "starttls"
	MailTLSSSL      = "ssl"
	MailTLSNone     = "none"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults); skipped when path is empty
//  3. A .env file in the working directory, if present
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: SCHOOLSITE_SECTION_KEY
// For example: SCHOOLSITE_DATABASE_PATH, SCHOOLSITE_SERVER_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults and environment only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv populates the process environment from a dotenv file.
// Variables that are already set keep their values.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// DefaultAllowedOrigins are the front-end origins accepted when none are configured.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"https://thpthuongkhe.vercel.app",
}

func defaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			CORS: CORSConfig{
				AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/schoolsite.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Store: StoreConfig{
			Driver: StoreDriverSQLite,
			Mongo: MongoConfig{
				URI:            "mongodb://localhost:27017",
				Database:       "school_website",
				ConnectTimeout: 10 * time.Second,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			Session: SessionConfig{
				TTL: 7 * 24 * time.Hour,
			},
			Admin: IdentityConfig{
				Username:    "admin",
				DisplayName: "Administrator",
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "schoolsite",
			},
			QoS:         1,
			TopicPrefix: "schoolsite",
		},
		InfluxDB: InfluxDBConfig{
			Org:           "schoolsite",
			Bucket:        "api",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Media: MediaConfig{
			Bucket:      "schoolsite-media",
			MaxUploadMB: 5,
		},
		Mail: MailConfig{
			Port: 587,
			TLS:  MailTLSStartTLS,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SCHOOLSITE_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	setString("SCHOOLSITE_ENVIRONMENT", &cfg.Environment)

	// Server
	setString("SCHOOLSITE_SERVER_HOST", &cfg.Server.Host)
	setInt("SCHOOLSITE_SERVER_PORT", &cfg.Server.Port)
	setString("SCHOOLSITE_STATIC_DIR", &cfg.Server.StaticDir)
	if v := os.Getenv("SCHOOLSITE_CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.CORS.AllowedOrigins = splitList(v)
	}

	// Database and store
	setString("SCHOOLSITE_DATABASE_PATH", &cfg.Database.Path)
	setString("SCHOOLSITE_STORE_DRIVER", &cfg.Store.Driver)
	setString("SCHOOLSITE_MONGO_URI", &cfg.Store.Mongo.URI)
	setString("SCHOOLSITE_MONGO_DATABASE", &cfg.Store.Mongo.Database)

	// Logging
	setString("SCHOOLSITE_LOG_LEVEL", &cfg.Logging.Level)
	setString("SCHOOLSITE_LOG_FORMAT", &cfg.Logging.Format)

	// Security - session secret (IMPORTANT: always override in production)
	setString("SCHOOLSITE_SESSION_SECRET", &cfg.Security.Session.Secret)
	if v := os.Getenv("SCHOOLSITE_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SCHOOLSITE_SESSION_TTL: %w", err))
		} else {
			cfg.Security.Session.TTL = d
		}
	}
	setString("SCHOOLSITE_ADMIN_USERNAME", &cfg.Security.Admin.Username)
	setString("SCHOOLSITE_ADMIN_PASSWORD", &cfg.Security.Admin.Password)
	setString("SCHOOLSITE_ADMIN_PASSWORD_HASH", &cfg.Security.Admin.PasswordHash)

	// MQTT
	setBool("SCHOOLSITE_MQTT_ENABLED", &cfg.MQTT.Enabled)
	setString("SCHOOLSITE_MQTT_HOST", &cfg.MQTT.Broker.Host)
	setString("SCHOOLSITE_MQTT_USERNAME", &cfg.MQTT.Auth.Username)
	setString("SCHOOLSITE_MQTT_PASSWORD", &cfg.MQTT.Auth.Password)

	// InfluxDB
	setBool("SCHOOLSITE_INFLUXDB_ENABLED", &cfg.InfluxDB.Enabled)
	setString("SCHOOLSITE_INFLUXDB_URL", &cfg.InfluxDB.URL)
	setString("SCHOOLSITE_INFLUXDB_TOKEN", &cfg.InfluxDB.Token)

	// Media
	setBool("SCHOOLSITE_MEDIA_ENABLED", &cfg.Media.Enabled)
	setString("SCHOOLSITE_MEDIA_ENDPOINT", &cfg.Media.Endpoint)
	setString("SCHOOLSITE_MEDIA_ACCESS_KEY", &cfg.Media.AccessKey)
	setString("SCHOOLSITE_MEDIA_SECRET_KEY", &cfg.Media.SecretKey)

	// Mail
	setBool("SCHOOLSITE_MAIL_ENABLED", &cfg.Mail.Enabled)
	setString("SCHOOLSITE_MAIL_HOST", &cfg.Mail.Host)
	setString("SCHOOLSITE_MAIL_USERNAME", &cfg.Mail.Username)
	setString("SCHOOLSITE_MAIL_PASSWORD", &cfg.Mail.Password)
	setString("SCHOOLSITE_MAIL_TO", &cfg.Mail.To)
	setString("SCHOOLSITE_MAIL_TLS", &cfg.Mail.TLS)

	if len(errs) > 0 {
		return fmt.Errorf("environment overrides: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		errs = append(errs, "environment must be development or production")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	switch c.Store.Driver {
	case StoreDriverSQLite:
	case StoreDriverMongo:
		if c.Store.Mongo.URI == "" || c.Store.Mongo.Database == "" {
			errs = append(errs, "store.mongo.uri and store.mongo.database are required for the mongo driver")
		}
	default:
		errs = append(errs, "store.driver must be sqlite or mongo")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Zero intervals would panic in time.NewTicker on the first connection.
	if c.WebSocket.PingInterval <= 0 {
		errs = append(errs, "websocket.ping_interval must be positive")
	}
	if c.WebSocket.PongTimeout <= 0 {
		errs = append(errs, "websocket.pong_timeout must be positive")
	}
	if c.WebSocket.MaxMessageSize <= 0 {
		errs = append(errs, "websocket.max_message_size must be positive")
	}

	// A weak secret lets anyone forge editor sessions.
	const minSessionSecretLength = 32
	if c.Security.Session.Secret == "" {
		errs = append(errs, "security.session.secret is required (set SCHOOLSITE_SESSION_SECRET environment variable)")
	} else if len(c.Security.Session.Secret) < minSessionSecretLength {
		errs = append(errs, "security.session.secret must be at least 32 characters")
	}
	if c.Security.Session.TTL <= 0 {
		errs = append(errs, "security.session.ttl must be positive")
	}

	if c.Security.Admin.Username == "" {
		errs = append(errs, "security.admin.username is required")
	}
	for i, e := range c.Security.Editors {
		if e.Username == "" {
			errs = append(errs, fmt.Sprintf("security.editors[%d].username is required", i))
		}
		if e.Password == "" && e.PasswordHash == "" {
			errs = append(errs, fmt.Sprintf("security.editors[%d] needs password or password_hash", i))
		}
	}

	if c.Media.Enabled && (c.Media.Endpoint == "" || c.Media.Bucket == "") {
		errs = append(errs, "media.endpoint and media.bucket are required when media is enabled")
	}

	if c.Mail.Enabled && (c.Mail.Host == "" || c.Mail.From == "" || c.Mail.To == "") {
		errs = append(errs, "mail.host, mail.from and mail.to are required when mail is enabled")
	}
	switch c.Mail.TLS {
	case "", MailTLSStartTLS, MailTLSSSL, MailTLSNone:
	default:
		errs = append(errs, "mail.tls must be starttls, ssl or none")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether error details should be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}

// MaxUploadBytes returns the media upload limit in bytes, 5 MiB when unset.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 5 << 20
	}
	return int64(m.MaxUploadMB) << 20
}
