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

// Store backends for memberships, invitations and submissions.
const (
	StoreRemote   = "remote"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Store      StoreConfig      `mapstructure:"store"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Broker     BrokerConfig     `mapstructure:"broker"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Log        LogConfig        `mapstructure:"log"`
	Portal     PortalConfig     `mapstructure:"portal"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Mode            string        `mapstructure:"mode"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// RedisConfig holds Redis configuration. An empty address disables caching.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPClientConfig holds HTTP client configuration for connection pooling.
type HTTPClientConfig struct {
	// Connection pool settings
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`

	// Timeout settings
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseTimeout     time.Duration `mapstructure:"response_timeout"`

	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

// UpstreamConfig locates the portal's external collaborators.
type UpstreamConfig struct {
	ProjectsURL string `mapstructure:"projects_url"`
	UsersURL    string `mapstructure:"users_url"`
	// RecordsURL serves memberships, invitations, tasks and submissions.
	RecordsURL string `mapstructure:"records_url"`

	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
	Interval         time.Duration `mapstructure:"interval"`

	// Service credentials for calls made outside a user request.
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	TokenURL     string   `mapstructure:"token_url"`
	Scopes       []string `mapstructure:"scopes"`
}

// TasksURL is where tasks and milestones are read. They live with the
// records service when one is configured, otherwise with the projects service.
func (c UpstreamConfig) TasksURL() string {
	if c.RecordsURL != "" {
		return c.RecordsURL
	}
	return c.ProjectsURL
}

// StoreConfig selects where memberships, invitations and submissions live.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// StorageConfig holds object storage configuration for deliverables.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// BrokerConfig holds AMQP settings. An empty URL keeps events in-process.
type BrokerConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PortalConfig tunes the domain services.
type PortalConfig struct {
	MembershipLookups   int           `mapstructure:"membership_lookups"`
	InvitationTTL       time.Duration `mapstructure:"invitation_ttl"`
	InviteMessageMax    int           `mapstructure:"invite_message_max"`
	MaxFileSize         int64         `mapstructure:"max_file_size"`
	SubmissionKeyPrefix string        `mapstructure:"submission_key_prefix"`
	RosterChunkSize     int           `mapstructure:"roster_chunk_size"`
	RosterConcurrency   int           `mapstructure:"roster_concurrency"`
	RosterCacheTTL      time.Duration `mapstructure:"roster_cache_ttl"`
	UserCacheTTL        time.Duration `mapstructure:"user_cache_ttl"`
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreRemote, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Store.Backend != StoreMemory && (c.Upstream.ProjectsURL == "" || c.Upstream.UsersURL == "") {
		return errors.New("upstream.projects_url and upstream.users_url are required")
	}
	if c.Store.Backend == StoreRemote && c.Upstream.RecordsURL == "" {
		return errors.New("upstream.records_url is required for the remote store")
	}
	return nil
}

// Load loads configuration from file and environment. A .env file in the
// working directory is applied to the environment first, if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/labportal")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// LABPORTAL_SERVER_ADDRESS overrides server.address, and so on.
	v.SetEnvPrefix("LABPORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Secrets commonly injected under short names.
	if secret := os.Getenv("LABPORTAL_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if password := os.Getenv("LABPORTAL_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if key := os.Getenv("LABPORTAL_STORAGE_SECRET_KEY"); key != "" {
		cfg.Storage.SecretAccessKey = key
	}
	if s := os.Getenv("LABPORTAL_CORS_ORIGINS"); s != "" {
		cfg.CORS.AllowOrigins = parseCommaSeparatedList(s)
	}

	return &cfg, nil
}

func parseCommaSeparatedList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.mode", "release")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "labportal")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.slow_threshold", 200*time.Millisecond)

	v.SetDefault("redis.db", 0)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 10*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_timeout", 30*time.Second)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Upstream defaults
	v.SetDefault("upstream.failure_threshold", 5)
	v.SetDefault("upstream.open_timeout", 30*time.Second)
	v.SetDefault("upstream.interval", 60*time.Second)

	v.SetDefault("store.backend", StoreRemote)

	v.SetDefault("auth.issuer", "")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("broker.exchange", "labportal.events")
	v.SetDefault("cors.allow_origins", []string{"*"})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Portal defaults
	v.SetDefault("portal.membership_lookups", 4)
	v.SetDefault("portal.invitation_ttl", 7*24*time.Hour)
	v.SetDefault("portal.invite_message_max", 500)
	v.SetDefault("portal.max_file_size", 50<<20)
	v.SetDefault("portal.submission_key_prefix", "submissions")
	v.SetDefault("portal.roster_chunk_size", 50)
	v.SetDefault("portal.roster_concurrency", 4)
	v.SetDefault("portal.roster_cache_ttl", 5*time.Minute)
	v.SetDefault("portal.user_cache_ttl", 10*time.Minute)
}
