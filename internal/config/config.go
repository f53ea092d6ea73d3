package config

import (
	"time"

	pkgconfig "github.com/weiawesome/wes-io-social/pkg/config"
	"github.com/weiawesome/wes-io-social/pkg/pubsub"
	"github.com/weiawesome/wes-io-social/pkg/storage"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Cache         CacheConfig
	Auth          AuthConfig
	Storage       storage.Config
	PubSub        pubsub.Config `mapstructure:"pubsub"`
	Mailer        MailerConfig
	Elasticsearch ElasticsearchConfig
	IDs           IDConfig `mapstructure:"ids"`
	Media         MediaConfig
	WebSocket     WebSocketConfig `mapstructure:"websocket"`
	Sweeper       SweeperConfig
	Log           LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// PublicURL is the externally visible origin used in emailed links.
	// When empty the request's scheme and Host are used.
	PublicURL string `mapstructure:"public_url"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string        `mapstructure:"timezone"`
	FilePath        string        `mapstructure:"file_path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime int           `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	Issuer        string        `mapstructure:"issuer"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	CookieName    string        `mapstructure:"cookie_name"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
	ResetTokenTTL time.Duration `mapstructure:"reset_token_ttl"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"`
}

type MailerConfig struct {
	Driver string `mapstructure:"driver"` // "log", "kafka"
	From   string `mapstructure:"from"`
	Kafka  struct {
		Brokers string        `mapstructure:"brokers"`
		Topic   string        `mapstructure:"topic"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"kafka"`
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	IndexName string   `mapstructure:"index_users"`
}

// IDConfig names the generator strategy for each entity id.
type IDConfig struct {
	User    string `mapstructure:"user"`
	Post    string `mapstructure:"post"`
	Comment string `mapstructure:"comment"`
}

type MediaConfig struct {
	MaxDimension   int   `mapstructure:"max_dimension"`
	AvatarSize     int   `mapstructure:"avatar_size"`
	JPEGQuality    int   `mapstructure:"jpeg_quality"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

type WebSocketConfig struct {
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	WriteWait       time.Duration `mapstructure:"write_wait"`
	PongWait        time.Duration `mapstructure:"pong_wait"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
}

type SweeperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level string
}

var defaults = map[string]interface{}{
	"server.host":             "0.0.0.0",
	"server.port":             4000,
	"server.shutdown_timeout": "5s",
	"server.public_url":       "",

	"database.driver":            "sqlite",
	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "postgres",
	"database.password":          "postgres",
	"database.dbname":            "social",
	"database.sslmode":           "disable",
	"database.timezone":          "UTC",
	"database.file_path":         "./data/social.db",
	"database.max_idle_conns":    10,
	"database.max_open_conns":    100,
	"database.conn_max_lifetime": 60,
	"database.log_level":         "warn",
	"database.slow_threshold":    "200ms",

	"redis.address":  "localhost:6379",
	"redis.password": "",
	"redis.db":       0,

	"cache.prefix": "social",
	"cache.ttl":    "30s",

	"auth.jwt_secret":      "",
	"auth.issuer":          "wes-io-social",
	"auth.session_ttl":     "2160h",
	"auth.cookie_name":     "token",
	"auth.cookie_secure":   false,
	"auth.reset_token_ttl": "10m",
	"auth.bcrypt_cost":     10,

	"storage.driver":            "local",
	"storage.local.base_path":   "./data/uploads",
	"storage.local.public_path": "/uploads",
	"storage.s3.region":         "us-east-1",
	"storage.s3.use_path_style": false,

	"pubsub.driver":              "redis",
	"pubsub.redis.pool_size":     10,
	"pubsub.redis.read_timeout":  "3s",
	"pubsub.redis.write_timeout": "3s",
	"pubsub.kafka.group_id":      "social-notify",
	"pubsub.kafka.partitions":    4,

	"mailer.driver":        "log",
	"mailer.from":          "no-reply@wes-io-social.local",
	"mailer.kafka.topic":   "mail-outbox",
	"mailer.kafka.timeout": "10s",

	"elasticsearch.enabled":     false,
	"elasticsearch.addresses":   []string{"http://localhost:9200"},
	"elasticsearch.index_users": "social-users",

	"ids.user":    "uuid",
	"ids.post":    "ulid",
	"ids.comment": "ksuid",

	"media.max_dimension":    1080,
	"media.avatar_size":      256,
	"media.jpeg_quality":     85,
	"media.max_upload_bytes": 10 << 20,

	"websocket.read_buffer_size":  1024,
	"websocket.write_buffer_size": 1024,
	"websocket.max_message_size":  512,
	"websocket.write_wait":        "10s",
	"websocket.pong_wait":         "60s",
	"websocket.ping_interval":     "54s",

	"sweeper.interval": "5m",

	"log.level": "info",
}

var envs = map[string]string{
	"server.port":                  "PORT",
	"server.public_url":            "PUBLIC_URL",
	"database.driver":              "DB_DRIVER",
	"database.host":                "DB_HOST",
	"database.port":                "DB_PORT",
	"database.user":                "DB_USER",
	"database.password":            "DB_PASSWORD",
	"database.dbname":              "DB_NAME",
	"database.sslmode":             "DB_SSLMODE",
	"database.file_path":           "DB_FILE_PATH",
	"redis.address":                "REDIS_ADDRESS",
	"redis.password":               "REDIS_PASSWORD",
	"auth.jwt_secret":              "JWT_SECRET",
	"auth.session_ttl":             "JWT_EXPIRE",
	"auth.cookie_secure":           "COOKIE_SECURE",
	"storage.driver":               "STORAGE_DRIVER",
	"storage.s3.endpoint":          "S3_ENDPOINT",
	"storage.s3.bucket":            "S3_BUCKET",
	"storage.s3.access_key_id":     "S3_ACCESS_KEY_ID",
	"storage.s3.secret_access_key": "S3_SECRET_ACCESS_KEY",
	"storage.s3.public_url":        "S3_PUBLIC_URL",
	"pubsub.driver":                "PUBSUB_DRIVER",
	"pubsub.kafka.brokers":         "KAFKA_BROKERS",
	"mailer.driver":                "MAILER_DRIVER",
	"mailer.from":                  "MAIL_FROM",
	"mailer.kafka.brokers":         "KAFKA_BROKERS",
	"elasticsearch.enabled":        "ES_ENABLED",
	"elasticsearch.addresses":      "ES_ADDRESSES",
	"elasticsearch.index_users":    "ES_INDEX_USERS",
	"log.level":                    "LOG_LEVEL",
}

// Load reads config.yaml (if present) and the environment.
func Load() (*Config, error) {
	v, err := pkgconfig.Load(pkgconfig.GetEnv("CONFIG_PATH", "./config"), "config")
	if err != nil {
		return nil, err
	}

	pkgconfig.SetDefaults(v, defaults)
	if err := pkgconfig.BindEnvs(v, envs); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Redis-backed pubsub reuses the main Redis address unless overridden.
	if cfg.PubSub.Redis.Address == "" {
		cfg.PubSub.Redis.Address = cfg.Redis.Address
		cfg.PubSub.Redis.Password = cfg.Redis.Password
		cfg.PubSub.Redis.DB = cfg.Redis.DB
	}

	return &cfg, nil
}
