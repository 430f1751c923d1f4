package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Location  string          `mapstructure:"location"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Events    EventsConfig    `mapstructure:"events"`
	Grpc      GrpcConfig      `mapstructure:"grpc"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout_seconds"`
	WriteTimeout   int      `mapstructure:"write_timeout_seconds"`
	IdleTimeout    int      `mapstructure:"idle_timeout_seconds"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig selects Postgres when URL is set and the embedded SQLite file otherwise.
type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time_seconds"`
}

type SessionConfig struct {
	Secret     string `mapstructure:"secret"`
	CookieName string `mapstructure:"cookie_name"`
	MaxAge     int    `mapstructure:"max_age_seconds"`
	Secure     bool   `mapstructure:"secure"`
}

type UploadsConfig struct {
	Driver            string      `mapstructure:"driver"`
	Root              string      `mapstructure:"root"`
	AllowedExtensions []string    `mapstructure:"allowed_extensions"`
	MinIO             MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Timeout   int    `mapstructure:"timeout_seconds"`
}

type AdminConfig struct {
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	HashPasswords bool   `mapstructure:"hash_passwords"`
}

type EventsConfig struct {
	Driver       string   `mapstructure:"driver"`
	NATSURL      string   `mapstructure:"nats_url"`
	Subject      string   `mapstructure:"subject"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	Topic        string   `mapstructure:"topic"`
}

type GrpcConfig struct {
	Port string `mapstructure:"port"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("location", "Local")

	v.SetDefault("server.port", "5000")
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 60)
	v.SetDefault("server.idle_timeout_seconds", 120)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.max_upload_bytes", 16<<20)

	v.SetDefault("database.url", "")
	v.SetDefault("database.sqlite_path", "academic_assist.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime_seconds", 300)
	v.SetDefault("database.conn_max_idle_time_seconds", 60)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.max_age_seconds", 31*24*60*60)
	v.SetDefault("session.secure", false)

	v.SetDefault("uploads.driver", "local")
	v.SetDefault("uploads.root", "static/uploads")
	v.SetDefault("uploads.allowed_extensions", []string{"pdf", "png", "jpg", "jpeg", "doc", "docx", "txt"})
	v.SetDefault("uploads.minio.endpoint", "")
	v.SetDefault("uploads.minio.access_key", "")
	v.SetDefault("uploads.minio.secret_key", "")
	v.SetDefault("uploads.minio.bucket", "academic-assist")
	v.SetDefault("uploads.minio.region", "")
	v.SetDefault("uploads.minio.use_ssl", false)
	v.SetDefault("uploads.minio.timeout_seconds", 10)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "admin123")
	v.SetDefault("admin.hash_passwords", false)

	v.SetDefault("events.driver", "none")
	v.SetDefault("events.nats_url", "nats://localhost:4222")
	v.SetDefault("events.subject", "academic_assist.requests")
	v.SetDefault("events.kafka_brokers", []string{"localhost:9092"})
	v.SetDefault("events.topic", "academic-assist-requests")

	v.SetDefault("grpc.port", "")
	v.SetDefault("telemetry.otlp_endpoint", "")
}

func Load() (*Config, error) {
	// Get environment from ENV, default to "local"
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	v.AddConfigPath("/configs")   // Kubernetes mount
	v.AddConfigPath("./configs")  // Docker runtime
	v.AddConfigPath("../configs") // IDE from cmd/
	v.AddConfigPath("../../configs")

	// Config file is optional - continue with ENV variables
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables take precedence over the config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("env", "ENV")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.max_upload_bytes", "MAX_CONTENT_LENGTH")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("session.secret", "SECRET_KEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Database.URL = NormalizeDatabaseURL(config.Database.URL)
	config.Uploads.AllowedExtensions = normalizeExtensions(config.Uploads.AllowedExtensions)

	return &config, nil
}

// NormalizeDatabaseURL rewrites the legacy "postgres://" scheme some hosting
// providers hand out to the canonical "postgresql://" form.
func NormalizeDatabaseURL(url string) string {
	if strings.HasPrefix(url, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(url, "postgres://")
	}
	return url
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}
