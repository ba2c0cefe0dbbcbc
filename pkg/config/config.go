package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the base settings block shared by every AURA application.
// Values come from an optional config.yaml plus environment variables
// (typically loaded from .env), with environment taking precedence.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Atlas      AtlasConfig      `mapstructure:"atlas"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Debug      bool             `mapstructure:"debug"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type DatabaseConfig struct {
	// URL, when set, wins over the individual fields.
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AtlasConfig points an application at the Atlas SSO service.
type AtlasConfig struct {
	SSOURL        string `mapstructure:"sso_url"`
	AppCode       string `mapstructure:"app_code"`
	EncryptionKey string `mapstructure:"encryption_key"`
	EncryptionIV  string `mapstructure:"encryption_iv"`
}

// EncryptionConfig controls AES encryption of GET responses.
type EncryptionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Key     string `mapstructure:"key"` // 32 bytes
	IV      string `mapstructure:"iv"`  // 16 bytes
}

type CORSConfig struct {
	Origins          string `mapstructure:"origins"` // JSON list
	AllowCredentials bool   `mapstructure:"allow_credentials"`
	Methods          string `mapstructure:"methods"` // JSON list
	Headers          string `mapstructure:"headers"` // JSON list
}

// defaultOrigins is the ecosystem fallback applied when origins are left as
// the wildcard list.
var defaultOrigins = []string{
	"https://*.atamsindonesia.com",
	"http://localhost:3000",
	"http://localhost:8000",
}

func (c CORSConfig) OriginsList() []string {
	origins, err := parseJSONList(c.Origins)
	if err != nil || isWildcard(origins) {
		return defaultOrigins
	}
	return origins
}

func (c CORSConfig) MethodsList() []string {
	methods, err := parseJSONList(c.Methods)
	if err != nil {
		return []string{"*"}
	}
	return methods
}

func (c CORSConfig) HeadersList() []string {
	headers, err := parseJSONList(c.Headers)
	if err != nil {
		return []string{"*"}
	}
	return headers
}

func parseJSONList(raw string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func isWildcard(list []string) bool {
	return len(list) == 1 && list[0] == "*"
}

type LoggingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Level         string `mapstructure:"level"`
	ToFile        bool   `mapstructure:"to_file"`
	FilePath      string `mapstructure:"file_path"`
	BufferSize    int    `mapstructure:"buffer_size"`
	FlushInterval int    `mapstructure:"flush_interval"` // seconds
}

type RateLimitConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Requests        int      `mapstructure:"requests"`
	Window          int      `mapstructure:"window"` // seconds
	ExemptPaths     []string `mapstructure:"exempt_paths"`
	CleanupInterval int      `mapstructure:"cleanup_interval"`
}

// Load reads configuration from configPath (config.yaml, optional) and the
// environment. A missing config file is fine; environment variables and
// defaults cover everything.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvNames(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.metrics_port", 9090)

	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("atlas.encryption_key", "atams_apps_secret_key_goes_here")
	v.SetDefault("atlas.encryption_iv", "atams_apps_iv!!")

	v.SetDefault("encryption.enabled", false)
	v.SetDefault("encryption.key", "change_me_32_characters_long!!")
	v.SetDefault("encryption.iv", "change_me_16char")

	v.SetDefault("cors.origins", `["*"]`)
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.methods", `["*"]`)
	v.SetDefault("cors.headers", `["*"]`)

	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.to_file", false)
	v.SetDefault("logging.file_path", "logs/app.log")
	v.SetDefault("logging.buffer_size", 32*1024)
	v.SetDefault("logging.flush_interval", 2)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", 60)
	v.SetDefault("rate_limit.exempt_paths", []string{"/docs", "/redoc", "/openapi.json"})
	v.SetDefault("rate_limit.cleanup_interval", 100)

	v.SetDefault("debug", false)
}

// bindEnvNames keeps the environment variable names the rest of the AURA
// ecosystem already uses, where they differ from the key-derived form.
func bindEnvNames(v *viper.Viper) {
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("atlas.sso_url", "ATLAS_SSO_URL")
	_ = v.BindEnv("atlas.app_code", "ATLAS_APP_CODE")
	_ = v.BindEnv("atlas.encryption_key", "ATLAS_ENCRYPTION_KEY")
	_ = v.BindEnv("atlas.encryption_iv", "ATLAS_ENCRYPTION_IV")
	_ = v.BindEnv("logging.enabled", "LOGGING_ENABLED")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.to_file", "LOG_TO_FILE")
	_ = v.BindEnv("logging.file_path", "LOG_FILE_PATH")
	_ = v.BindEnv("logging.buffer_size", "LOG_BUFFER_SIZE")
	_ = v.BindEnv("logging.flush_interval", "LOG_FLUSH_INTERVAL")
	_ = v.BindEnv("cors.origins", "CORS_ORIGINS")
	_ = v.BindEnv("cors.allow_credentials", "CORS_ALLOW_CREDENTIALS")
	_ = v.BindEnv("cors.methods", "CORS_ALLOW_METHODS")
	_ = v.BindEnv("cors.headers", "CORS_ALLOW_HEADERS")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("debug", "DEBUG")
}
