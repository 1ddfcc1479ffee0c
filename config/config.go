package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort    string
	JWTSecret  string
	TokenTTL   time.Duration
	Production bool
	// Database: either a full URI or the credential parts used to build a MongoDB Atlas URI.
	DatabaseURI string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBName      string
	// Payment processor
	PaymentSecretKey string
	PaymentCurrency  string
	AllowedOrigins   []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Redis for caching and token revocation
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	CacheTTL      time.Duration
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Forum rules
	RateLimitPerMinute int
	DefaultPostLimit   int
	// Search tags older than the retention window are pruned on PruneSchedule. 0 disables pruning.
	SearchTagRetentionDays int
	PruneSchedule          string
}

// Sources, lowest precedence first: defaults, config/config.json, .env, process environment.
// Every key is bound to the environment names listed here.
var envBindings = map[string][]string{
	"app.port":                 {"APP_PORT", "PORT"},
	"app.jwtsecret":            {"JWT_SECRET", "ACCESS_TOKEN_SECRET"},
	"app.tokenttl":             {"TOKEN_TTL"},
	"app.env":                  {"APP_ENV", "NODE_ENV"},
	"app.allowedorigins":       {"CORS_ALLOWED_ORIGINS"},
	"app.ratelimitperminute":   {"RATE_LIMIT_PER_MINUTE"},
	"app.defaultpostlimit":     {"DEFAULT_POST_LIMIT"},
	"database.uri":             {"DATABASE_URI", "DB_URI"},
	"database.user":            {"DB_USER"},
	"database.password":        {"DB_PASS", "DB_PASSWORD"},
	"database.host":            {"DB_HOST"},
	"database.name":            {"DB_NAME"},
	"payment.secretkey":        {"PAYMENT_SECRET_KEY", "STRIPE_SECRET_KEY"},
	"payment.currency":         {"PAYMENT_CURRENCY"},
	"gin.mode":                 {"GIN_MODE"},
	"gin.path":                 {"GIN_PATH", "GIN_LOG_PATH"},
	"redis.enabled":            {"REDIS_ENABLED"},
	"redis.host":               {"REDIS_HOST"},
	"redis.port":               {"REDIS_PORT"},
	"redis.db":                 {"REDIS_DB"},
	"redis.password":           {"REDIS_PASSWORD"},
	"redis.cachettl":           {"CACHE_TTL"},
	"log.level":                {"LOG_LEVEL"},
	"log.path":                 {"LOG_PATH"},
	"log.maxsizemb":            {"LOG_MAX_SIZE_MB"},
	"log.maxbackups":           {"LOG_MAX_BACKUPS"},
	"log.maxagedays":           {"LOG_MAX_AGE_DAYS"},
	"log.compress":             {"LOG_COMPRESS"},
	"searchtags.retentiondays": {"SEARCH_TAG_RETENTION_DAYS"},
	"searchtags.pruneschedule": {"SEARCH_TAG_PRUNE_SCHEDULE"},
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "5000")
	v.SetDefault("app.tokenttl", "1h")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.allowedorigins", []string{"*"})
	v.SetDefault("app.ratelimitperminute", 60)
	v.SetDefault("app.defaultpostlimit", 5)
	v.SetDefault("database.name", "amaDB")
	v.SetDefault("payment.currency", "usd")
	v.SetDefault("gin.mode", "release")
	v.SetDefault("gin.path", "logs/go_gin.log")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.cachettl", "1m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 3)
	v.SetDefault("log.maxagedays", 7)
	v.SetDefault("searchtags.retentiondays", 0)
	v.SetDefault("searchtags.pruneschedule", "@daily")
}

// Load reads .env (when present), config/config.json (when present) and the environment.
// It should be called once during boot; the returned value is passed to every component.
func Load() (AppConfig, error) {
	// a missing .env is normal in production where variables are set directly
	_ = godotenv.Load()
	return LoadFrom(filepath.Join("config", "config.json"))
}

// LoadFrom is Load with an explicit config file path and no .env handling.
func LoadFrom(path string) (AppConfig, error) {
	v := viper.New()
	applyDefaults(v)
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return AppConfig{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return AppConfig{}, fmt.Errorf("read %s: %w", path, err)
			}
		}
	}

	cfg := AppConfig{
		AppPort:                v.GetString("app.port"),
		JWTSecret:              v.GetString("app.jwtsecret"),
		TokenTTL:               v.GetDuration("app.tokenttl"),
		Production:             strings.EqualFold(v.GetString("app.env"), "production"),
		AllowedOrigins:         readList(v, "app.allowedorigins"),
		RateLimitPerMinute:     v.GetInt("app.ratelimitperminute"),
		DefaultPostLimit:       v.GetInt("app.defaultpostlimit"),
		DatabaseURI:            v.GetString("database.uri"),
		DBUser:                 v.GetString("database.user"),
		DBPassword:             v.GetString("database.password"),
		DBHost:                 v.GetString("database.host"),
		DBName:                 v.GetString("database.name"),
		PaymentSecretKey:       v.GetString("payment.secretkey"),
		PaymentCurrency:        strings.ToLower(v.GetString("payment.currency")),
		GinMode:                v.GetString("gin.mode"),
		GinPath:                v.GetString("gin.path"),
		RedisEnabled:           v.GetBool("redis.enabled"),
		RedisHost:              v.GetString("redis.host"),
		RedisPort:              v.GetInt("redis.port"),
		RedisDB:                v.GetInt("redis.db"),
		RedisPassword:          v.GetString("redis.password"),
		CacheTTL:               v.GetDuration("redis.cachettl"),
		LogLevel:               v.GetString("log.level"),
		LogPath:                v.GetString("log.path"),
		LogMaxSizeMB:           v.GetInt("log.maxsizemb"),
		LogMaxBackups:          v.GetInt("log.maxbackups"),
		LogMaxAgeDays:          v.GetInt("log.maxagedays"),
		LogCompress:            v.GetBool("log.compress"),
		SearchTagRetentionDays: v.GetInt("searchtags.retentiondays"),
		PruneSchedule:          v.GetString("searchtags.pruneschedule"),
	}

	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET must be set in environment variables")
	}
	if cfg.TokenTTL <= 0 {
		return cfg, fmt.Errorf("invalid token ttl %s", cfg.TokenTTL)
	}
	return cfg, nil
}

// DatabaseURL returns the connection string the store should open.
// An explicit URI wins; otherwise credentials are assembled into a MongoDB Atlas URI,
// and without credentials a local SQLite file is used.
func (c AppConfig) DatabaseURL() string {
	if c.DatabaseURI != "" {
		return c.DatabaseURI
	}
	if c.DBUser != "" && c.DBPassword != "" && c.DBHost != "" {
		return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority",
			url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword), c.DBHost)
	}
	return "sqlite://ama.db"
}

// readList accepts both JSON arrays and comma separated env values.
func readList(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case string:
		raw = strings.Split(val, ",")
	default:
		raw = v.GetStringSlice(key)
	}
	items := []string{}
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
