package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API       APIConfig
	Auth      AuthConfig
	Sync      SyncConfig
	Server    ServerConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Logging   LoggingConfig
}

type APIConfig struct {
	BaseURL      string
	ListResource string
	Timeout      time.Duration
}

type AuthConfig struct {
	AccessToken  string
	RefreshToken string
	RefreshURL   string

	// Used by the simulated API to issue and check tokens.
	Secret                 string
	Expiration             time.Duration
	RefreshTokenExpiration time.Duration
}

type SyncConfig struct {
	MaxAuthRetries int
	CacheDriver    string
	CacheDSN       string
	GameID         int
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxConnPerView  int
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level  string
	Pretty bool
}

const (
	CacheNone   = "none"
	CacheCouch  = "couch"
	CacheSQLite = "sqlite"
)

func Load() (*Config, error) {
	godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("API_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}

	jwtExp, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION: %w", err)
	}

	refreshExp, err := time.ParseDuration(getEnv("REFRESH_TOKEN_EXPIRATION", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_TOKEN_EXPIRATION: %w", err)
	}

	pongWait, err := time.ParseDuration(getEnv("WS_PONG_WAIT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_PONG_WAIT: %w", err)
	}

	baseURL := strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/")

	cfg := &Config{
		API: APIConfig{
			BaseURL:      baseURL,
			ListResource: getEnv("LIST_RESOURCE", "shopping_lists"),
			Timeout:      timeout,
		},
		Auth: AuthConfig{
			AccessToken:            getEnv("ACCESS_TOKEN", ""),
			RefreshToken:           getEnv("REFRESH_TOKEN", ""),
			RefreshURL:             getEnv("AUTH_REFRESH_URL", baseURL+"/auth/refresh"),
			Secret:                 getEnv("JWT_SECRET", "dev-secret-change-in-production"),
			Expiration:             jwtExp,
			RefreshTokenExpiration: refreshExp,
		},
		Sync: SyncConfig{
			MaxAuthRetries: getEnvAsInt("MAX_AUTH_RETRIES", 1),
			CacheDriver:    strings.ToLower(getEnv("CACHE_DRIVER", CacheNone)),
			CacheDSN:       getEnv("CACHE_DSN", ""),
			GameID:         getEnvAsInt("GAME_ID", 0),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 4096),
			MaxMessageSize:  int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", 1048576)),
			WriteWait:       10 * time.Second,
			PongWait:        pongWait,
			PingPeriod:      pongWait * 9 / 10,
			MaxConnPerView:  getEnvAsInt("WS_MAX_CONN_PER_VIEW", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PATCH,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,X-Request-ID"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
	}

	if cfg.Sync.MaxAuthRetries < 0 {
		return nil, fmt.Errorf("invalid MAX_AUTH_RETRIES: must not be negative")
	}
	switch cfg.Sync.CacheDriver {
	case CacheNone, CacheCouch, CacheSQLite:
	default:
		return nil, fmt.Errorf("invalid CACHE_DRIVER %q", cfg.Sync.CacheDriver)
	}

	return cfg, nil
}

func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
