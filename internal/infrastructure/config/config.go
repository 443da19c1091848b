package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth      AuthConfig
	RateLimit RateLimitConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Google    GoogleConfig
}

type AuthConfig struct {
	JWTSecret             string `env:"JWT_SECRET, required"`
	TokenAlgorithm        string `env:"TOKEN_ALGORITHM,              default=HS256"`
	AccessTokenTTLMinutes int    `env:"ACCESS_TOKEN_TTL_MINUTES,     default=30"`
	VerificationTTLHours  int    `env:"VERIFICATION_TOKEN_TTL_HOURS, default=24"`
	ResetTTLHours         int    `env:"RESET_TOKEN_TTL_HOURS,        default=24"`
}

type RateLimitConfig struct {
	PerMinute int    `env:"RATE_LIMIT_PER_MINUTE, default=5"`
	Backend   string `env:"RATE_LIMIT_BACKEND,    default=memory"` // memory | redis
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth_service"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type GoogleConfig struct {
	UserinfoURL string `env:"GOOGLE_USERINFO_URL, default=https://www.googleapis.com/oauth2/v3/userinfo"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// IsProduction reports whether the service runs in production. Raw
// verification and reset tokens are only echoed in responses outside it.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
