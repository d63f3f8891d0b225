package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Bus drivers understood by the server.
const (
	BusMemory = "memory"
	BusRedis  = "redis"
	BusNATS   = "nats"
)

// Presence stores understood by the server.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	ServerAddr string `env:"SERVER_ADDR,default=:8080" validate:"required"`
	JWTSecret  string `env:"JWT_SECRET,required=true" validate:"required,min=16"`

	BusDriver     string `env:"BUS_DRIVER,default=memory" validate:"oneof=memory redis nats"`
	PresenceStore string `env:"PRESENCE_STORE,default=memory" validate:"oneof=memory redis"`
	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379"`
	NATSURL       string `env:"NATS_URL,default=nats://localhost:4222"`

	MessageGroup  string `env:"MESSAGE_GROUP,default=message_event_group" validate:"required"`
	PresenceGroup string `env:"PRESENCE_GROUP,default=user_presence_group" validate:"required"`
	RoomGroup     string `env:"ROOM_GROUP,default=chatroom_event_group" validate:"required"`

	UserServiceURL      string        `env:"USER_SERVICE_URL" validate:"omitempty,url"`
	ChatServiceURL      string        `env:"CHAT_SERVICE_URL" validate:"omitempty,url"`
	CollaboratorTimeout time.Duration `env:"COLLABORATOR_TIMEOUT,default=3s"`

	// Comma separated host patterns accepted on the upgrade request besides
	// the server's own host. "*" disables the origin check.
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	// Upgrade requests allowed per client IP per minute. Zero disables the limit.
	UpgradeRateLimit int `env:"UPGRADE_RATE_LIMIT,default=60" validate:"gte=0"`

	LogFormat string `env:"LOG_FORMAT,default=text" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL,default=debug"`

	TracingEnabled     bool   `env:"PUBSUB_TRACING_ENABLED,default=false"`
	TracingServiceName string `env:"PUBSUB_TRACING_SERVICE_NAME,default=chatrelay"`
	TracingZipkinURL   string `env:"PUBSUB_TRACING_ZIPKIN_URL,default=http://localhost:9411/api/v2/spans"`
}

var validate = validator.New()

// New loads configuration from a .env file (if present) and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnviron()
}

// FromEnviron decodes the current process environment without touching .env.
func FromEnviron() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.BusDriver == BusRedis || cfg.PresenceStore == StoreRedis {
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("invalid config: REDIS_ADDR is required for the redis driver")
		}
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins into host patterns.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
