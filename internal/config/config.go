package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis     `yaml:"redis"`
	Engine     Engine    `yaml:"engine"`
	Session    Session   `yaml:"session"`
	RateLimit  RateLimit `yaml:"rate-limit"`
}

type Redis struct {
	Enabled        bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host           string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port           string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	ChannelPrefix  string        `yaml:"channel-prefix" env:"REDIS_CHANNEL_PREFIX" env-default:"game"`
	PublishTimeout time.Duration `yaml:"publish-timeout" env:"REDIS_PUBLISH_TIMEOUT" env-default:"2s"`
}

type Engine struct {
	DefaultDifficulty string        `yaml:"default-difficulty" env:"ENGINE_DEFAULT_DIFFICULTY" env-default:"expert"`
	ReplyDelay        time.Duration `yaml:"reply-delay" env:"ENGINE_REPLY_DELAY" env-default:"0s"`
	// Seed fixes the random moves of every session when non-zero.
	Seed uint64 `yaml:"seed" env:"ENGINE_SEED" env-default:"0"`
}

type Session struct {
	TTL             time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"2h"`
	CleanupInterval time.Duration `yaml:"cleanup-interval" env:"SESSION_CLEANUP_INTERVAL" env-default:"10m"`
}

type RateLimit struct {
	RPS   int `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"5"`
	Burst int `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads path and applies environment overrides on top of it.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
