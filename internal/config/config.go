package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Ledger     Ledger `yaml:"ledger"`
	Agent      Agent  `yaml:"agent"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Ledger struct {
	Path string `yaml:"path" env:"LEDGER_PATH" env-default:"gungi.db"`
	// Required rejects moves the journal cannot record; when false a
	// journal failure is only logged and play continues.
	Required bool `yaml:"required" env:"LEDGER_REQUIRED" env-default:"true"`
}

type Agent struct {
	MoveTimeout time.Duration `yaml:"move-timeout" env:"AGENT_MOVE_TIMEOUT" env-default:"5s"`
	ThinkDelay  time.Duration `yaml:"think-delay" env:"AGENT_THINK_DELAY" env-default:"100ms"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
