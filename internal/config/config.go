package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	AppEnv         string        `env:"APP_ENV" envDefault:"development"`
	APIAddr        string        `env:"API_ADDR" envDefault:":8080"`
	PostgresDSN    string        `env:"POSTGRES_DSN,notEmpty"`
	RedisAddr      string        `env:"REDIS_ADDR,notEmpty"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	QueuePrefix    string        `env:"QUEUE_PREFIX" envDefault:"wakaq"`
	QueuesFile     string        `env:"QUEUES_FILE" envDefault:"queues.yaml"`
	SchedTick      time.Duration `env:"SCHEDULER_TICK" envDefault:"1s"`
	EtaBatch       int64         `env:"ETA_BATCH" envDefault:"200"`
	ReconcileAfter time.Duration `env:"RECONCILE_AFTER" envDefault:"1m"`
}

// Load reads an optional .env file (plus any extra files given) and parses
// the environment into Config.
func Load(files ...string) (Config, error) {
	// a missing default .env is fine
	_ = godotenv.Load()
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Config{}, errors.Wrap(err, "load env files")
		}
	}
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	return c, nil
}
