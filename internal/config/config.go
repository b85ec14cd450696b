package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type DB struct {
	URL             string        `env:"DATABASE_URL,required"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"16"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"8"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"15m"`
}

type Kafka struct {
	BootstrapServers string        `env:"KAFKA_BOOTSTRAP_SERVERS"`
	Topic            string        `env:"KAFKA_NOTIFICATIONS_TOPIC" envDefault:"asistencia.notificaciones"`
	DispatchInterval time.Duration `env:"NOTIFY_DISPATCH_INTERVAL" envDefault:"30s"`
}

// Enabled reports whether a broker was configured; without one the
// dispatcher never starts and snapshots just accumulate with enviado=false.
func (k Kafka) Enabled() bool {
	return k.BootstrapServers != ""
}

type Config struct {
	DB    DB
	Kafka Kafka
	Port  string `env:"PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
