// Package logging builds the process logger and zap fields for queue types.
package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielpodrazka/wakaq/internal/queue"
)

// New returns a console logger for development and a JSON logger otherwise.
func New(appEnv, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	cfg := zap.NewProductionConfig()
	if appEnv == "development" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Queue renders a queue definition as a structured field.
func Queue(q queue.Definition) zap.Field {
	return zap.Object("queue", queueMarshaler(q))
}

type queueMarshaler queue.Definition

func (m queueMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	q := queue.Definition(m)
	enc.AddString("name", q.Name())
	enc.AddString("prefix", q.Prefix())
	enc.AddInt("priority", q.Priority())
	enc.AddString("broker_key", q.BrokerKey())
	enc.AddString("broker_eta_key", q.BrokerEtaKey())
	if d, ok := q.SoftTimeout(); ok {
		enc.AddDuration("soft_timeout", d)
	}
	if d, ok := q.HardTimeout(); ok {
		enc.AddDuration("hard_timeout", d)
	}
	if n, ok := q.MaxRetries(); ok {
		enc.AddInt("max_retries", n)
	}
	return nil
}
