package logging_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danielpodrazka/wakaq/internal/logging"
	"github.com/danielpodrazka/wakaq/internal/queue"
)

func TestNew(t *testing.T) {
	log, err := logging.New("production", "warn")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	_, err = logging.New("development", "loud")
	assert.Error(t, err)
}

func TestQueueField(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	q, err := queue.New("emails", queue.WithPriority(2), queue.WithHardTimeout(90), queue.WithMaxRetries(1))
	require.NoError(t, err)
	log.Info("registered", logging.Queue(q))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	got, ok := fields["queue"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "emails", got["name"])
	assert.Equal(t, "wakaq:emails", got["broker_key"])
	assert.Equal(t, "wakaq:eta:emails", got["broker_eta_key"])
	assert.EqualValues(t, 2, got["priority"])
	assert.Equal(t, 90*time.Second, got["hard_timeout"])
	assert.EqualValues(t, 1, got["max_retries"])
	assert.NotContains(t, got, "soft_timeout")
}
