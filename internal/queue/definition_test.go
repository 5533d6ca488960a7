package queue_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpodrazka/wakaq/internal/queue"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"orders", "orders"},
		{"orders!!", "orders"},
		{"app@@", "app"},
		{"a b:c/d", "abcd"},
		{"My_Queue.v2-high", "My_Queue.v2-high"},
		{"eta:emails", "etaemails"},
		{"ünïcode", "ncode"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := queue.Sanitize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, queue.Sanitize(got), "sanitize must be idempotent")
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	d, err := queue.New("x")
	require.NoError(t, err)

	assert.Equal(t, "x", d.Name())
	assert.Equal(t, queue.DefaultPrefix, d.Prefix())
	assert.Equal(t, -1, d.Priority())
	assert.Equal(t, "wakaq:x", d.BrokerKey())
	assert.Equal(t, "wakaq:eta:x", d.BrokerEtaKey())

	_, ok := d.SoftTimeout()
	assert.False(t, ok)
	_, ok = d.HardTimeout()
	assert.False(t, ok)
	_, ok = d.MaxRetries()
	assert.False(t, ok, "max retries should be unset")
}

func TestNew_SanitizesNameAndPrefix(t *testing.T) {
	d, err := queue.New("orders!!", queue.WithPrefix("app@@"))
	require.NoError(t, err)
	assert.Equal(t, "app:orders", d.BrokerKey())
	assert.Equal(t, "app:eta:orders", d.BrokerEtaKey())
	assert.Equal(t, "app:orders", d.String())
}

func TestNew_EmptyPrefixFallsBackToDefault(t *testing.T) {
	d, err := queue.New("x", queue.WithPrefix(""))
	require.NoError(t, err)
	assert.Equal(t, "wakaq", d.Prefix())
}

func TestNew_Priority(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"int", 5, 5},
		{"int64", int64(7), 7},
		{"numeric string", "3", 3},
		{"padded string", " 12 ", 12},
		{"negative string", "-4", -4},
		{"float truncates", 2.9, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := queue.New("x", queue.WithPriority(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Priority())
		})
	}
}

func TestNew_InvalidPriority(t *testing.T) {
	for _, v := range []any{"not-a-number", "1.5", nil, struct{}{}} {
		_, err := queue.New("x", queue.WithPriority(v))
		require.Error(t, err)
		assert.ErrorIs(t, err, queue.ErrInvalidDefinition)

		var invalid *queue.InvalidDefinitionError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "priority", invalid.Field)
		assert.Equal(t, v, invalid.Value)
	}

	_, err := queue.New("x", queue.WithPriority("not-a-number"))
	assert.EqualError(t, err, "Invalid queue priority: not-a-number")
}

func TestNew_Timeouts(t *testing.T) {
	d, err := queue.New("x", queue.WithSoftTimeout(30), queue.WithHardTimeout(60))
	require.NoError(t, err)

	soft, ok := d.SoftTimeout()
	require.True(t, ok)
	assert.Equal(t, 30.0, soft.Seconds())

	hard, ok := d.HardTimeout()
	require.True(t, ok)
	assert.Equal(t, 60.0, hard.Seconds())
}

func TestNew_TimeoutShapes(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"duration", 90 * time.Second, 90 * time.Second},
		{"int seconds", 45, 45 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"numeric string", "20", 20 * time.Second},
		{"duration string", "2m", 2 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := queue.New("x", queue.WithSoftTimeout(tt.value))
			require.NoError(t, err)
			got, ok := d.SoftTimeout()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_HardTimeoutMustExceedSoft(t *testing.T) {
	_, err := queue.New("x", queue.WithSoftTimeout(30), queue.WithHardTimeout(30))
	require.Error(t, err)
	assert.ErrorIs(t, err, queue.ErrInvalidDefinition)
	assert.EqualError(t, err, "Queue hard timeout (30) can not be less than or equal to soft timeout (30).")

	_, err = queue.New("x", queue.WithSoftTimeout(time.Minute), queue.WithHardTimeout(10))
	assert.EqualError(t, err, "Queue hard timeout (10) can not be less than or equal to soft timeout (60).")

	// A present zero is still a value and takes part in the ordering check.
	_, err = queue.New("x", queue.WithSoftTimeout(30), queue.WithHardTimeout(0))
	assert.ErrorIs(t, err, queue.ErrInvalidDefinition)

	_, err = queue.New("x", queue.WithSoftTimeout(0), queue.WithHardTimeout(30))
	assert.NoError(t, err)
}

func TestNew_OnlyOneTimeout(t *testing.T) {
	d, err := queue.New("x", queue.WithHardTimeout(10))
	require.NoError(t, err)
	_, ok := d.SoftTimeout()
	assert.False(t, ok)
	hard, ok := d.HardTimeout()
	assert.True(t, ok)
	assert.Equal(t, 10*time.Second, hard)
}

func TestNew_InvalidTimeouts(t *testing.T) {
	_, err := queue.New("x", queue.WithSoftTimeout("soon"))
	assert.EqualError(t, err, "Invalid queue soft timeout: soon")

	_, err = queue.New("x", queue.WithHardTimeout(-5))
	assert.EqualError(t, err, "Invalid queue hard timeout: -5")
}

func TestNew_MaxRetries(t *testing.T) {
	d, err := queue.New("x", queue.WithMaxRetries("3"))
	require.NoError(t, err)
	n, ok := d.MaxRetries()
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	d, err = queue.New("x", queue.WithMaxRetries(0))
	require.NoError(t, err)
	n, ok = d.MaxRetries()
	assert.True(t, ok, "explicit zero is present")
	assert.Zero(t, n)

	_, err = queue.New("x", queue.WithMaxRetries("bad"))
	assert.ErrorIs(t, err, queue.ErrInvalidDefinition)
	assert.EqualError(t, err, "Invalid queue max retries: bad")

	_, err = queue.New("x", queue.WithMaxRetries(-1))
	assert.EqualError(t, err, "Invalid queue max retries: -1")
}

func TestNew_EmptyNameRejected(t *testing.T) {
	_, err := queue.New("")
	assert.ErrorIs(t, err, queue.ErrInvalidDefinition)

	_, err = queue.New("!!!")
	assert.EqualError(t, err, "Invalid queue name: !!!")

	_, err = queue.New("x", queue.WithPrefix("@@"))
	assert.EqualError(t, err, "Invalid queue prefix: @@")
}

func TestKeysDoNotCollide(t *testing.T) {
	a, err := queue.New("eta:x")
	require.NoError(t, err)
	b, err := queue.New("x")
	require.NoError(t, err)

	assert.Equal(t, "wakaq:etax", a.BrokerKey())
	assert.NotEqual(t, a.BrokerKey(), b.BrokerEtaKey())
}

func TestNew_BlankMaxRetriesIsUnset(t *testing.T) {
	for _, v := range []any{nil, "", "  "} {
		d, err := queue.New("x", queue.WithMaxRetries(v))
		require.NoError(t, err)
		_, ok := d.MaxRetries()
		assert.False(t, ok, "%q should leave max retries unset", v)
	}
}
