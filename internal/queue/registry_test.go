package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpodrazka/wakaq/internal/queue"
)

func mustNew(t *testing.T, name string, opts ...queue.Option) queue.Definition {
	t.Helper()
	d, err := queue.New(name, opts...)
	require.NoError(t, err)
	return d
}

func TestRegistry_Order(t *testing.T) {
	reg, err := queue.NewRegistry(
		mustNew(t, "low", queue.WithPriority(10)),
		mustNew(t, "b", queue.WithPriority(1)),
		mustNew(t, "a", queue.WithPriority(1)),
		mustNew(t, "default"),
	)
	require.NoError(t, err)

	assert.Equal(t, 4, reg.Len())
	assert.Equal(t, []string{"default", "a", "b", "low"}, reg.Names())

	defs := reg.Definitions()
	require.Len(t, defs, 4)
	assert.Equal(t, "default", defs[0].Name())

	defs[0] = mustNew(t, "mutated")
	assert.Equal(t, "default", reg.Definitions()[0].Name(), "Definitions returns a copy")
}

func TestRegistry_Lookup(t *testing.T) {
	emails := mustNew(t, "emails", queue.WithMaxRetries(2))
	reg, err := queue.NewRegistry(emails)
	require.NoError(t, err)

	assert.True(t, reg.Has("emails"))
	assert.False(t, reg.Has("sms"))

	got, ok := reg.Get("emails")
	require.True(t, ok)
	assert.Equal(t, emails, got)

	_, ok = reg.Get("sms")
	assert.False(t, ok)
}

func TestRegistry_Duplicate(t *testing.T) {
	_, err := queue.NewRegistry(mustNew(t, "emails"), mustNew(t, "emails!", queue.WithPriority(3)))
	assert.ErrorIs(t, err, queue.ErrInvalidDefinition)
	assert.EqualError(t, err, "Duplicate queue name: emails")
}

func TestRegistry_Resolve(t *testing.T) {
	reg, err := queue.NewRegistry(mustNew(t, "emails"))
	require.NoError(t, err)

	d, err := reg.Resolve(queue.Pair{First: 4, Second: "emails"})
	require.NoError(t, err)
	assert.Equal(t, 4, d.Priority())

	_, err = reg.Resolve(queue.BareName("sms"))
	assert.ErrorIs(t, err, queue.ErrUnknownQueue)
}

func TestRegistry_Nil(t *testing.T) {
	var reg *queue.Registry
	assert.False(t, reg.Has("emails"))
	assert.Zero(t, reg.Len())
	assert.Empty(t, reg.Definitions())
	assert.Empty(t, reg.Names())
	_, ok := reg.Get("emails")
	assert.False(t, ok)

	d, err := reg.Resolve(queue.BareName("emails"))
	require.NoError(t, err)
	assert.Equal(t, "emails", d.Name())
}

func TestRegistry_ZeroDefinitionRejected(t *testing.T) {
	_, err := queue.NewRegistry(queue.Definition{})
	assert.ErrorIs(t, err, queue.ErrInvalidDefinition)
}
