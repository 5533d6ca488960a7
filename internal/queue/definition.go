package queue

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const (
	// DefaultPrefix namespaces broker keys when no prefix is configured.
	DefaultPrefix = "wakaq"

	// DefaultPriority is used when no priority is supplied.
	DefaultPriority = -1
)

// Definition is an immutable, validated descriptor of one work queue.
// Values are safe to copy and share between goroutines.
type Definition struct {
	name     string
	prefix   string
	priority int

	softTimeout    time.Duration
	hasSoftTimeout bool
	hardTimeout    time.Duration
	hasHardTimeout bool

	maxRetries    int
	hasMaxRetries bool
}

type options struct {
	prefix      string
	priority    any
	softTimeout any
	hardTimeout any
	maxRetries  any
}

// Option customizes a Definition built by New.
type Option func(*options)

// WithPrefix sets the broker key prefix. An empty prefix keeps DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithPriority accepts anything convertible to an integer, e.g. 5 or "5".
func WithPriority(priority any) Option {
	return func(o *options) { o.priority = priority }
}

// WithSoftTimeout accepts a time.Duration, a number of seconds, or a string
// holding either seconds ("30") or a Go duration ("30s"). Nil leaves it unset.
func WithSoftTimeout(timeout any) Option {
	return func(o *options) { o.softTimeout = timeout }
}

// WithHardTimeout accepts the same values as WithSoftTimeout.
func WithHardTimeout(timeout any) Option {
	return func(o *options) { o.hardTimeout = timeout }
}

// WithMaxRetries caps retries for jobs on the queue. Nil or a blank string
// leaves it unset and zero means jobs are never retried.
func WithMaxRetries(maxRetries any) Option {
	return func(o *options) { o.maxRetries = maxRetries }
}

// New validates the input and returns a Definition. Any violation returns an
// *InvalidDefinitionError and no Definition.
func New(name string, opts ...Option) (Definition, error) {
	o := options{priority: DefaultPriority}
	for _, opt := range opts {
		opt(&o)
	}

	d := Definition{name: Sanitize(name)}
	if o.prefix == "" {
		o.prefix = DefaultPrefix
	}
	d.prefix = Sanitize(o.prefix)

	if d.name == "" {
		return Definition{}, invalid("name", name, "Invalid queue name: %s", name)
	}
	if d.prefix == "" {
		return Definition{}, invalid("prefix", o.prefix, "Invalid queue prefix: %s", o.prefix)
	}

	priority, err := toInt(o.priority)
	if err != nil {
		return Definition{}, invalid("priority", o.priority, "Invalid queue priority: %v", o.priority)
	}
	d.priority = priority

	d.softTimeout, d.hasSoftTimeout, err = toSeconds(o.softTimeout)
	if err != nil || d.softTimeout < 0 {
		return Definition{}, invalid("soft_timeout", o.softTimeout, "Invalid queue soft timeout: %v", o.softTimeout)
	}
	d.hardTimeout, d.hasHardTimeout, err = toSeconds(o.hardTimeout)
	if err != nil || d.hardTimeout < 0 {
		return Definition{}, invalid("hard_timeout", o.hardTimeout, "Invalid queue hard timeout: %v", o.hardTimeout)
	}

	if d.hasSoftTimeout && d.hasHardTimeout && d.hardTimeout <= d.softTimeout {
		return Definition{}, invalid("hard_timeout", o.hardTimeout,
			"Queue hard timeout (%s) can not be less than or equal to soft timeout (%s).",
			formatSeconds(d.hardTimeout), formatSeconds(d.softTimeout))
	}

	if !blank(o.maxRetries) {
		retries, err := toInt(o.maxRetries)
		if err != nil || retries < 0 {
			return Definition{}, invalid("max_retries", o.maxRetries, "Invalid queue max retries: %v", o.maxRetries)
		}
		d.maxRetries, d.hasMaxRetries = retries, true
	}

	return d, nil
}

func (d Definition) Name() string   { return d.name }
func (d Definition) Prefix() string { return d.prefix }
func (d Definition) Priority() int  { return d.priority }

// SoftTimeout reports the soft execution limit and whether one was set.
func (d Definition) SoftTimeout() (time.Duration, bool) { return d.softTimeout, d.hasSoftTimeout }

// HardTimeout reports the hard execution limit and whether one was set.
func (d Definition) HardTimeout() (time.Duration, bool) { return d.hardTimeout, d.hasHardTimeout }

// MaxRetries reports the retry cap. ok is false when the system default applies.
func (d Definition) MaxRetries() (n int, ok bool) { return d.maxRetries, d.hasMaxRetries }

// BrokerKey addresses the list of jobs ready to run.
func (d Definition) BrokerKey() string { return d.prefix + ":" + d.name }

// BrokerEtaKey addresses the sorted set of jobs scheduled for later.
func (d Definition) BrokerEtaKey() string { return d.prefix + ":eta:" + d.name }

func (d Definition) String() string { return d.BrokerKey() }

// toInt converts numeric strings and numbers, truncating fractional
// values. Nil and anything else fail.
func toInt(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, strconv.ErrSyntax
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, err
		}
		return int(f), nil
	}
	return cast.ToIntE(v)
}

// blank reports whether v means "not supplied": nil or a blank string.
func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func toSeconds(v any) (time.Duration, bool, error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case time.Duration:
		return x, true, nil
	case *time.Duration:
		if x == nil {
			return 0, false, nil
		}
		return *x, true, nil
	case json.Number:
		return toSeconds(x.String())
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false, nil
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return fromSeconds(secs), true, nil
		}
		d, err := time.ParseDuration(s)
		return d, err == nil, err
	}
	secs, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false, err
	}
	return fromSeconds(secs), true, nil
}

func fromSeconds(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
