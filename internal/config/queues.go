package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/danielpodrazka/wakaq/internal/queue"
)

// QueuesFile is the on-disk shape of the queue list:
//
//	prefix: app
//	queues:
//	  - emails
//	  - [5, reports]
//	  - name: billing
//	    priority: 1
//	    soft_timeout: 30s
//	    hard_timeout: 60
//	    max_retries: 3
type QueuesFile struct {
	Prefix string       `yaml:"prefix"`
	Queues []QueueEntry `yaml:"queues"`
}

// QueueEntry is either a short reference or a full definition.
type QueueEntry struct {
	ref  *queue.Ref
	full *queueFields
}

type queueFields struct {
	Name        string `yaml:"name"`
	Prefix      string `yaml:"prefix"`
	Priority    any    `yaml:"priority"`
	SoftTimeout any    `yaml:"soft_timeout"`
	HardTimeout any    `yaml:"hard_timeout"`
	MaxRetries  any    `yaml:"max_retries"`
}

func (e *QueueEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		e.full = &queueFields{}
		return node.Decode(e.full)
	}
	e.ref = &queue.Ref{}
	return node.Decode(e.ref)
}

// Definition builds the queue described by the entry. defaultPrefix applies
// when the entry sets none.
func (e QueueEntry) Definition(defaultPrefix string) (queue.Definition, error) {
	if e.full != nil {
		f := e.full
		prefix := f.Prefix
		if prefix == "" {
			prefix = defaultPrefix
		}
		opts := []queue.Option{
			queue.WithPrefix(prefix),
			queue.WithSoftTimeout(f.SoftTimeout),
			queue.WithHardTimeout(f.HardTimeout),
			queue.WithMaxRetries(f.MaxRetries),
		}
		if f.Priority != nil {
			opts = append(opts, queue.WithPriority(f.Priority))
		}
		return queue.New(f.Name, opts...)
	}
	if e.ref == nil {
		return queue.Definition{}, errors.New("empty queue entry")
	}
	d, err := e.ref.Resolve(nil)
	if err != nil {
		return queue.Definition{}, err
	}
	return queue.New(d.Name(), queue.WithPrefix(defaultPrefix), queue.WithPriority(d.Priority()))
}

// ParseQueues builds a registry from YAML. The file's prefix wins over
// defaultPrefix.
func ParseQueues(data []byte, defaultPrefix string) (*queue.Registry, error) {
	var f QueuesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode queues")
	}
	prefix := defaultPrefix
	if f.Prefix != "" {
		prefix = f.Prefix
	}
	defs := make([]queue.Definition, 0, len(f.Queues))
	for i, entry := range f.Queues {
		d, err := entry.Definition(prefix)
		if err != nil {
			return nil, errors.Wrapf(err, "queue #%d", i)
		}
		defs = append(defs, d)
	}
	reg, err := queue.NewRegistry(defs...)
	return reg, errors.Wrap(err, "queues")
}

// LoadQueues reads path and builds the registry of known queues.
func LoadQueues(path, defaultPrefix string) (*queue.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read queues file")
	}
	return ParseQueues(data, defaultPrefix)
}
