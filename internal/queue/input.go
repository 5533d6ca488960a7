package queue

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Input is one of the three shapes Create accepts: Existing, Pair or BareName.
type Input interface {
	// rawName is the name the input refers to, before sanitization.
	rawName() (string, error)
	build() (Definition, error)
}

// Existing passes an already validated Definition through Create.
type Existing struct {
	Definition Definition
}

// A zero Definition was never validated by New and is rejected.
func (e Existing) rawName() (string, error) {
	if e.Definition.name == "" {
		return "", invalid("name", "", "Invalid queue name: %s", "")
	}
	return e.Definition.name, nil
}

func (e Existing) build() (Definition, error) {
	if _, err := e.rawName(); err != nil {
		return Definition{}, err
	}
	return e.Definition, nil
}

// Pair is an ordered (priority, name) or (name, priority) couple. When First
// is an integer it is the priority and Second the name, otherwise First is
// the name and Second the priority. Both Pair{5, "emails"} and
// Pair{"emails", 5} resolve to the same queue.
type Pair struct {
	First  any
	Second any
}

func (p Pair) split() (name, priority any) {
	if isInteger(p.First) {
		return p.Second, p.First
	}
	return p.First, p.Second
}

func (p Pair) rawName() (string, error) {
	name, _ := p.split()
	s, ok := name.(string)
	if !ok {
		return "", invalid("name", name, "Invalid queue name: %v", name)
	}
	return s, nil
}

func (p Pair) build() (Definition, error) {
	name, err := p.rawName()
	if err != nil {
		return Definition{}, err
	}
	_, priority := p.split()
	return New(name, WithPriority(priority))
}

// BareName refers to a queue by name, every other field takes its default.
type BareName string

func (n BareName) rawName() (string, error)   { return string(n), nil }
func (n BareName) build() (Definition, error) { return New(string(n)) }

// Create resolves in to a Definition. When known is non-nil the sanitized name
// must be registered there or an *UnknownQueueError is returned; a nil
// registry skips the check.
func Create(in Input, known *Registry) (Definition, error) {
	if in == nil {
		return Definition{}, invalid("queue", nil, "Invalid queue name: %v", nil)
	}
	raw, err := in.rawName()
	if err != nil {
		return Definition{}, err
	}
	if known != nil {
		if name := Sanitize(raw); !known.Has(name) {
			return Definition{}, &UnknownQueueError{Name: name}
		}
	}
	return in.build()
}

// ParseInput maps loosely typed input, as produced by decoding JSON or YAML,
// onto one of the Input variants.
func ParseInput(v any) (Input, error) {
	switch x := v.(type) {
	case Input:
		return x, nil
	case Definition:
		return Existing{Definition: x}, nil
	case *Definition:
		if x != nil {
			return Existing{Definition: *x}, nil
		}
	case string:
		return BareName(x), nil
	case []any:
		if len(x) == 2 {
			return Pair{First: x[0], Second: x[1]}, nil
		}
	case [2]any:
		return Pair{First: x[0], Second: x[1]}, nil
	case []string:
		if len(x) == 2 {
			return Pair{First: x[0], Second: x[1]}, nil
		}
	}
	return nil, invalid("queue", v, "Invalid queue name: %v", v)
}

func isInteger(v any) bool {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := x.Int64()
		return err == nil
	}
	return false
}

// Ref is a queue reference as it appears in config files and request bodies:
// "emails", [5, "emails"] or ["emails", 5].
type Ref struct {
	Input
}

// Resolve is shorthand for Create(r.Input, known).
func (r Ref) Resolve(known *Registry) (Definition, error) {
	return Create(r.Input, known)
}

func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if node.Kind == yaml.ScalarNode {
		v = node.Value
	} else if err := node.Decode(&v); err != nil {
		return err
	}
	in, err := ParseInput(v)
	if err != nil {
		return err
	}
	r.Input = in
	return nil
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	in, err := ParseInput(v)
	if err != nil {
		return err
	}
	r.Input = in
	return nil
}
