package queue

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidDefinition matches every *InvalidDefinitionError.
	ErrInvalidDefinition = errors.New("invalid queue definition")

	// ErrUnknownQueue matches every *UnknownQueueError.
	ErrUnknownQueue = errors.New("unknown queue")
)

// InvalidDefinitionError is returned when a queue can not be constructed
// from the supplied values. Error() keeps the exact wording that tooling
// parses, Field and Value carry the offending input.
type InvalidDefinitionError struct {
	Field string
	Value any
	msg   string
}

func invalid(field string, value any, format string, args ...any) *InvalidDefinitionError {
	return &InvalidDefinitionError{Field: field, Value: value, msg: fmt.Sprintf(format, args...)}
}

func (e *InvalidDefinitionError) Error() string { return e.msg }

func (e *InvalidDefinitionError) Is(target error) bool { return target == ErrInvalidDefinition }

// UnknownQueueError is returned by Create when the resolved name is missing
// from the registry it was checked against.
type UnknownQueueError struct {
	Name string
}

func (e *UnknownQueueError) Error() string { return "Unknown queue: " + e.Name }

func (e *UnknownQueueError) Is(target error) bool { return target == ErrUnknownQueue }
