package virtual

import (
	"errors"
	"fmt"
)

// Configuration errors. They are returned wrapped in a *ConfigError.
var (
	ErrInvalidItemHeight = errors.New("item height must be a positive finite number")
	ErrInvalidOverscan   = errors.New("overscan must not be negative")
	ErrInvalidDelay      = errors.New("delay must not be negative")
	ErrInvalidInitial    = errors.New("initial items to load must be positive")
	ErrInvalidIncrement  = errors.New("increment amount must be positive")
	ErrInvalidThreshold  = errors.New("threshold must be a non-negative finite number")
	ErrNilScheduler      = errors.New("scheduler is required")
	ErrFetchType         = errors.New("fetch function item type does not match the loader")
)

// ConfigError reports an option rejected at construction.
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("virtual: invalid %s (%v): %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
