package qkd

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInsufficientSample is returned when a spot check is asked for more
	// positions than the key holds, or for none from a non-empty key.
	ErrInsufficientSample = errors.New("insufficient sample")

	// ErrInvalidThreshold is returned when a risk threshold is not positive.
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrInvalidConfig is matched by every *ConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrRiskSaturated is returned by Pipeline.Run when the observed mismatch
	// rate saturates the risk score and the run is configured to abort.
	ErrRiskSaturated = errors.New("risk saturated")
)

// ConfigError describes a configuration value which failed validation.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
