package bounce

import "fmt"

// ConfigError reports a configuration value the simulator refuses to run with.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("bounce: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}
