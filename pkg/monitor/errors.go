package monitor

import "fmt"

// ConfigError reports an invalid pool or monitor configuration. It is
// returned eagerly from constructors; a bad configuration is never
// discovered by a permanently blocked agent.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "monitor: invalid config: " + e.Reason }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// ProtocolError is the panic payload for API misuse: releasing a grant
// twice, returning more than was taken, or naming a dimension the pool
// doesn't have. These are programming errors in the caller, not wait
// conditions, and the monitor refuses to silently corrupt its counters.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "monitor: protocol violation: " + e.Reason }

func protocolPanic(format string, args ...interface{}) {
	panic(&ProtocolError{Reason: fmt.Sprintf(format, args...)})
}
