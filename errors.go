package tiercache

import "fmt"

// ConfigError reports an invalid configuration value. It is fatal to the
// manager it was handed to: no Cache is constructed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tiercache: invalid config %s: %s", e.Field, e.Reason)
}

// ConnectivityError reports that the remote tier could not be reached or did
// not answer in time. It is distinct from a miss: presence of the key could
// not be determined.
type ConnectivityError struct {
	Op      string // "get", "set", "hget", ...
	Key     string
	Timeout bool
	Err     error
}

func (e *ConnectivityError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("tiercache: %s %q timed out: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("tiercache: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// PoolExhaustedError reports that no connection could be borrowed from the
// remote pool within the pool timeout.
type PoolExhaustedError struct {
	Op  string
	Err error
}

func (e *PoolExhaustedError) Error() string {
	return fmt.Sprintf("tiercache: %s: connection pool exhausted: %v", e.Op, e.Err)
}

func (e *PoolExhaustedError) Unwrap() error { return e.Err }

// PartialFailureError reports that a combined-tier mutation succeeded on one
// tier and failed on the other. The caller must assume another instance may
// still observe the stale remote value.
type PartialFailureError struct {
	Op        string
	Key       string
	LocalErr  error
	RemoteErr error
}

func (e *PartialFailureError) Error() string {
	switch {
	case e.LocalErr != nil && e.RemoteErr != nil:
		return fmt.Sprintf("tiercache: %s %q failed on both tiers: local=%v; remote=%v",
			e.Op, e.Key, e.LocalErr, e.RemoteErr)
	case e.RemoteErr != nil:
		return fmt.Sprintf("tiercache: %s %q applied locally but failed on remote: %v",
			e.Op, e.Key, e.RemoteErr)
	case e.LocalErr != nil:
		return fmt.Sprintf("tiercache: %s %q applied on remote but failed locally: %v",
			e.Op, e.Key, e.LocalErr)
	default:
		return fmt.Sprintf("tiercache: %s %q: partial failure", e.Op, e.Key)
	}
}

func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.LocalErr != nil {
		errs = append(errs, e.LocalErr)
	}
	if e.RemoteErr != nil {
		errs = append(errs, e.RemoteErr)
	}
	return errs
}

// SerializationError reports that the typed layer could not encode or decode
// a payload with the configured codec.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("tiercache: codec failure for %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
