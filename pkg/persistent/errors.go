package persistent

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by GetStorage before InitStorage succeeded.
var ErrNotInitialized = errors.New("storage not initialized, call InitStorage first")

// ConfigError reports that the storage directory or backing file could not
// be prepared. Callers should treat it as fatal at startup.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("failed to prepare storage at %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DecodeError reports a backing file that is not a JSON object. The store
// recovers from it by starting empty.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FlushError reports a failed rewrite of the backing file. The in-memory
// cache keeps the mutation that triggered the flush.
type FlushError struct {
	Path       string
	Generation uint64
	Err        error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("failed to flush generation %d to %s: %v", e.Generation, e.Path, e.Err)
}

func (e *FlushError) Unwrap() error { return e.Err }
