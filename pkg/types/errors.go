package types

import "fmt"

// ConfigLoadError reports a data table or configuration that could not be read or parsed.
// Nothing can be analyzed without these tables, so callers treat it as fatal.
type ConfigLoadError struct {
	Source string
	Err    error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }
