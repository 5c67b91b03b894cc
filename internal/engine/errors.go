// Package engine assembles the audit snapshot from the two stores and runs
// the detection modules against it, degrading to partial results instead of
// aborting whenever it can.
package engine

import (
	"errors"
	"fmt"

	"soc-audit/internal/models"
)

// ErrNoSnapshotData is returned when every source fetch failed. This is the
// only condition fatal to a whole run.
var ErrNoSnapshotData = errors.New("no snapshot data: all sources unavailable")

// DataSourceUnavailableError marks a source that stayed unreachable after
// the configured retry attempts.
type DataSourceUnavailableError struct {
	Source models.Source
	Err    error
}

func (e *DataSourceUnavailableError) Error() string {
	return fmt.Sprintf("data source unavailable: %s: %v", e.Source, e.Err)
}

func (e *DataSourceUnavailableError) Unwrap() error {
	return e.Err
}

// MalformedRecordError marks a single record that failed validation. The
// adapters skip and count such records; they never abort a fetch.
type MalformedRecordError struct {
	Source models.Source
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record: %s", e.Source, e.Reason)
}

// ModuleExecutionError marks an unexpected failure inside one detection
// module. It is isolated to that module's status and never affects others.
type ModuleExecutionError struct {
	Module string
	Err    error
}

func (e *ModuleExecutionError) Error() string {
	return fmt.Sprintf("module %s failed: %v", e.Module, e.Err)
}

func (e *ModuleExecutionError) Unwrap() error {
	return e.Err
}
