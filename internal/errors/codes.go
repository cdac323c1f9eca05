// Package errors provides structured error handling for the narrative
// engine and its surfaces.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// State document errors
	CodeStateSchemaUnsupported Code = "STATE_SCHEMA_UNSUPPORTED"
	CodeStateDecodeFailed      Code = "STATE_DECODE_FAILED"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeStaleRevision Code = "STALE_REVISION"
	CodeStorageFailed Code = "STORAGE_FAILED"

	// Scenario tooling errors
	CodeScenarioLoadFailed  Code = "SCENARIO_LOAD_FAILED"
	CodeScenarioInvalidStep Code = "SCENARIO_INVALID_STEP"
	CodeAssertionFailed     Code = "ASSERTION_FAILED"

	// Configuration errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
)
