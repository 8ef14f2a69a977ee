// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Codes map to the failure taxonomy of a snapshot run: a failed control-plane
// query is UNAVAILABLE, artifacts that disagree are INCONSISTENT, a missing
// artifact is NOT_FOUND and one recorded from a failed command is
// ARTIFACT_FAILED.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeUnavailable,
//	    "control plane query failed",
//	    cause,
//	    map[string]any{
//	        "command": "ceph mon_status",
//	    },
//	)
package errors
