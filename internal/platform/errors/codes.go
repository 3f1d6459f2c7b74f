// Package errors provides structured error handling for challenge.space.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeValidation covers malformed input, bad phase sequences and
	// malformed scorecard or question references.
	CodeValidation Code = "VALIDATION"
	// CodeNotFound covers missing challenges, projects, submissions and users.
	CodeNotFound Code = "NOT_FOUND"
	// CodeForbidden covers role, ownership and phase-gating violations.
	CodeForbidden Code = "FORBIDDEN"
	// CodeConflict covers duplicate identities on create.
	CodeConflict Code = "CONFLICT"
	// CodeConsistency flags a ledger result whose shape disagrees with the
	// local schema. It is never retried.
	CodeConsistency Code = "CONSISTENCY"
	// CodeUnauthenticated covers missing or invalid bearer credentials.
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	// CodeBusy reports a challenge that is already being transitioned.
	CodeBusy Code = "BUSY"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeValidation:
		return codes.InvalidArgument
	case CodeNotFound:
		return codes.NotFound
	case CodeForbidden:
		return codes.PermissionDenied
	case CodeConflict:
		return codes.AlreadyExists
	case CodeConsistency:
		return codes.DataLoss
	case CodeUnauthenticated:
		return codes.Unauthenticated
	case CodeBusy:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// Retryable reports whether a caller may retry an operation that failed with
// this code without changing its input. Unknown covers transport and
// deadline failures that carry no domain code.
func (c Code) Retryable() bool {
	return c == CodeBusy || c == CodeUnknown
}
