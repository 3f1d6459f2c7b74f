package ledgerctl

import (
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
)

// Failure is how a failed command is reported to the shell.
type Failure struct {
	// Code is the process exit status: the gRPC code of a domain error,
	// or 1 for anything else.
	Code    int
	Message string
}

// Describe maps err to its exit status and message. Domain errors carry
// their reason so scripts can match on it.
func Describe(err error) Failure {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		return Failure{Code: 1, Message: err.Error()}
	}
	st := status.Convert(appErr.ToGRPCStatus())
	reason := string(appErr.Code)
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			reason = info.GetReason()
		}
	}
	return Failure{
		Code:    int(st.Code()),
		Message: fmt.Sprintf("%v [%s]", err, reason),
	}
}
