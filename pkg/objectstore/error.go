package objectstore

import (
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	spb "google.golang.org/genproto/googleapis/rpc/status"
)

const (
	errorInfoDomain = "objectstore.bb-segment-storage.buildbarn.github.com"
	errorInfoReason = "OBJECT_STORE_ERROR"
)

// ErrorCode identifies the kind of failure reported by an object store.
// Values use the same numbering as the S3 error enumeration of the AWS
// SDKs, so that codes can be embedded in failure triggers that are
// shared with other implementations.
type ErrorCode int

// Error codes. Only the codes that are translated to distinct gRPC
// status codes are enumerated; others may still be used.
const (
	ErrorCodeInternalFailure         ErrorCode = 1
	ErrorCodeInvalidParameterValue   ErrorCode = 6
	ErrorCodeServiceUnavailable      ErrorCode = 12
	ErrorCodeThrottling              ErrorCode = 13
	ErrorCodeAccessDenied            ErrorCode = 15
	ErrorCodeResourceNotFound        ErrorCode = 16
	ErrorCodeSlowDown                ErrorCode = 19
	ErrorCodeInvalidSignature        ErrorCode = 21
	ErrorCodeSignatureDoesNotMatch   ErrorCode = 22
	ErrorCodeInvalidAccessKeyID      ErrorCode = 23
	ErrorCodeRequestTimeout          ErrorCode = 24
	ErrorCodeNetworkConnection       ErrorCode = 99
	ErrorCodeUnknown                 ErrorCode = 100
	ErrorCodeBucketAlreadyExists     ErrorCode = 130
	ErrorCodeBucketAlreadyOwnedByYou ErrorCode = 131
	ErrorCodeNoSuchBucket            ErrorCode = 133
	ErrorCodeNoSuchKey               ErrorCode = 134
)

// GRPCCode converts an error code to the gRPC status code that is used
// to report it.
func (c ErrorCode) GRPCCode() codes.Code {
	switch c {
	case ErrorCodeResourceNotFound, ErrorCodeNoSuchBucket, ErrorCodeNoSuchKey:
		return codes.NotFound
	case ErrorCodeAccessDenied, ErrorCodeInvalidSignature, ErrorCodeSignatureDoesNotMatch, ErrorCodeInvalidAccessKeyID:
		return codes.PermissionDenied
	case ErrorCodeServiceUnavailable, ErrorCodeThrottling, ErrorCodeSlowDown, ErrorCodeRequestTimeout, ErrorCodeNetworkConnection:
		return codes.Unavailable
	case ErrorCodeInvalidParameterValue:
		return codes.InvalidArgument
	case ErrorCodeBucketAlreadyExists, ErrorCodeBucketAlreadyOwnedByYou:
		return codes.AlreadyExists
	case ErrorCodeInternalFailure:
		return codes.Internal
	default:
		return codes.Unknown
	}
}

// Error is returned by Client implementations when the object store
// reports a failure. It converts to a gRPC status, so that
// status.Code() can be used to distinguish broad classes of failures.
// The status carries the store's error code as an ErrorInfo detail,
// meaning that it survives util.StatusWrap(). Use ErrorFromStatus() to
// recover it.
type Error struct {
	Code      ErrorCode
	Message   string
	Retryable bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("Object store error %d: %s", int(e.Code), e.Message)
}

// GRPCStatus converts the error to a gRPC status.
func (e *Error) GRPCStatus() *status.Status {
	// Marshal the details deterministically, so that statuses
	// generated from identical errors compare equal.
	var detail anypb.Any
	if err := anypb.MarshalFrom(&detail, &errdetails.ErrorInfo{
		Reason: errorInfoReason,
		Domain: errorInfoDomain,
		Metadata: map[string]string{
			"code":      strconv.FormatInt(int64(e.Code), 10),
			"message":   e.Message,
			"retryable": strconv.FormatBool(e.Retryable),
		},
	}, proto.MarshalOptions{Deterministic: true}); err != nil {
		panic(err)
	}
	return status.FromProto(&spb.Status{
		Code:    int32(e.Code.GRPCCode()),
		Message: e.Error(),
		Details: []*anypb.Any{&detail},
	})
}

func newNotFoundError() error {
	return &Error{
		Code:    ErrorCodeResourceNotFound,
		Message: "Object not found",
	}
}

// IsNotFound returns whether an error indicates that an object does not
// exist.
func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// ErrorFromStatus returns the object store error from which an error
// originates, even if it has been wrapped by util.StatusWrap() or sent
// over gRPC. The second return value is false if the error was not
// generated by an object store.
func ErrorFromStatus(err error) (*Error, bool) {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr, true
	}
	s, ok := status.FromError(err)
	if !ok {
		return nil, false
	}
	for _, detail := range s.Details() {
		errorInfo, ok := detail.(*errdetails.ErrorInfo)
		if !ok || errorInfo.Domain != errorInfoDomain || errorInfo.Reason != errorInfoReason {
			continue
		}
		metadata := errorInfo.GetMetadata()
		code, err := strconv.ParseInt(metadata["code"], 10, 0)
		if err != nil {
			return nil, false
		}
		return &Error{
			Code:      ErrorCode(code),
			Message:   metadata["message"],
			Retryable: metadata["retryable"] == "true",
		}, true
	}
	return nil, false
}

// GetErrorCode extracts the object store error code from an error. The
// second return value is false if the error was not generated by an
// object store.
func GetErrorCode(err error) (ErrorCode, bool) {
	if storeErr, ok := ErrorFromStatus(err); ok {
		return storeErr.Code, true
	}
	return 0, false
}
