package objectstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Operation identifies a type of operation performed against an
// object store, for the purpose of injecting failures.
type Operation int

const (
	// OperationHead corresponds to Client.HeadObject().
	OperationHead Operation = iota
	// OperationGet corresponds to Client.GetObject().
	OperationGet
	// OperationPut corresponds to Client.PutObject().
	OperationPut
	// OperationDelete causes Client.DeleteObjects() to fail the
	// entire batch.
	OperationDelete
	// OperationDeleteLocal causes Client.DeleteObjects() to report
	// the deletion of a single object as failed.
	OperationDeleteLocal
	// OperationList corresponds to Client.ListObjects().
	OperationList
)

func (o Operation) String() string {
	switch o {
	case OperationHead:
		return "Head"
	case OperationGet:
		return "Get"
	case OperationPut:
		return "Put"
	case OperationDelete:
		return "Delete"
	case OperationDeleteLocal:
		return "Delete_local"
	case OperationList:
		return "List"
	default:
		panic(fmt.Sprintf("Invalid object store operation %d", int(o)))
	}
}

func failureTriggerMarker(operation Operation) string {
	return "#Failure_" + operation.String() + "_"
}

// FailureTrigger returns an object name that causes MockClient to fail
// a given operation with a given error code, when performed against the
// object.
func FailureTrigger(objectName string, operation Operation, code ErrorCode) string {
	return fmt.Sprintf("%s%s%d", objectName, failureTriggerMarker(operation), int(code))
}

// getFailureTrigger returns the error that is encoded in an object
// name for a given operation. Only the last occurrence of the trigger
// is considered, so that object names may contain earlier '#'
// characters. Triggers with an unparseable error code are ignored.
func getFailureTrigger(objectName string, operation Operation) error {
	marker := failureTriggerMarker(operation)
	position := strings.LastIndex(objectName, marker)
	if position < 0 {
		return nil
	}
	codeString := objectName[position+len(marker):]
	digits := 0
	for digits < len(codeString) && codeString[digits] >= '0' && codeString[digits] <= '9' {
		digits++
	}
	code, err := strconv.Atoi(codeString[:digits])
	if err != nil {
		return nil
	}
	return &Error{
		Code:      ErrorCode(code),
		Message:   "Simulated error",
		Retryable: true,
	}
}
