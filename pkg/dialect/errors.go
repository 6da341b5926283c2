package dialect

import (
	"errors"
	"fmt"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
)

// Sentinel errors shared across providers and the engine.
var (
	// ErrAmbiguousConnectionString is returned by the resolver when no
	// override, heuristic or candidate parser could claim a connection
	// string.
	ErrAmbiguousConnectionString = errors.New("ambiguous or unsupported connection string")

	// ErrUnsupportedType is returned when no converter rule matched and
	// the caller configured no fallback.
	ErrUnsupportedType = errors.New("type not supported by this dialect")

	// ErrUnsupportedOperation is returned when a dialect cannot express an
	// operation and no rebuild fallback applies.
	ErrUnsupportedOperation = errors.New("operation not supported by this dialect")

	// ErrObjectNotFound is returned when a named schema object does not
	// exist and the operation is not an idempotent if-exists form.
	ErrObjectNotFound = errors.New("schema object not found")

	// ErrNotAuthorized is returned by the engine when the authorization
	// hook rejects an operation.
	ErrNotAuthorized = errors.New("operation not authorized")
)

// DatabaseError wraps a driver error with dialect-identifying context.
// DDL execution failures are always passed through wrapped, never
// swallowed.
type DatabaseError struct {
	Dialect   dbcap.ID
	Operation string
	Cause     error
	Context   map[string]any
}

func (e *DatabaseError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("[%s] %s: %v (context: %v)", e.Dialect, e.Operation, e.Cause, e.Context)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Dialect, e.Operation, e.Cause)
}

func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// NewDatabaseError creates a DatabaseError.
func NewDatabaseError(id dbcap.ID, operation string, cause error) *DatabaseError {
	return &DatabaseError{Dialect: id, Operation: operation, Cause: cause}
}

// WithContext attaches a key/value pair to the error.
func (e *DatabaseError) WithContext(key string, value any) *DatabaseError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WrapError wraps err with dialect context unless it already is a
// DatabaseError.
func WrapError(id dbcap.ID, operation string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}
	return NewDatabaseError(id, operation, err)
}

// UnsupportedOperationError reports an operation a dialect cannot express.
type UnsupportedOperationError struct {
	Dialect   dbcap.ID
	Operation string
	Reason    string
}

func (e *UnsupportedOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s does not support %s: %s", e.Dialect, e.Operation, e.Reason)
	}
	return fmt.Sprintf("%s does not support %s", e.Dialect, e.Operation)
}

func (e *UnsupportedOperationError) Is(target error) bool {
	return errors.Is(target, ErrUnsupportedOperation)
}

// NewUnsupportedOperationError creates an UnsupportedOperationError.
func NewUnsupportedOperationError(id dbcap.ID, operation, reason string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Dialect: id, Operation: operation, Reason: reason}
}

// RebuildPhase identifies which step of a table rebuild failed. The phase
// tells the caller how exposed their data is: a failure before drop lost
// nothing, a failure after it may have.
type RebuildPhase string

const (
	RebuildPhaseCreate RebuildPhase = "create"
	RebuildPhaseCopy   RebuildPhase = "copy"
	RebuildPhaseDrop   RebuildPhase = "drop"
	RebuildPhaseRename RebuildPhase = "rename"
	RebuildPhaseIndex  RebuildPhase = "index"
)

// RebuildError reports a failed create-copy-drop-rename fallback. When the
// dialect lacks transactional DDL there is no automatic rollback; the
// phase is the caller's basis for assessing data-loss risk.
type RebuildError struct {
	Dialect dbcap.ID
	Table   string
	Phase   RebuildPhase
	Cause   error
}

func (e *RebuildError) Error() string {
	return fmt.Sprintf("[%s] rebuild of table %s failed during %s: %v", e.Dialect, e.Table, e.Phase, e.Cause)
}

func (e *RebuildError) Unwrap() error {
	return e.Cause
}

// IsUnsupported reports whether err indicates an unsupported operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation)
}
