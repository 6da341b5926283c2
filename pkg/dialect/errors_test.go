package dialect

import (
	"errors"
	"strings"
	"testing"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
)

func TestDatabaseErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDatabaseError(dbcap.PostgreSQL, "create_table", cause).WithContext("table", "orders")

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	msg := err.Error()
	for _, want := range []string{"postgres", "create_table", "connection refused", "orders"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestWrapErrorDoesNotDoubleWrap(t *testing.T) {
	inner := NewDatabaseError(dbcap.MySQL, "drop_table", errors.New("boom"))
	if got := WrapError(dbcap.MySQL, "outer", inner); got != error(inner) {
		t.Errorf("re-wrapped an existing DatabaseError: %v", got)
	}
	if WrapError(dbcap.MySQL, "outer", nil) != nil {
		t.Error("wrapped nil")
	}
}

func TestUnsupportedOperationErrorMatchesSentinel(t *testing.T) {
	err := NewUnsupportedOperationError(dbcap.MySQL, "drop_constraint", "defaults are column attributes")
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Error("errors.Is(ErrUnsupportedOperation) = false")
	}
	if !IsUnsupported(err) {
		t.Error("IsUnsupported = false")
	}
	if !strings.Contains(err.Error(), "defaults are column attributes") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRebuildErrorReportsPhase(t *testing.T) {
	cause := errors.New("disk full")
	err := &RebuildError{Dialect: dbcap.SQLite, Table: "orders", Phase: RebuildPhaseCopy, Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "copy") {
		t.Errorf("message %q does not name the phase", err.Error())
	}

	err = &RebuildError{Dialect: dbcap.SQLite, Table: "orders", Phase: RebuildPhaseIndex, Cause: cause}
	if !strings.Contains(err.Error(), "index") {
		t.Errorf("message %q does not name the phase", err.Error())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if r.IsRegistered(dbcap.SQLite) {
		t.Fatal("empty registry claims a provider")
	}
	if _, err := r.Get(dbcap.SQLite); err == nil {
		t.Fatal("Get on empty registry succeeded")
	}
	if _, err := r.GetByName("not-a-dialect"); err == nil {
		t.Fatal("GetByName accepted an unknown name")
	}
}
