package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataTable(t *testing.T) {
	want := map[Code]Metadata{
		CodeValidation:   {http.StatusBadRequest, false, "validation failed", true},
		CodeUnauthorized: {http.StatusUnauthorized, false, "authentication required", false},
		CodeForbidden:    {http.StatusForbidden, false, "access denied", false},
		CodeNotFound:     {http.StatusNotFound, false, "resource not found", false},
		CodeConflict:     {http.StatusConflict, false, "conflict detected", false},
		CodeInvalidState: {http.StatusBadRequest, false, "operation not allowed in current state", true},
		CodeIdempotency:  {http.StatusConflict, false, "idempotency key reused", true},
		CodeRateLimit:    {http.StatusTooManyRequests, false, "rate limit exceeded", false},
		CodeInternal:     {http.StatusInternalServerError, true, "internal server error", false},
		CodeDependency:   {http.StatusServiceUnavailable, true, "dependency unavailable", true},
	}
	for code, meta := range want {
		assert.Equal(t, meta, MetadataFor(code), string(code))
	}
	assert.Equal(t, want[CodeInternal], MetadataFor("SOMETHING_UNKNOWN"))
}

func TestErrorAccessors(t *testing.T) {
	e := New(CodeValidation, "title is required")
	assert.Equal(t, CodeValidation, e.Code())
	assert.Equal(t, "title is required", e.Message())
	assert.Equal(t, "VALIDATION_ERROR: title is required", e.Error())
	assert.Nil(t, e.Details())
	assert.Nil(t, e.Unwrap())

	e.WithDetails(map[string]string{"title": "is required"})
	assert.Equal(t, map[string]string{"title": "is required"}, e.Details())

	var nilErr *Error
	assert.Equal(t, CodeInternal, nilErr.Code())
	assert.Empty(t, nilErr.Message())
	assert.Nil(t, nilErr.WithDetails("ignored"))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("connection reset")
	wrapped := Wrap(CodeDependency, cause, "load book")
	require.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeDependency, wrapped.Code())

	assert.Nil(t, Wrap(CodeConflict, nil, "dup").Unwrap())
	assert.Nil(t, As(nil))
	got := As(fmt.Errorf("outer: %w", New(CodeForbidden, "admins only")))
	require.NotNil(t, got)
	assert.Equal(t, CodeForbidden, got.Code())
}

func TestCodeOfFallsBackToInternal(t *testing.T) {
	sentinel := stdErrors.New("no copies")
	wrapped := fmt.Errorf("borrow: %w", Wrap(CodeInvalidState, sentinel, "book unavailable"))
	if got := CodeOf(wrapped); got != CodeInvalidState {
		t.Fatalf("expected invalid state, got %s", got)
	}
	if !stdErrors.Is(wrapped, sentinel) {
		t.Fatalf("sentinel should survive wrapping")
	}
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected internal for untyped error, got %s", got)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection refused"), "load record")
	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", d.Chain)
	}
	if Dump(nil).TopMessage != "" {
		t.Fatalf("expected empty dump for nil")
	}
}

func TestIsCodeAndNewf(t *testing.T) {
	err := fmt.Errorf("return: %w", Newf(CodeNotFound, "borrow record %s not found", "r-1"))
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("expected not found code")
	}
	if IsCode(err, CodeConflict) || IsCode(nil, CodeNotFound) {
		t.Fatalf("IsCode matched the wrong code")
	}
	if got := As(err).Message(); got != "borrow record r-1 not found" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestDumpExtractsDriverDiagnostics(t *testing.T) {
	pgErr := &pq.Error{Code: "23505", Constraint: "users_email_key", Table: "users"}
	d := Dump(Wrap(CodeConflict, pgErr, "insert user"))
	if d.PGCode != "23505" || d.PGConstraint != "users_email_key" || d.PGTable != "users" {
		t.Fatalf("postgres fields not extracted: %+v", d)
	}

	liteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	d = Dump(fmt.Errorf("insert book: %w", liteErr))
	if d.SQLiteCode == "" || d.PGCode != "" {
		t.Fatalf("sqlite fields not extracted: %+v", d)
	}
	if d.Code != "" {
		t.Fatalf("untyped error should not carry a code, got %s", d.Code)
	}
}
