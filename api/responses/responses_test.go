package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"github.com/shelfwise/library-backend/pkg/logger"
	"github.com/shelfwise/library-backend/pkg/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestWriteSuccessStatusWrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]string{"status": "borrowed"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"status":"borrowed"}}`, rec.Body.String())
}

func TestWriteErrorEnvelope(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		status      int
		code        pkgerrors.Code
		message     string
		withDetails bool
	}{
		{
			name:        "validation keeps message and details",
			err:         pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]string{"bookId": "required"}),
			status:      http.StatusBadRequest,
			code:        pkgerrors.CodeValidation,
			message:     "bad input",
			withDetails: true,
		},
		{
			name:    "invalid state message reaches client",
			err:     pkgerrors.Wrap(pkgerrors.CodeInvalidState, errors.New("returned_at set"), "book already returned"),
			status:  http.StatusBadRequest,
			code:    pkgerrors.CodeInvalidState,
			message: "book already returned",
		},
		{
			name:    "not found",
			err:     pkgerrors.New(pkgerrors.CodeNotFound, "borrow record not found"),
			status:  http.StatusNotFound,
			code:    pkgerrors.CodeNotFound,
			message: "borrow record not found",
		},
		{
			name:    "untyped error becomes internal",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    pkgerrors.CodeInternal,
			message: "internal server error",
		},
		{
			name:    "dependency message stays private",
			err:     pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "redis unreachable"),
			status:  http.StatusServiceUnavailable,
			code:    pkgerrors.CodeDependency,
			message: "dependency unavailable",
		},
		{
			name:    "nil error still renders",
			status:  http.StatusInternalServerError,
			code:    pkgerrors.CodeInternal,
			message: "internal server error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			require.Equal(t, tc.status, rec.Code)
			got := decodeError(t, rec)
			assert.Equal(t, string(tc.code), got.Code)
			assert.Equal(t, tc.message, got.Message)
			assert.Equal(t, tc.withDetails, got.Details != nil)
		})
	}
}

func TestWriteErrorEchoesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set(RequestIDHeader, "req-42")
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeNotFound, "missing"))

	assert.Equal(t, "req-42", decodeError(t, rec).RequestID)
}

func TestWriteErrorLogsByFaultSide(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: &buf, Format: logger.FormatJSON})

	WriteError(context.Background(), logg, httptest.NewRecorder(), pkgerrors.New(pkgerrors.CodeConflict, "copy taken"))
	WriteError(context.Background(), logg, httptest.NewRecorder(), errors.New("disk full"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var client, server map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &client))
	require.NoError(t, json.Unmarshal(lines[1], &server))

	assert.Equal(t, "warn", client["level"])
	assert.Equal(t, "request.rejected", client["message"])
	assert.EqualValues(t, http.StatusConflict, client["http_status"])

	assert.Equal(t, "error", server["level"])
	assert.Equal(t, "request.error", server["message"])
	assert.Contains(t, server, "stack")
}
