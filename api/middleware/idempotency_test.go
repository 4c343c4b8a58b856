package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/library-backend/pkg/enums"
	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
)

// memoryIdempotencyStore mimics the Redis calls the middleware makes.
type memoryIdempotencyStore map[string]string

func (m memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, taken := m[key]; taken {
		return false, nil
	}
	m[key] = value.(string)
	return true, nil
}

func (m memoryIdempotencyStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m[key] = value.(string)
	return nil
}

func (m memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m, k)
	}
	return nil
}

func (m memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

// routed builds a request that looks like chi already matched pattern.
func routed(method, pattern, key string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, pattern, body)
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func borrowReq(key, body string) *http.Request {
	return routed(http.MethodPost, "/api/borrow", key, strings.NewReader(body))
}

// respond returns a handler that counts calls and answers with status and body.
func respond(calls *int, status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestIdempotencyOnlyGuardsConfiguredRoutes(t *testing.T) {
	cases := []struct {
		method, pattern string
		guarded         bool
	}{
		{http.MethodPost, "/api/borrow", true},
		{http.MethodPost, "/api/books/add", true},
		{http.MethodPut, "/api/return/42", false},
		{http.MethodPost, "/api/users/login", false},
		{http.MethodGet, "/api/borrow", false},
	}
	for _, tc := range cases {
		store := memoryIdempotencyStore{}
		var calls int
		serve(Idempotency(store, time.Hour, nil)(respond(&calls, http.StatusOK, `{}`)),
			routed(tc.method, tc.pattern, "k-1", strings.NewReader(`{}`)))
		assert.Equal(t, tc.guarded, len(store) == 1, "%s %s", tc.method, tc.pattern)
		assert.Equal(t, 1, calls)
	}
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	store := memoryIdempotencyStore{}
	var calls int
	h := Idempotency(store, time.Hour, nil)(respond(&calls, http.StatusCreated, `{}`))

	serve(h, borrowReq("", `{"title":"Dune"}`))
	serve(h, borrowReq("", `{"title":"Dune"}`))

	assert.Equal(t, 2, calls)
	assert.Empty(t, store)
}

func TestIdempotencyRequiredKeyIsEnforced(t *testing.T) {
	idempotencyRoutes[http.MethodPost+" /api/strict"] = true
	t.Cleanup(func() { delete(idempotencyRoutes, http.MethodPost+" /api/strict") })

	var calls int
	rec := serve(Idempotency(memoryIdempotencyStore{}, 0, nil)(respond(&calls, http.StatusOK, `{}`)),
		routed(http.MethodPost, "/api/strict", "", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, calls)
}

func TestIdempotencyRejectsOverlongKey(t *testing.T) {
	var calls int
	rec := serve(Idempotency(memoryIdempotencyStore{}, time.Hour, nil)(respond(&calls, http.StatusCreated, `{}`)),
		borrowReq(strings.Repeat("k", maxIdempotencyKeyLen+1), `{}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, calls)
}

func TestIdempotencyReplaysStoredSuccess(t *testing.T) {
	var calls int
	h := Idempotency(memoryIdempotencyStore{}, time.Hour, nil)(
		respond(&calls, http.StatusCreated, `{"data":{"status":"borrowed"}}`))

	first := serve(h, borrowReq("abc", `{"title":"Dune"}`))
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(replayedHeader))

	replay := serve(h, borrowReq("abc", `{"title":"Dune"}`))
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	assert.Equal(t, "true", replay.Header().Get(replayedHeader))
	assert.JSONEq(t, `{"data":{"status":"borrowed"}}`, replay.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	store := memoryIdempotencyStore{}
	var calls int
	h := Idempotency(store, time.Hour, nil)(respond(&calls, http.StatusBadRequest, `{}`))

	serve(h, borrowReq("retry-me", `{"title":"Dune"}`))
	serve(h, borrowReq("retry-me", `{"title":"Dune"}`))

	assert.Equal(t, 2, calls)
	assert.Empty(t, store)
}

func TestIdempotencyRejectsDuplicateWhileInFlight(t *testing.T) {
	store := memoryIdempotencyStore{}
	mw := Idempotency(store, time.Hour, nil)
	var dup *httptest.ResponseRecorder
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var dupCalls int
		dup = serve(mw(respond(&dupCalls, http.StatusCreated, `{}`)), borrowReq("race", `{"title":"Dune"}`))
		assert.Zero(t, dupCalls)
		w.WriteHeader(http.StatusCreated)
	}))

	rec := serve(h, borrowReq("race", `{"title":"Dune"}`))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, dup)
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Contains(t, dup.Body.String(), "in progress")
}

func TestIdempotencyRejectsReusedKeyWithNewBody(t *testing.T) {
	var calls int
	h := Idempotency(memoryIdempotencyStore{}, time.Hour, nil)(respond(&calls, http.StatusCreated, `{}`))

	serve(h, borrowReq("xyz", `{"title":"Dune"}`))
	rec := serve(h, borrowReq("xyz", `{"title":"Emma"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec))
	assert.Equal(t, 1, calls)
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	var calls int
	h := Idempotency(memoryIdempotencyStore{}, time.Hour, nil)(respond(&calls, http.StatusCreated, `{}`))

	for _, user := range []uuid.UUID{uuid.New(), uuid.New()} {
		req := borrowReq("shared", `{"title":"Dune"}`)
		serve(h, req.WithContext(WithActor(req.Context(), user, enums.UserRoleMember)))
	}
	assert.Equal(t, 2, calls)
}
