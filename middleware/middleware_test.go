package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"raceday-api/services"
	"raceday-api/testutils"
)

type stubSessions struct {
	id          uint
	fingerprint string
}

func (s stubSessions) Current(*http.Request) (uint, string, bool) {
	return s.id, s.fingerprint, s.id != 0
}

type stubTokens map[string]services.Credentials

func (s stubTokens) Parse(raw string) (services.Credentials, error) {
	creds, ok := s[raw]
	if !ok {
		return services.Credentials{}, errors.New("bad token")
	}
	return creds, nil
}

// stubRunners knows each runner's current fingerprint and staff flag
type stubRunners struct {
	fingerprints map[uint]string
	staff        map[uint]bool
	err          error
}

func (s stubRunners) ResolveActor(_ context.Context, creds services.Credentials) (services.Actor, error) {
	if s.err != nil {
		return services.Actor{}, s.err
	}
	fp, ok := s.fingerprints[creds.RunnerID]
	if !ok || fp != creds.Fingerprint {
		return services.Actor{}, services.ErrInvalidCredentials
	}
	return services.Actor{RunnerID: creds.RunnerID, IsStaff: s.staff[creds.RunnerID]}, nil
}

var runners = stubRunners{
	fingerprints: map[uint]string{3: "fp3", 5: "fp5", 6: "fp6"},
	staff:        map[uint]bool{3: true, 6: true},
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/whoami", func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		c.JSON(http.StatusOK, gin.H{"ok": ok, "runner_id": actor.RunnerID, "is_staff": actor.IsStaff})
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	tokens := stubTokens{
		"good":  {RunnerID: 5, Fingerprint: "fp5"},
		"stale": {RunnerID: 5, Fingerprint: "old"},
	}

	tests := []struct {
		name     string
		sessions stubSessions
		header   string
		status   int
		body     string
	}{
		{"session wins", stubSessions{id: 3, fingerprint: "fp3"}, "Bearer good", http.StatusOK, `"runner_id":3`},
		{"staff flag from runner", stubSessions{id: 3, fingerprint: "fp3"}, "", http.StatusOK, `"is_staff":true`},
		{"bearer fallback", stubSessions{}, "Bearer good", http.StatusOK, `"runner_id":5`},
		{"stale session is anonymous", stubSessions{id: 5, fingerprint: "old"}, "", http.StatusOK, `"ok":false`},
		{"stale bearer is anonymous", stubSessions{}, "Bearer stale", http.StatusOK, `"ok":false`},
		{"deleted runner is anonymous", stubSessions{id: 99, fingerprint: "fp99"}, "", http.StatusOK, `"ok":false`},
		{"bad bearer is anonymous", stubSessions{}, "Bearer forged", http.StatusOK, `"ok":false`},
		{"anonymous", stubSessions{}, "", http.StatusOK, `"ok":false`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(newRouter(Authenticate(tt.sessions, tokens, runners)), tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAuthenticateLookupFailure(t *testing.T) {
	failing := stubRunners{err: errors.New("database is down")}
	w := get(newRouter(Authenticate(stubSessions{id: 3, fingerprint: "fp3"}, stubTokens{}, failing)), "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireStaff(t *testing.T) {
	tokens := stubTokens{"runner": {RunnerID: 5, Fingerprint: "fp5"}, "staff": {RunnerID: 6, Fingerprint: "fp6"}}
	r := newRouter(Authenticate(stubSessions{}, tokens, runners), RequireStaff())

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "Bearer runner").Code)
	assert.Equal(t, http.StatusOK, get(r, "Bearer staff").Code)
}

func TestRequireAuth(t *testing.T) {
	r := newRouter(Authenticate(stubSessions{}, stubTokens{}, runners), RequireAuth())
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer forged").Code)

	r = newRouter(Authenticate(stubSessions{id: 5, fingerprint: "fp5"}, stubTokens{}, runners), RequireAuth())
	assert.Equal(t, http.StatusOK, get(r, "").Code)
}

func TestRateLimiter(t *testing.T) {
	clock := time.Date(2024, time.August, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(60, 2)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	clock = clock.Add(time.Second)
	assert.True(t, rl.Allow("a"))

	clock = clock.Add(time.Hour)
	rl.Allow("c")
	assert.NotContains(t, rl.visitors, "a")
	assert.NotContains(t, rl.visitors, "b")
}

func TestRateLimitResponds429(t *testing.T) {
	r := newRouter(RateLimit(1, 1))
	assert.Equal(t, http.StatusOK, get(r, "").Code)

	w := get(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := newRouter(RequestLogger(testutils.DiscardLogger()))

	w := get(r, "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestValidateJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ValidateJSON())
	r.POST("/things", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}
