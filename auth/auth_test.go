package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, CreateSession(w, 42))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	uid, ok := ParseSession(req)
	require.True(t, ok)
	assert.Equal(t, uint(42), uid)
}

func TestParseSession_BearerToken(t *testing.T) {
	token, err := IssueToken(7, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	uid, ok := ParseSession(req)
	require.True(t, ok)
	assert.Equal(t, uint(7), uid)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := IssueToken(1, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.Error(t, err, "expired token must be rejected")

	valid, err := IssueToken(1, time.Now())
	require.NoError(t, err)
	_, err = ParseToken(valid + "x")
	assert.Error(t, err, "tampered token must be rejected")
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), 3))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
