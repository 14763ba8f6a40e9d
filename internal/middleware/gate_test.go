package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medbook-web/internal/model"
)

type fakeVerifier struct {
	tokens []string
	valid  map[string]string
}

func (f *fakeVerifier) Verify(_ context.Context, token string) model.VerifyResult {
	f.tokens = append(f.tokens, token)
	name, ok := f.valid[token]
	if !ok {
		return model.InvalidToken()
	}
	res := model.VerifyResult{Valid: true}
	res.Decoded.Username = name
	return res
}

type memSessions struct {
	data map[string]model.Session
}

func (m *memSessions) Update(_ context.Context, id string, fn func(*model.Session)) (model.Session, error) {
	s := m.data[id]
	fn(&s)
	m.data[id] = s
	return s, nil
}

var testCookies = CookieConfig{
	SessionName: "sid",
	TokenName:   "authToken",
	MaxAge:      time.Hour,
	TokenMaxAge: time.Hour,
}

const testSID = "6f1c4d4e-8a55-4a43-9a57-0b4e8c1f7a10"

func newGateRouter(v *fakeVerifier, sessions *memSessions, rendered *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(testCookies))
	gate := NewAuthGate(v, sessions, NewTokenStore(testCookies), nil)

	r.GET("/dashboard", gate.Protect(), func(c *gin.Context) {
		*rendered++
		c.String(http.StatusOK, "appointments of %s", UserNameFrom(c))
	})
	r.GET("/api/slots", gate.ProtectAPI(), func(c *gin.Context) {
		*rendered++
		c.String(http.StatusOK, "slots")
	})
	return r
}

func request(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: testSID})
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "authToken", Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGateRedirectsWithoutToken(t *testing.T) {
	v := &fakeVerifier{}
	sessions := &memSessions{data: map[string]model.Session{testSID: {UserName: "stale"}}}
	rendered := 0
	r := newGateRouter(v, sessions, &rendered)

	w := request(r, "/dashboard", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.NotContains(t, w.Body.String(), "appointments")
	assert.Zero(t, rendered)
	assert.Empty(t, sessions.data[testSID].UserName)
	assert.Equal(t, []string{""}, v.tokens)
}

func TestGateRedirectsOnInvalidToken(t *testing.T) {
	v := &fakeVerifier{valid: map[string]string{}}
	sessions := &memSessions{data: map[string]model.Session{}}
	rendered := 0
	r := newGateRouter(v, sessions, &rendered)

	w := request(r, "/dashboard", "expired")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Zero(t, rendered)
}

func TestGateAuthenticates(t *testing.T) {
	v := &fakeVerifier{valid: map[string]string{"good": "alice"}}
	sessions := &memSessions{data: map[string]model.Session{testSID: {SelectedBookingDate: "2024-12-28"}}}
	rendered := 0
	r := newGateRouter(v, sessions, &rendered)

	w := request(r, "/dashboard", "good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "appointments of alice", w.Body.String())
	assert.Equal(t, model.Session{UserName: "alice", SelectedBookingDate: "2024-12-28"}, sessions.data[testSID])
}

func TestGateAPIAnswers401(t *testing.T) {
	rendered := 0
	r := newGateRouter(&fakeVerifier{}, &memSessions{data: map[string]model.Session{}}, &rendered)

	w := request(r, "/api/slots", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, rendered)
}

func TestSessionCookieIsIssued(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(testCookies))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, SessionID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	sid := w.Body.String()
	assert.NotEmpty(t, sid)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, sid, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}
