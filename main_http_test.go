package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cycleSource draws 0,1,2,3 over and over, so every four-digit secret
// without repeats is 1234.
type cycleSource struct {
	mu sync.Mutex
	i  int
}

func (s *cycleSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.i % 4
	s.i++
	return d % n
}

func testConfig(t *testing.T) Config {
	return Config{
		Port:           "0",
		SessionTimeout: time.Hour,
		CookieMaxAge:   time.Hour,
		StaticCacheAge: 5 * time.Minute,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		SessionDir:     t.TempDir(),
	}
}

func newTestApp(t *testing.T, cfg Config, clock *quartz.Mock) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := newApp(cfg, clock, zerolog.Nop())
	require.NoError(t, err)
	app.Random = &cycleSource{}
	t.Cleanup(app.shutdown)
	return app
}

// client keeps the session cookie between requests.
type client struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newClient(t *testing.T, app *App) *client {
	return &client{t: t, router: app.setupRouter()}
}

func (c *client) do(method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == SessionCookieName {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) state() APIState {
	c.t.Helper()
	w := c.do(http.MethodGet, RouteAPIState, nil, false)
	require.Equal(c.t, http.StatusOK, w.Code)
	var st APIState
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &st))
	return st
}

func guess(c *client, g string) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, RouteGuess, url.Values{"guess": {g}}, true)
}

func TestHomePage(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	c := newClient(t, app)

	w := c.do(http.MethodGet, RouteHome, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Number Baseball</title>")
	assert.Contains(t, w.Body.String(), "Enter a 4-digit number")
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	require.NotNil(t, c.cookie, "session cookie not set")

	st := c.state()
	assert.Equal(t, "in_progress", st.Status.String())
	require.NotNil(t, st.RemainingAttempts)
	assert.Equal(t, 10, *st.RemainingAttempts)
	assert.Nil(t, st.RemainingSeconds)
	assert.Empty(t, st.Secret)
}

func TestGuessFlow(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	c := newClient(t, app)
	c.do(http.MethodGet, RouteHome, nil, false)

	w := guess(c, "1243")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "1243 : 2 strikes, 2 balls")
	assert.NotContains(t, w.Body.String(), "<html", "HTMX requests get the fragment")
	assert.Empty(t, w.Header().Get("HX-Trigger"))

	w = guess(c, " 1234 ")
	assert.Contains(t, w.Body.String(), "Home run!")
	assert.Contains(t, w.Body.String(), "Play again")

	st := c.state()
	assert.Equal(t, "won", st.Status.String())
	assert.Equal(t, "1234", st.Secret)
	assert.Equal(t, 2, st.AttemptsUsed)

	w = guess(c, "1234")
	assert.Contains(t, w.Header().Get("HX-Trigger"), "The round is over")
	assert.Equal(t, 2, c.state().AttemptsUsed)
}

func TestGuessValidationErrors(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	c := newClient(t, app)
	c.do(http.MethodGet, RouteHome, nil, false)

	cases := map[string]string{
		"12":    "Enter a 4-digit number.",
		"12a4":  "Digits only, please.",
		"1204":  "Use digits 1-9 only.",
		"1123":  "Enter 4 digits without repeats.",
		"12345": "Enter a 4-digit number.",
	}
	for input, msg := range cases {
		w := guess(c, input)
		require.Equal(t, http.StatusOK, w.Code, input)

		var trigger map[string]string
		require.NoError(t, json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &trigger), input)
		assert.Equal(t, msg, trigger["server_error"], input)
		assert.Contains(t, w.Body.String(), msg, input)
	}
	assert.Equal(t, 0, c.state().AttemptsUsed)
}

func TestGuessFullPageWithoutHTMX(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	c := newClient(t, app)

	w := c.do(http.MethodPost, RouteGuess, url.Values{"guess": {"5678"}}, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<!DOCTYPE html>")
	assert.Contains(t, w.Body.String(), "5678 : 0 strikes, 0 balls")
}

func TestNewGame(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	c := newClient(t, app)
	c.do(http.MethodGet, RouteHome, nil, false)
	guess(c, "5678")
	before := c.state()

	w := c.do(http.MethodPost, RouteNewGame, url.Values{}, false)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	after := c.state()
	assert.NotEqual(t, before.RoundID, after.RoundID)
	assert.Equal(t, 0, after.AttemptsUsed)
	assert.Empty(t, after.Log)

	w = c.do(http.MethodPost, RouteNewGame, url.Values{}, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<html")
}

func TestSettingsRejectedKeepsRound(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	c := newClient(t, app)
	c.do(http.MethodGet, RouteHome, nil, false)
	guess(c, "5678")
	before := c.state()

	w := c.do(http.MethodPost, RouteSettings, url.Values{
		"sequenceLength": {"10"},
		"maxAttempts":    {"10"},
		"unlimitedTime":  {"on"},
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("HX-Trigger"), "Without duplicate digits the sequence length is at most 9.")
	assert.Contains(t, w.Body.String(), `value="10"`, "the rejected form keeps the typed values")

	after := c.state()
	assert.Equal(t, before.RoundID, after.RoundID)
	assert.Equal(t, before.Config, after.Config)
	assert.Equal(t, 1, after.AttemptsUsed)
}

func TestSettingsApplied(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	c := newClient(t, app)
	c.do(http.MethodGet, RouteHome, nil, false)

	w := c.do(http.MethodPost, RouteSettings, url.Values{
		"sequenceLength":    {"5"},
		"allowDuplicates":   {"on"},
		"unlimitedAttempts": {"on"},
		"unlimitedTime":     {"on"},
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), MessageSettingsApplied)
	assert.Contains(t, w.Body.String(), "∞")

	st := c.state()
	assert.Equal(t, 5, st.Config.SequenceLength)
	assert.True(t, st.Config.AllowDuplicates)
	assert.Nil(t, st.RemainingAttempts)
	assert.Equal(t, "in_progress", st.Status.String())
}

func TestSettingsBadNumbersFallBackToDefaults(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	c := newClient(t, app)

	w := c.do(http.MethodPost, RouteSettings, url.Values{
		"sequenceLength": {"abc"},
		"maxAttempts":    {""},
		"unlimitedTime":  {"on"},
	}, true)
	assert.Empty(t, w.Header().Get("HX-Trigger"))

	st := c.state()
	assert.Equal(t, 4, st.Config.SequenceLength)
	assert.Equal(t, 10, st.Config.MaxAttempts)
}

func TestPresetCountdown(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	app := newTestApp(t, testConfig(t), clock)
	c := newClient(t, app)

	w := c.do(http.MethodPost, RouteSettings, url.Values{"preset": {"blitz"}}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "1:00")

	st := c.state()
	assert.Equal(t, 3, st.Config.SequenceLength)
	require.NotNil(t, st.RemainingSeconds)
	assert.Equal(t, 60, *st.RemainingSeconds)

	clock.Advance(45 * time.Second).MustWait(ctx)
	w = c.do(http.MethodGet, RouteGameState, nil, false)
	assert.Contains(t, w.Body.String(), "0:15")
	assert.Contains(t, w.Body.String(), "warning")

	clock.Advance(15 * time.Second).MustWait(ctx)
	st = c.state()
	assert.Equal(t, "lost_by_timeout", st.Status.String())
	assert.Len(t, st.Secret, 3)
	require.Len(t, st.Log, 1)
	assert.Equal(t, "timeout", st.Log[0].Class)

	w = guess(c, "123")
	assert.Contains(t, w.Header().Get("HX-Trigger"), "The round is over")
}

func TestUnknownPreset(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	c := newClient(t, app)
	c.do(http.MethodGet, RouteHome, nil, false)
	before := c.state()

	w := c.do(http.MethodPost, RouteSettings, url.Values{"preset": {"nope"}}, true)
	assert.Contains(t, w.Header().Get("HX-Trigger"), ErrorUnknownPreset)
	assert.Equal(t, before.RoundID, c.state().RoundID)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 2
	app := newTestApp(t, cfg, quartz.NewMock(t))
	c := newClient(t, app)

	for i := 0; i < 2; i++ {
		w := guess(c, "5678")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := guess(c, "5678")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate-limit-exceeded", w.Header().Get("HX-Trigger"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrorTooManyRequests, body["error"])

	// GETs are not limited.
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, RouteHome, nil, false).Code)
}

func TestHealthz(t *testing.T) {
	clock := quartz.NewMock(t)
	app := newTestApp(t, testConfig(t), clock)
	c := newClient(t, app)
	c.do(http.MethodGet, RouteHome, nil, false)
	clock.Advance(65 * time.Second)

	w := c.do(http.MethodGet, RouteHealthz, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "development", body["env"])
	assert.Equal(t, float64(1), body["sessions"])
	assert.Equal(t, "1m5s", body["uptime"])
	assert.ElementsMatch(t, []any{"blitz", "classic", "marathon"}, body["presets"])
}

func TestStaticFiles(t *testing.T) {
	cfg := testConfig(t)
	cfg.IsProduction = true
	app := newTestApp(t, cfg, quartz.NewMock(t))
	c := newClient(t, app)

	w := c.do(http.MethodGet, "/static/game.css", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/css"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "public")
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age=300")
	assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))

	w = c.do(http.MethodGet, "/static/missing.js", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.do(http.MethodGet, RouteHome, nil, false)
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestGzipStatic(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	router := app.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/static/game.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	gr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Contains(t, string(body), "htmx:afterSwap")
}

func TestRequestID(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	router := app.setupRouter()

	req := httptest.NewRequest(http.MethodGet, RouteHealthz, nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, RouteHealthz, nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestSessionRestoredAfterRestart(t *testing.T) {
	cfg := testConfig(t)
	clock := quartz.NewMock(t)
	first := newTestApp(t, cfg, clock)
	c := newClient(t, first)
	c.do(http.MethodGet, RouteHome, nil, false)
	guess(c, "5678")
	before := c.state()
	first.shutdown()

	second := newTestApp(t, cfg, clock)
	c.router = second.setupRouter()
	after := c.state()
	assert.Equal(t, before.RoundID, after.RoundID)
	assert.Equal(t, 1, after.AttemptsUsed)
	require.Len(t, after.Log, 1)

	w := guess(c, "1234")
	assert.Contains(t, w.Body.String(), "Home run!")
}

func TestFinishedRoundIsNotPersisted(t *testing.T) {
	cfg := testConfig(t)
	clock := quartz.NewMock(t)
	first := newTestApp(t, cfg, clock)
	c := newClient(t, first)
	c.do(http.MethodGet, RouteHome, nil, false)
	guess(c, "1234")
	won := c.state()
	require.Equal(t, "won", won.Status.String())

	second := newTestApp(t, cfg, clock)
	c.router = second.setupRouter()
	fresh := c.state()
	assert.NotEqual(t, won.RoundID, fresh.RoundID)
	assert.Equal(t, "in_progress", fresh.Status.String())
}

func TestEvictIdle(t *testing.T) {
	clock := quartz.NewMock(t)
	app := newTestApp(t, testConfig(t), clock)
	c := newClient(t, app)
	c.do(http.MethodGet, RouteHome, nil, false)
	require.Equal(t, 1, app.sessionCount())
	id := c.cookie.Value
	_, err := app.Store.load(id)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	app.evictIdle()
	assert.Equal(t, 1, app.sessionCount())
	_, err = app.Store.load(id)
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	app.evictIdle()
	assert.Equal(t, 0, app.sessionCount())
	_, err = os.Stat(filepath.Join(app.Store.dir, id+".json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveAfterRoundEndsWritesNothing(t *testing.T) {
	app := newTestApp(t, testConfig(t), quartz.NewMock(t))
	id := uuid.NewString()
	ws := app.newWebSession(id)
	t.Cleanup(ws.game.Close)

	ws.game.Start()
	_, err := app.Store.load(id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ws.game.Submit("5678")
		}()
	}
	wg.Wait()
	_, err = ws.game.Submit("1234")
	require.NoError(t, err)

	// A save queued before the win lands after the file was removed.
	late := &persister{app: app, id: id, game: ws.game}
	late.save()

	_, err = app.Store.load(id)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
