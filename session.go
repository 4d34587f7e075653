package main

import (
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"numberbaseball/internal/baseball"
	"numberbaseball/internal/session"
)

// webSession is one browser's game plus bookkeeping for eviction.
type webSession struct {
	id         string
	game       *session.Session
	lastAccess int64 // unix nanos on the app clock, guarded by App.SessionMutex
}

// persister writes a session to the store whenever its round changes and
// drops the file once the round is over. The snapshot is taken under mu, so
// a save that loses the race against the end of the round finds nothing to
// write.
type persister struct {
	mu   sync.Mutex
	app  *App
	id   string
	game *session.Session
}

func (p *persister) RoundStarted(string, baseball.Config) { p.save() }

func (p *persister) GuessScored(string, session.Entry) { p.save() }

func (p *persister) RoundEnded(roundID string, e session.Entry) {
	p.mu.Lock()
	p.app.Store.remove(p.id)
	p.mu.Unlock()
	log.Info().Str("session", p.id).Str("round", roundID).Str("result", string(e.Kind)).Msg("round finished")
}

func (p *persister) save() {
	if p.game == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if snap, ok := p.game.Export(); ok {
		_ = p.app.Store.save(p.id, snap)
	}
}

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
func (app *App) getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || uuid.Validate(sessionID) != nil {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(SessionCookieName, sessionID, int(app.CookieMaxAge.Seconds()), "/", "", app.IsProduction, true)
		logInfo("Created new session: %s", sessionID)
	}
	return sessionID
}

// sessionFor returns the game for the request's session, restoring it from
// disk or starting a fresh round when it is not in memory.
func (app *App) sessionFor(c *gin.Context) *webSession {
	sessionID := app.getOrCreateSession(c)
	now := app.Clock.Now().UnixNano()

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	if ws, ok := app.Sessions[sessionID]; ok {
		ws.lastAccess = now
		return ws
	}

	ws := app.newWebSession(sessionID)
	ws.lastAccess = now
	app.Sessions[sessionID] = ws

	snap, err := app.Store.load(sessionID)
	switch {
	case err == nil:
		ierr := ws.game.Import(snap)
		if ierr == nil {
			logInfo("Restored session %s from disk", sessionID)
			return ws
		}
		logWarn("Discarding saved session %s: %v", sessionID, ierr)
		app.Store.remove(sessionID)
	case !errors.Is(err, os.ErrNotExist):
		logWarn("Failed to load session %s: %v", sessionID, err)
	}

	ws.game.Start()
	return ws
}

func (app *App) newWebSession(sessionID string) *webSession {
	p := &persister{app: app, id: sessionID}
	game := session.New(
		session.WithClock(app.Clock),
		session.WithLogger(app.Logger.With().Str("session", sessionID).Logger()),
		session.WithSink(p),
		session.WithRandomSource(app.Random),
		session.WithConfig(app.Settings.Defaults()),
	)
	p.game = game
	return &webSession{id: sessionID, game: game}
}

// evictIdle drops sessions not used within SessionTimeout and prunes old
// files from the store.
func (app *App) evictIdle() {
	cutoff := app.Clock.Now().Add(-app.SessionTimeout).UnixNano()

	app.SessionMutex.Lock()
	var idle []*webSession
	for id, ws := range app.Sessions {
		if ws.lastAccess < cutoff {
			idle = append(idle, ws)
			delete(app.Sessions, id)
		}
	}
	app.SessionMutex.Unlock()

	for _, ws := range idle {
		ws.game.Close()
	}
	if len(idle) > 0 {
		logInfo("Evicted %d idle sessions", len(idle))
	}
	if _, err := app.Store.cleanup(); err != nil {
		logWarn("Session cleanup failed: %v", err)
	}
}

func (app *App) sessionCount() int {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return len(app.Sessions)
}
