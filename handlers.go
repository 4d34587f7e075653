package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"numberbaseball/internal/baseball"
	"numberbaseball/internal/session"
	"numberbaseball/internal/settings"
)

// gameData builds the template data for the game. form overrides the
// settings form values, so a rejected submission keeps what the player typed.
func (app *App) gameData(snap session.Snapshot, errMsg, flash string, form *baseball.Candidate) gin.H {
	settingsForm := snap.Config.Candidate()
	if form != nil {
		settingsForm = *form
	}
	return gin.H{
		"game":     buildGameView(snap),
		"settings": settingsForm,
		"presets":  app.Settings.Presets(),
		"error":    errMsg,
		"flash":    flash,
	}
}

// renderGame writes the game either as the HTMX fragment or as the full page.
func (app *App) renderGame(c *gin.Context, snap session.Snapshot, errMsg, flash string, form *baseball.Candidate) {
	if errMsg != "" {
		payload := map[string]string{"server_error": errMsg}
		if b, jerr := json.Marshal(payload); jerr == nil {
			c.Header("HX-Trigger", string(b))
		} else {
			logWarn("Failed to marshal HX-Trigger payload: %v", jerr)
		}
	}

	data := app.gameData(snap, errMsg, flash, form)
	if c.GetHeader("HX-Request") == "true" {
		c.HTML(http.StatusOK, "game-content", data)
		return
	}
	data["title"] = PageTitle
	data["message"] = PageMessage
	c.HTML(http.StatusOK, "index.html", data)
}

// homeHandler renders the main game page for the current session.
func (app *App) homeHandler(c *gin.Context) {
	ws := app.sessionFor(c)
	app.renderGame(c, ws.game.Snapshot(), "", "", nil)
}

// guessHandler scores a guess and re-renders the game.
func (app *App) guessHandler(c *gin.Context) {
	ws := app.sessionFor(c)
	guess := c.PostForm("guess")

	var errMsg string
	if _, err := ws.game.Submit(guess); err != nil {
		errMsg = baseball.Message(err)
		logInfo("[request_id=%v] Session %s guess %q rejected: %v", requestID(c), ws.id, guess, err)
	}
	app.renderGame(c, ws.game.Snapshot(), errMsg, "", nil)
}

// newGameHandler starts a new round with the current settings.
func (app *App) newGameHandler(c *gin.Context) {
	ws := app.sessionFor(c)
	snap := ws.game.Start()

	if c.GetHeader("HX-Request") != "true" {
		c.Redirect(http.StatusSeeOther, RouteHome)
		return
	}
	app.renderGame(c, snap, "", "", nil)
}

// settingsHandler applies either a named preset or the submitted form. A
// rejected configuration leaves the running round untouched.
func (app *App) settingsHandler(c *gin.Context) {
	ws := app.sessionFor(c)

	var candidate baseball.Candidate
	if name := c.PostForm("preset"); name != "" {
		preset, err := app.Settings.Preset(name)
		if err != nil {
			logWarn("[request_id=%v] %v", requestID(c), err)
			app.renderGame(c, ws.game.Snapshot(), ErrorUnknownPreset, "", nil)
			return
		}
		candidate = preset.Config.Candidate()
	} else {
		candidate = baseball.ParseCandidate(baseball.RawCandidate{
			SequenceLength:    c.PostForm("sequenceLength"),
			AllowDuplicates:   checkbox(c, "allowDuplicates"),
			MaxAttempts:       c.PostForm("maxAttempts"),
			UnlimitedAttempts: checkbox(c, "unlimitedAttempts"),
			TimeLimitSeconds:  c.PostForm("timeLimitSeconds"),
			UnlimitedTime:     checkbox(c, "unlimitedTime"),
		})
	}

	if _, err := ws.game.Apply(candidate); err != nil {
		var verr *baseball.ValidationError
		if !errors.As(err, &verr) {
			logWarn("[request_id=%v] Unexpected settings error: %v", requestID(c), err)
		}
		app.renderGame(c, ws.game.Snapshot(), baseball.Message(err), "", &candidate)
		return
	}
	app.renderGame(c, ws.game.Snapshot(), "", MessageSettingsApplied, nil)
}

// gameStateHandler renders the current game as an HTML fragment. The
// browser polls it when its countdown reaches zero.
func (app *App) gameStateHandler(c *gin.Context) {
	ws := app.sessionFor(c)
	c.HTML(http.StatusOK, "game-content", app.gameData(ws.game.Snapshot(), "", "", nil))
}

// apiStateHandler returns the current game as JSON.
func (app *App) apiStateHandler(c *gin.Context) {
	ws := app.sessionFor(c)
	c.JSON(http.StatusOK, buildAPIState(ws.game.Snapshot()))
}

// staticHandler serves embedded static files.
func (app *App) staticHandler(c *gin.Context) {
	f, ok := app.Assets.Static(c.Param("filepath"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, f.ContentType, f.Body)
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	uptime := app.Clock.Since(app.StartTime)
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"env":       envName(app.IsProduction),
		"sessions":  app.sessionCount(),
		"presets":   lo.Map(app.Settings.Presets(), func(p settings.Preset, _ int) string { return p.Name }),
		"minified":  app.Assets.Minified,
		"uptime":    formatUptime(uptime),
		"timestamp": app.Clock.Now().UTC().Format(time.RFC3339),
	})
}

// checkbox reports whether an HTML checkbox was ticked.
func checkbox(c *gin.Context, name string) bool {
	v, ok := c.GetPostForm(name)
	return ok && v != "" && v != "false" && v != "off"
}

func requestID(c *gin.Context) string {
	id, _ := c.Request.Context().Value(requestIDKey).(string)
	return id
}
