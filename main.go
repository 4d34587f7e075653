package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coder/quartz"
	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"numberbaseball/internal/assets"
	"numberbaseball/internal/baseball"
	"numberbaseball/internal/logging"
	"numberbaseball/internal/settings"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port           string
	IsProduction   bool
	LogLevel       string
	SessionTimeout time.Duration
	CookieMaxAge   time.Duration
	StaticCacheAge time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	SessionDir     string
	SettingsFile   string
}

// loadConfig reads Config from the environment, falling back to defaults.
func loadConfig() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		IsProduction:   os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production",
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SessionTimeout: getEnvDuration("SESSION_TIMEOUT", 2*time.Hour),
		CookieMaxAge:   getEnvDuration("COOKIE_MAX_AGE", 2*time.Hour),
		StaticCacheAge: getEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		SessionDir:     getEnv("SESSION_DIR", "data/sessions"),
		SettingsFile:   getEnv("SETTINGS_FILE", "settings.hcl"),
	}
}

// App holds the server's shared state.
type App struct {
	Sessions     map[string]*webSession
	SessionMutex sync.RWMutex
	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex

	Settings *settings.Settings
	Store    *sessionStore
	Assets   *assets.Bundle
	Clock    quartz.Clock
	Logger   zerolog.Logger
	// Random is where secrets come from; nil means crypto/rand.
	Random baseball.RandomSource

	IsProduction   bool
	SessionTimeout time.Duration
	CookieMaxAge   time.Duration
	StaticCacheAge time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	StartTime      time.Time
}

// newApp wires an App from cfg. A nil clock uses the real one.
func newApp(cfg Config, clock quartz.Clock, logger zerolog.Logger) (*App, error) {
	if clock == nil {
		clock = quartz.NewReal()
	}

	st, err := settings.Load(cfg.SettingsFile)
	if err != nil {
		return nil, err
	}

	bundle, err := assets.Load(cfg.IsProduction, nil)
	if err != nil {
		return nil, err
	}

	return &App{
		Sessions:       make(map[string]*webSession),
		LimiterMap:     make(map[string]*rate.Limiter),
		Settings:       st,
		Store:          newSessionStore(cfg.SessionDir, clock, cfg.SessionTimeout),
		Assets:         bundle,
		Clock:          clock,
		Logger:         logger,
		IsProduction:   cfg.IsProduction,
		SessionTimeout: cfg.SessionTimeout,
		CookieMaxAge:   cfg.CookieMaxAge,
		StaticCacheAge: cfg.StaticCacheAge,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		StartTime:      clock.Now(),
	}, nil
}

// setupRouter registers middleware and routes.
func (app *App) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware(), app.requestLogMiddleware())

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(app.cacheHeadersMiddleware())
	router.SetHTMLTemplate(app.Assets.Templates)

	router.GET(RouteHome, app.homeHandler)
	router.GET(RouteNewGame, app.newGameHandler)
	router.POST(RouteNewGame, app.rateLimitMiddleware(), app.newGameHandler)
	router.POST(RouteGuess, app.rateLimitMiddleware(), app.guessHandler)
	router.POST(RouteSettings, app.rateLimitMiddleware(), app.settingsHandler)
	router.GET(RouteGameState, app.gameStateHandler)
	router.GET(RouteAPIState, app.apiStateHandler)
	router.GET(RouteHealthz, app.healthzHandler)
	router.GET(RouteStatic+"/*filepath", app.staticHandler)
	return router
}

// startJanitor evicts idle sessions every minute until ctx is done.
func (app *App) startJanitor(ctx context.Context) quartz.Waiter {
	interval := min(app.SessionTimeout, time.Minute)
	return app.Clock.TickerFunc(ctx, interval, func() error {
		app.evictIdle()
		return nil
	}, "janitor")
}

// shutdown stops every session's countdown. In-progress rounds are already
// on disk.
func (app *App) shutdown() {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	for id, ws := range app.Sessions {
		ws.game.Close()
		delete(app.Sessions, id)
	}
}

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logging.Setup(logging.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction})
	log.Logger = logger

	logInfo("Starting Number Baseball in %s mode", envName(cfg.IsProduction))

	app, err := newApp(cfg, nil, logger)
	if err != nil {
		logFatal("Failed to initialise: %v", err)
	}
	logInfo("Loaded %d presets", len(app.Settings.Presets()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.startJanitor(ctx)

	startServer(app.setupRouter(), cfg.Port)
	cancel()
	app.shutdown()
}

func startServer(router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		logInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}
