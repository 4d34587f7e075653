package main

// Session configuration constants
const (
	SessionCookieName = "session_id"
)

// Route constants
const (
	RouteHome      = "/"
	RouteNewGame   = "/new-game"
	RouteGuess     = "/guess"
	RouteSettings  = "/settings"
	RouteGameState = "/game-state"
	RouteAPIState  = "/api/state"
	RouteHealthz   = "/healthz"
	RouteStatic    = "/static"
)

// Page copy
const (
	PageTitle   = "Number Baseball"
	PageMessage = "Crack the hidden number before you run out of swings."
)

// Message constants
const (
	MessageSettingsApplied = "Settings applied!"
	ErrorTooManyRequests   = "Too many requests. Please slow down."
	ErrorUnknownPreset     = "That preset does not exist."
)

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)
