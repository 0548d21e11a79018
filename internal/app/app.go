// Package app holds the controllers behind each view: they call the API
// client, reconcile results into the session store, and signal dependent
// refetches. Errors are terminal to the triggering action only; they are
// returned for display next to the control that caused them and never
// corrupt session state.
package app

import (
	"log/slog"
	"sync"

	"github.com/cartcompass/cartcompass/internal/api"
	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/session"
	"github.com/cartcompass/cartcompass/internal/token"
)

// AuthState is the client's authentication lifecycle state.
type AuthState string

const (
	StateAnonymous      AuthState = "anonymous"
	StateAuthenticating AuthState = "authenticating"
	StateAuthenticated  AuthState = "authenticated"
	StateLoggingOut     AuthState = "logging_out"
)

// App wires the API client, token source, and session store together for
// the view layer.
type App struct {
	api     *api.Client
	tokens  *token.Source
	session *session.Store
	cfg     *common.Config
	logger  *slog.Logger

	mu        sync.Mutex
	state     AuthState
	listLimit int
}

// New builds the application root. The session store starts anonymous.
func New(apiClient *api.Client, tokens *token.Source, store *session.Store, cfg *common.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		api:     apiClient,
		tokens:  tokens,
		session: store,
		cfg:     cfg,
		logger:  logger,
		state:   StateAnonymous,
	}
}

// Session exposes the state store to views.
func (a *App) Session() *session.Store {
	return a.session
}

// State returns the current authentication state.
func (a *App) State() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) setState(s AuthState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// transition moves from one auth state to another, refusing moves the
// lifecycle does not allow.
func (a *App) transition(from, to AuthState) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != from {
		return false
	}
	a.state = to
	return true
}
