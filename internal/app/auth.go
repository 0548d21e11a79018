package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/session"
)

var signupValidator = validator.New(validator.WithRequiredStructEnabled())

// SignupInput is the signup form. Struct-level checks gate the network call;
// the password policy checklist runs separately so the caller can show every
// failing rule.
type SignupInput struct {
	Username        string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required"`
}

// SignupValidationError reports which client-side preconditions failed.
// Recoverable locally; nothing was sent to the backend.
type SignupValidationError struct {
	Message     string
	FailedRules []string
}

func (e *SignupValidationError) Error() string {
	return e.Message
}

func (e *SignupValidationError) Unwrap() error { return common.ErrValidation }

// Login authenticates and, on success, installs the user, bumps the refresh
// counter so per-user lists reload, and closes the authentication modal.
// On rejection the session is left untouched.
func (a *App) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return common.NewAppError("LOGIN_INPUT", "Missing fields.", common.ErrValidation)
	}

	if !a.transition(StateAnonymous, StateAuthenticating) {
		return common.NewAppError("LOGIN_STATE",
			fmt.Sprintf("cannot log in from state %q", a.State()), common.ErrValidation)
	}

	user, err := a.api.Login(ctx, username, password)
	if err != nil {
		a.setState(StateAnonymous)
		a.logger.Warn("auth.login.failed", "username", username, "error", err)
		return err
	}

	a.session.SetUser(user)
	a.session.MarkMutated(session.ResourceReceipts)
	if a.session.AuthenticateActive() {
		a.session.ToggleAuthenticate()
	}
	a.setState(StateAuthenticated)

	a.logger.Info("auth.login.ok", "username", user.Username, "user_uuid", user.UserUUID)
	return nil
}

// Signup validates the form locally and creates the account. Validation
// failures block the network call entirely.
func (a *App) Signup(ctx context.Context, input SignupInput) error {
	if err := a.validateSignup(input); err != nil {
		return err
	}

	email := strings.ToLower(input.Email)
	if err := a.api.Signup(ctx, input.Username, email, input.Password); err != nil {
		a.logger.Warn("auth.signup.failed", "username", input.Username, "error", err)
		return err
	}

	a.logger.Info("auth.signup.ok", "username", input.Username)
	return nil
}

func (a *App) validateSignup(input SignupInput) error {
	if err := signupValidator.Struct(input); err != nil {
		msg := "Missing fields."
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if fe.Field() == "Email" && fe.Tag() == "email" {
					msg = "Email is not valid."
					break
				}
			}
		}
		return &SignupValidationError{Message: msg}
	}

	if failed := common.CheckPassword(input.Password); len(failed) > 0 {
		return &SignupValidationError{
			Message:     "Password does not meet the minimum requirements.",
			FailedRules: failed,
		}
	}

	if input.Password != input.ConfirmPassword {
		return &SignupValidationError{Message: "Passwords do not match"}
	}
	return nil
}

// Logout ends the session. With no token available there is no server-side
// session to end, so logout is a no-op that leaves the client authenticated.
// On success the session resets to the anonymous sentinel.
func (a *App) Logout(ctx context.Context) error {
	if a.tokens.Cached() == "" {
		a.logger.Warn("auth.logout.no_token")
		return nil
	}

	if !a.transition(StateAuthenticated, StateLoggingOut) {
		return nil
	}

	if err := a.api.Logout(ctx); err != nil {
		a.setState(StateAuthenticated)
		a.logger.Warn("auth.logout.failed", "error", err)
		return err
	}

	a.session.Reset()
	a.setState(StateAnonymous)
	a.logger.Info("auth.logout.ok")
	return nil
}

// Restore re-derives the session from the backend cookie at startup. An
// unauthenticated answer simply leaves the client anonymous.
func (a *App) Restore(ctx context.Context) error {
	user, err := a.api.CurrentUser(ctx)
	if err != nil {
		a.logger.Debug("auth.restore.anonymous", "error", err)
		return err
	}

	a.session.SetUser(user)
	a.setState(StateAuthenticated)
	a.logger.Info("auth.restore.ok", "username", user.Username)
	return nil
}

// DeleteAccount removes the account server-side and resets the session.
func (a *App) DeleteAccount(ctx context.Context) error {
	if !a.session.User().Authenticated() {
		return common.ErrNotAuthenticated
	}
	if err := a.api.DeleteAccount(ctx); err != nil {
		return err
	}

	a.session.Reset()
	a.setState(StateAnonymous)
	a.logger.Info("auth.account_deleted")
	return nil
}
