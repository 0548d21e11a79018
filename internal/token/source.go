package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/cartcompass/cartcompass/constants"
	"github.com/cartcompass/cartcompass/internal/common"
)

// Source hands out CSRF tokens for authenticated calls. The cookie store is
// the fast path; a miss triggers one round-trip to the token endpoint, whose
// Set-Cookie response refills the store for subsequent reads.
type Source struct {
	base   *url.URL
	client *http.Client
	store  *CookieStore
	logger *slog.Logger
}

// NewSource builds a token source for the given backend base URL. The
// http.Client must use store as its cookie jar so the issued cookie is
// persisted.
func NewSource(baseURL string, client *http.Client, store *CookieStore, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	return &Source{base: base, client: client, store: store, logger: logger}, nil
}

// Acquire returns a CSRF token, reading the cookie store first and fetching
// a fresh token only on a miss. A network failure yields
// common.ErrTokenUnavailable; callers must abort the authenticated call
// rather than proceed without the header.
func (s *Source) Acquire(ctx context.Context) (string, error) {
	if tok := s.store.Get(s.base, constants.CSRFCookieName); tok != "" {
		return tok, nil
	}
	return s.fetch(ctx)
}

// Cached returns the stored token without ever touching the network. Used by
// actions that must be a no-op when no token exists (logout).
func (s *Source) Cached() string {
	return s.store.Get(s.base, constants.CSRFCookieName)
}

func (s *Source) fetch(ctx context.Context) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	endpoint := s.base.JoinPath(constants.EndpointCSRF).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("token.fetch.send_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("TOKEN_FETCH", "token endpoint unreachable", common.ErrTokenUnavailable)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			s.logger.Warn("token.fetch.body_close_error", "req_id", rid, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		s.logger.Error("token.fetch.bad_status",
			"req_id", rid, "status", resp.StatusCode,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("TOKEN_FETCH",
			fmt.Sprintf("token endpoint status %d", resp.StatusCode), common.ErrTokenUnavailable)
	}

	var body struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		s.logger.Error("token.fetch.decode_error", "req_id", rid, "error", err)
		return "", common.NewAppError("TOKEN_FETCH", "malformed token response", common.ErrTokenUnavailable)
	}
	if body.CSRFToken == "" {
		return "", common.NewAppError("TOKEN_FETCH", "empty token in response", common.ErrTokenUnavailable)
	}

	s.logger.Info("token.fetch.ok",
		"req_id", rid,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return body.CSRFToken, nil
}
