// Package api is the HTTP glue between the client and the CartCompass REST
// backend. It normalizes every exchange into parsed JSON or a typed error:
// a non-2xx response surfaces the backend's error string, a transport
// failure surfaces common.ErrNetworkUnavailable, and the two are never
// conflated. The client performs no automatic retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cartcompass/cartcompass/constants"
	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/token"
)

// Client issues authenticated requests against the backend. The CSRF token
// travels in a header; session identity travels in cookies via the shared
// jar, never in request bodies.
type Client struct {
	base       *url.URL
	http       *http.Client
	tokens     *token.Source
	logger     *slog.Logger
	reqTimeout time.Duration
}

// NewClient builds an API client. The http.Client must share its cookie jar
// with the token source's store.
func NewClient(baseURL string, httpClient *http.Client, tokens *token.Source, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	return &Client{base: base, http: httpClient, tokens: tokens, logger: logger}, nil
}

// SetRequestTimeout bounds every ordinary (non-upload) request with its own
// deadline. Zero leaves the http.Client's timeout as the only bound; uploads
// always rely on that outer timeout.
func (c *Client) SetRequestTimeout(d time.Duration) {
	c.reqTimeout = d
}

// requestID reuses a caller-stamped request id so the token fetch and the
// API call of one operation correlate in the logs, minting one otherwise.
func requestID(ctx context.Context) string {
	if rid := common.RequestIDFromContext(ctx); rid != "" {
		return rid
	}
	return uuid.New().String()
}

// request options
type callOpts struct {
	authenticated bool
	query         url.Values
}

// do sends one JSON request and normalizes the response. For authenticated
// calls the CSRF token is acquired first; if none can be obtained the
// request is never sent.
func (c *Client) do(ctx context.Context, method, path string, body any, opts callOpts) (json.RawMessage, error) {
	rid := requestID(ctx)
	start := time.Now()

	if c.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = common.WithTimeout(ctx, c.reqTimeout)
		defer cancel()
	}

	var reqBody io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		reqBody = bytes.NewReader(bs)
	}

	endpoint := c.base.JoinPath(path)
	if opts.query != nil {
		endpoint.RawQuery = opts.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if opts.authenticated {
		tok, err := c.tokens.Acquire(ctx)
		if err != nil {
			c.logger.Warn("api.request.no_token", "req_id", rid, "method", method, "path", path)
			return nil, err
		}
		req.Header.Set(constants.CSRFHeaderName, tok)
	}

	attrs := []any{"req_id", rid, "method", method, "path", path}
	if username := common.UsernameFromContext(ctx); username != "" {
		attrs = append(attrs, "username", username)
	}
	c.logger.Info("api.request", attrs...)

	return c.send(req, rid, start)
}

// upload sends a multipart form with a single file field. Used by the
// receipt scan flow.
func (c *Client) upload(ctx context.Context, path, fieldName, fileName string, file io.Reader) (json.RawMessage, error) {
	rid := requestID(ctx)
	start := time.Now()

	ext := constants.NormalizeExt(filepath.Ext(fileName))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return nil, common.NewAppError("UPLOAD_TYPE",
			fmt.Sprintf("unsupported file type %q", ext), common.ErrValidation)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(fieldName, filepath.Base(fileName))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(path).String(), &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	tok, err := c.tokens.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.CSRFHeaderName, tok)

	c.logger.Info("api.upload",
		"req_id", rid,
		"path", path,
		"file", filepath.Base(fileName),
		"bytes", buf.Len(),
	)

	return c.send(req, rid, start)
}

func (c *Client) send(req *http.Request, rid string, start time.Time) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("api.send_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("NETWORK", "no response from backend", common.ErrNetworkUnavailable)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("api.body_close_error", "req_id", rid, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Info("api.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, &common.RequestError{
			StatusCode: resp.StatusCode,
			Reason:     errorReason(raw),
		}
	}
	return raw, nil
}

// errorReason pulls the backend's error field out of a failure body. Bodies
// are JSON objects with an "error" string; anything else degrades to "".
func errorReason(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Error
}
