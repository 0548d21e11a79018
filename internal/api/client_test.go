package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartcompass/cartcompass/constants"
	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/token"
)

// newTestClient wires a client against a mock backend. The handler receives
// every request except the CSRF endpoint, which is served here.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(constants.EndpointCSRF, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: constants.CSRFCookieName, Value: "test-token", Path: "/"})
		fmt.Fprint(w, `{"csrf_token":"test-token"}`)
	})
	mux.HandleFunc("/", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store, err := token.NewCookieStore("", nil)
	require.NoError(t, err)
	httpClient := &http.Client{Jar: store}

	tokens, err := token.NewSource(srv.URL, httpClient, store, nil)
	require.NoError(t, err)

	client, err := NewClient(srv.URL, httpClient, tokens, nil)
	require.NoError(t, err)
	return client, srv
}

func TestLoginAttachesTokenAndCookies(t *testing.T) {
	var gotHeader string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, constants.EndpointUser, r.URL.Path)
		gotHeader = r.Header.Get(constants.CSRFHeaderName)
		fmt.Fprint(w, `{"id":1,"username":"alice","email":"a@b.c","user_uuid":"u-1","num_receipts":4}`)
	})

	user, err := client.Login(context.Background(), "alice", "hunter2!A")
	require.NoError(t, err)
	assert.Equal(t, "test-token", gotHeader)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 4, user.NumReceipts)
}

func TestRequestFailureSurfacesBackendError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"Invalid password"}`)
	})

	_, err := client.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)

	var re *common.RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusBadRequest, re.StatusCode)
	assert.Equal(t, "Invalid password", re.Reason)
	assert.Equal(t, "Invalid password", common.UserMessage(err))
	assert.True(t, errors.Is(err, common.ErrRequestFailed))
}

func TestNetworkFailureIsDistinctFromRequestFailure(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	// Seed the token while the server is up, then take the server away.
	_, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	srv.Close()

	_, err = client.CurrentUser(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNetworkUnavailable))
	assert.False(t, errors.Is(err, common.ErrRequestFailed))
}

func TestTokenUnavailableAbortsRequest(t *testing.T) {
	backendHits := 0

	mux := http.NewServeMux()
	mux.HandleFunc(constants.EndpointCSRF, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		backendHits++
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store, err := token.NewCookieStore("", nil)
	require.NoError(t, err)
	httpClient := &http.Client{Jar: store}
	tokens, err := token.NewSource(srv.URL, httpClient, store, nil)
	require.NoError(t, err)
	client, err := NewClient(srv.URL, httpClient, tokens, nil)
	require.NoError(t, err)

	_, err = client.CurrentUser(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTokenUnavailable))
	assert.Equal(t, 0, backendHits, "authenticated call must not be sent without a token")
}

func TestListReceiptsQueryParams(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "created_at", r.URL.Query().Get("dateordertype"))
		fmt.Fprint(w, `[{"receipt_uuid":"r-1","name":"Groceries","total":12.5}]`)
	})

	receipts, err := client.ListReceipts(context.Background(), 3, "created_at")
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "Groceries", receipts[0].Name)
}

func TestCompareStoreValidatesShape(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "target", r.URL.Query().Get("store"))
			assert.Equal(t, "milk", r.URL.Query().Get("item"))
			fmt.Fprint(w, `[{"name":"Whole Milk","productLink":"https://x","price":3.49,"imgURL":"","rating":4.5,"reviewsAmount":120}]`)
		})

		results, err := client.CompareStore(context.Background(), "target", "milk")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 3.49, results[0].Price)
	})

	t.Run("malformed payload rejected", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"price":"not a number"}]`)
		})

		_, err := client.CompareStore(context.Background(), "target", "milk")
		require.Error(t, err)
		var appErr *common.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "COMPARE_SHAPE", appErr.Code)
	})
}

func TestUploadRejectsUnknownExtension(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should reach the backend")
	})

	_, err := client.UploadReceipt(context.Background(), "receipt.exe", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestUploadSendsMultipartFile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, constants.EndpointCreateReceipt, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "receipt.jpg", header.Filename)
		fmt.Fprint(w, `{"receipt_uuid":"r-new","name":"New Receipt"}`)
	})

	receipt, err := client.UploadReceipt(context.Background(), "receipt.jpg",
		bytes.NewReader([]byte("fake-image-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "r-new", receipt.ReceiptUUID)
}

func TestContextRequestIDFlowsIntoLogs(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"username":"alice","email":"a@b.c","user_uuid":"u-1","num_receipts":0}`)
	})
	var buf bytes.Buffer
	client.logger = slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := common.WithRequestID(context.Background(), "rid-ctx-123")
	ctx = common.WithUsername(ctx, "alice")
	_, err := client.CurrentUser(ctx)
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, `"req_id":"rid-ctx-123"`)
	assert.Contains(t, logs, `"username":"alice"`)
}

func TestRequestTimeoutBoundsSlowCalls(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{}`)
	})
	client.SetRequestTimeout(30 * time.Millisecond)

	_, err := client.CurrentUser(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNetworkUnavailable))
}
