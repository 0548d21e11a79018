package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartcompass/cartcompass/constants"
	"github.com/cartcompass/cartcompass/internal/entity"
)

const receiptUUID = "33333333-3333-3333-3333-333333333333"

func receiptsHandler(t *testing.T, updated *entity.Receipt) http.HandlerFunc {
	receiptJSON := fmt.Sprintf(`{"receipt_uuid":%q,"name":"Groceries","store":"Acme",
		"date_purchased":"2025-08-02T04:14:53.987274Z","last_updated":"2024-01-01T00:00:00.000000Z",
		"total":41.20,"num_items":3}`, receiptUUID)

	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == constants.EndpointUser && r.Method == http.MethodPost:
			fmt.Fprint(w, aliceJSON)
		case r.URL.Path == constants.EndpointUser && r.Method == http.MethodGet:
			fmt.Fprint(w, `{"id":1,"username":"alice","email":"a@b.c","user_uuid":"u-1","num_receipts":1}`)
		case r.URL.Path == constants.EndpointFigures:
			fmt.Fprint(w, `{"monthlyspent":120.5,"savings":14.2}`)
		case r.URL.Path == constants.EndpointGetReceipts:
			fmt.Fprintf(w, "[%s]", receiptJSON)
		case strings.HasPrefix(r.URL.Path, "/api/receipt/") && r.Method == http.MethodGet:
			fmt.Fprint(w, receiptJSON)
		case strings.HasPrefix(r.URL.Path, "/api/receipt/") && r.Method == http.MethodPut:
			if updated != nil {
				require.NoError(t, json.NewDecoder(r.Body).Decode(updated))
			}
			fmt.Fprint(w, `{}`)
		case strings.HasPrefix(r.URL.Path, "/api/receipt/") && r.Method == http.MethodDelete:
			fmt.Fprint(w, `{}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}
}

func TestHomeJoinsBothFetches(t *testing.T) {
	env := newTestEnv(t, receiptsHandler(t, nil))
	ctx := context.Background()
	require.NoError(t, env.app.Login(ctx, "alice", "S3cret!pw"))

	env.store.SetDisplayReceipt(entity.Receipt{ReceiptUUID: receiptUUID})

	data, err := env.app.Home(ctx)
	require.NoError(t, err)
	require.NoError(t, data.FiguresErr)
	require.NoError(t, data.RecentErr)

	assert.Equal(t, 120.5, data.Figures.MonthlySpent)
	assert.Equal(t, 14.2, data.Figures.Savings)
	require.Len(t, data.Recent, 1)
	assert.Equal(t, entity.BaseReceipt, env.store.DisplayReceipt(), "home resets the display receipt")
}

func TestHomeRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t, receiptsHandler(t, nil))
	_, err := env.app.Home(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 0, env.backendHits.Load())
}

func TestRefreshReceiptListPopulatesCache(t *testing.T) {
	env := newTestEnv(t, receiptsHandler(t, nil))
	ctx := context.Background()
	require.NoError(t, env.app.Login(ctx, "alice", "S3cret!pw"))

	receipts, err := env.app.RefreshReceiptList(ctx, 10)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, receipts, env.store.ReceiptList())
}

func TestEditReceiptKeepsTimestampSuffix(t *testing.T) {
	var updated entity.Receipt
	env := newTestEnv(t, receiptsHandler(t, &updated))
	ctx := context.Background()
	require.NoError(t, env.app.Login(ctx, "alice", "S3cret!pw"))

	receipt, err := env.app.OpenReceipt(ctx, receiptUUID)
	require.NoError(t, err)

	newDate := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	taxPercent := 8.25
	require.NoError(t, env.app.EditReceipt(ctx, receipt, ReceiptEdit{
		Name:       "Weekly shop",
		Date:       &newDate,
		TaxPercent: &taxPercent,
	}))

	assert.Equal(t, "Weekly shop", updated.Name)
	assert.Equal(t, "2025-09-01T04:14:53.987274Z", updated.DatePurchased)
	assert.Equal(t, 8.25, updated.TaxPercent)
	assert.EqualValues(t, 2, env.store.Refresh())
}

func TestEditReceiptStampsLastUpdated(t *testing.T) {
	var updated entity.Receipt
	env := newTestEnv(t, receiptsHandler(t, &updated))
	ctx := context.Background()
	require.NoError(t, env.app.Login(ctx, "alice", "S3cret!pw"))

	receipt, err := env.app.OpenReceipt(ctx, receiptUUID)
	require.NoError(t, err)
	require.Equal(t, "2024-01-01T00:00:00.000000Z", receipt.LastUpdated)

	require.NoError(t, env.app.EditReceipt(ctx, receipt, ReceiptEdit{Name: "Weekly shop"}))

	// The payload carries today's stamp, not the fetched one.
	today := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, today+"T00:00:00.000000Z", updated.LastUpdated)
}

func TestDeleteReceiptRefetchesUserAndLeavesDetail(t *testing.T) {
	env := newTestEnv(t, receiptsHandler(t, nil))
	ctx := context.Background()
	require.NoError(t, env.app.Login(ctx, "alice", "S3cret!pw"))
	assert.Equal(t, 2, env.store.User().NumReceipts)

	_, err := env.app.OpenReceipt(ctx, receiptUUID)
	require.NoError(t, err)

	require.NoError(t, env.app.DeleteReceipt(ctx, receiptUUID))

	assert.Equal(t, 1, env.store.User().NumReceipts, "num_receipts re-derived from the server")
	assert.Equal(t, entity.BaseReceipt, env.store.DisplayReceipt())
	assert.EqualValues(t, 2, env.store.Refresh())
}

func TestShowMoreReceiptsWidensWindow(t *testing.T) {
	const total = 25

	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == constants.EndpointUser && r.Method == http.MethodPost:
			fmt.Fprintf(w, `{"id":1,"username":"alice","email":"a@b.c","user_uuid":"u-1","num_receipts":%d}`, total)
		case r.URL.Path == constants.EndpointGetReceipts:
			limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
			require.NoError(t, err)
			if limit > total {
				limit = total
			}
			rows := make([]string, 0, limit)
			for i := 0; i < limit; i++ {
				rows = append(rows, fmt.Sprintf(`{"receipt_uuid":"r-%d","name":"Receipt %d"}`, i, i))
			}
			fmt.Fprintf(w, "[%s]", strings.Join(rows, ","))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()
	require.NoError(t, env.app.Login(ctx, "alice", "S3cret!pw"))

	first, err := env.app.RefreshReceiptList(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, first, 10, "default window")

	second, more, err := env.app.ShowMoreReceipts(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 20)
	assert.True(t, more)

	third, more, err := env.app.ShowMoreReceipts(ctx)
	require.NoError(t, err)
	assert.Len(t, third, total)
	assert.False(t, more)
	assert.Equal(t, third, env.store.ReceiptList())
}

func TestOpenReceiptValidatesUUID(t *testing.T) {
	env := newTestEnv(t, receiptsHandler(t, nil))
	ctx := context.Background()
	require.NoError(t, env.app.Login(ctx, "alice", "S3cret!pw"))

	_, err := env.app.OpenReceipt(ctx, "not-a-uuid")
	require.Error(t, err)
	assert.EqualValues(t, 1, env.backendHits.Load(), "only the login hit the backend")
}
