package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerhttp "github.com/custodia/ledger/internal/adapter/http"
	"github.com/custodia/ledger/internal/adapter/http/dto"
	"github.com/custodia/ledger/internal/adapter/http/handler"
	"github.com/custodia/ledger/internal/adapter/store/memory"
	"github.com/custodia/ledger/internal/infrastructure/metrics"
	"github.com/custodia/ledger/internal/ledger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	engine := ledger.NewEngine(
		memory.NewStore(),
		memory.NewIdempotencyStore(),
		ledger.NewULIDGenerator(),
		zerolog.Nop(),
		nil,
		ledger.Config{},
	)

	router := ledgerhttp.NewRouter(ledgerhttp.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(engine),
		WalletHandler:   handler.NewWalletHandler(engine),
		TransferHandler: handler.NewTransferHandler(engine),
		EntryHandler:    handler.NewEntryHandler(engine),
		HealthHandler:   handler.NewHealthHandler(),
		Logger:          zerolog.Nop(),
		Metrics:         metrics.New(prometheus.NewRegistry()),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any, headers map[string]string, out any) *nethttp.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := nethttp.NewRequestWithContext(context.Background(), method, srv.URL+path, &buf)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp
}

func createAccount(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	var account dto.AccountResponse
	resp := doJSON(t, srv, nethttp.MethodPost, "/api/v1/accounts/", nil, nil, &account)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, account.ID)

	return account.ID
}

func deposit(t *testing.T, srv *httptest.Server, accountID, amount string) {
	t.Helper()

	resp := doJSON(t, srv, nethttp.MethodPost, "/api/v1/accounts/"+accountID+"/deposit",
		dto.MoneyRequest{Amount: decimal.RequireFromString(amount)}, nil, nil)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
}

func TestRouter_DepositWithdrawFlow(t *testing.T) {
	srv := newTestServer(t)
	accountID := createAccount(t, srv)

	var op dto.OperationResponse
	resp := doJSON(t, srv, nethttp.MethodPost, "/api/v1/accounts/"+accountID+"/deposit",
		dto.MoneyRequest{Amount: decimal.RequireFromString("100.00"), Description: "paycheck"}, nil, &op)

	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, "CREDIT", op.Entry.Kind)
	assert.True(t, op.NewBalance.Equal(decimal.RequireFromString("100.00")))

	resp = doJSON(t, srv, nethttp.MethodPost, "/api/v1/accounts/"+accountID+"/withdraw",
		dto.MoneyRequest{Amount: decimal.RequireFromString("40.00")}, nil, &op)

	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, "DEBIT", op.Entry.Kind)
	assert.True(t, op.NewBalance.Equal(decimal.RequireFromString("60.00")))

	var balance dto.BalanceResponse
	resp = doJSON(t, srv, nethttp.MethodGet, "/api/v1/accounts/"+accountID+"/balance", nil, nil, &balance)

	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, accountID, balance.AccountID)
	assert.True(t, balance.Balance.Equal(decimal.RequireFromString("60.00")))
}

func TestRouter_WithdrawInsufficientBalance(t *testing.T) {
	srv := newTestServer(t)
	accountID := createAccount(t, srv)
	deposit(t, srv, accountID, "100.00")

	var errResp dto.ErrorResponse
	resp := doJSON(t, srv, nethttp.MethodPost, "/api/v1/accounts/"+accountID+"/withdraw",
		dto.MoneyRequest{Amount: decimal.RequireFromString("150.00")}, nil, &errResp)

	require.Equal(t, nethttp.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "insufficient_balance", errResp.Error)

	require.NotNil(t, errResp.CurrentBalance)
	require.NotNil(t, errResp.RequiredAmount)
	assert.True(t, errResp.CurrentBalance.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, errResp.RequiredAmount.Equal(decimal.RequireFromString("150.00")))
}

func TestRouter_TransferFlow(t *testing.T) {
	srv := newTestServer(t)

	sender := createAccount(t, srv)
	recipient := createAccount(t, srv)
	deposit(t, srv, sender, "100.00")

	var transfer dto.TransferResponse
	resp := doJSON(t, srv, nethttp.MethodPost, "/api/v1/transfers/", dto.CreateTransferRequest{
		SenderID:    sender,
		RecipientID: recipient,
		Amount:      decimal.RequireFromString("25.00"),
	}, nil, &transfer)

	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, "TRANSFER_OUT", transfer.OutEntry.Kind)
	assert.Equal(t, "TRANSFER_IN", transfer.InEntry.Kind)
	assert.Equal(t, transfer.InEntry.ID, transfer.OutEntry.LinkedEntryID)
	assert.Equal(t, transfer.OutEntry.ID, transfer.InEntry.LinkedEntryID)
	assert.True(t, transfer.SenderBalance.Equal(decimal.RequireFromString("75.00")))
	assert.True(t, transfer.RecipientBalance.Equal(decimal.RequireFromString("25.00")))

	// Both linked entries are individually retrievable.
	for _, id := range []string{transfer.OutEntry.ID, transfer.InEntry.ID} {
		var entry dto.EntryResponse
		resp := doJSON(t, srv, nethttp.MethodGet, "/api/v1/entries/"+id, nil, nil, &entry)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		assert.Equal(t, id, entry.ID)
	}
}

func TestRouter_SelfTransferRejected(t *testing.T) {
	srv := newTestServer(t)
	accountID := createAccount(t, srv)
	deposit(t, srv, accountID, "100.00")

	var errResp dto.ErrorResponse
	resp := doJSON(t, srv, nethttp.MethodPost, "/api/v1/transfers/", dto.CreateTransferRequest{
		SenderID:    accountID,
		RecipientID: accountID,
		Amount:      decimal.RequireFromString("10.00"),
	}, nil, &errResp)

	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "self_transfer", errResp.Error)
}

func TestRouter_IdempotentDepositReplay(t *testing.T) {
	srv := newTestServer(t)
	accountID := createAccount(t, srv)

	headers := map[string]string{handler.IdempotencyKeyHeader: "req-123"}
	body := dto.MoneyRequest{Amount: decimal.RequireFromString("50.00")}

	var first dto.OperationResponse
	resp := doJSON(t, srv, nethttp.MethodPost, "/api/v1/accounts/"+accountID+"/deposit", body, headers, &first)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Idempotency-Replay"))

	var second dto.OperationResponse
	resp = doJSON(t, srv, nethttp.MethodPost, "/api/v1/accounts/"+accountID+"/deposit", body, headers, &second)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("X-Idempotency-Replay"))
	assert.Equal(t, first.Entry.ID, second.Entry.ID)

	var balance dto.BalanceResponse
	doJSON(t, srv, nethttp.MethodGet, "/api/v1/accounts/"+accountID+"/balance", nil, nil, &balance)
	assert.True(t, balance.Balance.Equal(decimal.RequireFromString("50.00")))
}

func TestRouter_ListEntries(t *testing.T) {
	srv := newTestServer(t)
	accountID := createAccount(t, srv)

	for i := 1; i <= 3; i++ {
		deposit(t, srv, accountID, fmt.Sprintf("%d.00", i))
	}

	var list dto.ListEntriesResponse
	resp := doJSON(t, srv, nethttp.MethodGet, "/api/v1/accounts/"+accountID+"/entries?page=1&limit=2", nil, nil, &list)

	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 2, list.Limit)
	require.Len(t, list.Entries, 2)

	// Newest first.
	assert.True(t, list.Entries[0].Amount.Equal(decimal.RequireFromString("3.00")))
	assert.True(t, list.Entries[1].Amount.Equal(decimal.RequireFromString("2.00")))
}

func TestRouter_NotFoundAndBadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown account",
			method:     nethttp.MethodGet,
			path:       "/api/v1/accounts/no-such-account/balance",
			wantStatus: nethttp.StatusNotFound,
			wantCode:   "account_not_found",
		},
		{
			name:       "unknown entry",
			method:     nethttp.MethodGet,
			path:       "/api/v1/entries/no-such-entry",
			wantStatus: nethttp.StatusNotFound,
			wantCode:   "entry_not_found",
		},
		{
			name:       "deposit to unknown account",
			method:     nethttp.MethodPost,
			path:       "/api/v1/accounts/no-such-account/deposit",
			body:       dto.MoneyRequest{Amount: decimal.RequireFromString("1.00")},
			wantStatus: nethttp.StatusNotFound,
			wantCode:   "account_not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errResp dto.ErrorResponse
			resp := doJSON(t, srv, tt.method, tt.path, tt.body, nil, &errResp)

			require.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, errResp.Error)
		})
	}
}

func TestRouter_InvalidAmountRejected(t *testing.T) {
	srv := newTestServer(t)
	accountID := createAccount(t, srv)

	var errResp dto.ErrorResponse
	resp := doJSON(t, srv, nethttp.MethodPost, "/api/v1/accounts/"+accountID+"/deposit",
		dto.MoneyRequest{Amount: decimal.Zero}, nil, &errResp)

	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_amount", errResp.Error)
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, nethttp.MethodGet, "/health", nil, nil, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp = doJSON(t, srv, nethttp.MethodGet, "/ready", nil, nil, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
}
