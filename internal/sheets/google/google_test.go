package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"clubfund/internal/core"
	"clubfund/internal/ledger"

	goption "google.golang.org/api/option"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet", CredentialsFile: "/non/existent.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestQuoteSheet(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Balances", "Balances"},
		{"Quỹ CLB", "'Quỹ CLB'"},
		{"Bob's", "'Bob''s'"},
	}
	for _, tt := range tests {
		if got := quoteSheet(tt.in); got != tt.want {
			t.Errorf("quoteSheet(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type recordedCall struct {
	method string
	path   string
	body   map[string]any
}

func fakeSheetsServer(t *testing.T) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		calls = append(calls, recordedCall{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, ":clear") {
			_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
			return
		}
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updatedRows":4}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_ExportBalances(t *testing.T) {
	srv, calls := fakeSheetsServer(t)
	ctx := context.Background()

	c, err := New(ctx, Config{SpreadsheetID: "sheet-1", SheetName: "Balances"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary := ledger.FundSummary{
		TotalFundBalance: core.VND(150000),
		Balances: []ledger.MemberBalance{
			{MemberID: 1, MemberName: "An", TotalDeposits: core.VND(200000), CurrentBalance: core.VND(200000)},
			{MemberID: 2, MemberName: "Bình", TotalSessionPayments: core.VND(50000), CurrentBalance: core.VND(-50000)},
		},
	}
	if err := c.ExportBalances(ctx, summary, time.Date(2025, 3, 8, 20, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("ExportBalances: %v", err)
	}

	if len(*calls) != 2 {
		t.Fatalf("expected clear then update, got %+v", *calls)
	}
	clear, update := (*calls)[0], (*calls)[1]
	if clear.method != http.MethodPost || !strings.Contains(clear.path, "sheet-1/values/Balances!A:E:clear") {
		t.Errorf("clear call = %s %s", clear.method, clear.path)
	}
	if update.method != http.MethodPut || !strings.Contains(update.path, "values/Balances!A1") {
		t.Errorf("update call = %s %s", update.method, update.path)
	}
	values, ok := update.body["values"].([]any)
	if !ok || len(values) != 4 {
		t.Fatalf("update values = %v", update.body["values"])
	}
	last := values[3].([]any)
	if last[4].(float64) != 150000 {
		t.Errorf("total row = %v", last)
	}
}

func TestClient_ExportBalancesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.ExportBalances(context.Background(), ledger.FundSummary{}, time.Now()); err == nil {
		t.Fatal("expected error from forbidden response")
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if err := c.ExportBalances(context.Background(), ledger.FundSummary{}, time.Now()); err == nil {
		t.Fatal("expected error for uninitialized service")
	}
}
