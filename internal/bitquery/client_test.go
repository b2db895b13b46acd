package bitquery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"positionScope/internal/model"
)

type captured struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
	Auth      string         `json:"-"`
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []captured
	reply    func(n int, req captured) (int, string)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req captured
	_ = json.Unmarshal(body, &req)
	req.Auth = r.Header.Get("Authorization")

	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	f.mu.Unlock()

	status, payload := f.reply(n, req)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, payload)
}

func callsPayload(hashes ...string) string {
	var rows []string
	for _, h := range hashes {
		rows = append(rows, `{"Arguments":[],"Call":{"Signature":{"Name":"mint"}},"Transaction":{"Hash":"`+h+`"},"Block":{"Number":"1"}}`)
	}
	return `{"data":{"EVM":{"Calls":[` + strings.Join(rows, ",") + `]}}}`
}

type requestLog struct {
	names []string
	errs  int
}

func (r *requestLog) ObserveRequest(query string, err error) {
	r.names = append(r.names, query)
	if err != nil {
		r.errs++
	}
}

func TestCallsHistoricalThenRealtime(t *testing.T) {
	api := &fakeAPI{reply: func(n int, _ captured) (int, string) {
		if n == 1 {
			return 200, callsPayload("0xh1", "0xh2")
		}
		return 200, callsPayload("0xr1")
	}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	log := &requestLog{}
	client := NewClient(Options{
		Endpoint:        srv.URL,
		Token:           "tok",
		StartDate:       "2025-09-15",
		EndDate:         "2025-09-22",
		Limit:           50,
		IncludeRealtime: true,
		Requests:        log,
	})

	calls, err := client.Calls(context.Background(), model.EventMint)
	require.NoError(t, err)
	require.Len(t, calls, 3)
	require.Equal(t, []string{"0xh1", "0xh2", "0xr1"}, []string{calls[0].Transaction.Hash, calls[1].Transaction.Hash, calls[2].Transaction.Hash})

	require.Len(t, api.requests, 2)
	hist, live := api.requests[0], api.requests[1]
	require.Equal(t, "Bearer tok", hist.Auth)
	require.Contains(t, hist.Query, "dataset: archive")
	require.Contains(t, hist.Query, "$startDate")
	require.NotContains(t, hist.Query, "Returns", "mint queries carry no returns")
	require.Equal(t, "2025-09-15", hist.Variables["startDate"])
	require.Equal(t, 50.0, hist.Variables["limit"])
	require.Equal(t, "mint", hist.Variables["signature"])
	require.Equal(t, PositionManager, hist.Variables["contract"])

	require.NotContains(t, live.Query, "archive")
	require.Equal(t, float64(DefaultRealtimeLimit), live.Variables["limit"])
	require.Equal(t, []string{"HistoricalMintCalls", "RealtimeMintCalls"}, log.names)
}

func TestCallsPositionsRequestReturns(t *testing.T) {
	api := &fakeAPI{reply: func(int, captured) (int, string) { return 200, callsPayload() }}
	srv := httptest.NewServer(api)
	defer srv.Close()

	client := NewClient(Options{Endpoint: srv.URL, IncludeRealtime: true})
	calls, err := client.Calls(context.Background(), model.EventPosition)
	require.NoError(t, err)
	require.Empty(t, calls)

	require.Len(t, api.requests, 1, "no window means realtime only")
	require.Contains(t, api.requests[0].Query, "Returns")
	require.Equal(t, "", api.requests[0].Auth)
	require.Equal(t, float64(WideRealtimeLimit), api.requests[0].Variables["limit"])
}

func TestCallsUnknownKind(t *testing.T) {
	client := NewClient(Options{Endpoint: "http://127.0.0.1:0"})
	_, err := client.Calls(context.Background(), model.EventKind("swap"))
	require.Error(t, err)
}

func TestCallsSurfacesHTTPAndGraphQLErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		payload string
		want    string
	}{
		{"status", http.StatusUnauthorized, `{"error":"bad token"}`, "status 401"},
		{"graphql", 200, `{"errors":[{"message":"limit exceeded"}]}`, "limit exceeded"},
		{"malformed", 200, `{"data":`, "decode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{reply: func(int, captured) (int, string) { return tc.status, tc.payload }}
			srv := httptest.NewServer(api)
			defer srv.Close()

			log := &requestLog{}
			client := NewClient(Options{Endpoint: srv.URL, IncludeRealtime: true, Requests: log})
			_, err := client.Calls(context.Background(), model.EventBurn)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
			require.Len(t, api.requests, 1, "no retry")
			require.Equal(t, 1, log.errs)
		})
	}
}

func TestCallsEmptyBody(t *testing.T) {
	api := &fakeAPI{reply: func(int, captured) (int, string) { return 200, "" }}
	srv := httptest.NewServer(api)
	defer srv.Close()

	client := NewClient(Options{Endpoint: srv.URL, IncludeRealtime: true})
	_, err := client.Calls(context.Background(), model.EventBurn)
	require.True(t, errors.Is(err, ErrEmptyBody))
}

func TestTransfers(t *testing.T) {
	api := &fakeAPI{reply: func(int, captured) (int, string) {
		return 200, `{"data":{"EVM":{"Transfers":[
			{"Transfer":{"Currency":{"SmartContract":"0xa0b8","Decimals":6,"Symbol":"USDC","Name":"USD Coin"}}},
			{"Transfer":{"Currency":{"SmartContract":"0xc02a","Decimals":"18","Symbol":"WETH"}}}
		]}}}`
	}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	client := NewClient(Options{Endpoint: srv.URL, StartDate: "2025-09-01", EndDate: "2025-09-22"})
	records, err := client.Transfers(context.Background(), []string{"0xa0b8", "0xc02a"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, model.OptionalInt{Value: 18, Valid: true}, records[1].Transfer.Currency.Decimals)

	req := api.requests[0]
	require.Contains(t, req.Query, "limitBy: { by: Transfer_Currency_SmartContract, count: 1 }")
	require.Equal(t, []any{"0xa0b8", "0xc02a"}, req.Variables["tokens"])
}

func TestTransfersNoAddressesSkipsRequest(t *testing.T) {
	api := &fakeAPI{reply: func(int, captured) (int, string) { return 500, "" }}
	srv := httptest.NewServer(api)
	defer srv.Close()

	records, err := NewClient(Options{Endpoint: srv.URL}).Transfers(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, records)
	require.Empty(t, api.requests)
}

func TestQueryDocumentNames(t *testing.T) {
	require.Equal(t, "HistoricalPositionsCalls", callQuery{Signature: "positions", Archive: true}.name())
	require.Equal(t, "RealtimeBurnCalls", callQuery{Signature: "burn"}.name())
	require.Equal(t, "RealtimeCalls", callQuery{}.name())
}
