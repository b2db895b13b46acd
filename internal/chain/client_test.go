package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

func TestCallKey(t *testing.T) {
	to := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	a := callKey(ethereum.CallMsg{To: &to, Data: []byte{0x31, 0x3c, 0xe5, 0x67}})
	b := callKey(ethereum.CallMsg{To: &to, Data: []byte{0x95, 0xd8, 0x9b, 0x41}})
	if a == b {
		t.Fatalf("different calldata should not share a key: %s", a)
	}
	if want := to.Hex() + ":313ce567"; a != want {
		t.Fatalf("key = %s, want %s", a, want)
	}
}

func TestNewClientRejectsUnknownScheme(t *testing.T) {
	if _, err := NewClient(context.Background(), "bogus://localhost"); err == nil {
		t.Fatalf("expected dial error")
	}
}

// fakeNode answers eth_chainId and eth_call over JSON-RPC and counts eth_call requests.
func fakeNode(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var result string
		switch req.Method {
		case "eth_chainId":
			result = "0x1"
		case "eth_call":
			atomic.AddInt32(calls, 1)
			result = "0x0000000000000000000000000000000000000000000000000000000000000012"
		default:
			http.Error(w, "unexpected method "+req.Method, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChainIDAndMemoizedCalls(t *testing.T) {
	var calls int32
	srv := fakeNode(t, &calls)
	ctx := context.Background()

	client, err := NewClient(ctx, srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	id, err := client.ChainID(ctx)
	if err != nil {
		t.Fatalf("ChainID: %v", err)
	}
	if id.Int64() != 1 {
		t.Fatalf("chain id = %s", id)
	}

	to := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	msg := ethereum.CallMsg{To: &to, Data: []byte{0x31, 0x3c, 0xe5, 0x67}}
	for i := 0; i < 3; i++ {
		out, err := client.CallContract(ctx, msg, nil)
		if err != nil {
			t.Fatalf("CallContract: %v", err)
		}
		if len(out) != 32 || out[31] != 0x12 {
			t.Fatalf("output = %x", out)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("eth_call requests = %d, want 1", got)
	}
}
