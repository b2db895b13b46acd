package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps a go-ethereum RPC connection for read-only contract calls.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu        sync.RWMutex
	callCache map[string][]byte
}

// NewClient dials rpcURL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		callCache: make(map[string][]byte),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the connected chain's id.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// CallContract performs an eth_call. Calls against the latest block are
// memoized per target and calldata for the life of the client.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if blockNumber != nil || msg.To == nil {
		return c.ethClient.CallContract(ctx, msg, blockNumber)
	}

	key := callKey(msg)
	c.mu.RLock()
	out, ok := c.callCache[key]
	c.mu.RUnlock()
	if ok {
		return out, nil
	}

	out, err := c.ethClient.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.callCache[key] = out
	c.mu.Unlock()
	return out, nil
}

func callKey(msg ethereum.CallMsg) string {
	return msg.To.Hex() + ":" + fmt.Sprintf("%x", msg.Data)
}
