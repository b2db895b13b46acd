package pipeline

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"go.uber.org/zap"

	"positionScope/internal/tokens"
)

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}

// retryingCaller retries eth_call against the token metadata RPC. The
// provider API is never retried.
type retryingCaller struct {
	next       tokens.ContractCaller
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func (c retryingCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := withRetry(ctx, c.maxRetries, c.backoff, func(ctx context.Context) error {
		var err error
		out, err = c.next.CallContract(ctx, msg, blockNumber)
		if err != nil {
			c.logger.Debug("eth_call failed", zap.Error(err))
		}
		return err
	})
	return out, err
}
