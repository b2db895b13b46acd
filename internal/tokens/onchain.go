package tokens

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/model"
)

// ContractCaller executes read-only contract calls. *chain.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// FetchMetadata reads ERC20 decimals, symbol and name from chain. Decimals are
// required; symbol and name fall back to the bytes32 ABI and are otherwise left empty.
func FetchMetadata(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) (model.TokenInfo, error) {
	info := model.TokenInfo{Address: token.Hex()}
	if caller == nil {
		return info, fmt.Errorf("contract caller is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := erc20String()
	if err != nil {
		return info, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32()
	if err != nil {
		return info, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("unpack %s: empty result", method)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return info, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return info, fmt.Errorf("decimals: unsupported type %T", values[0])
	}
	info.Decimals = int(decimals)

	text := func(method string) string {
		if values, err := call(method, stringABI); err == nil {
			if s, ok := values[0].(string); ok {
				return s
			}
		}
		values, err := call(method, bytes32ABI)
		if err != nil {
			logger.Debug("token text call failed", zap.String("token", token.Hex()), zap.String("method", method), zap.Error(err))
			return ""
		}
		if raw, ok := values[0].([32]byte); ok {
			return string(bytes.TrimRight(raw[:], "\x00"))
		}
		return ""
	}
	info.Symbol = text("symbol")
	info.Name = text("name")

	return info, nil
}

// FetchMissing reads metadata for the hex addresses the resolver does not know.
// Failures are logged and skipped; the result only holds successful reads.
func FetchMissing(ctx context.Context, caller ContractCaller, resolver *Resolver, addresses []string, logger *zap.Logger) []model.TokenInfo {
	if logger == nil {
		logger = zap.NewNop()
	}
	var out []model.TokenInfo
	for _, addr := range resolver.Missing(addresses) {
		if ctx.Err() != nil {
			break
		}
		if !common.IsHexAddress(addr) {
			logger.Debug("skip non-hex token address", zap.String("token", addr))
			continue
		}
		info, err := FetchMetadata(ctx, caller, common.HexToAddress(addr), logger)
		if err != nil {
			logger.Warn("token metadata fetch failed", zap.String("token", addr), zap.Error(err))
			continue
		}
		info.Address = addr
		out = append(out, info)
	}
	return out
}
