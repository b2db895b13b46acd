package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"positionScope/internal/model"
)

var ErrNoSource = errors.New("no call source configured")

// Source supplies decoded call batches and the currency records used for
// decimals lookup.
type Source interface {
	Calls(ctx context.Context, kind model.EventKind) ([]model.DecodedCall, error)
	Transfers(ctx context.Context, addresses []string) ([]model.TransferRecord, error)
}

// FileSource reads saved provider responses. Each field falls through to Next
// when empty.
type FileSource struct {
	CallsPaths    []string
	TransfersPath string
	Next          Source
}

// Calls concatenates the batches in CallsPaths in the order given.
func (s FileSource) Calls(ctx context.Context, kind model.EventKind) ([]model.DecodedCall, error) {
	if len(s.CallsPaths) == 0 {
		if s.Next == nil {
			return nil, ErrNoSource
		}
		return s.Next.Calls(ctx, kind)
	}

	var calls []model.DecodedCall
	for _, path := range s.CallsPaths {
		var resp model.CallsResponse
		if err := readJSONFile(path, &resp); err != nil {
			return nil, err
		}
		calls = append(calls, resp.Calls()...)
	}
	return calls, nil
}

// Transfers reads TransfersPath. Without a file or a Next source the batch is
// empty and every token takes the default decimals.
func (s FileSource) Transfers(ctx context.Context, addresses []string) ([]model.TransferRecord, error) {
	if s.TransfersPath == "" {
		if s.Next == nil {
			return nil, nil
		}
		return s.Next.Transfers(ctx, addresses)
	}
	var resp model.TransfersResponse
	if err := readJSONFile(s.TransfersPath, &resp); err != nil {
		return nil, err
	}
	return resp.Transfers(), nil
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
