package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"positionScope/internal/model"
)

// Output file names inside the output directory.
const (
	PositionsFile     = "processed_positions.json"
	MintEventsFile    = "processed_mint_events.json"
	BurnEventsFile    = "processed_burn_events.json"
	CreationsFile     = "processed_creation_events.json"
	TokenLookupFile   = "token_decimals_lookup.json"
	CreatorReportFile = "creator_analysis.json"
	BurnAnalysisFile  = "burn_analysis.json"
)

// EventsFile names the output file for an event kind.
func EventsFile(kind model.EventKind) string {
	switch kind {
	case model.EventPosition:
		return PositionsFile
	case model.EventMint:
		return MintEventsFile
	case model.EventBurn:
		return BurnEventsFile
	case model.EventCreation:
		return CreationsFile
	default:
		return "processed_" + string(kind) + "_events.json"
	}
}

// RawCallsFile names the saved provider response for a kind.
func RawCallsFile(kind model.EventKind) string {
	return "raw_" + string(kind) + "_calls.json"
}

const RawTransfersFile = "raw_token_transfers.json"

// FileSink writes each output as an indented JSON document under dir.
// Files are replaced, never appended to.
type FileSink struct {
	dir string
	mu  sync.Mutex
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Dir() string { return s.dir }

func (s *FileSink) PutEvents(_ context.Context, kind model.EventKind, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	return s.write(EventsFile(kind), events)
}

type tokenEntry struct {
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// PutTokens writes an address-keyed lookup of token metadata.
func (s *FileSink) PutTokens(_ context.Context, tokens []model.TokenInfo) error {
	lookup := make(map[string]tokenEntry, len(tokens))
	for _, t := range tokens {
		lookup[t.Address] = tokenEntry{Decimals: t.Decimals, Symbol: t.Symbol, Name: t.Name}
	}
	return s.write(TokenLookupFile, lookup)
}

func (s *FileSink) PutCreators(_ context.Context, analysis model.CreatorAnalysis) error {
	return s.write(CreatorReportFile, analysis)
}

func (s *FileSink) PutBurnPatterns(_ context.Context, patterns model.BurnPatterns) error {
	return s.write(BurnAnalysisFile, patterns)
}

// SaveCalls stores a fetched batch in the provider envelope so a later run
// can read it back with FileSource.
func (s *FileSink) SaveCalls(kind model.EventKind, calls []model.DecodedCall) (string, error) {
	var resp model.CallsResponse
	resp.Data.EVM.Calls = calls
	if resp.Data.EVM.Calls == nil {
		resp.Data.EVM.Calls = []model.DecodedCall{}
	}
	name := RawCallsFile(kind)
	return filepath.Join(s.dir, name), s.write(name, resp)
}

// SaveTransfers stores a fetched currency batch in the provider envelope.
func (s *FileSink) SaveTransfers(records []model.TransferRecord) (string, error) {
	var resp model.TransfersResponse
	resp.Data.EVM.Transfers = records
	if resp.Data.EVM.Transfers == nil {
		resp.Data.EVM.Transfers = []model.TransferRecord{}
	}
	return filepath.Join(s.dir, RawTransfersFile), s.write(RawTransfersFile, resp)
}

func (s *FileSink) write(name string, value any) error {
	if s.dir != "" && s.dir != "." {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}

	writer := bufio.NewWriter(file)
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
