package extract

import (
	"strings"

	"go.uber.org/zap"

	"positionScope/internal/model"
	"positionScope/internal/tokens"
)

// Drop reasons reported to the Recorder.
const (
	ReasonMissingTokens  = "missing_tokens"
	ReasonMissingTokenID = "missing_token_id"
	ReasonMissingSender  = "missing_sender"
	ReasonUnclassified   = "unclassified"
	ReasonOtherKind      = "other_kind"
)

// BatchStats counts the outcome of one ExtractBatch call.
type BatchStats struct {
	Total     int
	Extracted int
	Dropped   int
}

// Recorder receives extraction counters.
type Recorder interface {
	ObserveBatch(kind string, total, extracted int)
	ObserveDrop(kind, reason string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveBatch(string, int, int) {}
func (nopRecorder) ObserveDrop(string, string)    {}

// DefaultSignatures maps NonfungiblePositionManager function names to event kinds.
func DefaultSignatures() map[string]model.EventKind {
	return map[string]model.EventKind{
		"positions": model.EventPosition,
		"mint":      model.EventMint,
		"burn":      model.EventBurn,
	}
}

// Extractor turns decoded calls into normalized events.
type Extractor struct {
	resolver   *tokens.Resolver
	logger     *zap.Logger
	recorder   Recorder
	signatures map[string]model.EventKind
}

type Option func(*Extractor)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(e *Extractor) {
		if recorder != nil {
			e.recorder = recorder
		}
	}
}

// WithSignatures adds or overrides function-name mappings. Names match case-insensitively.
func WithSignatures(signatures map[string]model.EventKind) Option {
	return func(e *Extractor) {
		for name, kind := range signatures {
			e.signatures[strings.ToLower(strings.TrimSpace(name))] = kind
		}
	}
}

func New(resolver *tokens.Resolver, opts ...Option) *Extractor {
	e := &Extractor{
		resolver:   resolver,
		logger:     zap.NewNop(),
		recorder:   nopRecorder{},
		signatures: DefaultSignatures(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify picks the event kind of a call. The function signature decides when
// present; otherwise the record shape does.
func (e *Extractor) Classify(call model.DecodedCall) (model.EventKind, bool) {
	if name := strings.ToLower(strings.TrimSpace(call.Call.Signature.Name)); name != "" {
		kind, ok := e.signatures[name]
		return kind, ok
	}

	args := byIndex(call.Arguments)
	pairArgs := args.address(0) != nil || args.address(1) != nil
	switch {
	case len(call.Returns) > 0 && argsByName(call.Arguments).has("tokenId"):
		return model.EventPosition, true
	case len(call.Returns) > 0 && pairArgs:
		return model.EventCreation, true
	case pairArgs:
		return model.EventMint, true
	default:
		return "", false
	}
}

// Extract normalizes one call as the given kind. The bool is false when the
// record is dropped.
func (e *Extractor) Extract(kind model.EventKind, call model.DecodedCall) (model.Event, bool) {
	ev, reason := e.extract(kind, call)
	return ev, reason == ""
}

func (e *Extractor) extract(kind model.EventKind, call model.DecodedCall) (model.Event, string) {
	switch kind {
	case model.EventPosition:
		return e.snapshot(call), ""
	case model.EventMint:
		return e.mint(call)
	case model.EventBurn:
		return e.burn(call)
	case model.EventCreation:
		return e.creation(call)
	default:
		return nil, ReasonUnclassified
	}
}

// ExtractBatch normalizes calls in order. An empty kind classifies each call.
// With an explicit kind, calls whose signature maps to a different kind are
// dropped; unmapped signatures are read as the given kind. Dropped records are
// counted, never returned as errors.
func (e *Extractor) ExtractBatch(kind model.EventKind, calls []model.DecodedCall) ([]model.Event, BatchStats) {
	stats := BatchStats{Total: len(calls)}
	events := make([]model.Event, 0, len(calls))
	label := string(kind)
	if label == "" {
		label = "auto"
	}

	for i, call := range calls {
		k := kind
		var (
			ev     model.Event
			reason string
		)
		switch {
		case k == "":
			k, _ = e.Classify(call)
			ev, reason = e.extract(k, call)
		case e.foreign(k, call):
			reason = ReasonOtherKind
		default:
			ev, reason = e.extract(k, call)
		}
		if reason != "" {
			stats.Dropped++
			e.recorder.ObserveDrop(label, reason)
			e.logger.Debug("record dropped",
				zap.Int("index", i),
				zap.String("kind", string(k)),
				zap.String("reason", reason),
				zap.String("tx_hash", call.Transaction.Hash),
			)
			continue
		}
		events = append(events, ev)
		stats.Extracted++
	}

	e.recorder.ObserveBatch(label, stats.Total, stats.Extracted)
	return events, stats
}

// foreign reports whether the call's signature is mapped to a kind other than
// kind. Creation batches are built from mint calls, so mint signatures belong to them.
func (e *Extractor) foreign(kind model.EventKind, call model.DecodedCall) bool {
	if strings.TrimSpace(call.Call.Signature.Name) == "" {
		return false
	}
	mapped, ok := e.Classify(call)
	if !ok || mapped == kind {
		return false
	}
	return !(kind == model.EventCreation && mapped == model.EventMint)
}

// ref resolves a token descriptor; nil when the address is absent.
func (e *Extractor) ref(address *string) *model.TokenRef {
	if address == nil {
		return nil
	}
	r := e.resolver.Ref(*address)
	return &r
}

func decimalsOf(ref *model.TokenRef) int {
	if ref == nil {
		return tokens.DefaultDecimals
	}
	return ref.Decimals
}

// eventType is the call's function name, or the kind when the name is missing.
func eventType(call model.DecodedCall, kind model.EventKind) string {
	if name := call.Call.Signature.Name; name != "" {
		return name
	}
	return string(kind)
}

func txMeta(call model.DecodedCall) model.TxMeta {
	return model.TxMeta{
		Hash:       call.Transaction.Hash,
		From:       call.Transaction.From,
		To:         call.Transaction.To,
		ValueInUSD: call.Transaction.ValueInUSD,
		Time:       call.Transaction.Time,
	}
}

func blockMeta(call model.DecodedCall) model.BlockMeta {
	return model.BlockMeta{Number: call.Block.Number, Time: call.Block.Time}
}
