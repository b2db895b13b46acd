package model

// EventKind names a normalized event variant.
type EventKind string

const (
	EventPosition EventKind = "positions"
	EventMint     EventKind = "mint"
	EventBurn     EventKind = "burn"
	EventCreation EventKind = "creation"
)

// Event is a normalized liquidity-position event. The set of implementations is
// closed: PositionSnapshot, MintEvent, BurnEvent and CreationEvent.
type Event interface {
	Kind() EventKind
	Origin() Origin
	isEvent()
}

// Origin is the aggregation view of an event: who originated it and what it carried.
// Empty strings mean absent.
type Origin struct {
	Address   string
	Liquidity string
	USDValue  string
	Token0    string
	Token1    string
	Fee       string
	Timestamp string
}

// TickRange holds the position's tick bounds.
type TickRange struct {
	Lower *int64 `json:"lower"`
	Upper *int64 `json:"upper"`
}

// Complete reports whether both bounds are present.
func (t TickRange) Complete() bool {
	return t.Lower != nil && t.Upper != nil
}

// PriceBand is the natural-unit price range derived from a TickRange.
type PriceBand struct {
	Lower *float64 `json:"lower"`
	Upper *float64 `json:"upper"`
}

// TxMeta is the transaction metadata carried by an event.
type TxMeta struct {
	Hash       string `json:"hash"`
	From       string `json:"from"`
	To         string `json:"to"`
	ValueInUSD Scalar `json:"value_in_usd"`
	Time       string `json:"time"`
}

// BlockMeta is the block metadata carried by an event.
type BlockMeta struct {
	Number Scalar `json:"number"`
	Time   string `json:"time"`
}

// PositionSnapshot is the state returned by a positions(tokenId) call.
type PositionSnapshot struct {
	EventType string    `json:"event_type"`
	TokenID   *string   `json:"tokenId"`
	Token0    TokenRef  `json:"token0"`
	Token1    TokenRef  `json:"token1"`
	Liquidity *string   `json:"liquidity"`
	Fee       *string   `json:"fee"`
	Ticks     TickRange `json:"ticks"`
	PriceBand PriceBand `json:"price_band"`
	Block     Scalar    `json:"block"`
	Timestamp string    `json:"timestamp"`
}

func (PositionSnapshot) Kind() EventKind { return EventPosition }
func (PositionSnapshot) isEvent()        {}

// Origin of a snapshot has no address: a positions read is not attributed to anyone.
func (p PositionSnapshot) Origin() Origin {
	return Origin{
		Liquidity: deref(p.Liquidity),
		Token0:    p.Token0.Address,
		Token1:    p.Token1.Address,
		Fee:       deref(p.Fee),
		Timestamp: p.Timestamp,
	}
}

// LiquidityAmounts are the desired/min amounts of a mint or burn in natural units.
type LiquidityAmounts struct {
	Amount0Desired float64 `json:"amount0_desired"`
	Amount1Desired float64 `json:"amount1_desired"`
	Amount0Min     float64 `json:"amount0_min"`
	Amount1Min     float64 `json:"amount1_min"`
}

// LiquidityChange is the shared payload of mint and burn events.
type LiquidityChange struct {
	EventType   string           `json:"event_type"`
	Token0      *TokenRef        `json:"token0,omitempty"`
	Token1      *TokenRef        `json:"token1,omitempty"`
	Amounts     LiquidityAmounts `json:"amounts"`
	Fee         *string          `json:"fee"`
	Ticks       TickRange        `json:"ticks"`
	PriceBand   PriceBand        `json:"price_band"`
	Recipient   *string          `json:"recipient"`
	Deadline    *string          `json:"deadline"`
	Transaction TxMeta           `json:"transaction"`
	Block       BlockMeta        `json:"block"`
}

func (c LiquidityChange) origin() Origin {
	return Origin{
		Address:   c.Transaction.From,
		USDValue:  string(c.Transaction.ValueInUSD),
		Token0:    c.Token0.address(),
		Token1:    c.Token1.address(),
		Fee:       deref(c.Fee),
		Timestamp: c.Block.Time,
	}
}

// MintEvent is a NonfungiblePositionManager mint call.
type MintEvent struct {
	LiquidityChange
}

func (MintEvent) Kind() EventKind  { return EventMint }
func (MintEvent) isEvent()         {}
func (m MintEvent) Origin() Origin { return m.origin() }

// BurnEvent is a NonfungiblePositionManager burn call.
type BurnEvent struct {
	LiquidityChange
	TokenID *string `json:"tokenId,omitempty"`
}

func (BurnEvent) Kind() EventKind  { return EventBurn }
func (BurnEvent) isEvent()         {}
func (b BurnEvent) Origin() Origin { return b.origin() }

// CreationAmounts are the amounts actually deposited, raw and in natural units.
type CreationAmounts struct {
	Amount0    float64 `json:"amount0"`
	Amount1    float64 `json:"amount1"`
	Amount0Raw *string `json:"amount0_raw"`
	Amount1Raw *string `json:"amount1_raw"`
}

// CreationEvent is a position creation attributed to the transaction sender.
type CreationEvent struct {
	EventType      string          `json:"event_type"`
	CreatorAddress string          `json:"creator_address"`
	TokenID        *string         `json:"token_id"`
	Token0         *TokenRef       `json:"token0"`
	Token1         *TokenRef       `json:"token1"`
	Fee            *string         `json:"fee"`
	Ticks          TickRange       `json:"ticks"`
	PriceBand      PriceBand       `json:"price_band"`
	Liquidity      *string         `json:"liquidity"`
	Amounts        CreationAmounts `json:"amounts"`
	Transaction    TxMeta          `json:"transaction"`
	Block          BlockMeta       `json:"block"`
}

func (CreationEvent) Kind() EventKind { return EventCreation }
func (CreationEvent) isEvent()        {}

func (c CreationEvent) Origin() Origin {
	return Origin{
		Address:   c.CreatorAddress,
		Liquidity: deref(c.Liquidity),
		USDValue:  string(c.Transaction.ValueInUSD),
		Token0:    c.Token0.address(),
		Token1:    c.Token1.address(),
		Fee:       deref(c.Fee),
		Timestamp: c.Block.Time,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
