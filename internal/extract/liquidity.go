package extract

import (
	"positionScope/internal/model"
	"positionScope/internal/pricing"
)

// Positional layout of the NonfungiblePositionManager mint params tuple.
const (
	argToken0 = iota
	argToken1
	argFee
	argTickLower
	argTickUpper
	argAmount0Desired
	argAmount0Min
	argAmount1Desired
	argAmount1Min
	argRecipient
	argDeadline
)

func (e *Extractor) liquidityChange(kind model.EventKind, call model.DecodedCall) model.LiquidityChange {
	args := byIndex(call.Arguments)

	token0 := e.ref(args.address(argToken0))
	token1 := e.ref(args.address(argToken1))
	d0, d1 := decimalsOf(token0), decimalsOf(token1)
	ticks := model.TickRange{
		Lower: args.tick(argTickLower),
		Upper: args.tick(argTickUpper),
	}

	return model.LiquidityChange{
		EventType: eventType(call, kind),
		Token0:    token0,
		Token1:    token1,
		Amounts: model.LiquidityAmounts{
			Amount0Desired: pricing.NormalizeAmount(deref(args.bigInteger(argAmount0Desired)), d0),
			Amount1Desired: pricing.NormalizeAmount(deref(args.bigInteger(argAmount1Desired)), d1),
			Amount0Min:     pricing.NormalizeAmount(deref(args.bigInteger(argAmount0Min)), d0),
			Amount1Min:     pricing.NormalizeAmount(deref(args.bigInteger(argAmount1Min)), d1),
		},
		Fee:         args.bigInteger(argFee),
		Ticks:       ticks,
		PriceBand:   pricing.Band(ticks, d0, d1),
		Recipient:   args.address(argRecipient),
		Deadline:    args.bigInteger(argDeadline),
		Transaction: txMeta(call),
		Block:       blockMeta(call),
	}
}

// mint drops records without both token addresses.
func (e *Extractor) mint(call model.DecodedCall) (model.Event, string) {
	change := e.liquidityChange(model.EventMint, call)
	if change.Token0 == nil || change.Token1 == nil {
		return nil, ReasonMissingTokens
	}
	return model.MintEvent{LiquidityChange: change}, ""
}

// burn keeps a record that identifies either the token pair or the position NFT.
func (e *Extractor) burn(call model.DecodedCall) (model.Event, string) {
	change := e.liquidityChange(model.EventBurn, call)
	tokenID := argsByName(call.Arguments).bigInteger("tokenId")
	if (change.Token0 == nil || change.Token1 == nil) && tokenID == nil {
		return nil, ReasonMissingTokenID
	}
	return model.BurnEvent{LiquidityChange: change, TokenID: tokenID}, ""
}
