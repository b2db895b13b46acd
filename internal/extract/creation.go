package extract

import (
	"positionScope/internal/model"
	"positionScope/internal/pricing"
)

// creation attributes a mint to its transaction sender. Records without a
// sender are dropped.
func (e *Extractor) creation(call model.DecodedCall) (model.Event, string) {
	creator := call.Transaction.From
	if creator == "" {
		return nil, ReasonMissingSender
	}

	returns := returnsByName(call.Returns)
	args := byIndex(call.Arguments)

	token0 := e.ref(args.address(argToken0))
	token1 := e.ref(args.address(argToken1))
	d0, d1 := decimalsOf(token0), decimalsOf(token1)
	ticks := model.TickRange{
		Lower: args.tick(argTickLower),
		Upper: args.tick(argTickUpper),
	}
	amount0 := returns.bigInteger("amount0")
	amount1 := returns.bigInteger("amount1")

	return model.CreationEvent{
		EventType:      eventType(call, model.EventCreation),
		CreatorAddress: creator,
		TokenID:        returns.bigInteger("tokenId"),
		Token0:         token0,
		Token1:         token1,
		Fee:            args.bigInteger(argFee),
		Ticks:          ticks,
		PriceBand:      pricing.Band(ticks, d0, d1),
		Liquidity:      returns.bigInteger("liquidity"),
		Amounts: model.CreationAmounts{
			Amount0:    pricing.NormalizeAmount(deref(amount0), d0),
			Amount1:    pricing.NormalizeAmount(deref(amount1), d1),
			Amount0Raw: amount0,
			Amount1Raw: amount1,
		},
		Transaction: txMeta(call),
		Block:       blockMeta(call),
	}, ""
}
