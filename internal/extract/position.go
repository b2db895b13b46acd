package extract

import (
	"positionScope/internal/model"
	"positionScope/internal/pricing"
)

// snapshot reads a positions(tokenId) call by field name. It never drops.
func (e *Extractor) snapshot(call model.DecodedCall) model.Event {
	returns := returnsByName(call.Returns)
	args := argsByName(call.Arguments)

	token0 := e.resolver.Ref(deref(returns.address("token0")))
	token1 := e.resolver.Ref(deref(returns.address("token1")))
	ticks := model.TickRange{
		Lower: returns.tick("tickLower"),
		Upper: returns.tick("tickUpper"),
	}

	return model.PositionSnapshot{
		EventType: eventType(call, model.EventPosition),
		TokenID:   args.bigInteger("tokenId"),
		Token0:    token0,
		Token1:    token1,
		Liquidity: returns.bigInteger("liquidity"),
		Fee:       returns.bigInteger("fee"),
		Ticks:     ticks,
		PriceBand: pricing.Band(ticks, token0.Decimals, token1.Decimals),
		Block:     call.Block.Number,
		Timestamp: call.Block.Time,
	}
}
