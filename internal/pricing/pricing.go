package pricing

import (
	"math"
	"math/big"
	"strings"

	"positionScope/internal/model"
)

// TickBase is the price ratio between adjacent ticks.
const TickBase = 1.0001

// powPrec is the working precision for tick exponentiation. It keeps the
// accumulated error far below half an ulp of a float64 for any finite result.
const powPrec = 256

// maxTickMagnitude bounds ticks whose power is still representable; beyond it
// the power is ±Inf or 0 and the exponentiation is skipped.
const maxTickMagnitude = 8_000_000

// NormalizeAmount converts a raw base-10 integer amount into natural units.
// Unparseable or empty input yields 0. The quotient is rounded once, so the
// result is the float64 nearest to raw / 10^decimals.
func NormalizeAmount(raw string, decimals int) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return 0
	}
	if decimals < 0 {
		decimals = 0
	}
	// |n| < 10^len(raw), so the quotient is below the smallest subnormal.
	if decimals > len(raw)+330 {
		return 0
	}
	f, _ := new(big.Rat).SetFrac(n, pow10(decimals)).Float64()
	if math.IsInf(f, 0) {
		return 0
	}
	return f
}

// PriceFromTick returns 1.0001^tick * 10^(decimals0-decimals1). Results that
// overflow or are not finite map to 0.
func PriceFromTick(tick int64, decimals0, decimals1 int) float64 {
	price := tickPower(tick) * decimalFactor(decimals0-decimals1)
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return 0
	}
	return price
}

// Band converts a tick range into a price band. Both bounds must be present.
func Band(ticks model.TickRange, decimals0, decimals1 int) model.PriceBand {
	if !ticks.Complete() {
		return model.PriceBand{}
	}
	lower := PriceFromTick(*ticks.Lower, decimals0, decimals1)
	upper := PriceFromTick(*ticks.Upper, decimals0, decimals1)
	return model.PriceBand{Lower: &lower, Upper: &upper}
}

// tickPower computes TickBase^tick rounded to the nearest float64.
func tickPower(tick int64) float64 {
	if tick == 0 {
		return 1
	}
	neg := tick < 0
	var n uint64
	if neg {
		n = uint64(-(tick + 1)) + 1
	} else {
		n = uint64(tick)
	}
	if n > maxTickMagnitude {
		if neg {
			return 0
		}
		return math.Inf(1)
	}

	base := new(big.Float).SetPrec(powPrec).SetFloat64(TickBase)
	acc := new(big.Float).SetPrec(powPrec).SetInt64(1)
	for ; n > 0; n >>= 1 {
		if n&1 == 1 {
			acc.Mul(acc, base)
		}
		base.Mul(base, base)
	}
	if neg {
		acc.Quo(new(big.Float).SetPrec(powPrec).SetInt64(1), acc)
	}
	f, _ := acc.Float64()
	return f
}

// decimalFactor returns the float64 nearest to 10^exp.
func decimalFactor(exp int) float64 {
	if exp == 0 {
		return 1
	}
	if exp > 0 {
		if exp > 400 {
			return math.Inf(1)
		}
		f, _ := new(big.Float).SetInt(pow10(exp)).Float64()
		return f
	}
	if exp < -400 {
		return 0
	}
	f, _ := new(big.Rat).SetFrac(big.NewInt(1), pow10(-exp)).Float64()
	return f
}

func pow10(exp int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}
