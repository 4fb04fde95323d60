package numeric

import (
	"math/big"

	"github.com/holiman/uint256"
)

// This file ports the wide-intermediate swap arithmetic. The original
// representation needs U320/U448-sized intermediates (beyond a single
// 256-bit word); Go has no third-party fixed-width type that wide, so
// math/big stands in here for exactness. Sqrt-price results are narrowed
// back through the u128 range check; the TokenAmounts that
// bigDivValuesToToken and GetDeltaY build are not checked against the u128
// range.

func bigMulToValue(selfRaw, otherRaw, otherOne *big.Int, up bool) *big.Int {
	prod := new(big.Int).Mul(selfRaw, otherRaw)
	if up {
		prod.Add(prod, new(big.Int).Sub(otherOne, big.NewInt(1)))
	}
	return new(big.Int).Div(prod, otherOne)
}

func checkedFromDecimalToValue(raw, scaleOne *big.Int) *big.Int {
	return new(big.Int).Mul(raw, new(big.Int).Div(bigPow10(ScaleSqrtPrice), scaleOne))
}

// bigDivValuesToToken replicates SqrtPrice::big_div_values_to_token{,_up}:
// two sequential truncating divisions (not a single combined one), which
// matters for the last-bit rounding the source relies on.
func bigDivValuesToToken(nominator, denominator *big.Int, up bool) TokenAmount {
	one := bigPow10(ScaleSqrtPrice)
	intermediate := new(big.Int).Mul(nominator, one)
	intermediate.Mul(intermediate, one)
	intermediate.Div(intermediate, denominator)
	if up {
		intermediate.Add(intermediate, new(big.Int).Sub(one, big.NewInt(1)))
	}
	intermediate.Div(intermediate, one)
	out, _ := uint256.FromBig(intermediate)
	return TokenAmount{v: out}
}

func checkedBigDivValuesSqrtPrice(nominator, denominator *big.Int, up bool) (SqrtPrice, *Error) {
	if denominator.Sign() == 0 {
		return SqrtPrice{}, newErr(KindDiv, "checked_big_div_values: division by zero")
	}
	one := bigPow10(ScaleSqrtPrice)
	num := new(big.Int).Mul(nominator, one)
	if up {
		num.Add(num, new(big.Int).Sub(denominator, big.NewInt(1)))
	}
	q := new(big.Int).Div(num, denominator)
	out, overflow := uint256.FromBig(q)
	if overflow || out.Gt(maxU128) {
		return SqrtPrice{}, newErr(KindCast, "checked_big_div_values: result exceeds u128 range")
	}
	return SqrtPrice{v: out}, nil
}

var (
	oneLiquidityBig    = bigPow10(ScaleLiquidity)
	oneTokenAmountBig  = big.NewInt(1)
	onePercentageBig   = bigPow10(ScalePercentage)
	maxSqrtPriceBig    = MaxSqrtPrice.ToBig()
	minSqrtPriceBig    = MinSqrtPrice.ToBig()
)

// GetDeltaX computes the token-X amount needed to move the price between
// sqrtPriceA and sqrtPriceB at the given liquidity: L*(sqrtPb-sqrtPa)/(sqrtPa*sqrtPb).
func GetDeltaX(sqrtPriceA, sqrtPriceB SqrtPrice, liquidity Liquidity, roundingUp bool) TokenAmount {
	deltaPrice, _ := diffSqrtPrice(sqrtPriceA, sqrtPriceB)
	nominator := bigMulToValue(deltaPrice.v.ToBig(), liquidity.v.ToBig(), oneLiquidityBig, false)
	denominator := new(big.Int).Mul(sqrtPriceA.v.ToBig(), sqrtPriceB.v.ToBig())
	return bigDivValuesToToken(nominator, denominator, roundingUp)
}

// GetDeltaY computes the token-Y amount needed to move the price between
// sqrtPriceA and sqrtPriceB at the given liquidity: L*(sqrtPb-sqrtPa).
func GetDeltaY(sqrtPriceA, sqrtPriceB SqrtPrice, liquidity Liquidity, roundingUp bool) TokenAmount {
	delta, _ := diffSqrtPrice(sqrtPriceA, sqrtPriceB)
	one := bigPow10(ScaleSqrtPrice)
	v := bigMulToValue(delta.v.ToBig(), liquidity.v.ToBig(), oneLiquidityBig, roundingUp)
	if roundingUp {
		v.Add(v, new(big.Int).Sub(one, big.NewInt(1)))
	}
	v.Div(v, one)
	out, _ := uint256.FromBig(v)
	return TokenAmount{v: out}
}

func diffSqrtPrice(a, b SqrtPrice) (SqrtPrice, bool) {
	if a.Cmp(b) > 0 {
		d, _ := a.CheckedSub(b)
		return d, true
	}
	d, _ := b.CheckedSub(a)
	return d, false
}

// GetNextSqrtPriceXUp computes the sqrt_price after x tokens are added to
// (addX) or removed from the pool, saturating to MinSqrtPrice/MaxSqrtPrice
// instead of erroring — the non-negotiable saturation behavior swap steps
// depend on near the edges of the price range.
func GetNextSqrtPriceXUp(startingSqrtPrice SqrtPrice, liquidity Liquidity, x TokenAmount, addX bool) SqrtPrice {
	if x.IsZero() {
		return startingSqrtPrice
	}
	priceDelta := checkedFromDecimalToValue(liquidity.v.ToBig(), oneLiquidityBig)
	spX := bigMulToValue(startingSqrtPrice.v.ToBig(), x.v.ToBig(), oneTokenAmountBig, false)

	var denominator *big.Int
	if addX {
		denominator = new(big.Int).Add(priceDelta, spX)
		if denominator.Cmp(maxSqrtPriceBig) > 0 {
			denominator = new(big.Int).Set(maxSqrtPriceBig)
		}
	} else {
		denominator = new(big.Int).Sub(priceDelta, spX)
		if denominator.Sign() < 0 {
			denominator = new(big.Int).Set(minSqrtPriceBig)
		}
	}

	nominator := bigMulToValue(startingSqrtPrice.v.ToBig(), liquidity.v.ToBig(), oneLiquidityBig, true)
	result, err := checkedBigDivValuesSqrtPrice(nominator, denominator, true)
	if err != nil {
		if addX {
			return SqrtPriceMin()
		}
		return SqrtPriceMax()
	}
	return result
}

// GetNextSqrtPriceYDown is the token-Y analogue of GetNextSqrtPriceXUp.
func GetNextSqrtPriceYDown(startingSqrtPrice SqrtPrice, liquidity Liquidity, y TokenAmount, addY bool) SqrtPrice {
	numerator := checkedFromDecimalToValue(y.v.ToBig(), oneTokenAmountBig)
	denominator := checkedFromDecimalToValue(liquidity.v.ToBig(), oneLiquidityBig)

	if addY {
		quotient, err := checkedBigDivValuesSqrtPrice(numerator, denominator, false)
		if err != nil {
			quotient = SqrtPriceMax()
		}
		sum, serr := startingSqrtPrice.CheckedAdd(quotient)
		if serr != nil {
			return SqrtPriceMax()
		}
		return sum
	}
	quotient, err := checkedBigDivValuesSqrtPrice(numerator, denominator, true)
	if err != nil {
		quotient = SqrtPriceMax()
	}
	diff, serr := startingSqrtPrice.CheckedSub(quotient)
	if serr != nil {
		return SqrtPriceMin()
	}
	return diff
}

func GetNextSqrtPriceFromInput(startingSqrtPrice SqrtPrice, liquidity Liquidity, amount TokenAmount, xToY bool) SqrtPrice {
	if xToY {
		return GetNextSqrtPriceXUp(startingSqrtPrice, liquidity, amount, true)
	}
	return GetNextSqrtPriceYDown(startingSqrtPrice, liquidity, amount, true)
}

func GetNextSqrtPriceFromOutput(startingSqrtPrice SqrtPrice, liquidity Liquidity, amount TokenAmount, xToY bool) SqrtPrice {
	if xToY {
		return GetNextSqrtPriceYDown(startingSqrtPrice, liquidity, amount, false)
	}
	return GetNextSqrtPriceXUp(startingSqrtPrice, liquidity, amount, false)
}

// SwapStepResult is the outcome of advancing the price by one tick-bounded
// step of a swap.
type SwapStepResult struct {
	NextSqrtPrice SqrtPrice
	AmountIn      TokenAmount
	AmountOut     TokenAmount
	FeeAmount     TokenAmount
}

// ComputeSwapStep advances the price from currentSqrtPrice towards
// targetSqrtPrice (a tick boundary or the caller's price limit) by as much
// of amount as fits before the target is reached, returning how much was
// consumed/produced and the fee taken on the input leg.
func ComputeSwapStep(currentSqrtPrice, targetSqrtPrice SqrtPrice, liquidity Liquidity, amount TokenAmount, byAmountIn bool, fee Percentage) (SwapStepResult, *Error) {
	if liquidity.IsZero() {
		return SwapStepResult{NextSqrtPrice: targetSqrtPrice}, nil
	}

	xToY := currentSqrtPrice.Cmp(targetSqrtPrice) >= 0
	var nextSqrtPrice SqrtPrice
	amountIn := TokenAmountZero()
	amountOut := TokenAmountZero()

	oneMinusFee, ferr := PercentageOne().CheckedSub(fee)
	if ferr != nil {
		return SwapStepResult{}, ferr.Wrap("ComputeSwapStep: fee exceeds 1")
	}

	if byAmountIn {
		amountAfterFee, merr := amount.CheckedMulPercentage(oneMinusFee)
		if merr != nil {
			return SwapStepResult{}, merr.Wrap("ComputeSwapStep: amount after fee")
		}
		if xToY {
			amountIn = GetDeltaX(targetSqrtPrice, currentSqrtPrice, liquidity, true)
		} else {
			amountIn = GetDeltaY(currentSqrtPrice, targetSqrtPrice, liquidity, true)
		}
		if amountAfterFee.Cmp(amountIn) >= 0 {
			nextSqrtPrice = targetSqrtPrice
		} else {
			nextSqrtPrice = GetNextSqrtPriceFromInput(currentSqrtPrice, liquidity, amountAfterFee, xToY)
		}
	} else {
		if xToY {
			amountOut = GetDeltaY(targetSqrtPrice, currentSqrtPrice, liquidity, false)
		} else {
			amountOut = GetDeltaX(currentSqrtPrice, targetSqrtPrice, liquidity, false)
		}
		if amount.Cmp(amountOut) >= 0 {
			nextSqrtPrice = targetSqrtPrice
		} else {
			nextSqrtPrice = GetNextSqrtPriceFromOutput(currentSqrtPrice, liquidity, amount, xToY)
		}
	}

	notMax := targetSqrtPrice.Cmp(nextSqrtPrice) != 0

	if xToY {
		if notMax || !byAmountIn {
			amountIn = GetDeltaX(nextSqrtPrice, currentSqrtPrice, liquidity, true)
		}
		if notMax || byAmountIn {
			amountOut = GetDeltaY(nextSqrtPrice, currentSqrtPrice, liquidity, false)
		}
	} else {
		if notMax || !byAmountIn {
			amountIn = GetDeltaY(currentSqrtPrice, nextSqrtPrice, liquidity, true)
		}
		if notMax || byAmountIn {
			amountOut = GetDeltaX(currentSqrtPrice, nextSqrtPrice, liquidity, false)
		}
	}

	if !byAmountIn && amountOut.Cmp(amount) > 0 {
		amountOut = amount
	}

	var feeAmount TokenAmount
	if byAmountIn && nextSqrtPrice.Cmp(targetSqrtPrice) != 0 {
		fa, serr := amount.CheckedSub(amountIn)
		if serr != nil {
			return SwapStepResult{}, serr.Wrap("ComputeSwapStep: fee amount underflow")
		}
		feeAmount = fa
	} else {
		fa, merr := amountIn.CheckedMulPercentageUp(fee)
		if merr != nil {
			return SwapStepResult{}, merr.Wrap("ComputeSwapStep: fee amount")
		}
		feeAmount = fa
	}

	return SwapStepResult{
		NextSqrtPrice: nextSqrtPrice,
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		FeeAmount:     feeAmount,
	}, nil
}

// CalculateAmountDelta works out the token amounts a change of
// liquidityDelta over [lowerTick, upperTick] requires, and whether the
// pool's active liquidity should move (true only when the current price
// sits inside the position's range).
func CalculateAmountDelta(currentTickIndex int32, currentSqrtPrice SqrtPrice, liquidityDelta Liquidity, roundingUp bool, upperTick, lowerTick int32) (amountX, amountY TokenAmount, updateLiquidity bool, err *Error) {
	if upperTick < lowerTick {
		return TokenAmount{}, TokenAmount{}, false, newErr(KindCast, "upper_tick is not greater than lower_tick")
	}

	amountX = TokenAmountZero()
	amountY = TokenAmountZero()

	switch {
	case currentTickIndex < lowerTick:
		lowerSP, e := SqrtPriceFromTick(lowerTick)
		if e != nil {
			return TokenAmount{}, TokenAmount{}, false, e.Wrap("CalculateAmountDelta")
		}
		upperSP, e := SqrtPriceFromTick(upperTick)
		if e != nil {
			return TokenAmount{}, TokenAmount{}, false, e.Wrap("CalculateAmountDelta")
		}
		amountX = GetDeltaX(lowerSP, upperSP, liquidityDelta, roundingUp)
	case currentTickIndex < upperTick:
		upperSP, e := SqrtPriceFromTick(upperTick)
		if e != nil {
			return TokenAmount{}, TokenAmount{}, false, e.Wrap("CalculateAmountDelta")
		}
		lowerSP, e := SqrtPriceFromTick(lowerTick)
		if e != nil {
			return TokenAmount{}, TokenAmount{}, false, e.Wrap("CalculateAmountDelta")
		}
		amountX = GetDeltaX(currentSqrtPrice, upperSP, liquidityDelta, roundingUp)
		amountY = GetDeltaY(lowerSP, currentSqrtPrice, liquidityDelta, roundingUp)
		updateLiquidity = true
	default:
		lowerSP, e := SqrtPriceFromTick(lowerTick)
		if e != nil {
			return TokenAmount{}, TokenAmount{}, false, e.Wrap("CalculateAmountDelta")
		}
		upperSP, e := SqrtPriceFromTick(upperTick)
		if e != nil {
			return TokenAmount{}, TokenAmount{}, false, e.Wrap("CalculateAmountDelta")
		}
		amountY = GetDeltaY(lowerSP, upperSP, liquidityDelta, roundingUp)
	}
	return amountX, amountY, updateLiquidity, nil
}

// IsEnoughAmountToChangePrice reports whether swapping amount moves the
// price away from startingSqrtPrice at all.
func IsEnoughAmountToChangePrice(amount TokenAmount, startingSqrtPrice SqrtPrice, liquidity Liquidity, fee Percentage, byAmountIn, xToY bool) (bool, *Error) {
	if liquidity.IsZero() {
		return true, nil
	}
	var nextSqrtPrice SqrtPrice
	if byAmountIn {
		oneMinusFee, err := PercentageOne().CheckedSub(fee)
		if err != nil {
			return false, err.Wrap("IsEnoughAmountToChangePrice")
		}
		amountAfterFee, err := amount.CheckedMulPercentage(oneMinusFee)
		if err != nil {
			return false, err.Wrap("IsEnoughAmountToChangePrice")
		}
		nextSqrtPrice = GetNextSqrtPriceFromInput(startingSqrtPrice, liquidity, amountAfterFee, xToY)
	} else {
		nextSqrtPrice = GetNextSqrtPriceFromOutput(startingSqrtPrice, liquidity, amount, xToY)
	}
	return startingSqrtPrice.Cmp(nextSqrtPrice) != 0, nil
}

// CalculateMaxLiquidityPerTick is the per-tick liquidity_gross ceiling: the
// maximum representable Liquidity divided by the number of ticks that fit
// in the valid range at this spacing, so that summing liquidity_gross over
// every initialized tick can never overflow.
func CalculateMaxLiquidityPerTick(tickSpacing uint16) Liquidity {
	const maxTicksAmountSqrtPriceLimited = 2*uint64(MaxTick) + 1
	ticksAmountSpacingLimited := maxTicksAmountSqrtPriceLimited / uint64(tickSpacing)
	maxRaw := new(uint256.Int).Div(maxU128, uint256.NewInt(ticksAmountSpacingLimited))
	return Liquidity{v: maxRaw}
}

// CheckTicks validates a [lower, upper] tick pair against tickSpacing and
// the valid tick range.
func CheckTicks(tickLower, tickUpper int32, tickSpacing uint16) *Error {
	if tickLower > tickUpper {
		return newErr(KindCast, "tick_lower > tick_upper")
	}
	if err := CheckTick(tickLower, tickSpacing); err != nil {
		return err.Wrap("CheckTicks")
	}
	if err := CheckTick(tickUpper, tickSpacing); err != nil {
		return err.Wrap("CheckTicks")
	}
	return nil
}

func CheckTick(tickIndex int32, tickSpacing uint16) *Error {
	minTick := GetMinTick(tickSpacing)
	maxTick := GetMaxTick(tickSpacing)
	if tickIndex%int32(tickSpacing) != 0 {
		return newErr(KindCast, "InvalidTickSpacing")
	}
	if tickIndex > maxTick || tickIndex < minTick {
		return newErr(KindCast, "InvalidTickIndex")
	}
	return nil
}

// CalculateMinAmountOut applies a slippage tolerance to an expected swap
// output, rounding up so the floor it enforces never lets through less
// than the caller actually tolerates.
func CalculateMinAmountOut(expectedAmountOut TokenAmount, slippage Percentage) (TokenAmount, *Error) {
	oneMinusSlippage, err := PercentageOne().CheckedSub(slippage)
	if err != nil {
		return TokenAmount{}, err.Wrap("CalculateMinAmountOut")
	}
	out, merr := expectedAmountOut.CheckedMulPercentageUp(oneMinusSlippage)
	if merr != nil {
		return TokenAmount{}, merr.Wrap("CalculateMinAmountOut")
	}
	return out, nil
}
