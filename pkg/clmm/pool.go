package clmm

import (
	"github.com/sirupsen/logrus"

	"github.com/johnayoung/go-invariant-clmm/pkg/numeric"
	"github.com/johnayoung/go-invariant-clmm/pkg/tickmap"
)

// Pool is the per-pair, per-fee-tier state: active liquidity, current
// price, and the fee/time accumulators every position and tick read from.
type Pool struct {
	Liquidity                  numeric.Liquidity
	SqrtPrice                  numeric.SqrtPrice
	CurrentTickIndex           int32
	FeeGrowthGlobalX           numeric.FeeGrowth
	FeeGrowthGlobalY           numeric.FeeGrowth
	FeeProtocolTokenX          numeric.TokenAmount
	FeeProtocolTokenY          numeric.TokenAmount
	SecondsPerLiquidityGlobal  numeric.SecondsPerLiquidity
	StartTimestamp             uint64
	LastTimestamp              uint64
	FeeReceiver                AccountId
	TickSpacing                uint16
	Fee                        numeric.Percentage
	ProtocolFee                numeric.Percentage
}

// NewPool builds the initial state of a freshly created pool, sqrt_price
// and current_tick_index pinned to the caller's chosen init values (the
// registry validates tick/price coherence before calling this).
func NewPool(feeTier FeeTier, protocolFee numeric.Percentage, initSqrtPrice numeric.SqrtPrice, initTick int32, feeReceiver AccountId, now uint64) Pool {
	return Pool{
		Liquidity:                 numeric.LiquidityZero(),
		SqrtPrice:                 initSqrtPrice,
		CurrentTickIndex:          initTick,
		FeeGrowthGlobalX:          numeric.FeeGrowthZero(),
		FeeGrowthGlobalY:          numeric.FeeGrowthZero(),
		FeeProtocolTokenX:         numeric.TokenAmountZero(),
		FeeProtocolTokenY:         numeric.TokenAmountZero(),
		SecondsPerLiquidityGlobal: numeric.SecondsPerLiquidityZero(),
		StartTimestamp:            now,
		LastTimestamp:             now,
		FeeReceiver:               feeReceiver,
		TickSpacing:               feeTier.TickSpacing,
		Fee:                       feeTier.Fee,
		ProtocolFee:               protocolFee,
	}
}

// AddFee splits amount between the protocol and active liquidity, rounding
// the protocol's cut up so any rounding remainder goes to the protocol
// rather than to liquidity, then accumulates the liquidity share into the
// wrap-around fee-growth-global counter for whichever token the fee was
// paid in.
func (p *Pool) AddFee(amount numeric.TokenAmount, inX bool, log *logrus.Entry) *Error {
	protocolFee, err := amount.CheckedMulPercentageUp(p.ProtocolFee)
	if err != nil {
		return wrapNumeric(KindNumericError, "AddFee: protocol fee", err)
	}
	poolFee, err := amount.CheckedSub(protocolFee)
	if err != nil {
		return wrapNumeric(KindNumericError, "AddFee: pool fee", err)
	}

	if (poolFee.IsZero() && protocolFee.IsZero()) || p.Liquidity.IsZero() {
		return nil
	}

	feeGrowth := numeric.FeeGrowthFromAmountAndLiquidity(poolFee, p.Liquidity)

	if inX {
		p.FeeGrowthGlobalX = p.FeeGrowthGlobalX.UncheckedAdd(feeGrowth)
		sum, serr := p.FeeProtocolTokenX.CheckedAdd(protocolFee)
		if serr != nil {
			return wrapNumeric(KindNumericError, "AddFee: fee_protocol_token_x overflow", serr)
		}
		p.FeeProtocolTokenX = sum
	} else {
		p.FeeGrowthGlobalY = p.FeeGrowthGlobalY.UncheckedAdd(feeGrowth)
		sum, serr := p.FeeProtocolTokenY.CheckedAdd(protocolFee)
		if serr != nil {
			return wrapNumeric(KindNumericError, "AddFee: fee_protocol_token_y overflow", serr)
		}
		p.FeeProtocolTokenY = sum
	}

	logDebug(log, "pool fee accrued", logrus.Fields{
		"in_x": inX, "pool_fee": poolFee.String(), "protocol_fee": protocolFee.String(),
	})
	return nil
}

// UpdateLiquidity applies liquidityDelta to the position's range, funding
// it with token X/Y via CalculateAmountDelta, and moves the pool's active
// liquidity only when the range straddles the current price.
func (p *Pool) UpdateLiquidity(liquidityDelta numeric.Liquidity, isDeposit bool, upperTick, lowerTick int32) (numeric.TokenAmount, numeric.TokenAmount, *Error) {
	x, y, updateLiquidity, err := numeric.CalculateAmountDelta(p.CurrentTickIndex, p.SqrtPrice, liquidityDelta, isDeposit, upperTick, lowerTick)
	if err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, wrapNumeric(KindNumericError, "UpdateLiquidity: calculate_amount_delta", err)
	}
	if !updateLiquidity {
		return x, y, nil
	}

	if isDeposit {
		nl, aerr := p.Liquidity.CheckedAdd(liquidityDelta)
		if aerr != nil {
			return numeric.TokenAmount{}, numeric.TokenAmount{}, wrapNumeric(KindNumericError, "UpdateLiquidity: liquidity overflow", aerr)
		}
		p.Liquidity = nl
	} else {
		nl, serr := p.Liquidity.CheckedSub(liquidityDelta)
		if serr != nil {
			return numeric.TokenAmount{}, numeric.TokenAmount{}, wrapNumeric(KindNumericError, "UpdateLiquidity: liquidity underflow", serr)
		}
		p.Liquidity = nl
	}
	return x, y, nil
}

// UpdateSecondsPerLiquidityGlobal advances the time-weighted
// reciprocal-liquidity accumulator by the elapsed time since LastTimestamp.
func (p *Pool) UpdateSecondsPerLiquidityGlobal(currentTimestamp uint64) *Error {
	if currentTimestamp < p.LastTimestamp {
		return newErr(KindNumericError, "current_timestamp before pool.last_timestamp")
	}
	duration := currentTimestamp - p.LastTimestamp
	delta := numeric.Accumulate(p.Liquidity, duration)
	p.SecondsPerLiquidityGlobal = p.SecondsPerLiquidityGlobal.UncheckedAdd(delta)
	p.LastTimestamp = currentTimestamp
	return nil
}

// UpdateSecondsPerLiquidityInside pokes the global accumulator (or just
// advances the clock, if there is no active liquidity to accrue against)
// and returns the position's inside-the-range snapshot, mirroring
// fee-growth-inside's below/above/inside decomposition but for elapsed
// time instead of fees.
func (p *Pool) UpdateSecondsPerLiquidityInside(tickLower int32, lowerOutside numeric.SecondsPerLiquidity, tickUpper int32, upperOutside numeric.SecondsPerLiquidity, currentTimestamp uint64) (numeric.SecondsPerLiquidity, *Error) {
	if !p.Liquidity.IsZero() {
		if err := p.UpdateSecondsPerLiquidityGlobal(currentTimestamp); err != nil {
			return numeric.SecondsPerLiquidity{}, err
		}
	} else {
		p.LastTimestamp = currentTimestamp
	}

	var below, above numeric.SecondsPerLiquidity
	if p.CurrentTickIndex >= tickLower {
		below = lowerOutside
	} else {
		below = p.SecondsPerLiquidityGlobal.UncheckedSub(lowerOutside)
	}
	if p.CurrentTickIndex < tickUpper {
		above = upperOutside
	} else {
		above = p.SecondsPerLiquidityGlobal.UncheckedSub(upperOutside)
	}

	inside := p.SecondsPerLiquidityGlobal.UncheckedSub(below).UncheckedSub(above)
	return inside, nil
}

// CrossTick decides, after a swap step landed exactly on a tick-bounded
// limit, whether that tick should actually be crossed (it might be the
// caller's price limit instead of a real tick, or not have enough
// remaining amount to push through), and advances the pool's current tick
// accordingly.
func (p *Pool) CrossTick(nextSqrtPrice, swapLimit numeric.SqrtPrice, limitingTick int32, limitingTickInitialized bool, hasLimitingTick bool, tick *Tick, remainingAmount *numeric.TokenAmount, byAmountIn, xToY bool, currentTimestamp uint64, totalAmountIn *numeric.TokenAmount) *Error {
	if hasLimitingTick && nextSqrtPrice.Cmp(swapLimit) == 0 {
		enoughToCross, err := numeric.IsEnoughAmountToChangePrice(*remainingAmount, nextSqrtPrice, p.Liquidity, p.Fee, byAmountIn, xToY)
		if err != nil {
			return wrapNumeric(KindNumericError, "CrossTick: is_enough_amount_to_change_price", err)
		}

		if limitingTickInitialized {
			if !xToY || enoughToCross {
				if cerr := tick.Cross(p, currentTimestamp); cerr != nil {
					return cerr
				}
			} else if !remainingAmount.IsZero() {
				if byAmountIn {
					if ferr := p.AddFee(*remainingAmount, xToY, nil); ferr != nil {
						return ferr
					}
					sum, serr := totalAmountIn.CheckedAdd(*remainingAmount)
					if serr != nil {
						return wrapNumeric(KindNumericError, "CrossTick: total_amount_in overflow", serr)
					}
					*totalAmountIn = sum
				}
				*remainingAmount = numeric.TokenAmountZero()
			}
		}

		if xToY && enoughToCross {
			p.CurrentTickIndex = limitingTick - int32(p.TickSpacing)
		} else {
			p.CurrentTickIndex = limitingTick
		}
		return nil
	}

	tickAt, terr := numeric.TickAtSqrtPrice(nextSqrtPrice, p.TickSpacing)
	if terr != nil {
		return wrapNumeric(KindNumericError, "CrossTick: tick_at_sqrt_price", terr)
	}
	p.CurrentTickIndex = tickAt
	return nil
}

// SwapStepResult bundles one swap_step's outcome with whether it landed on
// a tickmap-reported limit the caller should consider crossing.
type SwapStepResult struct {
	LimitingTick            int32
	LimitingTickInitialized bool
	HasLimitingTick         bool
	SwapLimit               numeric.SqrtPrice
	NextSqrtPrice           numeric.SqrtPrice
}

// SwapStep advances the pool through one tick-bounded leg of a swap,
// consuming from remainingAmount and accumulating into totalAmountIn/Out.
func (p *Pool) SwapStep(tm *tickmap.Tickmap, remainingAmount *numeric.TokenAmount, sqrtPriceLimit numeric.SqrtPrice, xToY, byAmountIn bool, totalAmountIn, totalAmountOut *numeric.TokenAmount, log *logrus.Entry) (SwapStepResult, *Error) {
	swapLimit, limitingTick, limitingTickInitialized, hasLimitingTick := getCloserLimit(tm, sqrtPriceLimit, xToY, p.CurrentTickIndex, p.TickSpacing)

	result, err := numeric.ComputeSwapStep(p.SqrtPrice, swapLimit, p.Liquidity, *remainingAmount, byAmountIn, p.Fee)
	if err != nil {
		return SwapStepResult{}, wrapNumeric(KindNumericError, "SwapStep: compute_swap_step", err)
	}

	if byAmountIn {
		spent, serr := result.AmountIn.CheckedAdd(result.FeeAmount)
		if serr != nil {
			return SwapStepResult{}, wrapNumeric(KindNumericError, "SwapStep: amount_in + fee overflow", serr)
		}
		next, serr2 := remainingAmount.CheckedSub(spent)
		if serr2 != nil {
			return SwapStepResult{}, wrapNumeric(KindNumericError, "SwapStep: remaining_amount underflow", serr2)
		}
		*remainingAmount = next
	} else {
		next, serr := remainingAmount.CheckedSub(result.AmountOut)
		if serr != nil {
			return SwapStepResult{}, wrapNumeric(KindNumericError, "SwapStep: remaining_amount underflow", serr)
		}
		*remainingAmount = next
	}

	if ferr := p.AddFee(result.FeeAmount, xToY, log); ferr != nil {
		return SwapStepResult{}, ferr
	}

	p.SqrtPrice = result.NextSqrtPrice

	totalIn, err2 := totalAmountIn.CheckedAdd(result.AmountIn)
	if err2 != nil {
		return SwapStepResult{}, wrapNumeric(KindNumericError, "SwapStep: total_amount_in overflow", err2)
	}
	totalIn, err2 = totalIn.CheckedAdd(result.FeeAmount)
	if err2 != nil {
		return SwapStepResult{}, wrapNumeric(KindNumericError, "SwapStep: total_amount_in overflow", err2)
	}
	*totalAmountIn = totalIn

	totalOut, err3 := totalAmountOut.CheckedAdd(result.AmountOut)
	if err3 != nil {
		return SwapStepResult{}, wrapNumeric(KindNumericError, "SwapStep: total_amount_out overflow", err3)
	}
	*totalAmountOut = totalOut

	if p.SqrtPrice.Cmp(sqrtPriceLimit) == 0 && !remainingAmount.IsZero() {
		return SwapStepResult{}, newErr(KindPriceLimitReached, "swap reached sqrt_price_limit with remaining amount")
	}

	return SwapStepResult{
		LimitingTick:            limitingTick,
		LimitingTickInitialized: limitingTickInitialized,
		HasLimitingTick:         hasLimitingTick,
		SwapLimit:               swapLimit,
		NextSqrtPrice:           p.SqrtPrice,
	}, nil
}

// getCloserLimit combines the tickmap scan with the trade's price limit:
// if the nearest initialized tick would cross sqrtPriceLimit, the limit
// itself bounds the step instead of the tick.
func getCloserLimit(tm *tickmap.Tickmap, sqrtPriceLimit numeric.SqrtPrice, xToY bool, currentTickIndex int32, tickSpacing uint16) (swapLimit numeric.SqrtPrice, tickIndex int32, initialized bool, found bool) {
	var closerTick int32
	var ok bool
	if xToY {
		closerTick, ok = tm.PrevInitialized(currentTickIndex, tickSpacing)
	} else {
		closerTick, ok = tm.NextInitialized(currentTickIndex, tickSpacing)
	}

	if !ok {
		bound := numeric.GetMinSqrtPrice(tickSpacing)
		if !xToY {
			bound = numeric.GetMaxSqrtPrice(tickSpacing)
		}
		if xToY && sqrtPriceLimit.Cmp(bound) > 0 {
			bound = sqrtPriceLimit
		}
		if !xToY && sqrtPriceLimit.Cmp(bound) < 0 {
			bound = sqrtPriceLimit
		}
		return bound, 0, false, false
	}

	tickSqrtPrice, err := numeric.SqrtPriceFromTick(closerTick)
	if err != nil {
		return sqrtPriceLimit, 0, false, false
	}

	if xToY && tickSqrtPrice.Cmp(sqrtPriceLimit) < 0 {
		return sqrtPriceLimit, 0, false, false
	}
	if !xToY && tickSqrtPrice.Cmp(sqrtPriceLimit) > 0 {
		return sqrtPriceLimit, 0, false, false
	}
	return tickSqrtPrice, closerTick, true, true
}

func logDebug(log *logrus.Entry, msg string, fields logrus.Fields) {
	if log == nil {
		return
	}
	log.WithFields(fields).Debug(msg)
}
