package clmm

import "github.com/johnayoung/go-invariant-clmm/pkg/numeric"

// Position is a single liquidity provider's stake in one pool's
// [LowerTickIndex, UpperTickIndex) range, plus the fee and time snapshots
// needed to compute what it has earned since it was last touched.
type Position struct {
	PoolKey                   PoolKey
	Liquidity                 numeric.Liquidity
	LowerTickIndex            int32
	UpperTickIndex            int32
	FeeGrowthInsideX          numeric.FeeGrowth
	FeeGrowthInsideY          numeric.FeeGrowth
	LastBlockNumber           uint64
	TokensOwedX               numeric.TokenAmount
	TokensOwedY               numeric.TokenAmount
	CreatedAt                 uint64
	SecondsPerLiquidityInside numeric.SecondsPerLiquidity
}

// Create opens a new position over [lowerTickIndex, upperTickIndex) with
// liquidityDelta, after checking the pool's current price still sits
// within the caller's slippage bounds.
func Create(pool *Pool, poolKey PoolKey, lowerTick, upperTick *Tick, lowerTickIndex, upperTickIndex int32, liquidityDelta numeric.Liquidity, slippageLimitLower, slippageLimitUpper numeric.SqrtPrice, currentTimestampMillis uint64) (Position, numeric.TokenAmount, numeric.TokenAmount, *Error) {
	if pool.SqrtPrice.Cmp(slippageLimitLower) < 0 || pool.SqrtPrice.Cmp(slippageLimitUpper) > 0 {
		return Position{}, numeric.TokenAmount{}, numeric.TokenAmount{}, newErr(KindPriceLimitReached, "pool sqrt_price outside slippage bounds")
	}

	now := currentTimestampMillis / 1000
	p := Position{
		PoolKey:                   poolKey,
		Liquidity:                 numeric.LiquidityZero(),
		LowerTickIndex:            lowerTickIndex,
		UpperTickIndex:            upperTickIndex,
		FeeGrowthInsideX:          numeric.FeeGrowthZero(),
		FeeGrowthInsideY:          numeric.FeeGrowthZero(),
		LastBlockNumber:           now,
		TokensOwedX:               numeric.TokenAmountZero(),
		TokensOwedY:               numeric.TokenAmountZero(),
		CreatedAt:                 now,
		SecondsPerLiquidityInside: numeric.SecondsPerLiquidityZero(),
	}

	x, y, err := p.Modify(pool, lowerTick, upperTick, liquidityDelta, true, now)
	if err != nil {
		return Position{}, numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	return p, x, y, nil
}

// Modify applies a liquidity change to the position: updates both boundary
// ticks, recomputes the fee-growth-inside snapshot, pokes the position's
// fee/time bookkeeping via Update, and moves the pool's active liquidity.
func (p *Position) Modify(pool *Pool, lowerTick, upperTick *Tick, liquidityDelta numeric.Liquidity, add bool, currentTimestamp uint64) (numeric.TokenAmount, numeric.TokenAmount, *Error) {
	if !pool.Liquidity.IsZero() {
		if err := pool.UpdateSecondsPerLiquidityGlobal(currentTimestamp); err != nil {
			return numeric.TokenAmount{}, numeric.TokenAmount{}, err
		}
	} else {
		pool.LastTimestamp = currentTimestamp
	}

	maxLiquidityPerTick := numeric.CalculateMaxLiquidityPerTick(pool.TickSpacing)

	if err := lowerTick.Update(liquidityDelta, maxLiquidityPerTick, false, add); err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	if err := upperTick.Update(liquidityDelta, maxLiquidityPerTick, true, add); err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}

	feeGrowthInsideX, feeGrowthInsideY := calculateFeeGrowthInside(pool, lowerTick, upperTick)

	if err := p.Update(add, liquidityDelta, feeGrowthInsideX, feeGrowthInsideY); err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}

	x, y, err := pool.UpdateLiquidity(liquidityDelta, add, p.UpperTickIndex, p.LowerTickIndex)
	if err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	return x, y, nil
}

// calculateFeeGrowthInside derives the fee growth accrued strictly within
// [lowerTick, upperTick) by subtracting whatever grew outside the range on
// either side from the pool's global accumulator. Every subtraction wraps,
// matching the global accumulator's own wrap-around semantics.
func calculateFeeGrowthInside(pool *Pool, lowerTick, upperTick *Tick) (numeric.FeeGrowth, numeric.FeeGrowth) {
	var belowX, belowY numeric.FeeGrowth
	if pool.CurrentTickIndex >= lowerTick.Index {
		belowX, belowY = lowerTick.FeeGrowthOutsideX, lowerTick.FeeGrowthOutsideY
	} else {
		belowX = pool.FeeGrowthGlobalX.UncheckedSub(lowerTick.FeeGrowthOutsideX)
		belowY = pool.FeeGrowthGlobalY.UncheckedSub(lowerTick.FeeGrowthOutsideY)
	}

	var aboveX, aboveY numeric.FeeGrowth
	if pool.CurrentTickIndex < upperTick.Index {
		aboveX, aboveY = upperTick.FeeGrowthOutsideX, upperTick.FeeGrowthOutsideY
	} else {
		aboveX = pool.FeeGrowthGlobalX.UncheckedSub(upperTick.FeeGrowthOutsideX)
		aboveY = pool.FeeGrowthGlobalY.UncheckedSub(upperTick.FeeGrowthOutsideY)
	}

	insideX := pool.FeeGrowthGlobalX.UncheckedSub(belowX).UncheckedSub(aboveX)
	insideY := pool.FeeGrowthGlobalY.UncheckedSub(belowY).UncheckedSub(aboveY)
	return insideX, insideY
}

// Update rejects empty pokes (no-op liquidity change on an already-empty
// position), realizes whatever fees accrued since the last snapshot into
// TokensOwed, and applies the liquidity change.
func (p *Position) Update(add bool, liquidityDelta numeric.Liquidity, feeGrowthInsideX, feeGrowthInsideY numeric.FeeGrowth) *Error {
	if liquidityDelta.IsZero() && p.Liquidity.IsZero() {
		return newErr(KindLiquidityChangeZero, "position has no liquidity to poke")
	}

	accruedX := feeGrowthInsideX.UncheckedSub(p.FeeGrowthInsideX).ToFee(p.Liquidity)
	accruedY := feeGrowthInsideY.UncheckedSub(p.FeeGrowthInsideY).ToFee(p.Liquidity)

	newLiquidity, err := p.calculateNewLiquidity(add, liquidityDelta)
	if err != nil {
		return err
	}
	p.Liquidity = newLiquidity

	p.FeeGrowthInsideX = feeGrowthInsideX
	p.FeeGrowthInsideY = feeGrowthInsideY

	owedX, aerr := p.TokensOwedX.CheckedAdd(accruedX)
	if aerr != nil {
		return wrapNumeric(KindNumericError, "Update: tokens_owed_x overflow", aerr)
	}
	p.TokensOwedX = owedX

	owedY, aerr2 := p.TokensOwedY.CheckedAdd(accruedY)
	if aerr2 != nil {
		return wrapNumeric(KindNumericError, "Update: tokens_owed_y overflow", aerr2)
	}
	p.TokensOwedY = owedY

	return nil
}

func (p *Position) calculateNewLiquidity(add bool, liquidityDelta numeric.Liquidity) (numeric.Liquidity, *Error) {
	if !add && p.Liquidity.Cmp(liquidityDelta) < 0 {
		return numeric.Liquidity{}, newErr(KindInsufficientLiquidity, "cannot remove more liquidity than the position holds")
	}
	if add {
		nl, err := p.Liquidity.CheckedAdd(liquidityDelta)
		if err != nil {
			return numeric.Liquidity{}, wrapNumeric(KindNumericError, "position liquidity overflow", err)
		}
		return nl, nil
	}
	nl, err := p.Liquidity.CheckedSub(liquidityDelta)
	if err != nil {
		return numeric.Liquidity{}, wrapNumeric(KindNumericError, "position liquidity underflow", err)
	}
	return nl, nil
}

// ClaimFee pokes the position with a zero liquidity delta to realize
// pending fees, then zeroes and returns what was owed.
func (p *Position) ClaimFee(pool *Pool, lowerTick, upperTick *Tick, currentTimestamp uint64) (numeric.TokenAmount, numeric.TokenAmount, *Error) {
	if _, _, err := p.Modify(pool, lowerTick, upperTick, numeric.LiquidityZero(), true, currentTimestamp); err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	x, y := p.TokensOwedX, p.TokensOwedY
	p.TokensOwedX = numeric.TokenAmountZero()
	p.TokensOwedY = numeric.TokenAmountZero()
	return x, y, nil
}

// Remove withdraws the position's entire liquidity, returning the
// underlying token amounts plus anything still owed in fees, and reports
// whether either boundary tick is now empty and can be deinitialized.
func (p *Position) Remove(pool *Pool, lowerTick, upperTick *Tick, currentTimestamp uint64) (amountX, amountY numeric.TokenAmount, deinitLower, deinitUpper bool, err *Error) {
	liquidity := p.Liquidity
	x, y, merr := p.Modify(pool, lowerTick, upperTick, liquidity, false, currentTimestamp)
	if merr != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, false, false, merr
	}

	amountX, aerr := x.CheckedAdd(p.TokensOwedX)
	if aerr != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, false, false, wrapNumeric(KindNumericError, "Remove: amount_x + tokens_owed_x overflow", aerr)
	}
	amountY, aerr2 := y.CheckedAdd(p.TokensOwedY)
	if aerr2 != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, false, false, wrapNumeric(KindNumericError, "Remove: amount_y + tokens_owed_y overflow", aerr2)
	}
	p.TokensOwedX = numeric.TokenAmountZero()
	p.TokensOwedY = numeric.TokenAmountZero()

	return amountX, amountY, lowerTick.LiquidityGross.IsZero(), upperTick.LiquidityGross.IsZero(), nil
}

// UpdateSecondsPerLiquidity refreshes the position's time-weighted
// reciprocal-liquidity snapshot from the pool's inside-the-range
// accumulator, used by reward/incentive calculations layered on top of
// this core.
func (p *Position) UpdateSecondsPerLiquidity(pool *Pool, lowerTick *Tick, upperTick *Tick, currentTimestamp uint64) *Error {
	inside, err := pool.UpdateSecondsPerLiquidityInside(
		p.LowerTickIndex, lowerTick.SecondsPerLiquidityOutside,
		p.UpperTickIndex, upperTick.SecondsPerLiquidityOutside,
		currentTimestamp,
	)
	if err != nil {
		return err
	}
	p.SecondsPerLiquidityInside = inside
	p.LastBlockNumber = currentTimestamp
	return nil
}
