package clmm

import "github.com/johnayoung/go-invariant-clmm/pkg/numeric"

// Tick is the per-pool, per-index state a position's boundary references.
// It exists (is stored) iff LiquidityGross > 0.
type Tick struct {
	Index             int32
	Sign              bool
	LiquidityChange   numeric.Liquidity
	LiquidityGross    numeric.Liquidity
	SqrtPrice         numeric.SqrtPrice
	FeeGrowthOutsideX numeric.FeeGrowth
	FeeGrowthOutsideY numeric.FeeGrowth
	SecondsOutside    uint64

	// SecondsPerLiquidityOutside snapshots the pool's time-weighted
	// reciprocal-liquidity accumulator the same way FeeGrowthOutside
	// snapshots fee growth, feeding Position.UpdateSecondsPerLiquidity.
	SecondsPerLiquidityOutside numeric.SecondsPerLiquidity
}

// CreateTick builds the tick at index for pool, snapshotting fee growth and
// elapsed seconds on whichever side of the current price the tick sits, per
// the creation invariant in the data model: a tick created below or at the
// current price starts with the global accumulators (it has already seen
// all fee growth to date on its near side); one created above starts at
// zero (it has seen none yet).
func CreateTick(index int32, pool *Pool, currentTimestamp uint64) (Tick, *Error) {
	sqrtPrice, err := numeric.SqrtPriceFromTick(index)
	if err != nil {
		return Tick{}, wrapNumeric(KindInvalidTickIndex, "CreateTick: sqrt_price_from_tick", err)
	}

	belowCurrent := index <= pool.CurrentTickIndex
	t := Tick{
		Index:           index,
		Sign:            true,
		SqrtPrice:       sqrtPrice,
		LiquidityChange: numeric.LiquidityZero(),
		LiquidityGross:  numeric.LiquidityZero(),
	}
	if belowCurrent {
		t.FeeGrowthOutsideX = pool.FeeGrowthGlobalX
		t.FeeGrowthOutsideY = pool.FeeGrowthGlobalY
		t.SecondsOutside = currentTimestamp - pool.StartTimestamp
		t.SecondsPerLiquidityOutside = pool.SecondsPerLiquidityGlobal
	} else {
		t.FeeGrowthOutsideX = numeric.FeeGrowthZero()
		t.FeeGrowthOutsideY = numeric.FeeGrowthZero()
		t.SecondsOutside = 0
		t.SecondsPerLiquidityOutside = numeric.SecondsPerLiquidityZero()
	}
	return t, nil
}

// Cross flips the tick's fee-growth-outside and seconds-outside snapshots
// to the other side of the price and applies its net liquidity change to
// the pool's active liquidity, in the direction the price is moving.
func (t *Tick) Cross(pool *Pool, currentTimestamp uint64) *Error {
	t.FeeGrowthOutsideX = pool.FeeGrowthGlobalX.UncheckedSub(t.FeeGrowthOutsideX)
	t.FeeGrowthOutsideY = pool.FeeGrowthGlobalY.UncheckedSub(t.FeeGrowthOutsideY)
	t.SecondsPerLiquidityOutside = pool.SecondsPerLiquidityGlobal.UncheckedSub(t.SecondsPerLiquidityOutside)

	if currentTimestamp < pool.StartTimestamp {
		return newErr(KindNumericError, "current_timestamp - pool.start_timestamp underflow")
	}
	secondsPassed := currentTimestamp - pool.StartTimestamp
	t.SecondsOutside = secondsPassed - t.SecondsOutside // wraps on underflow, matching wrapping_sub

	pool.LastTimestamp = currentTimestamp

	// Going to a higher tick adds net liquidity; going lower subtracts it.
	if (pool.CurrentTickIndex >= t.Index) != t.Sign {
		newLiquidity, err := pool.Liquidity.CheckedAdd(t.LiquidityChange)
		if err != nil {
			return wrapNumeric(KindNumericError, "pool.liquidity + tick.liquidity_change overflow", err)
		}
		pool.Liquidity = newLiquidity
	} else {
		newLiquidity, err := pool.Liquidity.CheckedSub(t.LiquidityChange)
		if err != nil {
			return wrapNumeric(KindNumericError, "pool.liquidity - tick.liquidity_change underflow", err)
		}
		pool.Liquidity = newLiquidity
	}
	return nil
}

// Update applies a liquidity change of liquidityDelta to the tick, as the
// lower (isUpper=false) or upper (isUpper=true) boundary of a position
// being deposited into (isDeposit=true) or withdrawn from.
func (t *Tick) Update(liquidityDelta, maxLiquidityPerTick numeric.Liquidity, isUpper, isDeposit bool) *Error {
	newGross, err := t.calculateNewLiquidityGross(isDeposit, liquidityDelta, maxLiquidityPerTick)
	if err != nil {
		return err
	}
	t.LiquidityGross = newGross
	return t.updateLiquidityChange(liquidityDelta, isDeposit != isUpper)
}

func (t *Tick) updateLiquidityChange(liquidityDelta numeric.Liquidity, add bool) *Error {
	if t.Sign != add {
		if t.LiquidityChange.Cmp(liquidityDelta) > 0 {
			nv, err := t.LiquidityChange.CheckedSub(liquidityDelta)
			if err != nil {
				return wrapNumeric(KindNumericError, "underflow while calculating liquidity change", err)
			}
			t.LiquidityChange = nv
		} else {
			nv, err := liquidityDelta.CheckedSub(t.LiquidityChange)
			if err != nil {
				return wrapNumeric(KindNumericError, "underflow while calculating liquidity change", err)
			}
			t.LiquidityChange = nv
			t.Sign = !t.Sign
		}
	} else {
		nv, err := t.LiquidityChange.CheckedAdd(liquidityDelta)
		if err != nil {
			return wrapNumeric(KindNumericError, "overflow while calculating liquidity change", err)
		}
		t.LiquidityChange = nv
	}
	return nil
}

func (t *Tick) calculateNewLiquidityGross(sign bool, liquidityDelta, maxLiquidityPerTick numeric.Liquidity) (numeric.Liquidity, *Error) {
	if !sign && t.LiquidityGross.Cmp(liquidityDelta) < 0 {
		return numeric.Liquidity{}, newErr(KindInvalidTickLiquidity, "liquidity_gross < liquidity_delta on withdraw")
	}

	var newLiquidity numeric.Liquidity
	var err *numeric.Error
	if sign {
		newLiquidity, err = t.LiquidityGross.CheckedAdd(liquidityDelta)
	} else {
		newLiquidity, err = t.LiquidityGross.CheckedSub(liquidityDelta)
	}
	if err != nil {
		return numeric.Liquidity{}, wrapNumeric(KindNumericError, "tick liquidity_gross over/underflow", err)
	}

	if sign && newLiquidity.Cmp(maxLiquidityPerTick) >= 0 {
		return numeric.Liquidity{}, newErr(KindInvalidTickLiquidity, "liquidity_gross would exceed max_liquidity_per_tick")
	}
	return newLiquidity, nil
}
