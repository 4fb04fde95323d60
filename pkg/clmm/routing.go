package clmm

import "github.com/johnayoung/go-invariant-clmm/pkg/numeric"

// SwapResult reports the outcome of one completed swap: what went in,
// what came out, and the pool's price after the trade.
type SwapResult struct {
	AmountIn      numeric.TokenAmount
	AmountOut     numeric.TokenAmount
	StartSqrtPrice numeric.SqrtPrice
	TargetSqrtPrice numeric.SqrtPrice
}

// SwapHop is one leg of a multi-hop route: trade amount's worth of xToY
// direction through poolKey.
type SwapHop struct {
	PoolKey PoolKey
	XToY    bool
}

// Swap executes a single pool trade: amount of the input token, either an
// exact input (byAmountIn=true) or an exact output request, refusing to
// let the price move past sqrtPriceLimit. It loops swap steps until the
// requested amount is exhausted or the price limit is reached, crossing
// at most MaxTickCross ticks, matching the wire contract's bound on how
// much work one swap call can do.
func (r *PoolRegistry) Swap(poolKey PoolKey, xToY bool, amount numeric.TokenAmount, byAmountIn bool, sqrtPriceLimit numeric.SqrtPrice, now uint64) (SwapResult, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.swapLocked(poolKey, xToY, amount, byAmountIn, sqrtPriceLimit, now)
}

func (r *PoolRegistry) swapLocked(poolKey PoolKey, xToY bool, amount numeric.TokenAmount, byAmountIn bool, sqrtPriceLimit numeric.SqrtPrice, now uint64) (SwapResult, *Error) {
	ps, err := r.mustGetPoolState(poolKey)
	if err != nil {
		return SwapResult{}, err
	}
	if amount.IsZero() {
		return SwapResult{}, newErr(KindAmountIsZero, "swap amount is zero")
	}

	startSqrtPrice := ps.pool.SqrtPrice
	remaining := amount
	totalIn := numeric.TokenAmountZero()
	totalOut := numeric.TokenAmountZero()

	for crosses := 0; !remaining.IsZero() && crosses < numeric.MaxTickCross; crosses++ {
		step, serr := ps.pool.SwapStep(ps.tickmap, &remaining, sqrtPriceLimit, xToY, byAmountIn, &totalIn, &totalOut, r.log)
		if serr != nil {
			if serr.Kind == KindPriceLimitReached {
				break
			}
			return SwapResult{}, serr
		}

		if !step.HasLimitingTick {
			break
		}

		tick, terr := ps.getOrCreateTick(step.LimitingTick, now)
		if terr != nil {
			return SwapResult{}, terr
		}
		if cerr := ps.pool.CrossTick(step.NextSqrtPrice, step.SwapLimit, step.LimitingTick, step.LimitingTickInitialized, step.HasLimitingTick, tick, &remaining, byAmountIn, xToY, now, &totalIn); cerr != nil {
			return SwapResult{}, cerr
		}
	}

	if totalOut.IsZero() {
		return SwapResult{}, newErr(KindNoGainSwap, "swap would return zero tokens")
	}

	return SwapResult{
		AmountIn:        totalIn,
		AmountOut:       totalOut,
		StartSqrtPrice:  startSqrtPrice,
		TargetSqrtPrice: ps.pool.SqrtPrice,
	}, nil
}

// SwapRoute chains several single-pool swaps: the output of each hop
// funds the input of the next, with no price limit per hop (the route as
// a whole is bounded by expectedAmountOut/slippage instead). Fails if the
// realized output falls short of the caller's slippage-adjusted minimum.
func (r *PoolRegistry) SwapRoute(amountIn numeric.TokenAmount, expectedAmountOut numeric.TokenAmount, slippage numeric.Percentage, hops []SwapHop, now uint64) (numeric.TokenAmount, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := amountIn
	for _, hop := range hops {
		ps, err := r.mustGetPoolState(hop.PoolKey)
		if err != nil {
			return numeric.TokenAmount{}, err
		}
		limit := numeric.GetMinSqrtPrice(ps.pool.TickSpacing)
		if !hop.XToY {
			limit = numeric.GetMaxSqrtPrice(ps.pool.TickSpacing)
		}
		result, serr := r.swapLocked(hop.PoolKey, hop.XToY, current, true, limit, now)
		if serr != nil {
			return numeric.TokenAmount{}, serr
		}
		current = result.AmountOut
	}

	minOut, merr := numeric.CalculateMinAmountOut(expectedAmountOut, slippage)
	if merr != nil {
		return numeric.TokenAmount{}, wrapNumeric(KindNumericError, "SwapRoute: calculate_min_amount_out", merr)
	}
	if current.Cmp(minOut) < 0 {
		return numeric.TokenAmount{}, newErr(KindPriceLimitReached, "swap route output below slippage-adjusted minimum")
	}
	return current, nil
}

// Quote simulates a single swap without mutating registry state. It runs
// the same step loop as Swap over deep copies of the pool, its tickmap,
// and whichever ticks the simulated swap touches.
func (r *PoolRegistry) Quote(poolKey PoolKey, xToY bool, amount numeric.TokenAmount, byAmountIn bool, sqrtPriceLimit numeric.SqrtPrice, now uint64) (SwapResult, *Error) {
	r.mu.RLock()
	orig, err := r.mustGetPoolState(poolKey)
	if err != nil {
		r.mu.RUnlock()
		return SwapResult{}, err
	}
	sim := cloneForSimulation(orig)
	r.mu.RUnlock()

	shadow := &PoolRegistry{pools: map[PoolKey]*poolState{poolKey: sim}, log: nil}
	return shadow.swapLocked(poolKey, xToY, amount, byAmountIn, sqrtPriceLimit, now)
}

// QuoteRoute simulates a multi-hop route the same way Quote simulates a
// single swap, over independent copies of every pool the route touches.
func (r *PoolRegistry) QuoteRoute(amountIn numeric.TokenAmount, hops []SwapHop, now uint64) (numeric.TokenAmount, *Error) {
	r.mu.RLock()
	shadowPools := make(map[PoolKey]*poolState, len(hops))
	for _, hop := range hops {
		if _, ok := shadowPools[hop.PoolKey]; ok {
			continue
		}
		orig, err := r.mustGetPoolState(hop.PoolKey)
		if err != nil {
			r.mu.RUnlock()
			return numeric.TokenAmount{}, err
		}
		shadowPools[hop.PoolKey] = cloneForSimulation(orig)
	}
	r.mu.RUnlock()

	shadow := &PoolRegistry{pools: shadowPools, log: nil}
	current := amountIn
	for _, hop := range hops {
		ps := shadowPools[hop.PoolKey]
		limit := numeric.GetMinSqrtPrice(ps.pool.TickSpacing)
		if !hop.XToY {
			limit = numeric.GetMaxSqrtPrice(ps.pool.TickSpacing)
		}
		result, err := shadow.swapLocked(hop.PoolKey, hop.XToY, current, true, limit, now)
		if err != nil {
			return numeric.TokenAmount{}, err
		}
		current = result.AmountOut
	}
	return current, nil
}

func cloneForSimulation(orig *poolState) *poolState {
	ticks := make(map[int32]*Tick, len(orig.ticks))
	for idx, t := range orig.ticks {
		copyT := *t
		ticks[idx] = &copyT
	}
	return &poolState{
		pool:    orig.pool,
		ticks:   ticks,
		tickmap: orig.tickmap.Clone(),
	}
}
