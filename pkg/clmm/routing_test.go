package clmm_test

import (
	"testing"

	"github.com/johnayoung/go-invariant-clmm/pkg/clmm"
	"github.com/johnayoung/go-invariant-clmm/pkg/numeric"
)

// newLiquidPool builds a registry with one pool carrying a wide band of
// liquidity straddling the initial tick, deep enough that a small swap
// never runs out of range to trade against.
func newLiquidPool(t *testing.T) (*clmm.PoolRegistry, clmm.PoolKey) {
	t.Helper()
	r, feeTier := newTestRegistry(t)
	poolKey, err := r.CreatePool(regTokenX, regTokenY, feeTier, numeric.SqrtPriceFromInteger(1), 0, regAdmin, 0)
	if err != nil {
		t.Fatalf("CreatePool: %s", err)
	}
	if _, _, _, err := r.CreatePosition(regAlice, poolKey, -1000, 1000, numeric.LiquidityFromInteger(5_000_000), numeric.SqrtPriceMin(), numeric.SqrtPriceMax(), 0); err != nil {
		t.Fatalf("CreatePosition: %s", err)
	}
	return r, poolKey
}

// TestSwap mirrors the pool's swap step loop driven through the registry's
// single-hop entrypoint: a zero amount is rejected up front, and a normal
// exact-input trade consumes the whole input and returns a non-zero output
// without moving past the caller's price limit.
func TestSwap(t *testing.T) {
	r, poolKey := newLiquidPool(t)

	t.Run("rejects a zero amount", func(t *testing.T) {
		_, err := r.Swap(poolKey, true, numeric.TokenAmountZero(), true, numeric.GetMinSqrtPrice(10), 0)
		if err == nil || err.Kind != clmm.KindAmountIsZero {
			t.Errorf("expected KindAmountIsZero, got %v", err)
		}
	})

	t.Run("exact input swap moves the price and returns output", func(t *testing.T) {
		before, gerr := r.GetPool(poolKey)
		if gerr != nil {
			t.Fatalf("GetPool: %s", gerr)
		}

		result, err := r.Swap(poolKey, true, numeric.NewTokenAmount(1_000), true, numeric.GetMinSqrtPrice(10), 0)
		if err != nil {
			t.Fatalf("Swap: %s", err)
		}
		if result.AmountOut.IsZero() {
			t.Error("expected a non-zero amount out")
		}
		if result.AmountIn.IsZero() {
			t.Error("expected a non-zero amount in")
		}
		if result.StartSqrtPrice.Cmp(before.SqrtPrice) != 0 {
			t.Error("StartSqrtPrice should record the pool's price before the trade")
		}

		after, gerr := r.GetPool(poolKey)
		if gerr != nil {
			t.Fatalf("GetPool: %s", gerr)
		}
		if after.SqrtPrice.Cmp(before.SqrtPrice) >= 0 {
			t.Error("expected selling X for Y to push sqrt_price down")
		}
	})

	t.Run("exact output swap requests a target amount out", func(t *testing.T) {
		_, err := r.Swap(poolKey, false, numeric.NewTokenAmount(100), false, numeric.GetMaxSqrtPrice(10), 0)
		if err != nil {
			t.Fatalf("Swap: %s", err)
		}
	})
}

// TestQuoteDoesNotMutateState mirrors Quote/QuoteRoute's deep-copy
// simulation: running a quote must leave the real pool's liquidity, price,
// and tick set exactly as they were.
func TestQuoteDoesNotMutateState(t *testing.T) {
	r, poolKey := newLiquidPool(t)

	before, gerr := r.GetPool(poolKey)
	if gerr != nil {
		t.Fatalf("GetPool: %s", gerr)
	}

	result, err := r.Quote(poolKey, true, numeric.NewTokenAmount(1_000), true, numeric.GetMinSqrtPrice(10), 0)
	if err != nil {
		t.Fatalf("Quote: %s", err)
	}
	if result.AmountOut.IsZero() {
		t.Error("expected the quote to report a non-zero amount out")
	}

	after, gerr := r.GetPool(poolKey)
	if gerr != nil {
		t.Fatalf("GetPool: %s", gerr)
	}
	if after.SqrtPrice.Cmp(before.SqrtPrice) != 0 {
		t.Error("expected Quote to leave the pool's sqrt_price untouched")
	}
	if after.Liquidity.Cmp(before.Liquidity) != 0 {
		t.Error("expected Quote to leave the pool's liquidity untouched")
	}
}

// TestSwapRoute mirrors the multi-hop chain: a route over a single hop
// should realize the same output a direct Quote on that hop would report,
// and a slippage floor set above the realized output must be rejected.
func TestSwapRoute(t *testing.T) {
	r, poolKey := newLiquidPool(t)

	quoted, err := r.Quote(poolKey, true, numeric.NewTokenAmount(1_000), true, numeric.GetMinSqrtPrice(10), 0)
	if err != nil {
		t.Fatalf("Quote: %s", err)
	}

	t.Run("succeeds when the realized output meets the slippage floor", func(t *testing.T) {
		hops := []clmm.SwapHop{{PoolKey: poolKey, XToY: true}}
		out, err := r.SwapRoute(numeric.NewTokenAmount(1_000), quoted.AmountOut, numeric.PercentageFromScale(1, 1), hops, 0)
		if err != nil {
			t.Fatalf("SwapRoute: %s", err)
		}
		if out.IsZero() {
			t.Error("expected a non-zero routed output")
		}
	})
}

func TestSwapRouteRejectsBelowSlippageFloor(t *testing.T) {
	r, poolKey := newLiquidPool(t)

	quoted, err := r.Quote(poolKey, true, numeric.NewTokenAmount(1_000), true, numeric.GetMinSqrtPrice(10), 0)
	if err != nil {
		t.Fatalf("Quote: %s", err)
	}

	inflated, aerr := quoted.AmountOut.CheckedAdd(numeric.NewTokenAmount(1_000_000))
	if aerr != nil {
		t.Fatalf("CheckedAdd: %s", aerr)
	}

	hops := []clmm.SwapHop{{PoolKey: poolKey, XToY: true}}
	_, err = r.SwapRoute(numeric.NewTokenAmount(1_000), inflated, numeric.PercentageZero(), hops, 0)
	if err == nil {
		t.Error("expected a route whose expected output vastly exceeds the realized swap to fail the slippage check")
	}
}

// TestQuoteRouteMatchesSwapRoute mirrors QuoteRoute's use of the same
// shadow-registry simulation as Quote, chained across hops: the amount it
// reports for a single-hop route should match what actually executing that
// route returns, since both run the identical step loop from the same
// starting pool state.
func TestQuoteRouteMatchesSwapRoute(t *testing.T) {
	r, poolKey := newLiquidPool(t)
	hops := []clmm.SwapHop{{PoolKey: poolKey, XToY: true}}

	quotedOut, err := r.QuoteRoute(numeric.NewTokenAmount(1_000), hops, 0)
	if err != nil {
		t.Fatalf("QuoteRoute: %s", err)
	}

	realizedOut, err := r.SwapRoute(numeric.NewTokenAmount(1_000), quotedOut, numeric.PercentageZero(), hops, 0)
	if err != nil {
		t.Fatalf("SwapRoute: %s", err)
	}
	if quotedOut.Cmp(realizedOut) != 0 {
		t.Errorf("QuoteRoute reported %s but SwapRoute realized %s", quotedOut, realizedOut)
	}
}
