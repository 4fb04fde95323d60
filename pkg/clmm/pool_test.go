package clmm_test

import (
	"testing"

	"github.com/johnayoung/go-invariant-clmm/pkg/clmm"
	"github.com/johnayoung/go-invariant-clmm/pkg/numeric"
)

func mustFeeTier(t *testing.T, feeRaw uint64, tickSpacing uint16) clmm.FeeTier {
	t.Helper()
	ft, err := clmm.NewFeeTier(numeric.PercentageFromScale(feeRaw, 4), tickSpacing)
	if err != nil {
		t.Fatalf("NewFeeTier: %s", err)
	}
	return ft
}

func mustSqrtPriceFromDecimal(t *testing.T, s string) numeric.SqrtPrice {
	t.Helper()
	v := mustU256(s)
	sp, err := numeric.SqrtPriceFromBig(v)
	if err != nil {
		t.Fatalf("SqrtPriceFromBig(%s): %s", s, err)
	}
	return sp
}

// TestAddFee mirrors test_add_fee: the protocol's cut is rounded up and
// subtracted from the pool's own fee-growth accumulation, split per the
// protocol_fee percentage, with no-op on a pool that carries no liquidity
// to accrue against.
func TestAddFee(t *testing.T) {
	base := func() clmm.Pool {
		return clmm.Pool{
			ProtocolFee:      numeric.PercentageFromScale(2, 1),
			Liquidity:        numeric.LiquidityFromInteger(10),
			FeeGrowthGlobalX: numeric.FeeGrowthZero(),
			FeeGrowthGlobalY: numeric.FeeGrowthZero(),
		}
	}

	t.Run("fee paid in token X", func(t *testing.T) {
		pool := base()
		if err := pool.AddFee(numeric.NewTokenAmount(6), true, nil); err != nil {
			t.Fatalf("AddFee: %s", err)
		}
		wantGrowthX := numeric.FeeGrowthFromAmountAndLiquidity(numeric.NewTokenAmount(4), numeric.LiquidityFromInteger(10))
		if pool.FeeGrowthGlobalX.Cmp(wantGrowthX) != 0 {
			t.Errorf("fee_growth_global_x mismatch: got %s", pool.FeeGrowthGlobalX)
		}
		if !pool.FeeGrowthGlobalY.IsZero() {
			t.Error("expected fee_growth_global_y to stay zero when the fee was paid in X")
		}
		if pool.FeeProtocolTokenX.Cmp(numeric.NewTokenAmount(2)) != 0 {
			t.Errorf("fee_protocol_token_x = %s, want 2", pool.FeeProtocolTokenX)
		}
		if !pool.FeeProtocolTokenY.IsZero() {
			t.Error("expected fee_protocol_token_y to stay zero")
		}
	})

	t.Run("fee paid in token Y", func(t *testing.T) {
		pool := base()
		if err := pool.AddFee(numeric.NewTokenAmount(200), false, nil); err != nil {
			t.Fatalf("AddFee: %s", err)
		}
		if !pool.FeeGrowthGlobalX.IsZero() {
			t.Error("expected fee_growth_global_x to stay zero when the fee was paid in Y")
		}
		if pool.FeeProtocolTokenY.Cmp(numeric.NewTokenAmount(40)) != 0 {
			t.Errorf("fee_protocol_token_y = %s, want 40", pool.FeeProtocolTokenY)
		}
	})

	t.Run("entire amount rounds to the protocol cut", func(t *testing.T) {
		pool := base()
		if err := pool.AddFee(numeric.NewTokenAmount(1), true, nil); err != nil {
			t.Fatalf("AddFee: %s", err)
		}
		if !pool.FeeGrowthGlobalX.IsZero() || !pool.FeeGrowthGlobalY.IsZero() {
			t.Error("expected no pool-side fee growth when the whole fee went to the protocol")
		}
		if pool.FeeProtocolTokenX.Cmp(numeric.NewTokenAmount(1)) != 0 {
			t.Errorf("fee_protocol_token_x = %s, want 1", pool.FeeProtocolTokenX)
		}
	})

	t.Run("zero liquidity is a no-op", func(t *testing.T) {
		pool := clmm.Pool{ProtocolFee: numeric.PercentageFromScale(2, 1), Liquidity: numeric.LiquidityZero()}
		if err := pool.AddFee(numeric.NewTokenAmount(100), true, nil); err != nil {
			t.Fatalf("AddFee: %s", err)
		}
		if !pool.FeeGrowthGlobalX.IsZero() {
			t.Error("expected no fee growth to accrue without active liquidity")
		}
	})
}

// TestUpdateLiquidity mirrors test_update_liquidity: funding amounts
// depend on where the current tick sits relative to the position's
// range, and active liquidity only moves when that range straddles the
// current price.
func TestUpdateLiquidity(t *testing.T) {
	sqrtPrice := mustSqrtPriceFromDecimal(t, "1000140000000000000000000")

	t.Run("deposit with current tick inside range, upper=3", func(t *testing.T) {
		pool := clmm.Pool{Liquidity: numeric.LiquidityZero(), SqrtPrice: sqrtPrice, CurrentTickIndex: 2}
		delta := numeric.LiquidityFromInteger(5_000_000)
		x, y, err := pool.UpdateLiquidity(delta, true, 3, 0)
		if err != nil {
			t.Fatalf("UpdateLiquidity: %s", err)
		}
		if x.Cmp(numeric.NewTokenAmount(51)) != 0 {
			t.Errorf("x = %s, want 51", x)
		}
		if y.Cmp(numeric.NewTokenAmount(700)) != 0 {
			t.Errorf("y = %s, want 700", y)
		}
		if pool.Liquidity.Cmp(delta) != 0 {
			t.Errorf("pool.liquidity = %s, want %s", pool.Liquidity, delta)
		}
	})

	t.Run("deposit with current tick inside range, upper=4", func(t *testing.T) {
		pool := clmm.Pool{Liquidity: numeric.LiquidityZero(), SqrtPrice: sqrtPrice, CurrentTickIndex: 2}
		delta := numeric.LiquidityFromInteger(5_000_000)
		x, y, err := pool.UpdateLiquidity(delta, true, 4, 0)
		if err != nil {
			t.Fatalf("UpdateLiquidity: %s", err)
		}
		if x.Cmp(numeric.NewTokenAmount(300)) != 0 {
			t.Errorf("x = %s, want 300", x)
		}
		if y.Cmp(numeric.NewTokenAmount(700)) != 0 {
			t.Errorf("y = %s, want 700", y)
		}
	})

	t.Run("current tick above range leaves active liquidity untouched", func(t *testing.T) {
		pool := clmm.Pool{Liquidity: numeric.LiquidityFromInteger(1), SqrtPrice: sqrtPrice, CurrentTickIndex: 6}
		x, y, err := pool.UpdateLiquidity(numeric.LiquidityFromInteger(12), true, 4, 0)
		if err != nil {
			t.Fatalf("UpdateLiquidity: %s", err)
		}
		if !x.IsZero() {
			t.Errorf("x = %s, want 0", x)
		}
		if y.Cmp(numeric.NewTokenAmount(1)) != 0 {
			t.Errorf("y = %s, want 1", y)
		}
		if pool.Liquidity.Cmp(numeric.LiquidityFromInteger(1)) != 0 {
			t.Error("expected pool.liquidity to stay unchanged when the range doesn't straddle the current tick")
		}
	})

	t.Run("current tick below range leaves active liquidity untouched", func(t *testing.T) {
		pool := clmm.Pool{Liquidity: numeric.LiquidityFromInteger(1), SqrtPrice: sqrtPrice, CurrentTickIndex: -2}
		x, y, err := pool.UpdateLiquidity(numeric.LiquidityFromInteger(12), true, 4, 0)
		if err != nil {
			t.Fatalf("UpdateLiquidity: %s", err)
		}
		if x.Cmp(numeric.NewTokenAmount(1)) != 0 {
			t.Errorf("x = %s, want 1", x)
		}
		if !y.IsZero() {
			t.Errorf("y = %s, want 0", y)
		}
		if pool.Liquidity.Cmp(numeric.LiquidityFromInteger(1)) != 0 {
			t.Error("expected pool.liquidity to stay unchanged when the range doesn't straddle the current tick")
		}
	})

	t.Run("withdrawal reduces active liquidity", func(t *testing.T) {
		pool := clmm.Pool{Liquidity: numeric.LiquidityFromInteger(10), SqrtPrice: numeric.NewSqrtPrice(1), CurrentTickIndex: 2}
		_, y, err := pool.UpdateLiquidity(numeric.LiquidityFromInteger(5), false, 3, 1)
		if err != nil {
			t.Fatalf("UpdateLiquidity: %s", err)
		}
		if y.Cmp(numeric.NewTokenAmount(5)) != 0 {
			t.Errorf("y = %s, want 5", y)
		}
		if pool.Liquidity.Cmp(numeric.LiquidityFromInteger(5)) != 0 {
			t.Errorf("pool.liquidity = %s, want 5", pool.Liquidity)
		}
	})
}

// TestUpdateSecondsPerLiquidityInside mirrors
// test_update_seconds_per_liquidity_inside: the inside snapshot is the
// global accumulator minus whatever the lower and upper ticks recorded as
// "outside," same decomposition as fee-growth-inside.
func TestUpdateSecondsPerLiquidityInside(t *testing.T) {
	pool := clmm.Pool{
		Liquidity:        numeric.LiquidityFromInteger(1000),
		CurrentTickIndex: 5,
		LastTimestamp:    0,
	}

	lowerOutside := numeric.SecondsPerLiquidityFromBig(mustU256("3012300000"))
	upperOutside := numeric.SecondsPerLiquidityFromBig(mustU256("2030400000"))

	inside, err := pool.UpdateSecondsPerLiquidityInside(0, lowerOutside, 10, upperOutside, 100)
	if err != nil {
		t.Fatalf("UpdateSecondsPerLiquidityInside: %s", err)
	}

	wantGlobal := numeric.Accumulate(numeric.LiquidityFromInteger(1000), 100)
	wantInside := wantGlobal.UncheckedSub(lowerOutside).UncheckedSub(upperOutside)
	if inside.Cmp(wantInside) != 0 {
		t.Error("inside snapshot did not match global minus below minus above")
	}
	if pool.LastTimestamp != 100 {
		t.Errorf("pool.last_timestamp = %d, want 100", pool.LastTimestamp)
	}
}

func TestUpdateSecondsPerLiquidityGlobal(t *testing.T) {
	pool := clmm.Pool{Liquidity: numeric.LiquidityFromInteger(10), LastTimestamp: 5}
	if err := pool.UpdateSecondsPerLiquidityGlobal(15); err != nil {
		t.Fatalf("UpdateSecondsPerLiquidityGlobal: %s", err)
	}
	want := numeric.Accumulate(numeric.LiquidityFromInteger(10), 10)
	if pool.SecondsPerLiquidityGlobal.Cmp(want) != 0 {
		t.Error("seconds_per_liquidity_global did not accumulate the elapsed duration")
	}
	if pool.LastTimestamp != 15 {
		t.Errorf("last_timestamp = %d, want 15", pool.LastTimestamp)
	}

	t.Run("rejects a timestamp that moves backwards", func(t *testing.T) {
		pool := clmm.Pool{Liquidity: numeric.LiquidityFromInteger(10), LastTimestamp: 100}
		if err := pool.UpdateSecondsPerLiquidityGlobal(50); err == nil {
			t.Error("expected an error for a timestamp earlier than last_timestamp")
		}
	})
}
