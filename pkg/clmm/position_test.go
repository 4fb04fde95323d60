package clmm_test

import (
	"testing"

	"github.com/johnayoung/go-invariant-clmm/pkg/clmm"
	"github.com/johnayoung/go-invariant-clmm/pkg/numeric"
)

// TestPositionUpdate mirrors test_update: a zero-delta poke on an
// already-empty position errors, an empty position gaining liquidity
// does not yet owe fees (there is nothing to compare its zero liquidity
// against), and a non-empty position realizes the fee growth delta since
// its last snapshot into tokens owed, wrapping the same way the global
// fee-growth counters do.
func TestPositionUpdate(t *testing.T) {
	t.Run("empty position poke with zero delta errors", func(t *testing.T) {
		p := clmm.Position{Liquidity: numeric.LiquidityZero()}
		err := p.Update(true, numeric.LiquidityZero(), numeric.FeeGrowthFromInteger(1), numeric.FeeGrowthFromInteger(1))
		if err == nil {
			t.Error("expected an error poking a position with no liquidity and no delta")
		}
	})

	t.Run("zero liquidity accrues no fee", func(t *testing.T) {
		p := clmm.Position{
			Liquidity:        numeric.LiquidityZero(),
			FeeGrowthInsideX: numeric.FeeGrowthFromInteger(4),
			FeeGrowthInsideY: numeric.FeeGrowthFromInteger(4),
			TokensOwedX:      numeric.NewTokenAmount(100),
			TokensOwedY:      numeric.NewTokenAmount(100),
		}
		if err := p.Update(true, numeric.LiquidityFromInteger(1), numeric.FeeGrowthFromInteger(5), numeric.FeeGrowthFromInteger(5)); err != nil {
			t.Fatalf("Update: %s", err)
		}
		if p.Liquidity.Cmp(numeric.LiquidityFromInteger(1)) != 0 {
			t.Errorf("liquidity = %s, want 1", p.Liquidity)
		}
		if p.TokensOwedX.Cmp(numeric.NewTokenAmount(100)) != 0 {
			t.Errorf("tokens_owed_x = %s, want 100 (unchanged)", p.TokensOwedX)
		}
	})

	t.Run("non-zero liquidity accrues the fee growth delta", func(t *testing.T) {
		p := clmm.Position{
			Liquidity:        numeric.LiquidityFromInteger(1),
			FeeGrowthInsideX: numeric.FeeGrowthFromInteger(4),
			FeeGrowthInsideY: numeric.FeeGrowthFromInteger(4),
			TokensOwedX:      numeric.NewTokenAmount(100),
			TokensOwedY:      numeric.NewTokenAmount(100),
		}
		if err := p.Update(true, numeric.LiquidityFromInteger(1), numeric.FeeGrowthFromInteger(5), numeric.FeeGrowthFromInteger(5)); err != nil {
			t.Fatalf("Update: %s", err)
		}
		if p.Liquidity.Cmp(numeric.LiquidityFromInteger(2)) != 0 {
			t.Errorf("liquidity = %s, want 2", p.Liquidity)
		}
		if p.TokensOwedX.Cmp(numeric.NewTokenAmount(101)) != 0 {
			t.Errorf("tokens_owed_x = %s, want 101", p.TokensOwedX)
		}
		if p.TokensOwedY.Cmp(numeric.NewTokenAmount(101)) != 0 {
			t.Errorf("tokens_owed_y = %s, want 101", p.TokensOwedY)
		}
	})

	t.Run("fee growth wraps when the snapshot was near the top of the range", func(t *testing.T) {
		maxGrowth := numeric.FeeGrowthFromBig(mustU256("115792089237316195423570985008687907853269984665640564039457584007913129639935"))
		tenGrowth := numeric.FeeGrowthFromInteger(10)
		p := clmm.Position{
			Liquidity:        numeric.LiquidityFromInteger(1),
			FeeGrowthInsideX: maxGrowth.UncheckedSub(tenGrowth),
			FeeGrowthInsideY: maxGrowth.UncheckedSub(tenGrowth),
			TokensOwedX:      numeric.NewTokenAmount(100),
			TokensOwedY:      numeric.NewTokenAmount(100),
		}
		if err := p.Update(true, numeric.LiquidityFromInteger(1), tenGrowth, tenGrowth); err != nil {
			t.Fatalf("Update: %s", err)
		}
		if p.Liquidity.Cmp(numeric.LiquidityFromInteger(2)) != 0 {
			t.Errorf("liquidity = %s, want 2", p.Liquidity)
		}
		if p.FeeGrowthInsideX.Cmp(tenGrowth) != 0 {
			t.Error("expected fee_growth_inside_x to adopt the new snapshot")
		}
	})
}

// TestCalculateNewLiquidity mirrors test_calculate_new_liquidity through
// the public Update method, since calculate_new_liquidity is an
// unexported implementation step here just as it is in the source.
func TestCalculateNewLiquidity(t *testing.T) {
	t.Run("removing more than held errors", func(t *testing.T) {
		p := clmm.Position{Liquidity: numeric.LiquidityFromInteger(1), FeeGrowthInsideX: numeric.FeeGrowthFromInteger(1), FeeGrowthInsideY: numeric.FeeGrowthFromInteger(1)}
		if err := p.Update(false, numeric.LiquidityFromInteger(2), numeric.FeeGrowthFromInteger(1), numeric.FeeGrowthFromInteger(1)); err == nil {
			t.Error("expected an error removing more liquidity than the position holds")
		}
	})

	t.Run("adding liquidity", func(t *testing.T) {
		p := clmm.Position{Liquidity: numeric.LiquidityFromInteger(2), FeeGrowthInsideX: numeric.FeeGrowthFromInteger(1), FeeGrowthInsideY: numeric.FeeGrowthFromInteger(1)}
		if err := p.Update(true, numeric.LiquidityFromInteger(2), numeric.FeeGrowthFromInteger(1), numeric.FeeGrowthFromInteger(1)); err != nil {
			t.Fatalf("Update: %s", err)
		}
		if p.Liquidity.Cmp(numeric.LiquidityFromInteger(4)) != 0 {
			t.Errorf("liquidity = %s, want 4", p.Liquidity)
		}
	})

	t.Run("subtracting liquidity to exactly zero", func(t *testing.T) {
		p := clmm.Position{Liquidity: numeric.LiquidityFromInteger(2), FeeGrowthInsideX: numeric.FeeGrowthFromInteger(1), FeeGrowthInsideY: numeric.FeeGrowthFromInteger(1)}
		if err := p.Update(false, numeric.LiquidityFromInteger(2), numeric.FeeGrowthFromInteger(1), numeric.FeeGrowthFromInteger(1)); err != nil {
			t.Fatalf("Update: %s", err)
		}
		if !p.Liquidity.IsZero() {
			t.Errorf("liquidity = %s, want 0", p.Liquidity)
		}
	})
}

// TestCreatePosition mirrors Position::create's slippage-bound check:
// a pool whose current price sits outside [slippage_limit_lower,
// slippage_limit_upper] refuses to open a position at all.
func TestCreatePosition(t *testing.T) {
	feeTier := mustFeeTier(t, 30, 10)
	pool := clmm.NewPool(feeTier, numeric.PercentageZero(), numeric.SqrtPriceFromInteger(1), 0, clmm.AccountId("admin"), 0)

	lowerTick, terr := clmm.CreateTick(-100, &pool, 0)
	if terr != nil {
		t.Fatalf("CreateTick lower: %s", terr)
	}
	upperTick, terr2 := clmm.CreateTick(100, &pool, 0)
	if terr2 != nil {
		t.Fatalf("CreateTick upper: %s", terr2)
	}

	t.Run("rejects a pool price outside the slippage bounds", func(t *testing.T) {
		poolCopy := pool
		lt, ut := lowerTick, upperTick
		_, _, _, err := clmm.Create(&poolCopy, clmm.PoolKey{}, &lt, &ut, -100, 100, numeric.LiquidityFromInteger(1), numeric.SqrtPriceFromInteger(2), numeric.SqrtPriceFromInteger(3), 0)
		if err == nil {
			t.Error("expected a price-limit error when the pool's price sits below the slippage window")
		}
	})

	t.Run("succeeds when the pool price sits inside the slippage bounds", func(t *testing.T) {
		poolCopy := pool
		lt, ut := lowerTick, upperTick
		position, x, y, err := clmm.Create(&poolCopy, clmm.PoolKey{}, &lt, &ut, -100, 100, numeric.LiquidityFromInteger(1_000), numeric.SqrtPriceMin(), numeric.SqrtPriceMax(), 0)
		if err != nil {
			t.Fatalf("Create: %s", err)
		}
		if position.Liquidity.Cmp(numeric.LiquidityFromInteger(1_000)) != 0 {
			t.Errorf("position liquidity = %s, want 1000", position.Liquidity)
		}
		if x.IsZero() && y.IsZero() {
			t.Error("expected at least one non-zero funding amount for a range straddling the price")
		}
	})
}

// TestPositionRemoveReportsTickDeinitialization mirrors Position::remove's
// extra boolean outputs: a boundary tick whose liquidity_gross has
// dropped to zero after the withdrawal should be reported deinitializable.
func TestPositionRemoveReportsTickDeinitialization(t *testing.T) {
	feeTier := mustFeeTier(t, 30, 10)
	pool := clmm.NewPool(feeTier, numeric.PercentageZero(), numeric.SqrtPriceFromInteger(1), 0, clmm.AccountId("admin"), 0)

	lowerTick, _ := clmm.CreateTick(-100, &pool, 0)
	upperTick, _ := clmm.CreateTick(100, &pool, 0)

	position, _, _, err := clmm.Create(&pool, clmm.PoolKey{}, &lowerTick, &upperTick, -100, 100, numeric.LiquidityFromInteger(1_000), numeric.SqrtPriceMin(), numeric.SqrtPriceMax(), 0)
	if err != nil {
		t.Fatalf("Create: %s", err)
	}

	_, _, deinitLower, deinitUpper, rerr := position.Remove(&pool, &lowerTick, &upperTick, 0)
	if rerr != nil {
		t.Fatalf("Remove: %s", rerr)
	}
	if !deinitLower {
		t.Error("expected the lower tick to be reported empty after withdrawing the position's sole liquidity")
	}
	if !deinitUpper {
		t.Error("expected the upper tick to be reported empty after withdrawing the position's sole liquidity")
	}
}
