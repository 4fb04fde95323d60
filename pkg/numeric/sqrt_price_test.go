package numeric_test

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/johnayoung/go-invariant-clmm/pkg/numeric"
)

func mustSqrtPrice(t *testing.T, dec string) numeric.SqrtPrice {
	t.Helper()
	raw, err := uint256.FromDecimal(dec)
	if err != nil {
		t.Fatalf("uint256.FromDecimal(%s): %s", dec, err)
	}
	sp, serr := numeric.SqrtPriceFromBig(raw)
	if serr != nil {
		t.Fatalf("SqrtPriceFromBig(%s): %s", dec, serr)
	}
	return sp
}

// TestSqrtPriceFromTick mirrors test_calculate_sqrt_price: sqrt(1.0001)^tick
// computed via the binary-decomposition factor table, checked against the
// same literal scale-24 values the source asserts.
func TestSqrtPriceFromTick(t *testing.T) {
	cases := []struct {
		name string
		tick int32
		want string
	}{
		{"tick zero is exactly 1", 0, "1000000000000000000000000"},
		{"tick 20000", 20_000, "2718145926825224864037656"},
		{"tick 200000", 200_000, "22015456048552198645701365772"},
		{"tick -20000", -20_000, "367897834377123709894002"},
		{"tick -200000", -200_000, "45422633889328990341"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := numeric.SqrtPriceFromTick(c.tick)
			if err != nil {
				t.Fatalf("SqrtPriceFromTick(%d): %s", c.tick, err)
			}
			want := mustSqrtPrice(t, c.want)
			if got.Cmp(want) != 0 {
				t.Errorf("SqrtPriceFromTick(%d) = %s, want %s", c.tick, got, want)
			}
		})
	}
}

// TestSqrtPriceFromTickOutOfBounds mirrors test_domain_calculate_sqrt_price:
// one tick beyond the domain on either side is rejected.
func TestSqrtPriceFromTickOutOfBounds(t *testing.T) {
	if _, err := numeric.SqrtPriceFromTick(numeric.MaxTick + 1); err == nil {
		t.Error("expected an error one tick above MaxTick")
	}
	if _, err := numeric.SqrtPriceFromTick(-numeric.MaxTick - 1); err == nil {
		t.Error("expected an error one tick below MinTick")
	}
}

// TestTickAtSqrtPriceRoundTrip is new coverage: TickAtSqrtPrice should
// invert SqrtPriceFromTick at tick spacing 1 for every tick this checks,
// since that's the property every tick-crossing computation in a swap
// depends on.
func TestTickAtSqrtPriceRoundTrip(t *testing.T) {
	ticks := []int32{0, 1, -1, 100, -100, 20_000, -20_000, 200_000, -200_000}
	for _, tick := range ticks {
		sp, err := numeric.SqrtPriceFromTick(tick)
		if err != nil {
			t.Fatalf("SqrtPriceFromTick(%d): %s", tick, err)
		}
		got, terr := numeric.TickAtSqrtPrice(sp, 1)
		if terr != nil {
			t.Fatalf("TickAtSqrtPrice: %s", terr)
		}
		if got != tick {
			t.Errorf("TickAtSqrtPrice(SqrtPriceFromTick(%d)) = %d, want %d", tick, got, tick)
		}
	}
}

// TestTickAtSqrtPriceAlignsToSpacing is new coverage for the
// tick-spacing-alignment step TickAtSqrtPrice applies after locating the
// nearest tick.
func TestTickAtSqrtPriceAlignsToSpacing(t *testing.T) {
	sp, err := numeric.SqrtPriceFromTick(23)
	if err != nil {
		t.Fatalf("SqrtPriceFromTick: %s", err)
	}
	got, terr := numeric.TickAtSqrtPrice(sp, 10)
	if terr != nil {
		t.Fatalf("TickAtSqrtPrice: %s", terr)
	}
	if got%10 != 0 {
		t.Errorf("expected a tick aligned to spacing 10, got %d", got)
	}
}

func TestGetMinMaxSqrtPrice(t *testing.T) {
	minSP := numeric.GetMinSqrtPrice(10)
	maxSP := numeric.GetMaxSqrtPrice(10)
	if minSP.Cmp(maxSP) >= 0 {
		t.Error("expected GetMinSqrtPrice to be strictly less than GetMaxSqrtPrice")
	}
	if !minSP.InBounds() || !maxSP.InBounds() {
		t.Error("expected both bounds to report themselves in range")
	}
}
