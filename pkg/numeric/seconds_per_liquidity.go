package numeric

import (
	"math/big"

	"github.com/holiman/uint256"
)

// SecondsPerLiquidity accumulates elapsed seconds per unit of active
// liquidity, scale 24, full U256 range with wrap-around accumulation like
// FeeGrowth.
type SecondsPerLiquidity struct {
	v *uint256.Int
}

var secondsPerLiquidityDenom = pow10(ScaleSecondsPerLiquidity)

func SecondsPerLiquidityZero() SecondsPerLiquidity {
	return SecondsPerLiquidity{v: new(uint256.Int)}
}

func SecondsPerLiquidityFromBig(v *uint256.Int) SecondsPerLiquidity {
	return SecondsPerLiquidity{v: new(uint256.Int).Set(v)}
}

func (s SecondsPerLiquidity) Raw() *uint256.Int   { return new(uint256.Int).Set(s.v) }
func (s SecondsPerLiquidity) Cmp(o SecondsPerLiquidity) int { return s.v.Cmp(o.v) }

func (s SecondsPerLiquidity) UncheckedAdd(o SecondsPerLiquidity) SecondsPerLiquidity {
	return SecondsPerLiquidity{v: new(uint256.Int).Add(s.v, o.v)}
}

func (s SecondsPerLiquidity) UncheckedSub(o SecondsPerLiquidity) SecondsPerLiquidity {
	return SecondsPerLiquidity{v: new(uint256.Int).Sub(s.v, o.v)}
}

// Accumulate returns the counter increment durationSeconds / l (zero when
// l is zero). Pool.UpdateSecondsPerLiquidityGlobal adds it to the global
// counter when a position is modified or its inside snapshot is refreshed.
func Accumulate(l Liquidity, durationSeconds uint64) SecondsPerLiquidity {
	if l.IsZero() {
		return SecondsPerLiquidityZero()
	}
	num := new(big.Int).Mul(big.NewInt(int64(durationSeconds)), bigPow10(ScaleSecondsPerLiquidity))
	num.Mul(num, bigPow10(ScaleLiquidity))
	q := new(big.Int).Div(num, l.v.ToBig())
	q.Mod(q, twoPow256)
	out, _ := uint256.FromBig(q)
	return SecondsPerLiquidity{v: out}
}

func (s SecondsPerLiquidity) String() string { return formatScaled(s.v, ScaleSecondsPerLiquidity) }
