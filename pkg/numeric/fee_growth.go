package numeric

import (
	"math/big"

	"github.com/holiman/uint256"
)

// FeeGrowth accumulates fee-per-unit-liquidity, scale 28, full U256 range.
// Unlike the u128 types above it is allowed to wrap: global fee growth
// counters only ever move forward and differences are taken mod 2^256, the
// same trick Uniswap-style accumulators use to avoid an ever-growing width.
type FeeGrowth struct {
	v *uint256.Int
}

var (
	feeGrowthDenom = pow10(ScaleFeeGrowth)
	twoPow256      = new(big.Int).Lsh(big.NewInt(1), 256)
)

func FeeGrowthZero() FeeGrowth { return FeeGrowth{v: new(uint256.Int)} }

func NewFeeGrowth(raw uint64) FeeGrowth { return FeeGrowth{v: uint256.NewInt(raw)} }

func FeeGrowthFromBig(v *uint256.Int) FeeGrowth { return FeeGrowth{v: new(uint256.Int).Set(v)} }

func FeeGrowthFromInteger(k uint64) FeeGrowth {
	return FeeGrowth{v: new(uint256.Int).Mul(uint256.NewInt(k), feeGrowthDenom)}
}

func (f FeeGrowth) Raw() *uint256.Int   { return new(uint256.Int).Set(f.v) }
func (f FeeGrowth) IsZero() bool        { return f.v.IsZero() }
func (f FeeGrowth) Cmp(o FeeGrowth) int { return f.v.Cmp(o.v) }

// UncheckedAdd wraps mod 2^256, mirroring the source's unchecked_add on the
// global fee growth accumulators.
func (f FeeGrowth) UncheckedAdd(o FeeGrowth) FeeGrowth {
	return FeeGrowth{v: new(uint256.Int).Add(f.v, o.v)}
}

// UncheckedSub wraps mod 2^256, used by Tick.cross and fee-growth-inside to
// take a difference across counters that may have each wrapped independently.
func (f FeeGrowth) UncheckedSub(o FeeGrowth) FeeGrowth {
	return FeeGrowth{v: new(uint256.Int).Sub(f.v, o.v)}
}

// ToFee multiplies a fee-growth delta by a liquidity amount and narrows the
// product back down to a TokenAmount, rounding down. The true product can
// need up to 256+128=384 bits, beyond a single uint256.Int, so the
// intermediate is computed with math/big and reduced mod 2^256 before the
// final division — matching the wrapping multiplication the source performs
// on its U384 intermediate.
func (f FeeGrowth) ToFee(l Liquidity) TokenAmount {
	prod := new(big.Int).Mul(f.v.ToBig(), l.v.ToBig())
	prod.Mod(prod, twoPow256)
	denom := new(big.Int).Mul(bigPow10(ScaleFeeGrowth), bigPow10(ScaleLiquidity))
	q := new(big.Int).Div(prod, denom)
	out, _ := uint256.FromBig(q)
	amt, err := tokenAmountFromBig(out)
	if err != nil {
		// The quotient of a wrapped 256-bit value by 10^34 can exceed the
		// u128 range (it reaches about 1.2e43); ToFee then returns a zero
		// amount.
		return TokenAmountZero()
	}
	return amt
}

func bigPow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// FromAmountAndLiquidity is the inverse accumulation step: given a fee
// amount collected and the liquidity it was collected over, returns the
// fee-growth-per-liquidity increment (rounded down, per the source's
// from_fee_amount).
func FeeGrowthFromAmountAndLiquidity(amount TokenAmount, l Liquidity) FeeGrowth {
	if l.IsZero() {
		return FeeGrowthZero()
	}
	num := new(big.Int).Mul(amount.v.ToBig(), bigPow10(ScaleFeeGrowth))
	num.Mul(num, bigPow10(ScaleLiquidity))
	q := new(big.Int).Div(num, l.v.ToBig())
	q.Mod(q, twoPow256)
	out, _ := uint256.FromBig(q)
	return FeeGrowth{v: out}
}

func (f FeeGrowth) String() string { return formatScaled(f.v, ScaleFeeGrowth) }
