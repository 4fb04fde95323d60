package numeric

import "github.com/holiman/uint256"

// Liquidity is the active-liquidity unit L, scale 6, u128 range.
type Liquidity struct {
	v *uint256.Int
}

var liquidityDenom = pow10(ScaleLiquidity)

func LiquidityZero() Liquidity { return Liquidity{v: new(uint256.Int)} }

func NewLiquidity(raw uint64) Liquidity { return Liquidity{v: uint256.NewInt(raw)} }

func LiquidityFromInteger(k uint64) Liquidity {
	return Liquidity{v: new(uint256.Int).Mul(uint256.NewInt(k), liquidityDenom)}
}

// LiquidityFromScale builds k * 10^(ScaleLiquidity - s); s must be <= scale.
func LiquidityFromScale(k uint64, s uint8) (Liquidity, *Error) {
	shift := ScaleLiquidity - int(s)
	if shift < 0 {
		return Liquidity{}, newErr(KindCast, "LiquidityFromScale: scale exceeds Liquidity scale")
	}
	return Liquidity{v: new(uint256.Int).Mul(uint256.NewInt(k), pow10(shift))}, nil
}

func liquidityFromBig(v *uint256.Int) (Liquidity, *Error) {
	if v.Gt(maxU128) {
		return Liquidity{}, newErr(KindCast, "Liquidity exceeds u128 range")
	}
	return Liquidity{v: v}, nil
}

func (l Liquidity) Raw() *uint256.Int { return new(uint256.Int).Set(l.v) }
func (l Liquidity) IsZero() bool      { return l.v.IsZero() }
func (l Liquidity) Cmp(o Liquidity) int { return l.v.Cmp(o.v) }

func (l Liquidity) CheckedAdd(o Liquidity) (Liquidity, *Error) {
	sum := new(uint256.Int).Add(l.v, o.v)
	if sum.Lt(l.v) {
		return Liquidity{}, newErr(KindAdd, "Liquidity add overflow")
	}
	return liquidityFromBig(sum)
}

func (l Liquidity) CheckedSub(o Liquidity) (Liquidity, *Error) {
	if o.v.Gt(l.v) {
		return Liquidity{}, newErr(KindSub, "Liquidity sub underflow")
	}
	return Liquidity{v: new(uint256.Int).Sub(l.v, o.v)}, nil
}

func (l Liquidity) String() string { return formatScaled(l.v, ScaleLiquidity) }
