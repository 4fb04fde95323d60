package numeric

import "github.com/holiman/uint256"

// FixedPoint is a general-purpose scale-24 u128 value, used by the tick/
// price conversion math where neither a Liquidity nor a SqrtPrice value is
// the right label for the intermediate.
type FixedPoint struct {
	v *uint256.Int
}

var fixedPointDenom = pow10(ScaleFixedPoint)

func FixedPointZero() FixedPoint { return FixedPoint{v: new(uint256.Int)} }

func NewFixedPoint(raw uint64) FixedPoint { return FixedPoint{v: uint256.NewInt(raw)} }

func FixedPointFromBig(v *uint256.Int) (FixedPoint, *Error) {
	if v.Gt(maxU128) {
		return FixedPoint{}, newErr(KindCast, "FixedPoint exceeds u128 range")
	}
	return FixedPoint{v: new(uint256.Int).Set(v)}, nil
}

func FixedPointFromInteger(k uint64) FixedPoint {
	return FixedPoint{v: new(uint256.Int).Mul(uint256.NewInt(k), fixedPointDenom)}
}

func (f FixedPoint) Raw() *uint256.Int   { return new(uint256.Int).Set(f.v) }
func (f FixedPoint) IsZero() bool        { return f.v.IsZero() }
func (f FixedPoint) Cmp(o FixedPoint) int { return f.v.Cmp(o.v) }

func (f FixedPoint) CheckedAdd(o FixedPoint) (FixedPoint, *Error) {
	sum := new(uint256.Int).Add(f.v, o.v)
	if sum.Lt(f.v) {
		return FixedPoint{}, newErr(KindAdd, "FixedPoint add overflow")
	}
	return FixedPointFromBig(sum)
}

func (f FixedPoint) CheckedSub(o FixedPoint) (FixedPoint, *Error) {
	if o.v.Gt(f.v) {
		return FixedPoint{}, newErr(KindSub, "FixedPoint sub underflow")
	}
	return FixedPoint{v: new(uint256.Int).Sub(f.v, o.v)}, nil
}

// Mul multiplies two scale-24 fixed-point values, truncating the quotient.
// The intermediate product of two u128 values needs up to 256 bits, which
// fits exactly in a uint256.Int.
func (f FixedPoint) Mul(o FixedPoint) FixedPoint {
	prod := new(uint256.Int).Mul(f.v, o.v)
	return FixedPoint{v: new(uint256.Int).Div(prod, fixedPointDenom)}
}

// Invert returns 1/f at scale 24, truncating. Used once, by the negative
// side of the tick-to-sqrt-price binary decomposition.
func (f FixedPoint) Invert() (FixedPoint, *Error) {
	if f.IsZero() {
		return FixedPoint{}, newErr(KindDiv, "FixedPoint invert by zero")
	}
	num := new(uint256.Int).Mul(fixedPointDenom, fixedPointDenom)
	q := new(uint256.Int).Div(num, f.v)
	return FixedPointFromBig(q)
}

func (f FixedPoint) String() string { return formatScaled(f.v, ScaleFixedPoint) }
