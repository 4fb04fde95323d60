package numeric

import "github.com/holiman/uint256"

// SqrtPrice is sqrt(price), scale 24, u128 range. Pools and swap steps
// operate entirely in sqrt-price space; price itself is never materialized.
type SqrtPrice struct {
	v *uint256.Int
}

var sqrtPriceDenom = pow10(ScaleSqrtPrice)

func SqrtPriceZero() SqrtPrice { return SqrtPrice{v: new(uint256.Int)} }

func NewSqrtPrice(raw uint64) SqrtPrice { return SqrtPrice{v: uint256.NewInt(raw)} }

func SqrtPriceFromBig(v *uint256.Int) (SqrtPrice, *Error) {
	if v.Gt(maxU128) {
		return SqrtPrice{}, newErr(KindCast, "SqrtPrice exceeds u128 range")
	}
	return SqrtPrice{v: new(uint256.Int).Set(v)}, nil
}

func SqrtPriceFromInteger(k uint64) SqrtPrice {
	return SqrtPrice{v: new(uint256.Int).Mul(uint256.NewInt(k), sqrtPriceDenom)}
}

func (s SqrtPrice) Raw() *uint256.Int   { return new(uint256.Int).Set(s.v) }
func (s SqrtPrice) IsZero() bool        { return s.v.IsZero() }
func (s SqrtPrice) Cmp(o SqrtPrice) int { return s.v.Cmp(o.v) }

func (s SqrtPrice) CheckedAdd(o SqrtPrice) (SqrtPrice, *Error) {
	sum := new(uint256.Int).Add(s.v, o.v)
	if sum.Lt(s.v) {
		return SqrtPrice{}, newErr(KindAdd, "SqrtPrice add overflow")
	}
	return SqrtPriceFromBig(sum)
}

func (s SqrtPrice) CheckedSub(o SqrtPrice) (SqrtPrice, *Error) {
	if o.v.Gt(s.v) {
		return SqrtPrice{}, newErr(KindSub, "SqrtPrice sub underflow")
	}
	return SqrtPrice{v: new(uint256.Int).Sub(s.v, o.v)}, nil
}

// InBounds reports whether s falls within [MinSqrtPrice, MaxSqrtPrice], the
// wire-contract range a pool's sqrt_price must always stay inside.
func (s SqrtPrice) InBounds() bool {
	return !s.v.Lt(MinSqrtPrice) && !s.v.Gt(MaxSqrtPrice)
}

func SqrtPriceMax() SqrtPrice { return SqrtPrice{v: new(uint256.Int).Set(MaxSqrtPrice)} }
func SqrtPriceMin() SqrtPrice { return SqrtPrice{v: new(uint256.Int).Set(MinSqrtPrice)} }

func (s SqrtPrice) String() string { return formatScaled(s.v, ScaleSqrtPrice) }
