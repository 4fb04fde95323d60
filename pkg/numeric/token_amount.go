package numeric

import "github.com/holiman/uint256"

// TokenAmount is a raw token quantity, scale 0, backed by a u128 range
// value. Swap inputs/outputs and reserves are all TokenAmount.
type TokenAmount struct {
	v *uint256.Int
}

func TokenAmountZero() TokenAmount { return TokenAmount{v: new(uint256.Int)} }

func NewTokenAmount(raw uint64) TokenAmount {
	return TokenAmount{v: uint256.NewInt(raw)}
}

func tokenAmountFromBig(v *uint256.Int) (TokenAmount, *Error) {
	if v.Gt(maxU128) {
		return TokenAmount{}, newErr(KindCast, "TokenAmount exceeds u128 range")
	}
	return TokenAmount{v: v}, nil
}

func (a TokenAmount) Raw() *uint256.Int { return new(uint256.Int).Set(a.v) }
func (a TokenAmount) IsZero() bool      { return a.v.IsZero() }

func (a TokenAmount) Cmp(b TokenAmount) int { return a.v.Cmp(b.v) }

func (a TokenAmount) CheckedAdd(b TokenAmount) (TokenAmount, *Error) {
	sum := new(uint256.Int).Add(a.v, b.v)
	if sum.Lt(a.v) {
		return TokenAmount{}, newErr(KindAdd, "TokenAmount add overflow")
	}
	return tokenAmountFromBig(sum)
}

func (a TokenAmount) CheckedSub(b TokenAmount) (TokenAmount, *Error) {
	if b.v.Gt(a.v) {
		return TokenAmount{}, newErr(KindSub, "TokenAmount sub underflow")
	}
	return TokenAmount{v: new(uint256.Int).Sub(a.v, b.v)}, nil
}

// CheckedMulPercentageUp multiplies by a fee percentage and rounds the
// quotient up, the way protocol/pool fee splits are computed so that the
// sum of the two halves never shorts the pool.
func (a TokenAmount) CheckedMulPercentageUp(p Percentage) (TokenAmount, *Error) {
	prod := new(uint256.Int).Mul(a.v, uint256.NewInt(p.Get()))
	one := uint256.NewInt(percentageOne)
	num := new(uint256.Int).Add(prod, new(uint256.Int).Sub(one, uint256.NewInt(1)))
	q := new(uint256.Int).Div(num, one)
	return tokenAmountFromBig(q)
}

func (a TokenAmount) CheckedMulPercentage(p Percentage) (TokenAmount, *Error) {
	prod := new(uint256.Int).Mul(a.v, uint256.NewInt(p.Get()))
	q := new(uint256.Int).Div(prod, uint256.NewInt(percentageOne))
	return tokenAmountFromBig(q)
}

func (a TokenAmount) String() string { return formatScaled(a.v, ScaleTokenAmount) }
