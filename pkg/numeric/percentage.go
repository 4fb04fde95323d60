package numeric

import "github.com/holiman/uint256"

// Percentage is a non-negative fraction stored as raw/10^12 (PercentageOne
// is 1.0). It is the scale used for pool fees and the protocol fee share.
type Percentage struct {
	raw uint64
}

const percentageScale = ScalePercentage

var percentageOne = uint64(1_000_000_000_000) // 10^12

func NewPercentage(raw uint64) Percentage { return Percentage{raw: raw} }

func PercentageFromInteger(k uint64) Percentage {
	return Percentage{raw: k * percentageOne}
}

// PercentageFromScale builds k * 10^(percentageScale - s); s must be <= scale.
func PercentageFromScale(k uint64, s uint8) Percentage {
	shift := percentageScale - int(s)
	if shift < 0 {
		panic("numeric: PercentageFromScale: scale exceeds Percentage scale")
	}
	mul := uint64(1)
	for i := 0; i < shift; i++ {
		mul *= 10
	}
	return Percentage{raw: k * mul}
}

func PercentageOne() Percentage  { return Percentage{raw: percentageOne} }
func PercentageZero() Percentage { return Percentage{} }

func (p Percentage) Get() uint64    { return p.raw }
func (p Percentage) IsZero() bool   { return p.raw == 0 }
func (p Percentage) Cmp(o Percentage) int {
	switch {
	case p.raw < o.raw:
		return -1
	case p.raw > o.raw:
		return 1
	default:
		return 0
	}
}

func (p Percentage) CheckedAdd(o Percentage) (Percentage, *Error) {
	sum := p.raw + o.raw
	if sum < p.raw {
		return Percentage{}, newErr(KindAdd, "Percentage add overflow")
	}
	return Percentage{raw: sum}, nil
}

func (p Percentage) CheckedSub(o Percentage) (Percentage, *Error) {
	if o.raw > p.raw {
		return Percentage{}, newErr(KindSub, "Percentage sub underflow")
	}
	return Percentage{raw: p.raw - o.raw}, nil
}

// bigMul multiplies two Percentage values as fractions, rounding according
// to up. Widens to uint256 so the intermediate product of two u64 values
// never loses precision before being divided back down by 10^12.
func (p Percentage) bigMul(o Percentage, up bool) (Percentage, *Error) {
	prod := new(uint256.Int).Mul(uint256.NewInt(p.raw), uint256.NewInt(o.raw))
	one := uint256.NewInt(percentageOne)
	if up {
		prod = prod.Add(prod, new(uint256.Int).Sub(one, uint256.NewInt(1)))
	}
	q := new(uint256.Int).Div(prod, one)
	if !q.IsUint64() {
		return Percentage{}, newErr(KindMul, "Percentage big_mul narrow overflow")
	}
	return Percentage{raw: q.Uint64()}, nil
}

func (p Percentage) BigMul(o Percentage) (Percentage, *Error)   { return p.bigMul(o, false) }
func (p Percentage) BigMulUp(o Percentage) (Percentage, *Error) { return p.bigMul(o, true) }

func (p Percentage) String() string {
	return formatScaled(uint256.NewInt(p.raw), percentageScale)
}
