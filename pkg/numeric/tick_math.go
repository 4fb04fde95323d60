package numeric

import "github.com/holiman/uint256"

// sqrtPriceTickFactors is the binary decomposition of sqrt(1.0001)^(2^i),
// expressed as scale-24 fixed-point values, one per set bit of |tick|.
// SqrtPriceFromTick multiplies in the ones whose bit is set, the same way
// fast exponentiation decomposes a power into squarings.
var sqrtPriceTickFactors = []uint64DecString{
	{0x1, "1000049998750062496094023"},
	{0x2, "1000100000000000000000000"},
	{0x4, "1000200010000000000000000"},
	{0x8, "1000400060004000100000000"},
	{0x10, "1000800280056007000560028"},
	{0x20, "1001601200560182043688009"},
	{0x40, "1003204964963598014666528"},
	{0x80, "1006420201727613920156533"},
	{0x100, "1012881622445451097078095"},
	{0x200, "1025929181087729343658708"},
	{0x400, "1052530684607338948386589"},
	{0x800, "1107820842039993613899215"},
	{0x1000, "1227267018058200482050503"},
	{0x2000, "1506184333613467388107955"},
	{0x4000, "2268591246822644826925609"},
	{0x8000, "5146506245160322222537991"},
	{0x10000, "26486526531474198664033811"},
	{0x20000, "701536087702486644953017488"},
	{0x40000, "492152882348911033633683861778"},
	{0x80000, "242214459604341065650571799093539783"},
}

type uint64DecString struct {
	bit int
	dec string
}

var sqrtPriceTickFactorValues []FixedPoint

func init() {
	sqrtPriceTickFactorValues = make([]FixedPoint, len(sqrtPriceTickFactors))
	for i, f := range sqrtPriceTickFactors {
		v, err := uint256.FromDecimal(f.dec)
		if err != nil {
			panic(err)
		}
		sqrtPriceTickFactorValues[i] = FixedPoint{v: v}
	}
}

// SqrtPriceFromTick computes sqrt(1.0001)^tick as a SqrtPrice, via binary
// decomposition of |tick| into the precomputed per-bit factors above,
// inverting the product when tick is negative.
func SqrtPriceFromTick(tick int32) (SqrtPrice, *Error) {
	abs := tick
	if abs < 0 {
		abs = -abs
	}
	if abs > MaxTick {
		return SqrtPrice{}, newErr(KindCast, "tick over bounds")
	}

	acc := FixedPointFromInteger(1)
	for i, f := range sqrtPriceTickFactors {
		if abs&f.bit != 0 {
			acc = acc.Mul(sqrtPriceTickFactorValues[i])
		}
	}

	if tick >= 0 {
		return SqrtPriceFromBig(acc.Raw())
	}
	inv, err := acc.Invert()
	if err != nil {
		return SqrtPrice{}, err.Wrap("SqrtPriceFromTick")
	}
	return SqrtPriceFromBig(inv.Raw())
}

// GetMaxTick/GetMinTick are the largest/smallest ticks reachable with the
// given spacing, i.e. MaxTick/MinTick rounded toward zero to a multiple of
// spacing.
func GetMaxTick(tickSpacing uint16) int32 {
	s := int32(tickSpacing)
	return (MaxTick / s) * s
}

func GetMinTick(tickSpacing uint16) int32 {
	s := int32(tickSpacing)
	return (MinTick / s) * s
}

func GetMaxSqrtPrice(tickSpacing uint16) SqrtPrice {
	sp, _ := SqrtPriceFromTick(GetMaxTick(tickSpacing))
	return sp
}

func GetMinSqrtPrice(tickSpacing uint16) SqrtPrice {
	sp, _ := SqrtPriceFromTick(GetMinTick(tickSpacing))
	return sp
}

// AlignTickToSpacing rounds tick down towards -infinity to the nearest
// multiple of spacing, matching the source's use of rem_euclid on the
// negative side so that e.g. -14 aligns to -20, not -10.
func AlignTickToSpacing(tick, tickSpacing int32) int32 {
	if tick > 0 {
		return tick - tick%tickSpacing
	}
	rem := tick % tickSpacing
	if rem < 0 {
		rem += tickSpacing
	}
	return tick - rem
}

const (
	log2Scale              = 64
	log2One          uint64 = 1 << log2Scale
	log2Half         uint64 = log2One >> 1
	log2Two          uint64 = log2One << 1
	log2Sqrt10001    uint64 = 1330584781654116
	log2NegativeLose uint64 = 1330580000000000 * 7 / 9
	log2MinBinaryPos        = 46
)

var log2Accuracy uint64 = 1 << (63 - log2MinBinaryPos)

func sqrtPriceToX64(sp SqrtPrice) *uint256.Int {
	num := new(uint256.Int).Mul(sp.v, uint256.NewInt(log2One))
	return new(uint256.Int).Div(num, sqrtPriceDenom)
}

func log2FloorX64(x *uint256.Int) uint32 {
	var msb uint32
	v := new(uint256.Int).Set(x)
	shiftIfGe := func(bits uint, bitFlag uint32) {
		threshold := new(uint256.Int).Lsh(uint256.NewInt(1), bits)
		if v.Cmp(threshold) >= 0 {
			v.Rsh(v, bits)
			msb |= bitFlag
		}
	}
	shiftIfGe(64, 64)
	shiftIfGe(32, 32)
	shiftIfGe(16, 16)
	shiftIfGe(8, 8)
	shiftIfGe(4, 4)
	shiftIfGe(2, 2)
	if v.Cmp(uint256.NewInt(2)) >= 0 {
		msb |= 1
	}
	return msb
}

// log2IterativeApproximationX64 returns (sign, |log2(x)|<<64) where x is a
// Q64.64 fixed-point value, approximated bit by bit down to log2Accuracy.
func log2IterativeApproximationX64(xX64 *uint256.Int) (bool, *uint256.Int) {
	sign := true
	x := new(uint256.Int).Set(xX64)
	oneX64 := uint256.NewInt(0).SetUint64(log2One)

	if x.Lt(oneX64) {
		sign = false
		doubleOne := new(uint256.Int).Lsh(uint256.NewInt(1), log2Scale*2)
		denom := new(uint256.Int).Add(x, uint256.NewInt(1))
		x = new(uint256.Int).Div(doubleOne, denom)
	}

	floorShifted := new(uint256.Int).Rsh(x, log2Scale)
	log2Floor := log2FloorX64(floorShifted)
	result := new(uint256.Int).Lsh(uint256.NewInt(uint64(log2Floor)), log2Scale)

	y := new(uint256.Int).Rsh(x, uint(log2Floor))
	if y.Eq(oneX64) {
		return sign, result
	}

	delta := new(uint256.Int).SetUint64(log2Half)
	accuracy := uint256.NewInt(0).SetUint64(log2Accuracy)
	two := uint256.NewInt(0).SetUint64(log2Two)

	for delta.Gt(accuracy) {
		sq := new(uint256.Int).Mul(y, y)
		y = new(uint256.Int).Div(sq, oneX64)
		if y.Cmp(two) >= 0 {
			result.Or(result, delta)
			y.Rsh(y, 1)
		}
		delta.Rsh(delta, 1)
	}
	return sign, result
}

// TickAtSqrtPrice inverts SqrtPriceFromTick: given a sqrt_price inside the
// wire-contract range, returns the tick (aligned to tickSpacing) whose
// sqrt-price is the closest one not exceeding it on the buy side.
func TickAtSqrtPrice(sqrtPrice SqrtPrice, tickSpacing uint16) (int32, *Error) {
	if sqrtPrice.v.Gt(MaxSqrtPrice) || sqrtPrice.v.Lt(MinSqrtPrice) {
		return 0, newErr(KindCast, "sqrt_price out of range")
	}

	x64 := sqrtPriceToX64(sqrtPrice)
	sign, log2SqrtPrice := log2IterativeApproximationX64(x64)

	var absFloorTick int64
	sqrtLogConst := uint256.NewInt(0).SetUint64(log2Sqrt10001)
	if sign {
		absFloorTick = int64(new(uint256.Int).Div(log2SqrtPrice, sqrtLogConst).Uint64())
	} else {
		adjusted := new(uint256.Int).Add(log2SqrtPrice, uint256.NewInt(0).SetUint64(log2NegativeLose))
		absFloorTick = int64(new(uint256.Int).Div(adjusted, sqrtLogConst).Uint64())
	}

	var nearerTick, fartherTick int32
	if sign {
		nearerTick = int32(absFloorTick)
		fartherTick = int32(absFloorTick) + 1
	} else {
		nearerTick = -int32(absFloorTick)
		fartherTick = -int32(absFloorTick) - 1
	}

	fartherWithSpacing := AlignTickToSpacing(fartherTick, int32(tickSpacing))
	nearerWithSpacing := AlignTickToSpacing(nearerTick, int32(tickSpacing))
	if fartherWithSpacing == nearerWithSpacing {
		return nearerWithSpacing, nil
	}

	var accurateTick int32
	if sign {
		fartherSP, err := SqrtPriceFromTick(fartherTick)
		if err != nil {
			return 0, err.Wrap("TickAtSqrtPrice")
		}
		if sqrtPrice.Cmp(fartherSP) >= 0 {
			accurateTick = fartherWithSpacing
		} else {
			accurateTick = nearerWithSpacing
		}
	} else {
		nearerSP, err := SqrtPriceFromTick(nearerTick)
		if err != nil {
			return 0, err.Wrap("TickAtSqrtPrice")
		}
		if nearerSP.Cmp(sqrtPrice) <= 0 {
			accurateTick = nearerWithSpacing
		} else {
			accurateTick = fartherWithSpacing
		}
	}

	if tickSpacing > 1 {
		return AlignTickToSpacing(accurateTick, int32(tickSpacing)), nil
	}
	return accurateTick, nil
}
