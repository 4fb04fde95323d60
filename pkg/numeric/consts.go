package numeric

import "github.com/holiman/uint256"

// Wire-contract constants shared by every component that touches ticks,
// the tickmap, or price bounds. These values are fixed: changing them
// changes the set of prices/ticks a deployed pool can represent.
const (
	MaxTick = 665455
	MinTick = -MaxTick

	TickSearchRange = 256
	ChunkSize       = 64
	ChunkLookupSize = 64
	MaxTickCross    = 128

	MaxResultSize = 16 * 1024 * 8
)

// Decimal scales, in digits, of each scaled-integer type.
const (
	ScalePercentage          = 12
	ScaleTokenAmount          = 0
	ScaleLiquidity            = 6
	ScaleSqrtPrice            = 24
	ScaleFixedPoint           = 24
	ScaleFeeGrowth            = 28
	ScaleSecondsPerLiquidity  = 24
)

var (
	// maxU128 bounds every type whose source representation is u128
	// (TokenAmount, Liquidity, SqrtPrice, FixedPoint): 2^128 - 1.
	maxU128 = new(uint256.Int).Sub(
		new(uint256.Int).Lsh(uint256.NewInt(1), 128),
		uint256.NewInt(1),
	)

	// MaxSqrtPrice/MinSqrtPrice are part of the wire contract: a pool's
	// sqrt_price must always fall in [MinSqrtPrice, MaxSqrtPrice].
	MaxSqrtPrice = mustFromDecimal("281481114768267672330495788147852355926")
	MinSqrtPrice = mustFromDecimal("3552636207")
)

func mustFromDecimal(s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}
