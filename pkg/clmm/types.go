package clmm

import (
	"fmt"

	"github.com/johnayoung/go-invariant-clmm/pkg/numeric"
)

// AccountId identifies a caller. The host binding supplies these; the core
// only compares and stores them.
type AccountId string

// TokenId identifies a fungible asset under the deterministic total order
// the core relies on to keep PoolKey canonical (token_x < token_y).
type TokenId string

// FeeTier pairs a swap fee with the tick granularity pools at that fee
// trade on. Immutable once admitted.
type FeeTier struct {
	Fee         numeric.Percentage
	TickSpacing uint16
}

func NewFeeTier(fee numeric.Percentage, tickSpacing uint16) (FeeTier, *Error) {
	if tickSpacing == 0 || tickSpacing > 100 {
		return FeeTier{}, newErr(KindInvalidTickSpacing, "tick_spacing %d out of [1, 100]", tickSpacing)
	}
	if fee.Cmp(numeric.PercentageOne()) >= 0 {
		return FeeTier{}, newErr(KindInvalidFeeTier, "fee must be < 1")
	}
	return FeeTier{Fee: fee, TickSpacing: tickSpacing}, nil
}

// PoolKey uniquely identifies a pool: an ordered token pair plus the fee
// tier it trades at. TokenX is always the smaller token under TokenId's
// natural Go string ordering, which stands in for the deterministic total
// order the spec requires. NewPoolKey sorts its two tokens into that order
// and fails only when they are equal.
type PoolKey struct {
	TokenX  TokenId
	TokenY  TokenId
	FeeTier FeeTier
}

func NewPoolKey(token0, token1 TokenId, feeTier FeeTier) (PoolKey, *Error) {
	if token0 == token1 {
		return PoolKey{}, newErr(KindTokensAreSame, "token0 == token1")
	}
	if token0 < token1 {
		return PoolKey{TokenX: token0, TokenY: token1, FeeTier: feeTier}, nil
	}
	return PoolKey{TokenX: token1, TokenY: token0, FeeTier: feeTier}, nil
}

// String renders a stable, map-key-friendly identifier; PoolKey is already
// comparable so Go maps can key on it directly, but callers that need a
// flat identifier (logs, query responses) use this.
func (k PoolKey) String() string {
	return fmt.Sprintf("%s/%s/%s@%d", k.TokenX, k.TokenY, k.FeeTier.Fee, k.FeeTier.TickSpacing)
}
