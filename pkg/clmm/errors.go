// Package clmm implements the concentrated-liquidity pool engine: ticks,
// positions, the pool registry, and multi-hop swap routing, all built on
// top of the scaled-integer math in pkg/numeric and the bitmap in
// pkg/tickmap.
package clmm

import (
	"errors"
	"fmt"

	"github.com/johnayoung/go-invariant-clmm/pkg/numeric"
)

// Kind is the flat, non-nested error taxonomy the core's commands and
// queries report failures with.
type Kind int

const (
	KindInvalidFeeTier Kind = iota
	KindInvalidTickSpacing
	KindInvalidTickIndex
	KindInvalidInitTick
	KindInvalidInitSqrtPrice
	KindTokensAreSame
	KindFeeTierAlreadyExist
	KindFeeTierNotFound
	KindPoolAlreadyExist
	KindPoolNotFound
	KindTickNotFound
	KindPositionNotFound
	KindZeroLiquidity
	KindLiquidityChangeZero
	KindAmountIsZero
	KindInsufficientLiquidity
	KindInvalidTickLiquidity
	KindPriceLimitReached
	KindNoGainSwap
	KindTickLimitReached
	KindTransferError
	KindNotAdmin
	KindInvalidSize
	KindNumericError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidFeeTier:
		return "InvalidFeeTier"
	case KindInvalidTickSpacing:
		return "InvalidTickSpacing"
	case KindInvalidTickIndex:
		return "InvalidTickIndex"
	case KindInvalidInitTick:
		return "InvalidInitTick"
	case KindInvalidInitSqrtPrice:
		return "InvalidInitSqrtPrice"
	case KindTokensAreSame:
		return "TokensAreSame"
	case KindFeeTierAlreadyExist:
		return "FeeTierAlreadyExist"
	case KindFeeTierNotFound:
		return "FeeTierNotFound"
	case KindPoolAlreadyExist:
		return "PoolAlreadyExist"
	case KindPoolNotFound:
		return "PoolNotFound"
	case KindTickNotFound:
		return "TickNotFound"
	case KindPositionNotFound:
		return "PositionNotFound"
	case KindZeroLiquidity:
		return "ZeroLiquidity"
	case KindLiquidityChangeZero:
		return "LiquidityChangeZero"
	case KindAmountIsZero:
		return "AmountIsZero"
	case KindInsufficientLiquidity:
		return "InsufficientLiquidity"
	case KindInvalidTickLiquidity:
		return "InvalidTickLiquidity"
	case KindPriceLimitReached:
		return "PriceLimitReached"
	case KindNoGainSwap:
		return "NoGainSwap"
	case KindTickLimitReached:
		return "TickLimitReached"
	case KindTransferError:
		return "TransferError"
	case KindNotAdmin:
		return "NotAdmin"
	case KindInvalidSize:
		return "InvalidSize"
	case KindNumericError:
		return "NumericError"
	default:
		return "Unknown"
	}
}

// Error is a domain-level failure. It optionally carries the *numeric.Error
// that caused it, so a caller debugging an unexpected overflow still sees
// the full arithmetic trace, per the propagation rule that truly
// unexpected overflows surface with their trace intact.
type Error struct {
	Kind    Kind
	Message string
	Numeric *numeric.Error
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// wrapNumeric converts a *numeric.Error into a domain Error. Components
// call this at the boundary where a numeric failure becomes a user-facing
// one, per the spec's "convert numeric errors that are structurally
// expected... surface truly unexpected overflows with their trace intact"
// rule: the numeric trace is always retained on Numeric, only Kind and
// Message are domain-specific.
func wrapNumeric(kind Kind, context string, err *numeric.Error) *Error {
	return &Error{Kind: kind, Message: context, Numeric: err}
}

func (e *Error) Error() string {
	if e.Numeric != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Numeric)
	}
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Numeric == nil {
		return nil
	}
	return e.Numeric
}

// Is lets errors.Is match on Kind alone.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}
