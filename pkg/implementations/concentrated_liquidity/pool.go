// Package concentrated_liquidity adapts the invariant-clmm engine
// (pkg/clmm) to the framework's venue-agnostic LiquidityPool interface, the
// same role the teacher's daoleno/uniswapv3-sdk wrapper used to play.
package concentrated_liquidity

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/johnayoung/go-invariant-clmm/pkg/clmm"
	"github.com/johnayoung/go-invariant-clmm/pkg/mechanisms"
	"github.com/johnayoung/go-invariant-clmm/pkg/numeric"
	"github.com/johnayoung/go-invariant-clmm/pkg/primitives"
)

var (
	// ErrInvalidPoolParams is returned when pool parameters are invalid
	ErrInvalidPoolParams = errors.New("invalid pool parameters")

	// ErrInvalidTickRange is returned when tick range is invalid
	ErrInvalidTickRange = errors.New("invalid tick range: tickLower must be less than tickUpper")

	// ErrInsufficientLiquidity is returned when there's insufficient liquidity
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)

// sqrtPriceDenom is 10^ScaleSqrtPrice, the fixed-point denominator
// SqrtPrice.Raw() is measured against, mirroring how the original wrapper
// converted a Q64.96 sqrt price back into a plain decimal.
var sqrtPriceDenom = new(big.Float).SetInt(pow10Big(numeric.ScaleSqrtPrice))

func pow10Big(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Pool implements the LiquidityPool interface over a single pool tracked by
// the underlying registry. It is a thin adapter: all of the actual
// concentrated-liquidity math lives in pkg/clmm, the way the original
// wrapper deferred its math to the Uniswap V3 SDK.
type Pool struct {
	poolID   string
	registry *clmm.PoolRegistry
	poolKey  clmm.PoolKey
	caller   clmm.AccountId
}

// NewPool creates a new concentrated liquidity pool backed by its own
// single-pool registry, admitting feeTier and opening the pool at
// (initSqrtPrice, initTick). caller is the account every AddLiquidity/
// RemoveLiquidity call through this adapter acts as; in a multi-tenant
// host this would come from the request context instead.
func NewPool(
	poolID string,
	tokenX, tokenY clmm.TokenId,
	feeTier clmm.FeeTier,
	admin clmm.AccountId,
	caller clmm.AccountId,
	initSqrtPrice numeric.SqrtPrice,
	initTick int32,
	now uint64,
) (*Pool, error) {
	if poolID == "" {
		return nil, errors.New("poolID cannot be empty")
	}
	if tokenX == tokenY {
		return nil, fmt.Errorf("%w: tokenX and tokenY must differ", ErrInvalidPoolParams)
	}

	registry := clmm.NewPoolRegistry(admin, numeric.PercentageZero(), nil)
	if err := registry.AddFeeTier(admin, feeTier); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPoolParams, err)
	}

	poolKey, err := registry.CreatePool(tokenX, tokenY, feeTier, initSqrtPrice, initTick, admin, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPoolParams, err)
	}

	return &Pool{
		poolID:   poolID,
		registry: registry,
		poolKey:  poolKey,
		caller:   caller,
	}, nil
}

// Mechanism returns the mechanism type identifier.
func (p *Pool) Mechanism() mechanisms.MechanismType {
	return mechanisms.MechanismTypeLiquidityPool
}

// Venue returns the venue identifier.
func (p *Pool) Venue() string {
	return "invariant"
}

// Calculate returns the pool's current state. params is accepted for
// interface compliance but unused: unlike the original SDK wrapper, which
// had no persistent pool object and had to be fed tick/price/liquidity on
// every call, this adapter tracks its own pool through the registry.
func (p *Pool) Calculate(ctx context.Context, params mechanisms.PoolParams) (mechanisms.PoolState, error) {
	pool, err := p.registry.GetPool(p.poolKey)
	if err != nil {
		return mechanisms.PoolState{}, fmt.Errorf("%w: %s", ErrInvalidPoolParams, err)
	}

	spotPrice, err := p.spotPrice(pool.SqrtPrice)
	if err != nil {
		return mechanisms.PoolState{}, err
	}

	liquidityDec, err := primitives.NewDecimalFromString(pool.Liquidity.String())
	if err != nil {
		return mechanisms.PoolState{}, fmt.Errorf("invalid liquidity decimal: %w", err)
	}
	liquidityAmount, err := primitives.NewAmount(liquidityDec)
	if err != nil {
		return mechanisms.PoolState{}, fmt.Errorf("invalid liquidity: %w", err)
	}

	feesXDec, err := primitives.NewDecimalFromString(pool.FeeProtocolTokenX.String())
	if err != nil {
		return mechanisms.PoolState{}, fmt.Errorf("invalid fee_x decimal: %w", err)
	}
	feesX, err := primitives.NewAmount(feesXDec)
	if err != nil {
		return mechanisms.PoolState{}, fmt.Errorf("invalid fee_x: %w", err)
	}

	feesYDec, err := primitives.NewDecimalFromString(pool.FeeProtocolTokenY.String())
	if err != nil {
		return mechanisms.PoolState{}, fmt.Errorf("invalid fee_y decimal: %w", err)
	}
	feesY, err := primitives.NewAmount(feesYDec)
	if err != nil {
		return mechanisms.PoolState{}, fmt.Errorf("invalid fee_y: %w", err)
	}

	return mechanisms.PoolState{
		SpotPrice:          spotPrice,
		Liquidity:          liquidityAmount,
		EffectiveLiquidity: liquidityAmount,
		AccumulatedFeesA:   feesX,
		AccumulatedFeesB:   feesY,
		Metadata: map[string]interface{}{
			"current_tick": pool.CurrentTickIndex,
			"sqrt_price":   pool.SqrtPrice.String(),
			"tick_spacing": p.poolKey.FeeTier.TickSpacing,
			"pool_id":      p.poolID,
		},
	}, nil
}

// spotPrice converts a raw SqrtPrice into a primitives.Price by squaring its
// decimal value, the same (sqrt_price)^2 derivation the original wrapper
// did over a Q64.96 value, adapted to this engine's fixed-point scale.
func (p *Pool) spotPrice(sqrtPrice numeric.SqrtPrice) (primitives.Price, error) {
	raw := new(big.Float).SetInt(sqrtPrice.Raw().ToBig())
	scaled := new(big.Float).Quo(raw, sqrtPriceDenom)
	price := new(big.Float).Mul(scaled, scaled)

	priceRat, _ := price.Rat(nil)
	priceDec, err := primitives.NewDecimalFromString(priceRat.FloatString(18))
	if err != nil {
		return primitives.Price{}, fmt.Errorf("invalid price decimal: %w", err)
	}
	spotPrice, err := primitives.NewPrice(priceDec)
	if err != nil {
		return primitives.Price{}, fmt.Errorf("invalid spot price: %w", err)
	}
	return spotPrice, nil
}

// AddLiquidity satisfies the LiquidityPool interface but cannot open a
// concentrated-liquidity position on its own: TokenAmounts carries no tick
// range or slippage bounds. Callers on this venue should use
// CreatePosition directly, which takes the range a concentrated position
// needs; this method exists only so Pool type-checks as a LiquidityPool.
func (p *Pool) AddLiquidity(ctx context.Context, amounts mechanisms.TokenAmounts) (mechanisms.PoolPosition, error) {
	return mechanisms.PoolPosition{}, errors.New("AddLiquidity: concentrated liquidity requires a tick range; call CreatePosition instead")
}

// CreatePosition opens a position over [tickLower, tickUpper) with
// liquidityDelta, within [slippageLower, slippageUpper] of the pool's
// current sqrt price. The returned PoolPosition's metadata carries the
// owner and the tick range only; RemoveLiquidity also needs the position's
// "index" and a "now" timestamp set in that metadata.
func (p *Pool) CreatePosition(ctx context.Context, tickLower, tickUpper int32, liquidityDelta numeric.Liquidity, slippageLower, slippageUpper numeric.SqrtPrice, nowMillis uint64) (mechanisms.PoolPosition, error) {
	position, amountX, amountY, err := p.registry.CreatePosition(p.caller, p.poolKey, tickLower, tickUpper, liquidityDelta, slippageLower, slippageUpper, nowMillis)
	if err != nil {
		return mechanisms.PoolPosition{}, fmt.Errorf("%w: %s", ErrInsufficientLiquidity, err)
	}

	amountXDec, err := primitives.NewDecimalFromString(amountX.String())
	if err != nil {
		return mechanisms.PoolPosition{}, fmt.Errorf("invalid amount_x decimal: %w", err)
	}
	depositedX, err := primitives.NewAmount(amountXDec)
	if err != nil {
		return mechanisms.PoolPosition{}, fmt.Errorf("invalid amount_x: %w", err)
	}

	amountYDec, err := primitives.NewDecimalFromString(amountY.String())
	if err != nil {
		return mechanisms.PoolPosition{}, fmt.Errorf("invalid amount_y decimal: %w", err)
	}
	depositedY, err := primitives.NewAmount(amountYDec)
	if err != nil {
		return mechanisms.PoolPosition{}, fmt.Errorf("invalid amount_y: %w", err)
	}

	liquidityDec, err := primitives.NewDecimalFromString(position.Liquidity.String())
	if err != nil {
		return mechanisms.PoolPosition{}, fmt.Errorf("invalid liquidity decimal: %w", err)
	}
	liquidityAmount, err := primitives.NewAmount(liquidityDec)
	if err != nil {
		return mechanisms.PoolPosition{}, fmt.Errorf("invalid liquidity: %w", err)
	}

	return mechanisms.PoolPosition{
		PoolID:    p.poolID,
		Liquidity: liquidityAmount,
		TokensDeposited: mechanisms.TokenAmounts{
			AmountA: depositedX,
			AmountB: depositedY,
		},
		Metadata: map[string]interface{}{
			"owner":      string(p.caller),
			"tick_lower": tickLower,
			"tick_upper": tickUpper,
		},
	}, nil
}

// RemoveLiquidity closes the position identified by position's metadata
// ("owner", "index") entirely, returning the withdrawn token amounts plus
// any unpaid fees.
//
// Required metadata fields:
//   - "owner" (string): the account the position is held under
//   - "index" (uint32): the position's index under that owner
//   - "now" (uint64): current timestamp in seconds
func (p *Pool) RemoveLiquidity(ctx context.Context, position mechanisms.PoolPosition) (mechanisms.TokenAmounts, error) {
	ownerStr, ok := position.Metadata["owner"].(string)
	if !ok {
		return mechanisms.TokenAmounts{}, errors.New("owner required in position metadata")
	}
	index, ok := position.Metadata["index"].(uint32)
	if !ok {
		return mechanisms.TokenAmounts{}, errors.New("index required in position metadata")
	}
	now, ok := position.Metadata["now"].(uint64)
	if !ok {
		return mechanisms.TokenAmounts{}, errors.New("now required in position metadata")
	}

	amountX, amountY, err := p.registry.RemovePosition(clmm.AccountId(ownerStr), index, now)
	if err != nil {
		return mechanisms.TokenAmounts{}, fmt.Errorf("%w: %s", ErrInsufficientLiquidity, err)
	}

	amountXDec, err := primitives.NewDecimalFromString(amountX.String())
	if err != nil {
		return mechanisms.TokenAmounts{}, fmt.Errorf("invalid amount_x decimal: %w", err)
	}
	amountA, err := primitives.NewAmount(amountXDec)
	if err != nil {
		return mechanisms.TokenAmounts{}, fmt.Errorf("invalid amount_x: %w", err)
	}

	amountYDec, err := primitives.NewDecimalFromString(amountY.String())
	if err != nil {
		return mechanisms.TokenAmounts{}, fmt.Errorf("invalid amount_y decimal: %w", err)
	}
	amountB, err := primitives.NewAmount(amountYDec)
	if err != nil {
		return mechanisms.TokenAmounts{}, fmt.Errorf("invalid amount_y: %w", err)
	}

	return mechanisms.TokenAmounts{
		AmountA: amountA,
		AmountB: amountB,
	}, nil
}

// CalculatePositionValue values a position at currentPriceA/currentPriceB,
// combining its current token amounts (withdrawn via RemoveLiquidity) at
// the supplied market prices.
func (p *Pool) CalculatePositionValue(
	ctx context.Context,
	position mechanisms.PoolPosition,
	currentPriceA primitives.Price,
	currentPriceB primitives.Price,
) (primitives.Amount, error) {
	amounts, err := p.RemoveLiquidity(ctx, position)
	if err != nil {
		return primitives.ZeroAmount(), err
	}

	valueA := amounts.AmountA.MulPrice(currentPriceA)
	valueB := amounts.AmountB.MulPrice(currentPriceB)

	return valueA.Add(valueB), nil
}
