package clmm

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/johnayoung/go-invariant-clmm/pkg/numeric"
	"github.com/johnayoung/go-invariant-clmm/pkg/tickmap"
)

// positionEntry wraps a stored position; operations keyed by (owner, index)
// find its pool through the position's PoolKey.
type positionEntry struct {
	position Position
}

// poolState is everything the registry keeps about one pool: the Pool
// record itself, its ticks keyed by index, and its tickmap.
type poolState struct {
	pool    Pool
	ticks   map[int32]*Tick
	tickmap *tickmap.Tickmap
}

// PoolRegistry is the top-level in-memory store: every pool, every
// position, and the admitted fee tiers. One sync.RWMutex guards the whole
// registry; each exported command takes the write lock for its duration
// so two commands never interleave their mutations, and each query takes
// the read lock, matching the "every top-level operation is atomic" rule.
type PoolRegistry struct {
	mu sync.RWMutex

	admin       AccountId
	protocolFee numeric.Percentage

	feeTiers map[FeeTier]bool
	pools    map[PoolKey]*poolState
	// positions is keyed by owner then by a dense per-owner index (removal
	// swap-removes, so the last entry takes the freed index), the
	// same addressing scheme the command surface uses (get_position,
	// claim_fee, remove_position, transfer_position all take an index).
	positions map[AccountId][]*positionEntry

	log *logrus.Entry
}

// NewPoolRegistry creates an empty registry administered by admin, with
// protocolFee applied to every pool's fee split until changed.
func NewPoolRegistry(admin AccountId, protocolFee numeric.Percentage, log *logrus.Entry) *PoolRegistry {
	return &PoolRegistry{
		admin:       admin,
		protocolFee: protocolFee,
		feeTiers:    make(map[FeeTier]bool),
		pools:       make(map[PoolKey]*poolState),
		positions:   make(map[AccountId][]*positionEntry),
		log:         log,
	}
}

func (r *PoolRegistry) requireAdmin(caller AccountId) *Error {
	if caller != r.admin {
		return newErr(KindNotAdmin, "caller %s is not the admin", caller)
	}
	return nil
}

// AddFeeTier admits a new fee tier that pools can be created against. Only
// the admin may call it.
func (r *PoolRegistry) AddFeeTier(caller AccountId, feeTier FeeTier) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if r.feeTiers[feeTier] {
		return newErr(KindFeeTierAlreadyExist, "fee tier already admitted")
	}
	r.feeTiers[feeTier] = true
	return nil
}

// RemoveFeeTier withdraws a fee tier from the admitted set. Pools already
// created at that fee tier are unaffected.
func (r *PoolRegistry) RemoveFeeTier(caller AccountId, feeTier FeeTier) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if !r.feeTiers[feeTier] {
		return newErr(KindFeeTierNotFound, "fee tier not admitted")
	}
	delete(r.feeTiers, feeTier)
	return nil
}

// FeeTierExist reports whether feeTier is currently admitted.
func (r *PoolRegistry) FeeTierExist(feeTier FeeTier) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feeTiers[feeTier]
}

// CreatePool opens a new pool on (token0, token1) at feeTier, pinned to
// initSqrtPrice/initTick. The tokens are reordered into (TokenX, TokenY)
// by NewPoolKey; the fee tier must already be admitted.
func (r *PoolRegistry) CreatePool(token0, token1 TokenId, feeTier FeeTier, initSqrtPrice numeric.SqrtPrice, initTick int32, feeReceiver AccountId, now uint64) (PoolKey, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.feeTiers[feeTier] {
		return PoolKey{}, newErr(KindFeeTierNotFound, "fee tier not admitted")
	}
	poolKey, err := NewPoolKey(token0, token1, feeTier)
	if err != nil {
		return PoolKey{}, err
	}
	if _, exists := r.pools[poolKey]; exists {
		return PoolKey{}, newErr(KindPoolAlreadyExist, "pool already exists for this key")
	}
	if cerr := numeric.CheckTick(initTick, feeTier.TickSpacing); cerr != nil {
		return PoolKey{}, wrapNumeric(KindInvalidInitTick, "CreatePool: init_tick", cerr)
	}
	expectedSqrtPrice, terr := numeric.SqrtPriceFromTick(initTick)
	if terr != nil {
		return PoolKey{}, wrapNumeric(KindInvalidInitTick, "CreatePool: sqrt_price_from_tick", terr)
	}
	if expectedSqrtPrice.Cmp(initSqrtPrice) != 0 {
		return PoolKey{}, newErr(KindInvalidInitSqrtPrice, "init_sqrt_price does not match init_tick")
	}

	pool := NewPool(feeTier, r.protocolFee, initSqrtPrice, initTick, feeReceiver, now)
	r.pools[poolKey] = &poolState{
		pool:    pool,
		ticks:   make(map[int32]*Tick),
		tickmap: tickmap.New(),
	}

	if r.log != nil {
		r.log.WithFields(logrus.Fields{"pool_key": poolKey.String()}).Debug("pool created")
	}
	return poolKey, nil
}

func (r *PoolRegistry) mustGetPoolState(poolKey PoolKey) (*poolState, *Error) {
	ps, ok := r.pools[poolKey]
	if !ok {
		return nil, newErr(KindPoolNotFound, "no pool for key %s", poolKey)
	}
	return ps, nil
}

// GetPool returns a snapshot of the pool's current state.
func (r *PoolRegistry) GetPool(poolKey PoolKey) (Pool, *Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps, err := r.mustGetPoolState(poolKey)
	if err != nil {
		return Pool{}, err
	}
	return ps.pool, nil
}

// getOrCreateTick fetches the stored tick at index, creating and
// registering it (including flipping the tickmap bit) if this is the
// first time it has been referenced.
func (ps *poolState) getOrCreateTick(index int32, now uint64) (*Tick, *Error) {
	if t, ok := ps.ticks[index]; ok {
		return t, nil
	}
	t, err := CreateTick(index, &ps.pool, now)
	if err != nil {
		return nil, err
	}
	ps.ticks[index] = &t
	ps.tickmap.Flip(index, ps.pool.TickSpacing)
	return ps.ticks[index], nil
}

// dropTickIfEmpty removes a tick from storage and clears its tickmap bit
// once Remove reports it has gone back to zero liquidity_gross.
func (ps *poolState) dropTickIfEmpty(index int32, empty bool) {
	if !empty {
		return
	}
	delete(ps.ticks, index)
	ps.tickmap.Flip(index, ps.pool.TickSpacing)
}

// CreatePosition opens a position of liquidityDelta over
// [lowerTick, upperTick) in poolKey, recording it under caller at a fresh
// index, and returns the token amounts the caller must fund.
func (r *PoolRegistry) CreatePosition(caller AccountId, poolKey PoolKey, lowerTickIndex, upperTickIndex int32, liquidityDelta numeric.Liquidity, slippageLower, slippageUpper numeric.SqrtPrice, nowMillis uint64) (Position, numeric.TokenAmount, numeric.TokenAmount, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ps, err := r.mustGetPoolState(poolKey)
	if err != nil {
		return Position{}, numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	if liquidityDelta.IsZero() {
		return Position{}, numeric.TokenAmount{}, numeric.TokenAmount{}, newErr(KindZeroLiquidity, "cannot open a position with zero liquidity")
	}
	if cerr := numeric.CheckTicks(lowerTickIndex, upperTickIndex, ps.pool.TickSpacing); cerr != nil {
		return Position{}, numeric.TokenAmount{}, numeric.TokenAmount{}, wrapNumeric(KindInvalidTickIndex, "CreatePosition: check_ticks", cerr)
	}

	now := nowMillis / 1000
	lowerTick, err := ps.getOrCreateTick(lowerTickIndex, now)
	if err != nil {
		return Position{}, numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	upperTick, err := ps.getOrCreateTick(upperTickIndex, now)
	if err != nil {
		return Position{}, numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}

	position, x, y, err := Create(&ps.pool, poolKey, lowerTick, upperTick, lowerTickIndex, upperTickIndex, liquidityDelta, slippageLower, slippageUpper, nowMillis)
	if err != nil {
		return Position{}, numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}

	r.positions[caller] = append(r.positions[caller], &positionEntry{position: position})

	if r.log != nil {
		r.log.WithFields(logrus.Fields{"owner": caller, "pool_key": poolKey.String()}).Debug("position created")
	}
	return position, x, y, nil
}

func (r *PoolRegistry) getPositionEntry(owner AccountId, index uint32) (*positionEntry, *Error) {
	entries := r.positions[owner]
	if int(index) >= len(entries) {
		return nil, newErr(KindPositionNotFound, "no position at index %d for %s", index, owner)
	}
	return entries[index], nil
}

// GetPosition returns a copy of the caller's position at index.
func (r *PoolRegistry) GetPosition(owner AccountId, index uint32) (Position, *Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.getPositionEntry(owner, index)
	if err != nil {
		return Position{}, err
	}
	return e.position, nil
}

// GetAllPositions returns a copy of every position the owner holds.
func (r *PoolRegistry) GetAllPositions(owner AccountId) []Position {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Position, len(r.positions[owner]))
	for i, e := range r.positions[owner] {
		out[i] = e.position
	}
	return out
}

// GetPositionWithTicks bundles a position with its two boundary ticks, the
// way a caller rendering a position's range usually needs both.
func (r *PoolRegistry) GetPositionWithTicks(owner AccountId, index uint32) (Position, Tick, Tick, *Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, err := r.getPositionEntry(owner, index)
	if err != nil {
		return Position{}, Tick{}, Tick{}, err
	}
	ps, err := r.mustGetPoolState(e.position.PoolKey)
	if err != nil {
		return Position{}, Tick{}, Tick{}, err
	}
	lower, ok := ps.ticks[e.position.LowerTickIndex]
	if !ok {
		return Position{}, Tick{}, Tick{}, newErr(KindTickNotFound, "lower tick missing")
	}
	upper, ok := ps.ticks[e.position.UpperTickIndex]
	if !ok {
		return Position{}, Tick{}, Tick{}, newErr(KindTickNotFound, "upper tick missing")
	}
	return e.position, *lower, *upper, nil
}

// ClaimFee realizes and withdraws the fees the caller's position at index
// has accrued, without closing the position.
func (r *PoolRegistry) ClaimFee(caller AccountId, index uint32, now uint64) (numeric.TokenAmount, numeric.TokenAmount, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.getPositionEntry(caller, index)
	if err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	ps, err := r.mustGetPoolState(e.position.PoolKey)
	if err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	lowerTick, err := ps.getOrCreateTick(e.position.LowerTickIndex, now)
	if err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	upperTick, err := ps.getOrCreateTick(e.position.UpperTickIndex, now)
	if err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	return e.position.ClaimFee(&ps.pool, lowerTick, upperTick, now)
}

// RemovePosition closes the caller's position at index entirely, removing
// it from the registry and returning the underlying tokens plus any unpaid
// fees.
func (r *PoolRegistry) RemovePosition(caller AccountId, index uint32, now uint64) (numeric.TokenAmount, numeric.TokenAmount, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.positions[caller]
	if int(index) >= len(entries) {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, newErr(KindPositionNotFound, "no position at index %d for %s", index, caller)
	}
	e := entries[index]

	ps, err := r.mustGetPoolState(e.position.PoolKey)
	if err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	lowerTick, err := ps.getOrCreateTick(e.position.LowerTickIndex, now)
	if err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	upperTick, err := ps.getOrCreateTick(e.position.UpperTickIndex, now)
	if err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}

	x, y, deinitLower, deinitUpper, err := e.position.Remove(&ps.pool, lowerTick, upperTick, now)
	if err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	ps.dropTickIfEmpty(e.position.LowerTickIndex, deinitLower)
	ps.dropTickIfEmpty(e.position.UpperTickIndex, deinitUpper)

	// Swap-remove: move the last entry into this slot so every other
	// position's index stays stable except the one that moved.
	last := len(entries) - 1
	entries[index] = entries[last]
	r.positions[caller] = entries[:last]

	return x, y, nil
}

// TransferPosition moves the caller's position at index to receiver,
// appending it to the receiver's list and swap-removing it from the
// caller's.
func (r *PoolRegistry) TransferPosition(caller AccountId, index uint32, receiver AccountId) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.positions[caller]
	if int(index) >= len(entries) {
		return newErr(KindPositionNotFound, "no position at index %d for %s", index, caller)
	}
	e := entries[index]

	last := len(entries) - 1
	entries[index] = entries[last]
	r.positions[caller] = entries[:last]

	r.positions[receiver] = append(r.positions[receiver], e)
	return nil
}

// ChangeProtocolFee updates the percentage applied to new fee splits.
// Pools already created keep accruing under their own ProtocolFee field,
// which is only a per-pool snapshot taken at creation time, matching the
// original's "pools read their own stored value, the registry only seeds
// new ones."
func (r *PoolRegistry) ChangeProtocolFee(caller AccountId, newFee numeric.Percentage) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	r.protocolFee = newFee
	return nil
}

// ChangeFeeReceiver reassigns who may withdraw a pool's accrued protocol
// fee.
func (r *PoolRegistry) ChangeFeeReceiver(caller AccountId, poolKey PoolKey, newReceiver AccountId) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	ps, err := r.mustGetPoolState(poolKey)
	if err != nil {
		return err
	}
	ps.pool.FeeReceiver = newReceiver
	return nil
}

// WithdrawProtocolFee zeroes and returns a pool's accrued protocol fee
// balances; only the pool's current fee receiver may call this.
func (r *PoolRegistry) WithdrawProtocolFee(caller AccountId, poolKey PoolKey) (numeric.TokenAmount, numeric.TokenAmount, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ps, err := r.mustGetPoolState(poolKey)
	if err != nil {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, err
	}
	if ps.pool.FeeReceiver != caller {
		return numeric.TokenAmount{}, numeric.TokenAmount{}, newErr(KindNotAdmin, "caller is not this pool's fee receiver")
	}
	x, y := ps.pool.FeeProtocolTokenX, ps.pool.FeeProtocolTokenY
	ps.pool.FeeProtocolTokenX = numeric.TokenAmountZero()
	ps.pool.FeeProtocolTokenY = numeric.TokenAmountZero()
	return x, y, nil
}
