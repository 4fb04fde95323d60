package clmm

import "github.com/johnayoung/go-invariant-clmm/pkg/numeric"

// liquidityTickSize is the on-wire size of one LiquidityTick record,
// matching the original's (32 + 128 + 8)-byte reckoning for
// (index, liquidity_change-plus-sign, seconds-adjacent padding), used to
// bound how many ticks one paginated call may return.
const liquidityTickSize = 32 + 128 + 8

// maxTicksPerPage is the largest slice of ticks a single GetLiquidityTicks
// call returns, derived from the wire contract's MaxResultSize the same
// way the original bounds its per-call vector length.
const maxTicksPerPage = numeric.MaxResultSize / liquidityTickSize

// GetTick returns the stored tick at index in poolKey.
func (r *PoolRegistry) GetTick(poolKey PoolKey, index int32) (Tick, *Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps, err := r.mustGetPoolState(poolKey)
	if err != nil {
		return Tick{}, err
	}
	t, ok := ps.ticks[index]
	if !ok {
		return Tick{}, newErr(KindTickNotFound, "no tick at index %d", index)
	}
	return *t, nil
}

// IsTickInitialized reports whether a tick exists at index in poolKey.
func (r *PoolRegistry) IsTickInitialized(poolKey PoolKey, index int32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps, err := r.mustGetPoolState(poolKey)
	if err != nil {
		return false
	}
	return ps.tickmap.Get(index, ps.pool.TickSpacing)
}

// GetPools lists up to size pool keys starting at offset, sorted by TokenX,
// then TokenY, then tick spacing. Creation order is not kept, and pools
// that differ only in fee have no defined order relative to each other. A
// size above maxTicksPerPage is rejected; a caller who wants more issues
// another call with an advanced offset.
func (r *PoolRegistry) GetPools(size uint8, offset uint16) ([]PoolKey, *Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(size) > maxTicksPerPage {
		return nil, newErr(KindInvalidSize, "requested page size exceeds the maximum result size")
	}

	keys := make([]PoolKey, 0, len(r.pools))
	for k := range r.pools {
		keys = append(keys, k)
	}
	sortPoolKeys(keys)

	if int(offset) >= len(keys) {
		return nil, nil
	}
	end := int(offset) + int(size)
	if end > len(keys) {
		end = len(keys)
	}
	return keys[offset:end], nil
}

// GetFeeTiers lists every currently admitted fee tier.
func (r *PoolRegistry) GetFeeTiers() []FeeTier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FeeTier, 0, len(r.feeTiers))
	for ft := range r.feeTiers {
		out = append(out, ft)
	}
	return out
}

// PositionTick is the [lower, upper) boundary pair of one position,
// returned by GetPositionTicks so a caller charting a user's positions
// doesn't need a full GetAllPositions round trip.
type PositionTick struct {
	LowerTickIndex int32
	UpperTickIndex int32
}

// GetPositionTicks returns the boundary ticks of every position owner
// holds, starting at offset.
func (r *PoolRegistry) GetPositionTicks(owner AccountId, offset uint32) []PositionTick {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.positions[owner]
	if int(offset) >= len(entries) {
		return nil
	}
	out := make([]PositionTick, 0, len(entries)-int(offset))
	for _, e := range entries[offset:] {
		out = append(out, PositionTick{LowerTickIndex: e.position.LowerTickIndex, UpperTickIndex: e.position.UpperTickIndex})
	}
	return out
}

// GetUserPositionAmount reports how many positions owner currently holds.
func (r *PoolRegistry) GetUserPositionAmount(owner AccountId) uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint32(len(r.positions[owner]))
}

// GetInitializedChunks lists the indexes of every nonzero bitmap chunk for
// poolKey, letting a caller fetch only the parts of the tickmap worth
// reading instead of scanning the whole grid.
func (r *PoolRegistry) GetInitializedChunks(poolKey PoolKey) ([]uint16, *Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps, err := r.mustGetPoolState(poolKey)
	if err != nil {
		return nil, err
	}
	return ps.tickmap.InitializedChunkIndexes(ps.pool.TickSpacing), nil
}

// GetLiquidityTicks returns up to a page's worth of initialized ticks for
// poolKey, starting at offset in index order.
func (r *PoolRegistry) GetLiquidityTicks(poolKey PoolKey, offset uint16) ([]Tick, *Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps, err := r.mustGetPoolState(poolKey)
	if err != nil {
		return nil, err
	}

	indexes := make([]int32, 0, len(ps.ticks))
	for idx := range ps.ticks {
		indexes = append(indexes, idx)
	}
	sortInt32s(indexes)

	if int(offset) >= len(indexes) {
		return nil, nil
	}
	end := int(offset) + maxTicksPerPage
	if end > len(indexes) {
		end = len(indexes)
	}

	out := make([]Tick, 0, end-int(offset))
	for _, idx := range indexes[offset:end] {
		out = append(out, *ps.ticks[idx])
	}
	return out, nil
}

// GetLiquidityTicksAmount reports how many initialized ticks poolKey has,
// letting a caller size a follow-up GetLiquidityTicks call instead of
// guessing how many pages to request.
func (r *PoolRegistry) GetLiquidityTicksAmount(poolKey PoolKey) (int, *Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps, err := r.mustGetPoolState(poolKey)
	if err != nil {
		return 0, err
	}
	return len(ps.ticks), nil
}

func sortPoolKeys(keys []PoolKey) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && poolKeyLess(keys[j], keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}

func poolKeyLess(a, b PoolKey) bool {
	if a.TokenX != b.TokenX {
		return a.TokenX < b.TokenX
	}
	if a.TokenY != b.TokenY {
		return a.TokenY < b.TokenY
	}
	return a.FeeTier.TickSpacing < b.FeeTier.TickSpacing
}

func sortInt32s(xs []int32) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}
