// Package tickmap implements the two-level bitmap that tracks which ticks
// in a pool are initialized, giving swap steps an O(word) way to find the
// next/previous initialized tick instead of scanning every tick.
package tickmap

import (
	"math/bits"

	"github.com/johnayoung/go-invariant-clmm/pkg/numeric"
)

const (
	chunkSize       = numeric.ChunkSize
	chunkLookupSize = numeric.ChunkLookupSize
	tickSearchRange = numeric.TickSearchRange
)

// Tickmap is a sparse two-level bitmap: chunkLookups groups 64 chunk
// indexes at a time so next/prev can skip whole empty groups of chunks
// before bit-scanning inside one, and bitmap holds one bit per tick,
// packed 64 to a chunk.
type Tickmap struct {
	chunkLookups map[uint16]uint64
	bitmap       map[uint32]uint64
}

func New() *Tickmap {
	return &Tickmap{
		chunkLookups: make(map[uint16]uint64),
		bitmap:       make(map[uint32]uint64),
	}
}

// Clone returns an independent copy, used to simulate a swap (quote)
// without mutating the pool's real tickmap.
func (t *Tickmap) Clone() *Tickmap {
	out := New()
	for k, v := range t.chunkLookups {
		out.chunkLookups[k] = v
	}
	for k, v := range t.bitmap {
		out.bitmap[k] = v
	}
	return out
}

func getMaxChunk(tickSpacing uint16) uint32 {
	maxTick := numeric.GetMaxTick(tickSpacing)
	return tickToPosition(maxTick, tickSpacing) / chunkSize
}

// tickToPosition maps a tick to its absolute bit index in the bitmap,
// shifting by half the tick domain so the index is always non-negative.
func tickToPosition(tick int32, tickSpacing uint16) uint32 {
	return uint32((tick + numeric.MaxTick) / int32(tickSpacing))
}

func positionToTick(position uint32, tickSpacing uint16) int32 {
	return int32(position)*int32(tickSpacing) - numeric.GetMaxTick(tickSpacing)
}

func chunkOf(position uint32) uint32 { return position / chunkSize }
func bitOf(position uint32) uint8    { return uint8(position % chunkSize) }

func chunkLookupIndex(chunk uint32) uint16 { return uint16(chunk / chunkLookupSize) }
func chunkLookupBit(chunk uint32) uint8    { return uint8(chunk % chunkLookupSize) }

// Get reports whether tick is initialized.
func (t *Tickmap) Get(tick int32, tickSpacing uint16) bool {
	position := tickToPosition(tick, tickSpacing)
	chunk := t.bitmap[chunkOf(position)]
	return chunk&(1<<bitOf(position)) != 0
}

// InitializedChunkIndexes lists every nonempty bitmap chunk, in ascending
// order, letting a caller fetch only the parts of the grid worth reading.
func (t *Tickmap) InitializedChunkIndexes(tickSpacing uint16) []uint16 {
	out := make([]uint16, 0, len(t.bitmap))
	for idx := range t.bitmap {
		out = append(out, uint16(idx))
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Flip toggles tick's initialized bit, maintaining the chunk-lookup
// summary and dropping empty chunk/lookup entries from storage, mirroring
// the source's update_or_create_chunk cleanup.
func (t *Tickmap) Flip(tick int32, tickSpacing uint16) {
	position := tickToPosition(tick, tickSpacing)
	chunkIdx := chunkOf(position)
	bit := bitOf(position)

	word := t.bitmap[chunkIdx]
	word ^= 1 << bit
	if word == 0 {
		delete(t.bitmap, chunkIdx)
	} else {
		t.bitmap[chunkIdx] = word
	}

	lookupIdx := chunkLookupIndex(chunkIdx)
	lookupBit := chunkLookupBit(chunkIdx)
	lookup := t.chunkLookups[lookupIdx]
	if word == 0 {
		lookup &^= 1 << lookupBit
	} else {
		lookup |= 1 << lookupBit
	}
	if lookup == 0 {
		delete(t.chunkLookups, lookupIdx)
	} else {
		t.chunkLookups[lookupIdx] = lookup
	}
}

// getSearchLimit clamps a ±tickSearchRange window around tick to the grid
// edges determined by tickSpacing, the bound next/prev initialized never
// scan past.
func getSearchLimit(tick int32, tickSpacing uint16, up bool) int32 {
	index := tick / int32(tickSpacing)
	maxPossibleTick := numeric.MaxTick / int32(tickSpacing) * int32(tickSpacing)
	minPossibleTick := -maxPossibleTick

	if up {
		limit := index + tickSearchRange
		maxIdx := maxPossibleTick / int32(tickSpacing)
		if limit > maxIdx {
			limit = maxIdx
		}
		return limit * int32(tickSpacing)
	}
	limit := index - tickSearchRange
	minIdx := minPossibleTick / int32(tickSpacing)
	if limit < minIdx {
		limit = minIdx
	}
	return limit * int32(tickSpacing)
}

// NextInitialized scans upward (towards MaxTick) from tick for the next
// initialized tick, stopping at the search limit or grid edge. Returns
// (tick, true) on a hit.
func (t *Tickmap) NextInitialized(tick int32, tickSpacing uint16) (int32, bool) {
	limit := getSearchLimit(tick, tickSpacing, true)
	if tick+int32(tickSpacing) > numeric.GetMaxTick(tickSpacing) {
		return 0, false
	}

	position := tickToPosition(tick+int32(tickSpacing), tickSpacing)
	limitPosition := tickToPosition(limit, tickSpacing)
	chunkIdx := chunkOf(position)
	bit := bitOf(position)

	maxChunk := getMaxChunk(tickSpacing)

	for chunkIdx <= maxChunk {
		word := t.bitmap[chunkIdx]
		shifted := word >> bit
		if shifted != 0 {
			offset := trailingZeros64(shifted)
			foundPos := uint32(chunkIdx)*chunkSize + uint32(bit) + uint32(offset)
			if foundPos > limitPosition {
				return 0, false
			}
			return positionToTick(foundPos, tickSpacing), true
		}

		lookupIdx := chunkLookupIndex(chunkIdx)
		lookupBit := chunkLookupBit(chunkIdx)
		lookup := t.chunkLookups[lookupIdx]
		shiftedLookup := lookup >> (lookupBit + 1)
		if shiftedLookup != 0 {
			next := trailingZeros64(shiftedLookup)
			chunkIdx = chunkIdx + 1 + uint32(next)
		} else {
			nextLookupIdx := lookupIdx + 1
			found := false
			for {
				lk := t.chunkLookups[nextLookupIdx]
				if lk != 0 {
					chunkIdx = uint32(nextLookupIdx)*chunkLookupSize + uint32(trailingZeros64(lk))
					found = true
					break
				}
				if uint32(nextLookupIdx)*chunkLookupSize > maxChunk {
					break
				}
				nextLookupIdx++
			}
			if !found {
				return 0, false
			}
		}
		bit = 0
		if chunkIdx*chunkSize > limitPosition {
			return 0, false
		}
	}
	return 0, false
}

// PrevInitialized scans downward (towards MinTick) for the previous
// initialized tick, including tick itself.
func (t *Tickmap) PrevInitialized(tick int32, tickSpacing uint16) (int32, bool) {
	limit := getSearchLimit(tick, tickSpacing, false)
	position := tickToPosition(tick, tickSpacing)
	limitPosition := tickToPosition(limit, tickSpacing)
	chunkIdx := chunkOf(position)
	bit := bitOf(position)

	for {
		word := t.bitmap[chunkIdx]
		mask := uint64(1)<<(bit+1) - 1
		masked := word & mask
		if masked != 0 {
			offset := 63 - leadingZeros64(masked)
			foundPos := chunkIdx*chunkSize + uint32(offset)
			if foundPos < limitPosition {
				return 0, false
			}
			return positionToTick(foundPos, tickSpacing), true
		}

		if chunkIdx == 0 {
			return 0, false
		}

		lookupIdx := chunkLookupIndex(chunkIdx)
		lookupBit := chunkLookupBit(chunkIdx)
		lookup := t.chunkLookups[lookupIdx]
		lookupMask := uint64(1)<<lookupBit - 1
		maskedLookup := lookup & lookupMask
		if maskedLookup != 0 {
			prev := 63 - leadingZeros64(maskedLookup)
			chunkIdx = uint32(lookupIdx)*chunkLookupSize + uint32(prev)
		} else {
			if lookupIdx == 0 {
				return 0, false
			}
			prevLookupIdx := lookupIdx - 1
			found := false
			for {
				lk := t.chunkLookups[prevLookupIdx]
				if lk != 0 {
					chunkIdx = uint32(prevLookupIdx)*chunkLookupSize + uint32(63-leadingZeros64(lk))
					found = true
					break
				}
				if prevLookupIdx == 0 {
					break
				}
				prevLookupIdx--
			}
			if !found {
				return 0, false
			}
		}
		bit = 63
		if chunkIdx*chunkSize+uint32(bit) < limitPosition {
			return 0, false
		}
	}
}

func trailingZeros64(x uint64) int { return bits.TrailingZeros64(x) }

func leadingZeros64(x uint64) int { return bits.LeadingZeros64(x) }
