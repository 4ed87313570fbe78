package entities

import (
	"fmt"
	"sort"

	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// BitmaskLevels is the number of interval tree levels a biased uint64 can span.
const BitmaskLevels = 63

// BitmaskEntry describes one level k of the implicit interval tree.
// B1 clears the low k bits of a value and so yields the level-k fork node
// above it, B2 is the midpoint bit of a level-k block, B3 the low-bit mask.
type BitmaskEntry struct {
	Level int    `json:"level"`
	B1    uint64 `json:"b1"`
	B2    uint64 `json:"b2"`
	B3    uint64 `json:"b3"`
}

// NewBitmaskEntry computes the masks for level k.
func NewBitmaskEntry(k int) BitmaskEntry {
	low := uint64(1)<<uint(k) - 1
	return BitmaskEntry{
		Level: k,
		B1:    ^low,
		B2:    uint64(1) << uint(k-1),
		B3:    low,
	}
}

// Validate checks the masks against the level they claim.
func (b BitmaskEntry) Validate() error {
	if b.Level < 1 || b.Level > BitmaskLevels {
		return fmt.Errorf("bitmask level %d out of range", b.Level)
	}
	if b.B1 != ^b.B3 || b.B2 != (b.B3+1)>>1 || b != NewBitmaskEntry(b.Level) {
		return fmt.Errorf("bitmask level %d has inconsistent masks", b.Level)
	}
	return nil
}

// BitmaskIndex is the full per-level index, ordered by level.
// It depends only on the word size, not on stored rows, so it never needs
// maintenance when timelines are written.
type BitmaskIndex []BitmaskEntry

// BuildBitmaskIndex generates the index for every level.
func BuildBitmaskIndex() BitmaskIndex {
	index := make(BitmaskIndex, 0, BitmaskLevels)
	for k := 1; k <= BitmaskLevels; k++ {
		index = append(index, NewBitmaskEntry(k))
	}
	return index
}

// NewBitmaskIndex sorts and validates entries loaded from storage.
// A missing, duplicated or inconsistent level is reported as corrupted storage.
func NewBitmaskIndex(entries []BitmaskEntry) (BitmaskIndex, error) {
	index := make(BitmaskIndex, len(entries))
	copy(index, entries)
	sort.Slice(index, func(i, j int) bool { return index[i].Level < index[j].Level })

	if len(index) != BitmaskLevels {
		return nil, pkgerrors.NewCorruptedStorageError(
			fmt.Sprintf("bitmask index has %d levels, expected %d", len(index), BitmaskLevels))
	}
	for i, entry := range index {
		if entry.Level != i+1 {
			return nil, pkgerrors.NewCorruptedStorageError(fmt.Sprintf("bitmask index is missing level %d", i+1))
		}
		if err := entry.Validate(); err != nil {
			return nil, pkgerrors.NewCorruptedStorageError(err.Error()).WithCause(err)
		}
	}
	return index, nil
}

// LeftNodes lists the fork nodes of every level whose block contains the
// biased window start. Timelines registered there straddle the left edge.
func (idx BitmaskIndex) LeftNodes(start uint64) []uint64 {
	return idx.ancestors(start)
}

// RightNodes lists the fork nodes of every level whose block contains the
// biased window end.
func (idx BitmaskIndex) RightNodes(end uint64) []uint64 {
	return idx.ancestors(end)
}

func (idx BitmaskIndex) ancestors(v uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(idx))
	nodes := make([]uint64, 0, len(idx))
	for _, entry := range idx {
		node := v & entry.B1
		if _, ok := seen[node]; ok {
			continue
		}
		seen[node] = struct{}{}
		nodes = append(nodes, node)
	}
	return nodes
}
