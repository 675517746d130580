package replay

import (
	"sort"
	"strings"
)

// CompareRecords orders two records for presentation at a tick. Entities
// present at the tick come first. Within the same presence group, entities
// sharing a type sort as though unsigned: positive ids before negative ones,
// then by ascending absolute id. Across types, players come first, then type
// names lexicographically, with untyped entities last.
func CompareRecords(tick int64, a, b *EntityRecord) int {
	aPresent := a.infoAt(tick) != nil
	bPresent := b.infoAt(tick) != nil
	if aPresent && !bPresent {
		return -1
	}
	if bPresent && !aPresent {
		return 1
	}

	aType := a.PrimaryType()
	bType := b.PrimaryType()
	if aType == bType {
		if a.EntityID >= 0 && b.EntityID < 0 {
			return -1
		}
		if b.EntityID >= 0 && a.EntityID < 0 {
			return 1
		}
		return compareInt64(absInt64(a.EntityID), absInt64(b.EntityID))
	}

	if a.IsPlayer != b.IsPlayer {
		if a.IsPlayer {
			return -1
		}
		return 1
	}

	if aType == "" {
		return 1
	}
	if bType == "" {
		return -1
	}
	return strings.Compare(aType, bType)
}

// SortRecords sorts in place using CompareRecords at the given tick.
func SortRecords(tick int64, records []*EntityRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return CompareRecords(tick, records[i], records[j]) < 0
	})
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
