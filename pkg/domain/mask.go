package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// PointMask is a sparse mapping from sample index to an "excluded" flag.
// Absence from the mapping means the point is included; that is the default
// for every point. Masks attached to results are snapshots captured at
// computation time, never live references to the source data set's mask.
type PointMask map[int]bool

// IsExcluded reports whether the point at index i is masked out.
func (m PointMask) IsExcluded(i int) bool { return m[i] }

// Excluded returns the sorted indices explicitly marked as excluded.
func (m PointMask) Excluded() []int {
	out := make([]int, 0, len(m))
	for i, flag := range m {
		if flag {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// Snapshot returns an independent copy of the mask.
func (m PointMask) Snapshot() PointMask {
	if m == nil {
		return nil
	}
	cp := make(PointMask, len(m))
	for i, flag := range m {
		cp[i] = flag
	}
	return cp
}

// Reduced returns a copy holding only the indices explicitly excluded,
// dropping redundant "included" entries. Used by the minimal serialization
// form.
func (m PointMask) Reduced() PointMask {
	cp := make(PointMask)
	for i, flag := range m {
		if flag {
			cp[i] = true
		}
	}
	return cp
}

// MarshalJSON encodes the mask as an object with stringified integer keys,
// the shape used by every historical document version.
func (m PointMask) MarshalJSON() ([]byte, error) {
	out := make(map[string]bool, len(m))
	for i, flag := range m {
		out[strconv.Itoa(i)] = flag
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes stringified integer keys back into sparse indices.
func (m *PointMask) UnmarshalJSON(data []byte) error {
	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	mask := make(PointMask, len(raw))
	for key, flag := range raw {
		i, err := ParseMaskIndex(key)
		if err != nil {
			return err
		}
		mask[i] = flag
	}
	*m = mask
	return nil
}

// ParseMaskIndex parses a stringified mask index. Every decoder of the wire
// shape goes through this one parser so that a key with trailing garbage is
// rejected everywhere instead of being partially consumed.
func ParseMaskIndex(key string) (int, error) {
	i, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("mask index %q: %w", key, err)
	}
	return i, nil
}
