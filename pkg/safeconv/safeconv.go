// Package safeconv converts between integer types without silent wraparound.
package safeconv

import "math"

// Uint64ToInt64 converts v, clamping values above math.MaxInt64.
func Uint64ToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(v)
}

// Int64ToUint64 converts v, mapping negative values to zero.
func Int64ToUint64(v int64) uint64 {
	if v < 0 {
		return 0
	}

	return uint64(v)
}
