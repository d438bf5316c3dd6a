// Package models provides core data structures for the notifier SDK.
// This file contains the tolerant dotted-version comparison used wherever the
// client needs to order two app versions.
//
// Design Decisions:
// - Versions are treated as an arbitrary-length sequence of numeric segments
// - Malformed segments never fail a comparison; they count as zero
// - Shorter versions are padded with zero segments ("1.2" == "1.2.0")
// - Strict semver parsing is left to configuration validation
package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Ordering is the result of comparing two versions.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return "unknown"
	}
}

// CompareVersions compares two dotted version strings segment by segment.
//
// Comparison Logic:
// 1. Both strings are split on "."
// 2. Each segment is parsed as a non-negative integer; anything else is 0
// 3. The shorter sequence is padded with zero segments
// 4. The first differing segment decides, most significant first
//
// Examples:
//
//	"2.0"   > "1.9.9"
//	"1.2"  == "1.2.0"
//	"1.x"  == "1.0"
//	"1.10"  > "1.9"
func CompareVersions(a, b string) Ordering {
	as := versionSegments(a)
	bs := versionSegments(b)

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		if c := compareUint(segmentAt(as, i), segmentAt(bs, i)); c != 0 {
			return Ordering(c)
		}
	}
	return Equal
}

// IsVersionGreater reports whether a is strictly newer than b.
func IsVersionGreater(a, b string) bool {
	return CompareVersions(a, b) == Greater
}

func versionSegments(v string) []uint64 {
	parts := strings.Split(v, ".")
	segments := make([]uint64, len(parts))
	for i, part := range parts {
		segments[i] = parseSegment(part)
	}
	return segments
}

// parseSegment saturates at MaxUint64 instead of failing on overflow.
func parseSegment(s string) uint64 {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxUint64
		}
		return 0
	}
	return n
}

func segmentAt(segments []uint64, i int) uint64 {
	if i < len(segments) {
		return segments[i]
	}
	return 0
}

func compareUint(a, b uint64) int {
	if a > b {
		return 1
	}
	if a < b {
		return -1
	}
	return 0
}
