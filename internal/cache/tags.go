package cache

import (
	"strings"

	"golang.org/x/mod/semver"
)

// preReleaseMarkers exclude a tag from "latest stable" selection when any
// of them appears anywhere in the tag, case-insensitively.
var preReleaseMarkers = []string{"alpha", "beta", "rc", "pre", "dev"}

// LatestStable picks the highest stable tag from a remote tag listing.
// Returns "" when no stable tag exists.
func LatestStable(tags []string) string {
	best := ""
	for _, tag := range tags {
		if tag == "" || isPreRelease(tag) {
			continue
		}
		if best == "" || CompareVersions(tag, best) > 0 {
			best = tag
		}
	}
	return best
}

func isPreRelease(tag string) bool {
	lower := strings.ToLower(tag)
	for _, marker := range preReleaseMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// CompareVersions orders two tags. Canonical semver tags compare by semver
// rules; everything else falls back to a segment-wise comparison where runs
// of digits compare numerically. Upstreams tag however they like
// ("v1.2.0", "apache-arrow-15.0.0", "release_4_1"), so both paths matter.
func CompareVersions(a, b string) int {
	ca, cb := canonical(a), canonical(b)
	if semver.IsValid(ca) && semver.IsValid(cb) {
		return semver.Compare(ca, cb)
	}
	return compareSegments(a, b)
}

func canonical(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}

// compareSegments compares strings piecewise, treating digit runs as
// numbers so that "1.10" sorts above "1.9".
func compareSegments(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			ni, ei := takeNumber(a, i)
			nj, ej := takeNumber(b, j)
			if ni != nj {
				if ni < nj {
					return -1
				}
				return 1
			}
			i, j = ei, ej
			continue
		}
		if a[i] != b[j] {
			if a[i] < b[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	default:
		return 0
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// takeNumber parses the digit run starting at i, skipping leading zeros.
func takeNumber(s string, i int) (uint64, int) {
	var n uint64
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + uint64(s[i]-'0')
		i++
	}
	return n, i
}
