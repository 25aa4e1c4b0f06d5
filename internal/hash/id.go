// Package hash provides compact identifiers for tag paths, used by visited
// sets and caches that would otherwise key on whole path strings.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}
