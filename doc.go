// Package ringhopper is a toolkit for a classic real-time 3D game's content
// pipeline: it reads, validates, transforms, and re-emits the game's tag
// files (authoring-side binary assets) and cache map files (shipping runtime
// containers bundling many tags into one memory-mapped image).
//
// The module is organized as a set of focused packages:
//
//   - endian: explicit byte-order engines (tag files are big-endian, cache
//     images little-endian)
//   - errs: the closed set of error kinds shared by every layer
//   - primitive: fixed-layout value types, tag paths, groups, IDs, and the
//     map/domain abstraction
//   - schema: declarative struct/enum/bitfield definitions, the runtime
//     codec they drive, and the reflection and matcher APIs
//   - tagfile: the tag file envelope (header, CRC-32, strictness modes)
//   - tagtree: uniform read/write/enumerate access over tag collections,
//     with a layered directory, a cache-file view, and a caching decorator
//   - compress: the cache image compression codecs
//   - engines: the table of known engine targets
//   - cachemap: the cache map reader (identification, decompression, domain
//     carving, the tag index, resource maps, BSP fixups)
//   - extract: per-group fixups undoing engine-side storage differences
//   - refgraph: dependency enumeration, closure, and bulk refactoring
//   - verify: schema-level and cross-tag verification under a worker pool
//   - threading: the batched multi-threaded driver used by CLI verbs
//
// The cmd/ringhopper command exposes the verbs; all the engineering lives in
// the packages above.
package ringhopper
