// Package cache defines the disk-backed store responsible for translating
// artifact and remote-source requests into <root>/<path> files. Each enabled
// cache kind owns one root directory (its "space"); the store exposes
// read/write primitives with safe semantics (temp file + rename) plus a bulk
// Clear used by the explicit cache-reset operation. Higher layers depend on
// this package to serve cached script text or trigger generation without
// duplicating filesystem logic. A file's existence IS the cache state: there
// is no manifest, no TTL and no invalidation besides Clear.
package cache
