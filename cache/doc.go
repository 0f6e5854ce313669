// Package cache provides content-addressed caching for analysis results.
//
// A ContentHasher derives a deterministic Fingerprint from page content, the
// analysis type and the request options. MemoryStore holds serialized results
// with per-entry TTLs, least-recently-accessed eviction at a fixed capacity
// and hit/miss statistics. TTLPolicy picks the lifetime of each entry from the
// analysis category and the page being analyzed. Loader ties them together as
// a read-through cache that coalesces concurrent misses.
//
// A MemoryStore may be backed by a PersistentKV (see the redisstore and
// sqlitestore subpackages) so that entries survive restarts.
package cache
