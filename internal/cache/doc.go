// Package cache provides a durable, namespaced cache with TTL expiration for
// responses from a quota-metered data API.
//
// Each namespace (video metadata, comment pages, search results) lives in its
// own storage partition. Key features:
//   - SHA256-based keys derived from caller identifiers
//   - Self-describing JSON records, optionally zstd-compressed
//   - Lazy expiry: expired or corrupt records are removed when read
//   - Explicit cleanup and read-only statistics per namespace
//   - Pluggable storage backends (files, SQLite, memory)
//
// The cache never returns an error for a miss. Corrupt records are deleted
// and reported as misses; failed writes are reported as a false return from
// Set so callers can continue uncached.
package cache
