package history

import "context"

// Store is the ordered-log contract the relay needs from the external
// store: append to a keyed log, read a range back in order, drop keys,
// and enumerate keys by glob pattern. The log is a replay convenience,
// not a system of record; callers treat every failure as non-fatal.
type Store interface {
	// Append adds value to the end of the log at key, creating it if
	// absent.
	Append(ctx context.Context, key, value string) error

	// Range returns entries [start, stop] in insertion order. Indexes
	// follow Redis LRANGE semantics: zero-based, inclusive, negative
	// values count from the end (0, -1 reads the whole log).
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Delete removes the log at key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys matching the glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
}
