// Package locks serializes operations that read-then-decide on the state of
// one person (driver or passenger) across rides.
package locks

import (
	"context"
	"errors"
	"sort"
)

// ErrLockTimeout is returned when a lock could not be acquired before the
// wait deadline
var ErrLockTimeout = errors.New("lock wait timeout")

// ReleaseFunc releases everything an Acquire call took
type ReleaseFunc func()

// Locker acquires exclusive locks on a set of keys
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (ReleaseFunc, error)
}

// UserKey is the lock key guarding a person's ride commitments
func UserKey(userID string) string {
	return "user:" + userID
}

// SortKeys sorts and deduplicates keys so that two callers asking for the
// same set always lock in the same order
func SortKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	out = append(out, keys...)
	sort.Strings(out)

	n := 0
	for i, k := range out {
		if i > 0 && k == out[n-1] {
			continue
		}
		out[n] = k
		n++
	}
	return out[:n]
}
