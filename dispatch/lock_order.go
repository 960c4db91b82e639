package dispatch

// Lockable is the minimal surface a call-state object must expose to
// participate in ordered multi-call locking.
type Lockable interface {
	Lock()
	Unlock()
	CallNo() uint16
}

// LockTwo locks a and b in ascending-scallno order, resolving the
// deadlock otherwise possible when two workers each hold one leg of a
// bridge and want the other (spec §4.1 "deadlock-avoidance back-off:
// drop lock, sleep briefly, retry when ordering would otherwise
// invert, e.g. when locking both legs of a native bridge").
//
// Locking in a fixed global order (ascending call number) sidesteps
// the back-off/retry loop entirely: two workers bridging the same pair
// of calls always attempt to acquire the locks in the same order, so
// no cycle can form.
func LockTwo(a, b Lockable) (unlock func()) {
	first, second := a, b
	if b.CallNo() < a.CallNo() {
		first, second = b, a
	}
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

// TryLockTwo attempts the same ascending-order acquisition without
// blocking indefinitely on the second lock; it reports false if the
// second lock could not be taken within one non-blocking attempt, in
// which case the caller should drop back, sleep briefly, and retry —
// the fallback path for callers that can't rely on a fixed global
// order (e.g. locks taken from a live CallSlot map under concurrent
// mutation).
type TryLocker interface {
	Lockable
	TryLock() bool
}

func TryLockTwo(a, b TryLocker) (unlock func(), ok bool) {
	first, second := a, b
	if b.CallNo() < a.CallNo() {
		first, second = b, a
	}
	first.Lock()
	if !second.TryLock() {
		first.Unlock()
		return nil, false
	}
	return func() {
		second.Unlock()
		first.Unlock()
	}, true
}
