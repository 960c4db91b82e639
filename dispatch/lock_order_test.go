package dispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCall struct {
	mu      sync.Mutex
	callno  uint16
	trylock chan struct{}
}

func newFakeCall(callno uint16) *fakeCall {
	return &fakeCall{callno: callno, trylock: make(chan struct{}, 1)}
}

func (f *fakeCall) Lock()          { f.mu.Lock() }
func (f *fakeCall) Unlock()        { f.mu.Unlock() }
func (f *fakeCall) CallNo() uint16 { return f.callno }
func (f *fakeCall) TryLock() bool  { return f.mu.TryLock() }

func TestLockTwoLocksBothRegardlessOfArgumentOrder(t *testing.T) {
	a := newFakeCall(50)
	b := newFakeCall(7)

	unlock := LockTwo(a, b)
	// Both locks are held; a concurrent TryLock on either must fail.
	assert.False(t, a.TryLock())
	assert.False(t, b.TryLock())
	unlock()
	assert.True(t, a.TryLock())
	a.Unlock()
	assert.True(t, b.TryLock())
	b.Unlock()
}

func TestLockTwoOrdersAscendingToAvoidDeadlock(t *testing.T) {
	// Two goroutines bridging the same pair of calls in opposite
	// argument order must not deadlock, since LockTwo always acquires
	// in ascending-callno order internally.
	a := newFakeCall(50)
	b := newFakeCall(7)

	done := make(chan struct{}, 2)
	for i := 0; i < 20; i++ {
		go func() { LockTwo(a, b)(); done <- struct{}{} }()
		go func() { LockTwo(b, a)(); done <- struct{}{} }()
	}
	for i := 0; i < 40; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("deadlocked")
		}
	}
}

func TestTryLockTwoFailsWhenSecondLockHeld(t *testing.T) {
	a := newFakeCall(1)
	b := newFakeCall(2)

	b.Lock()
	defer b.Unlock()

	unlock, ok := TryLockTwo(a, b)
	assert.False(t, ok)
	assert.Nil(t, unlock)
}

func TestTryLockTwoSucceedsWhenBothFree(t *testing.T) {
	a := newFakeCall(9)
	b := newFakeCall(3)

	unlock, ok := TryLockTwo(a, b)
	assert.True(t, ok)
	assert.NotNil(t, unlock)
	unlock()

	done := make(chan struct{})
	go func() {
		a.Lock()
		a.Unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock a appears still held after unlock")
	}
}
