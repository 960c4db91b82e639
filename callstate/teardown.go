package callstate

import "time"

// BeginTeardown transitions to TERMINATING. It does not mark or send
// any frame itself; sending the final frame and enqueuing it on s.Queue
// with final=true is left to the caller (spec §4.4 "send_command_final").
func (s *CallSlot) BeginTeardown(now time.Time) {
	s.State = StateTerminating
	s.touch(now)
}

// CompleteTeardown is called once the final frame is acknowledged (or
// its retry budget is exhausted unilaterally); the slot becomes DEAD
// and is ready for its scallno to be released to callno.Manager under
// quarantine.
func (s *CallSlot) CompleteTeardown(now time.Time) {
	s.State = StateDead
	s.DestroyInitiated = true
	s.touch(now)
}

// IsDead reports whether the slot has completed teardown and is only
// waiting to be reaped.
func (s *CallSlot) IsDead() bool {
	return s.State == StateDead
}
