// Package callstate implements the per-call state machine: call setup
// (NEW/AUTHREQ/AUTHREP/ACCEPT), codec negotiation, teardown, native
// transfer, and the periodic timers (PING/LAGRQ/qualify) that ride on
// top of an established call (spec §4.4).
//
// A CallSlot owns everything scoped to one leg of a call: its
// retransmit queue (package reliable), its jitter buffer (package
// jitter), and its negotiated format. The engine package reaches a call
// only through its CallSlot: it takes the slot's lock, drives state
// changes through CallSlot methods, and sets some fields (peer call
// number, keys, owner, the NEW's IEs) directly.
package callstate
