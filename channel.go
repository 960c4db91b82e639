package engine

import "github.com/iax2core/engine/wire"

// ControlKind is an ast_frame_control subtype allowed to cross the
// IAX2 wire (spec §6 "Control-frame whitelist"). Any control subclass
// not in this set is dropped at the PBX boundary rather than forwarded.
type ControlKind int

const (
	ControlHangup ControlKind = iota
	ControlRing
	ControlRinging
	ControlAnswer
	ControlBusy
	ControlCongestion
	ControlProgress
	ControlProceeding
	ControlHold
	ControlUnhold
	ControlVidUpdate
	ControlConnectedLine
	ControlRedirecting
	ControlT38Parameters
	ControlAOC
	ControlIncomplete
	ControlMCID
	ControlFlash
	ControlWink
	ControlOption
	ControlRadioKey
	ControlRadioUnkey
	ControlTakeOffHook
	ControlOffHook
)

// allowedControls is the spec §6 whitelist as a lookup set.
var allowedControls = map[ControlKind]bool{
	ControlHangup: true, ControlRing: true, ControlRinging: true,
	ControlAnswer: true, ControlBusy: true, ControlCongestion: true,
	ControlProgress: true, ControlProceeding: true, ControlHold: true,
	ControlUnhold: true, ControlVidUpdate: true, ControlConnectedLine: true,
	ControlRedirecting: true, ControlT38Parameters: true, ControlAOC: true,
	ControlIncomplete: true, ControlMCID: true, ControlFlash: true,
	ControlWink: true, ControlOption: true, ControlRadioKey: true,
	ControlRadioUnkey: true, ControlTakeOffHook: true, ControlOffHook: true,
}

// IsAllowedControl reports whether a control subtype may cross the
// IAX2 wire at all (spec §6); anything else must be dropped at the
// boundary rather than forwarded to or accepted from the PBX.
func IsAllowedControl(k ControlKind) bool {
	return allowedControls[k]
}

// VoiceFrame is one media frame handed to or received from the PBX
// channel layer, already stripped of IAX2 framing. Payload is opaque
// audio/video bytes in the call's negotiated wire.Format — the core
// never decodes it (spec §1 scope).
type VoiceFrame struct {
	ScallNo   uint16
	Format    wire.Format
	Timestamp uint32 // reconstructed session timestamp in ms
	Payload   []byte
}

// ChannelAPI is the narrow surface the PBX channel layer implements so
// the protocol core can hand it frames and lifecycle indications
// without depending on anything about how the PBX itself is built
// (spec §1 "frames flow to/from it via a small callback surface").
// The core calls these methods; it never reaches into PBX internals.
type ChannelAPI interface {
	// IncomingCall is invoked once a NEW has been authenticated and a
	// codec negotiated, asking the PBX whether to answer the call.
	// The PBX's own dialplan/context lookup is entirely its concern;
	// the core only needs true/false and, if true, an opaque handle it
	// will attach to the CallSlot as Owner.
	IncomingCall(scallno uint16, username, calledNumber, callingNumber, context string) (accept bool, owner any)

	// DeliverVoice hands one jitter-buffer-released voice frame to the
	// PBX channel bound to owner.
	DeliverVoice(owner any, frame VoiceFrame)

	// DeliverControl hands one whitelisted control-frame indication to
	// the PBX channel bound to owner. Non-whitelisted control subtypes
	// never reach this method (spec §6).
	DeliverControl(owner any, kind ControlKind)

	// DeliverText hands a text/HTML frame to the PBX channel, used for
	// e.g. MESSAGE-style signaling carried in-band.
	DeliverText(owner any, text string)

	// CallEnded notifies the PBX that a call's IAX2 leg has completed
	// teardown (either end-initiated HANGUP or a protocol-level
	// destroy such as ETIMEDOUT); the PBX should release its own
	// channel reference to owner.
	CallEnded(owner any, cause int)

	// DialplanLookup forwards a DPREQ to the PBX's dialplan switch
	// (explicitly out of scope for this module per spec §1) and
	// returns whether the destination exists, can match, or needs more
	// digits — the core only relays the answer back onto the wire as
	// DPREP.
	DialplanLookup(context, number string) (exists, canMatch, matchMore bool)
}
