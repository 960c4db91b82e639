package callstate

import (
	"time"

	"github.com/iax2core/engine/wire"
)

// Action is what a CallSlot wants its caller (the dispatcher) to do in
// response to one inbound command. callstate never touches the socket
// itself — the engine (applyAction) turns an Action into an actual wire.FullFrame send,
// keeping callstate free of I/O and easy to test.
type Action int

const (
	ActionNone Action = iota
	ActionSendAck
	ActionSendAuthReq
	ActionSendAccept
	ActionSendReject
	ActionSendPong
	ActionSendLagrp
	ActionSendUnsupport
	ActionDestroy
	ActionForwardToPBX      // DPREQ/DPREP/dialplan and provisioning frames: external collaborator (spec §1 out-of-scope list)
	ActionForwardControl    // a whitelisted ast-control frame for the PBX channel (spec §6)
	ActionInstallRotatedKey // RTKEY arrived: caller must install the carried key as the new DecKey
)

// Dispatch routes one inbound IAX command to the state machine,
// returning the action the caller should take. It must be called with
// the slot's lock held (spec §5).
func (s *CallSlot) Dispatch(cmd wire.IAXCommand, now time.Time) (Action, error) {
	s.touch(now)

	switch cmd {
	case wire.CmdNew:
		if s.State != StateInitial {
			return ActionSendReject, ErrBadState
		}
		return ActionSendAuthReq, nil

	case wire.CmdAuthRep:
		if s.State != StateAuthenticating {
			return ActionSendReject, ErrBadState
		}
		return ActionSendAccept, nil

	case wire.CmdAccept:
		if s.State != StateWaitAccept && s.State != StateAuthenticating {
			return ActionNone, ErrBadState
		}
		s.State = StateUp
		s.UpSub = UpPendingMedia
		return ActionSendAck, nil

	case wire.CmdHangup:
		s.BeginTeardown(now)
		return ActionSendAck, nil

	case wire.CmdReject, wire.CmdRegRej:
		s.FailCount++
		s.CompleteTeardown(now)
		return ActionNone, nil

	case wire.CmdAck:
		// Queue release happens in reliable.Queue.Ack, driven by the
		// frame's iseqno — dispatch calls that directly; nothing for
		// the state machine itself to do.
		return ActionNone, nil

	case wire.CmdPing:
		return ActionSendPong, nil

	case wire.CmdPong:
		return ActionNone, nil

	case wire.CmdLagRq:
		return ActionSendLagrp, nil

	case wire.CmdLagRp:
		return ActionNone, nil

	case wire.CmdVnak:
		// Resend selection happens in reliable.Queue.VNAK; nothing for
		// the state machine itself to do.
		return ActionNone, nil

	case wire.CmdInval:
		s.CompleteTeardown(now)
		return ActionNone, nil

	case wire.CmdQuelch, wire.CmdUnquelch:
		return ActionNone, nil

	case wire.CmdMWI:
		return ActionForwardToPBX, nil

	case wire.CmdDpReq, wire.CmdDpRep:
		// Dialplan-switch lookups are an external collaborator (spec §1
		// Out of scope); the engine answers a DPREQ with a DPREP built
		// from the PBX's DialplanLookup result, and only acknowledges a DPREP.
		return ActionForwardToPBX, nil

	case wire.CmdFwDownl, wire.CmdFwData:
		// Firmware-download payloads are explicitly out of scope (spec
		// §1); the engine acknowledges them without handling them or
		// passing them to the PBX.
		return ActionForwardToPBX, nil

	case wire.CmdTxReq:
		s.BeginTransfer(0)
		return ActionNone, nil
	case wire.CmdTxAcc:
		s.AcceptTransfer()
		return ActionNone, nil
	case wire.CmdTxReady:
		s.Transfer = TransferMediaReady
		return ActionNone, nil
	case wire.CmdTxRel:
		return ActionNone, nil
	case wire.CmdTxRej:
		s.AbandonTransfer()
		return ActionNone, nil
	case wire.CmdTxMedia:
		s.Transfer = TransferMedia
		return ActionNone, nil

	case wire.CmdRtKey:
		// The raw key itself travels in the frame's IEs; the state
		// machine only signals that a rotation arrived. The caller reads
		// the IE and installs it as DecKey (spec §4.9 "Key rotation").
		return ActionInstallRotatedKey, nil

	case wire.CmdCallToken:
		// Handled entirely by package calltoken before a slot even
		// exists; seeing it here means a peer replayed it post-setup.
		return ActionSendUnsupport, nil

	case wire.CmdPoke:
		// Stateless; never reaches a bound slot (spec §4.6 Qualify).
		return ActionSendPong, nil

	default:
		return ActionSendUnsupport, nil
	}
}
