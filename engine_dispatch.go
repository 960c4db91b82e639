package engine

import (
	"net"
	"strconv"
	"time"

	"github.com/iax2core/engine/callno"
	"github.com/iax2core/engine/callstate"
	"github.com/iax2core/engine/crypto"
	"github.com/iax2core/engine/jitter"
	"github.com/iax2core/engine/registry"
	"github.com/iax2core/engine/reliable"
	"github.com/iax2core/engine/wire"
)

// handleDatagram is the dispatch.Handler the worker pool invokes for
// every frame once dispatch.Dispatcher has sniffed its kind and, for
// full frames, reordered it into oseqno sequence. It never runs on the
// network goroutine (spec §5 "the network thread never touches call
// state").
func (e *Engine) handleDatagram(addr string, kind wire.FrameKind, raw []byte) {
	switch kind {
	case wire.KindFull:
		e.handleFullFrame(addr, raw)
	case wire.KindMiniAudio:
		e.handleMiniFrame(addr, raw)
	case wire.KindMeta:
		e.handleMetaFrame(addr, raw)
	default:
		log.WithField("kind", kind).Debug("engine: video/unsupported frame kind dropped")
	}
}

func (e *Engine) handleFullFrame(addr string, raw []byte) {
	ff, body, err := wire.ParseFullFrameHeader(raw)
	if err != nil {
		log.WithError(err).WithField("addr", addr).Debug("engine: malformed full frame")
		return
	}

	var entry *callno.Entry
	var ok bool
	if ff.DCallNo != 0 {
		entry, ok = e.calls.Table().Get(ff.DCallNo)
	}
	if !ok {
		entry, ok = e.calls.Table().LookupByPeer(addr, ff.SCallNo)
	}

	if !ok {
		// No slot yet means no negotiated decrypt key either; a NEW (or
		// a stateless POKE/PONG) always arrives in cleartext (spec §4.9
		// keys are derived only once auth completes).
		ies, ierr := wire.ParseIEs(body)
		if ierr != nil {
			log.WithError(ierr).WithField("addr", addr).Debug("engine: malformed full frame body")
			return
		}
		ff.IEs = ies
		switch wire.IAXCommand(ff.Subclass) {
		case wire.CmdNew:
			e.handleNew(addr, ff)
		case wire.CmdPoke:
			// Stateless per callstate's Dispatch: a qualify POKE never
			// binds a call slot (spec §4.6 "Qualify").
			e.replyPong(addr, ff)
		case wire.CmdPong:
			e.handleQualifyPong(addr)
		default:
			log.WithField("addr", addr).WithField("scallno", ff.SCallNo).Debug("engine: full frame for unknown call, dropping")
		}
		return
	}

	slot, ok := entry.Owner.(*callstate.CallSlot)
	if !ok || slot == nil {
		return
	}

	slot.Lock()
	defer slot.Unlock()

	plain := body
	if len(slot.DecKey) > 0 && len(body) > 0 {
		var derr error
		plain, derr = crypto.Decrypt(slot.DecKey, body)
		if derr != nil {
			log.WithError(derr).WithField("scallno", entry.ScallNo).Debug("engine: frame decryption failed")
			return
		}
	}
	ies, ierr := wire.ParseIEs(plain)
	if ierr != nil {
		log.WithError(ierr).WithField("scallno", entry.ScallNo).Debug("engine: malformed full frame body")
		return
	}
	ff.IEs = ies

	e.calls.Table().IndexPeer(entry.ScallNo, addr, ff.SCallNo)
	slot.DCallNo = ff.SCallNo
	slot.LastInTimestamp = ff.Timestamp
	if acked := slot.Queue.Ack(ff.ISeqNo); len(acked) > 0 {
		log.WithField("scallno", entry.ScallNo).WithField("n", len(acked)).Debug("engine: retransmit queue acked")
	}

	cmd := wire.IAXCommand(ff.Subclass)
	action, derr := slot.Dispatch(cmd, time.Now())
	if derr != nil {
		log.WithError(derr).WithField("cmd", cmd).WithField("scallno", entry.ScallNo).Debug("engine: call-state rejected command")
	}
	if cmd == wire.CmdVnak {
		now := time.Now()
		for _, p := range slot.Queue.VNAK(ff.ISeqNo) {
			e.reencryptIfRotated(slot, p, now)
			e.send(slot.PeerAddr, p.Data)
		}
	}

	e.applyAction(addr, entry.ScallNo, slot, ff, action)
}

func (e *Engine) applyAction(addr string, scallno uint16, slot *callstate.CallSlot, ff *wire.FullFrame, action callstate.Action) {
	switch action {
	case callstate.ActionSendAuthReq:
		e.sendAuthReq(scallno, slot)
	case callstate.ActionSendAccept:
		if aerr := e.completeAuth(addr, scallno, slot, ff, time.Now()); aerr != nil {
			log.WithError(aerr).WithField("scallno", scallno).Debug("engine: call setup did not complete")
		}
	case callstate.ActionInstallRotatedKey:
		e.installRotatedKey(scallno, slot, ff, time.Now())
	case callstate.ActionSendReject:
		e.sendSimple(scallno, slot, wire.CmdReject, nil)
	case callstate.ActionSendAck:
		e.sendSimple(scallno, slot, wire.CmdAck, nil)
	case callstate.ActionSendPong:
		e.sendSimple(scallno, slot, wire.CmdPong, nil)
	case callstate.ActionSendLagrp:
		e.sendSimple(scallno, slot, wire.CmdLagRp, nil)
	case callstate.ActionSendUnsupport:
		e.sendSimple(scallno, slot, wire.CmdInval, nil)
	case callstate.ActionDestroy:
		e.destroySlot(scallno, slot)
	case callstate.ActionForwardControl:
		if owner := slot.Owner; owner != nil {
			e.channel.DeliverControl(owner, mapControlSubclass(ff.Subclass))
		}
	case callstate.ActionForwardToPBX:
		e.forwardToPBX(scallno, slot, ff)
	}
}

// destroySlot completes teardown and releases the call number once the
// dispatch loop has already moved on (it must not hold slot's lock
// while calling back into the PBX, spec §5's ascending-lock-order
// guidance applied to the channel callback boundary).
func (e *Engine) destroySlot(scallno uint16, slot *callstate.CallSlot) {
	slot.CompleteTeardown(time.Now())
	peerAddr, trunk, validated, owner := slot.PeerAddr, slot.Trunk, slot.Validated, slot.Owner
	crypto.ZeroBytes(slot.EncKey)
	crypto.ZeroBytes(slot.DecKey)
	crypto.ZeroBytes(slot.MyDecKey)
	e.disarmRotation(scallno)
	e.calls.Release(peerAddr, scallno, trunk, validated)
	if owner != nil {
		e.channel.CallEnded(owner, 0)
	}
}

// handleNew admits a brand-new inbound call: call-token check, call
// number allocation, and a freshly constructed CallSlot (spec §4.4
// "Setup flow (incoming)").
func (e *Engine) handleNew(addr string, ff *wire.FullFrame) {
	if ie, has := ff.IEs.Get(wire.IEVersion); has {
		if v, verr := ie.Uint16(); verr == nil {
			if perr := crypto.CheckProtocolVersion(v); perr != nil {
				log.WithError(perr).WithField("addr", addr).Debug("engine: rejecting unsupported protocol version")
				return
			}
		}
	}
	if tok, has := ff.IEs.Get(wire.IECallToken); has {
		host, port, herr := splitHostPort(addr)
		if herr != nil {
			return
		}
		if verr := e.guard.Validate(tok.String(), host, port); verr != nil {
			log.WithError(verr).WithField("addr", addr).Debug("engine: call token validation failed")
			return
		}
		e.upgrades.Upgrade(addr)
	}

	scallno, err := e.calls.Allocate(addr, false, nil)
	if err != nil {
		log.WithError(err).WithField("addr", addr).Debug("engine: call number allocation failed")
		return
	}

	slot := callstate.NewCallSlot(scallno, addr, false, reliable.DefaultRetryPolicy, jitter.DefaultConfig, 20, time.Now())
	slot.DCallNo = ff.SCallNo
	if entry, ok := e.calls.Table().Get(scallno); ok {
		entry.Owner = slot
	}
	e.calls.Table().IndexPeer(scallno, addr, ff.SCallNo)

	username := ""
	if ie, has := ff.IEs.Get(wire.IEUsername); has {
		username = ie.String()
	}
	if ie, has := ff.IEs.Get(wire.IECalledNumber); has {
		slot.CalledNumber = ie.String()
	}
	if ie, has := ff.IEs.Get(wire.IECallingNumber); has {
		slot.CallingNumber = ie.String()
	}
	if ie, has := ff.IEs.Get(wire.IECalledContext); has {
		slot.Context = ie.String()
	}
	if ie, has := ff.IEs.Get(wire.IEEncryption); has {
		if v, verr := ie.Uint16(); verr == nil {
			slot.PeerEncryptionMask = v
		}
	}

	var authMethods uint16 = wire.AuthMD5
	if user := e.users.Best(username, func(u *registry.User) bool { return true }); user != nil {
		authMethods = user.AuthMethods
	}

	slot.BeginInboundAuth(username, generateChallenge(), authMethods)

	action, _ := slot.Dispatch(wire.CmdNew, time.Now())
	e.applyAction(addr, scallno, slot, ff, action)
}

func (e *Engine) handleMiniFrame(addr string, raw []byte) {
	mf, err := wire.ParseMiniFrame(raw)
	if err != nil {
		return
	}
	entry, ok := e.calls.Table().LookupByPeer(addr, mf.SCallNo)
	if !ok {
		return
	}
	slot, ok := entry.Owner.(*callstate.CallSlot)
	if !ok || slot == nil {
		return
	}

	slot.Lock()
	ts := wire.ExtendAudioTimestamp(slot.LastInTimestamp, mf.Timestamp)
	slot.LastInTimestamp = ts
	format := slot.Format
	owner := slot.Owner
	slot.MarkMediaFlowing()
	slot.Jitter.Put(jitter.Frame{Timestamp: ts, Payload: mf.Payload, Voice: true})
	slot.Unlock()

	if owner == nil {
		return
	}
	e.channel.DeliverVoice(owner, VoiceFrame{ScallNo: entry.ScallNo, Format: format, Timestamp: ts, Payload: mf.Payload})
}

func (e *Engine) handleMetaFrame(addr string, raw []byte) {
	mf, err := wire.ParseMetaFrame(raw, true)
	if err != nil {
		return
	}
	for _, te := range mf.Entries {
		entry, ok := e.calls.Table().LookupByPeer(addr, te.CallNo)
		if !ok {
			continue
		}
		slot, ok := entry.Owner.(*callstate.CallSlot)
		if !ok || slot == nil {
			continue
		}
		slot.Lock()
		owner := slot.Owner
		format := slot.Format
		slot.Unlock()
		if owner != nil {
			e.channel.DeliverVoice(owner, VoiceFrame{ScallNo: entry.ScallNo, Format: format, Timestamp: mf.Timestamp, Payload: te.Payload})
		}
	}
}

// forwardToPBX resolves a DPREQ against the channel layer's dialplan
// lookup; every other command this action covers (provisioning,
// firmware download) is simply acknowledged, since both are explicitly
// out of scope (spec §1).
func (e *Engine) forwardToPBX(scallno uint16, slot *callstate.CallSlot, ff *wire.FullFrame) {
	if wire.IAXCommand(ff.Subclass) != wire.CmdDpReq {
		e.sendSimple(scallno, slot, wire.CmdAck, nil)
		return
	}
	number := ""
	if ie, has := ff.IEs.Get(wire.IECalledNumber); has {
		number = ie.String()
	}
	exists, canMatch, matchMore := e.channel.DialplanLookup(slot.Username, number)
	ies := wire.IESet{
		wire.NewStringIE(wire.IECalledNumber, number),
		wire.NewUint8IE(wire.IECause, dpFlags(exists, canMatch, matchMore)),
	}
	e.sendSimple(scallno, slot, wire.CmdDpRep, ies)
}

func dpFlags(exists, canMatch, matchMore bool) byte {
	var b byte
	if exists {
		b |= 1
	}
	if canMatch {
		b |= 2
	}
	if matchMore {
		b |= 4
	}
	return b
}

// replyPong answers an unsolicited POKE directly, without allocating a
// call number (spec §4.6 "Qualify" is stateless on the responder side).
func (e *Engine) replyPong(addr string, req *wire.FullFrame) {
	ff := &wire.FullFrame{
		DCallNo:  req.SCallNo,
		Type:     wire.FrameTypeIAX,
		Subclass: int64(wire.CmdPong),
	}
	data, err := ff.Serialize()
	if err != nil {
		log.WithError(err).Warn("engine: failed to serialize pong")
		return
	}
	e.send(addr, data)
}

// handleQualifyPong folds a PONG's round-trip time into the qualify
// state for whichever peer is registered at addr.
func (e *Engine) handleQualifyPong(addr string) {
	p := e.peers.FindByAddr(addr)
	if p == nil {
		return
	}
	q := e.qualifyStateFor(p)
	q.Pong(time.Now())
}

func (e *Engine) sendAuthReq(scallno uint16, slot *callstate.CallSlot) {
	ies := wire.IESet{
		wire.NewStringIE(wire.IEUsername, slot.Username),
		wire.NewStringIE(wire.IEChallenge, slot.Challenge),
	}
	e.sendSimple(scallno, slot, wire.CmdAuthReq, ies)
}

// sendSimple builds and enqueues one reliable full frame for scallno,
// assigning the next oseqno and tracking it in the call's retransmit
// queue (spec §4.5 "every full frame is enqueued for retransmission
// until acked").
func (e *Engine) sendSimple(scallno uint16, slot *callstate.CallSlot, cmd wire.IAXCommand, ies wire.IESet) {
	oseqno := slot.OSeqNo
	slot.OSeqNo++

	ff := &wire.FullFrame{
		SCallNo:  scallno,
		DCallNo:  slot.DCallNo,
		Type:     wire.FrameTypeIAX,
		Subclass: int64(cmd),
		OSeqNo:   oseqno,
		ISeqNo:   slot.ISeqNo,
		IEs:      ies,
	}
	now := time.Now()
	data, encrypted, err := e.serializeFrame(ff, slot.EncKey)
	if err != nil {
		log.WithError(err).Warn("engine: failed to serialize outbound frame")
		return
	}
	p := slot.Queue.Enqueue(oseqno, data, false, cmd == wire.CmdHangup, now)
	if encrypted {
		p.EncryptedAt = now
	}
	e.send(slot.PeerAddr, data)
}

func mapControlSubclass(sub int64) ControlKind {
	switch sub {
	case 1:
		return ControlHangup
	case 2:
		return ControlRing
	case 3:
		return ControlRinging
	case 4:
		return ControlAnswer
	case 5:
		return ControlBusy
	default:
		return ControlProgress
	}
}

func generateChallenge() string {
	return time.Now().Format("20060102150405.000000000")
}

// splitHostPort parses a net.Addr.String()-shaped address into the
// host and port the call-token guard signs over (spec §4.7).
func splitHostPort(addr string) (host string, port uint16, err error) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	n, err := strconv.ParseUint(p, 10, 16)
	if err != nil {
		return "", 0, err
	}
	return h, uint16(n), nil
}
