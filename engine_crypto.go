package engine

import (
	"sync"
	"time"

	"github.com/iax2core/engine/callstate"
	"github.com/iax2core/engine/crypto"
	"github.com/iax2core/engine/reliable"
	"github.com/iax2core/engine/registry"
	"github.com/iax2core/engine/wire"
)

// causeBearerCapabilityNotAvail is the Q.931 cause spec §4.9
// "Force-encrypt" mandates for hanging up a call that never negotiated
// encryption under a forced policy.
const causeBearerCapabilityNotAvail = 65

// rotationBook holds one crypto.RotationScheduler per call that
// negotiated KEYROTATE, kept outside callstate the same way
// registrationBook keeps qualify/registration timers outside registry
// (spec §4.9 "Key rotation").
type rotationBook struct {
	mu     sync.Mutex
	timers map[uint16]*crypto.RotationScheduler
}

func newRotationBook() *rotationBook {
	return &rotationBook{timers: make(map[uint16]*crypto.RotationScheduler)}
}

// armRotation starts scallno's rotation timer once both sides have
// negotiated KEYROTATE.
func (e *Engine) armRotation(scallno uint16, now time.Time) {
	e.rotations.mu.Lock()
	defer e.rotations.mu.Unlock()
	e.rotations.timers[scallno] = crypto.NewRotationScheduler(true, now)
}

// disarmRotation drops scallno's rotation timer on teardown.
func (e *Engine) disarmRotation(scallno uint16) {
	e.rotations.mu.Lock()
	defer e.rotations.mu.Unlock()
	delete(e.rotations.timers, scallno)
}

func (e *Engine) rotationDue(scallno uint16, now time.Time) bool {
	e.rotations.mu.Lock()
	defer e.rotations.mu.Unlock()
	s, ok := e.rotations.timers[scallno]
	return ok && s.Due(now)
}

func (e *Engine) rotationRotated(scallno uint16, now time.Time) {
	e.rotations.mu.Lock()
	defer e.rotations.mu.Unlock()
	if s, ok := e.rotations.timers[scallno]; ok {
		s.Rotated(now)
	}
}

// localEncryptionMask resolves the cipher/keyrotate bits this instance
// offers for username, letting a matched user's own EncryptionMask
// override the instance-wide Encryption toggle (mirrors
// registry.Peer.EncryptionMask's per-identity override).
func (e *Engine) localEncryptionMask(username string) uint16 {
	var mask uint16
	if e.opts.Encryption {
		mask = crypto.EncryptionAES128 | crypto.EncryptionKeyRotate
	}
	if user := e.users.Best(username, func(u *registry.User) bool { return true }); user != nil && user.EncryptionMask != 0 {
		mask = user.EncryptionMask
	}
	return mask
}

// completeAuth verifies an AUTHREP against the matched user's
// credentials (closing a gap where ActionSendAccept used to fire
// unconditionally), negotiates and installs encryption, and only then
// proceeds to call-number validation promotion and the PBX's
// accept/reject decision (spec §4.4 step 2; §4.9 "Negotiation", "Key
// derivation", "Force-encrypt").
func (e *Engine) completeAuth(addr string, scallno uint16, slot *callstate.CallSlot, ff *wire.FullFrame, now time.Time) error {
	user := e.users.Best(slot.Username, func(u *registry.User) bool { return true })
	if user == nil {
		e.sendSimple(scallno, slot, wire.CmdReject, nil)
		e.destroySlot(scallno, slot)
		return callstate.ErrAuthFailed
	}

	var md5Result string
	var rsaSig []byte
	if ie, has := ff.IEs.Get(wire.IEMD5Result); has {
		md5Result = ie.String()
	}
	if ie, has := ff.IEs.Get(wire.IERSAResult); has {
		rsaSig = ie.Raw
	}

	creds := callstate.Credentials{
		Secret:      user.Secret,
		AuthMethods: slot.AuthMethods,
		VerifyRSA:   e.rsaVerifier(user.RSAKeyName),
	}
	if verr := slot.VerifyAuthRep(creds, md5Result, rsaSig); verr != nil {
		log.WithError(verr).WithField("scallno", scallno).Debug("engine: authentication failed")
		e.sendSimple(scallno, slot, wire.CmdReject, nil)
		e.destroySlot(scallno, slot)
		return verr
	}

	mask := crypto.NegotiateEncryption(e.localEncryptionMask(slot.Username), slot.PeerEncryptionMask)
	if rerr := crypto.RequireEncryption(mask, e.opts.ForceEncryption); rerr != nil {
		// crypto.RequireEncryption only knows the bit math; the sentinel
		// callstate callers and tests match against is its own
		// ErrEncryptionForced (spec §4.9 "Force-encrypt").
		log.WithError(callstate.ErrEncryptionForced).WithField("scallno", scallno).Debug("engine: force-encrypt rejected call")
		cause := wire.IESet{wire.NewUint8IE(wire.IECauseCode, causeBearerCapabilityNotAvail)}
		e.sendSimple(scallno, slot, wire.CmdHangup, cause)
		e.destroySlot(scallno, slot)
		return callstate.ErrEncryptionForced
	}
	slot.EncryptionMask = mask
	if mask&crypto.EncryptionAES128 != 0 {
		md5Key := callstate.DeriveMD5EncryptionKey(slot.Challenge, user.Secret)
		keys := crypto.NewSessionKeys(md5Key, now)
		slot.EncKey, slot.DecKey, slot.MyDecKey = keys.Encrypt, keys.Decrypt, keys.MyDecrypt
		slot.EncKeyInstalledAt = now
		if crypto.KeyRotateNegotiated(mask) {
			e.armRotation(scallno, now)
		}
	}

	if !slot.Validated {
		if verr := e.calls.Validate(addr, scallno); verr != nil {
			log.WithError(verr).WithField("scallno", scallno).Debug("engine: call-number validation promotion failed")
		}
		slot.Validated = true
	}
	accept, owner := e.channel.IncomingCall(scallno, slot.Username, slot.CalledNumber, slot.CallingNumber, slot.Context)
	if !accept {
		e.sendSimple(scallno, slot, wire.CmdReject, nil)
		e.destroySlot(scallno, slot)
		return nil
	}
	slot.Owner = owner

	var ies wire.IESet
	if mask != 0 {
		ies = wire.IESet{wire.NewUint16IE(wire.IEEncryption, mask)}
	}
	e.sendSimple(scallno, slot, wire.CmdAccept, ies)
	return nil
}

// rsaVerifier resolves keyName through the engine's key store and
// returns a closure suitable for callstate.Credentials.VerifyRSA, or
// nil if no key store is configured or no key is registered under
// that name (RSA auth simply never succeeds for that user then).
func (e *Engine) rsaVerifier(keyName string) func(challenge string, sig []byte) bool {
	if e.keystore == nil || keyName == "" {
		return nil
	}
	pub, err := e.keystore.PublicKey(keyName)
	if err != nil {
		return nil
	}
	return func(challenge string, sig []byte) bool {
		return crypto.VerifyChallengeSignature(pub, challenge, sig)
	}
}

// installRotatedKey reads the rotated key an RTKEY frame carries and
// installs it as this call's new decrypt key (spec §4.9 "the receiver
// installs it as the new decrypt key on RTKEY arrival"). Must be called
// with slot's lock held.
func (e *Engine) installRotatedKey(scallno uint16, slot *callstate.CallSlot, ff *wire.FullFrame, now time.Time) {
	ie, has := ff.IEs.Get(wire.IEEncKey)
	if !has || len(ie.Raw) != crypto.BlockSize {
		log.WithField("scallno", scallno).Debug("engine: RTKEY missing or malformed key IE")
		return
	}
	slot.DecKey = append([]byte(nil), ie.Raw...)
	slot.EncKeyInstalledAt = now
	e.rotationRotated(scallno, now)
}

// rotateKey issues a fresh RTKEY for scallno once its rotation timer is
// due. The outgoing RTKEY is sent under the still-current encrypt key,
// since the peer can't decrypt anything under a key it hasn't received
// yet; only once the frame is on its way do we install the new key as
// our own (spec §4.9 "installs it as new encrypt key immediately").
// Must be called with slot's lock held.
func (e *Engine) rotateKey(scallno uint16, slot *callstate.CallSlot, now time.Time) {
	newKey, err := crypto.GenerateRotationKey()
	if err != nil {
		log.WithError(err).WithField("scallno", scallno).Warn("engine: failed to generate rotation key")
		return
	}
	e.sendSimple(scallno, slot, wire.CmdRtKey, wire.IESet{wire.NewRawIE(wire.IEEncKey, newKey)})
	slot.MyDecKey = slot.EncKey
	slot.EncKey = newKey
	slot.EncKeyInstalledAt = now
	e.rotationRotated(scallno, now)
}

// serializeFrame encodes ff, encrypting its IE body under key when key
// is set and non-empty (spec §4.9 "Frame layout"); the 12-byte header
// always stays cleartext, and a body-less frame (e.g. a plain ACK) is
// never run through Encrypt, matching the wire format's zero-length
// case.
func (e *Engine) serializeFrame(ff *wire.FullFrame, key []byte) (data []byte, encrypted bool, err error) {
	ieBytes, err := ff.IEs.Build()
	if err != nil {
		return nil, false, err
	}
	header, err := ff.HeaderBytes()
	if err != nil {
		return nil, false, err
	}
	if len(key) == 0 || len(ieBytes) == 0 {
		return append(header, ieBytes...), false, nil
	}
	cipher, err := crypto.Encrypt(key, ieBytes)
	if err != nil {
		return nil, false, err
	}
	return append(header, cipher...), true, nil
}

// reencryptIfRotated rewrites p's ciphertext body under the call's
// current encrypt key if a rotation happened after p was originally
// encrypted: decrypt with mydcx, re-encrypt (a fresh random pad) under
// the new ecx (spec §4.9 "Retransmit" / scenario S5's "a retransmission
// of a pre-rotation frame uses the saved mydcx to decrypt before
// re-encrypting under k1"). Must be called with slot's lock held.
func (e *Engine) reencryptIfRotated(slot *callstate.CallSlot, p *reliable.Pending, now time.Time) {
	if p.EncryptedAt.IsZero() || !p.EncryptedAt.Before(slot.EncKeyInstalledAt) {
		return
	}
	if len(p.Data) < 12 {
		return
	}
	plain, err := crypto.Decrypt(slot.MyDecKey, p.Data[12:])
	if err != nil {
		log.WithError(err).Debug("engine: retransmit re-encrypt: decrypt failed")
		return
	}
	cipher, err := crypto.Encrypt(slot.EncKey, plain)
	if err != nil {
		log.WithError(err).Debug("engine: retransmit re-encrypt: encrypt failed")
		return
	}
	rewritten := make([]byte, 12+len(cipher))
	copy(rewritten, p.Data[:12])
	copy(rewritten[12:], cipher)
	p.Data = rewritten
	p.EncryptedAt = now
}

// tickKeyRotation issues RTKEY for every call whose rotation timer has
// come due (spec §4.9 "every 120-300s").
func (e *Engine) tickKeyRotation(now time.Time) {
	e.forEachSlot(func(scallno uint16, slot *callstate.CallSlot) {
		if !e.rotationDue(scallno, now) {
			return
		}
		slot.Lock()
		e.rotateKey(scallno, slot, now)
		slot.Unlock()
	})
}
