package callstate

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iax2core/engine/jitter"
	"github.com/iax2core/engine/reliable"
	"github.com/iax2core/engine/wire"
)

var log = logrus.WithField("package", "callstate")

// CodecPriority selects how a call picks between caller and callee
// codec preference lists when both sides supplied one (spec §4.4 step 3).
type CodecPriority int

const (
	CodecPriorityCaller CodecPriority = iota
	CodecPriorityCallee
	CodecPriorityDisabled // ignore preference lists; pick highest-priority bit
	CodecPriorityReqOnly  // accept only if caller's requested format is in our capability
)

// CallSlot is one leg of a call (spec §3 Data Model "CallSlot"). Its
// fields are guarded by its own lock: the engine package takes that
// lock, calls methods on *CallSlot for state changes, and reads or sets
// fields such as DCallNo, the keys, Owner and the NEW's IEs directly.
type CallSlot struct {
	mu sync.Mutex

	ScallNo uint16
	DCallNo uint16

	PeerAddr string

	State      State
	UpSub      UpSubState
	RegState   RegState
	Transfer   TransferState
	TransferID uint32

	OSeqNo uint8
	ISeqNo uint8

	Username    string
	Challenge   string
	AuthMethods uint16 // PLAINTEXT=1, MD5=2, RSA=4 bitmask offered/accepted
	FailCount   int

	// CalledNumber, CallingNumber, and Context come from the original
	// NEW's IEs; the engine stashes them here because IncomingCall isn't
	// asked until AUTHREP succeeds, well after the NEW frame is gone.
	CalledNumber  string
	CallingNumber string
	Context       string

	OurCapability  wire.Format
	PeerCapability wire.Format
	Format         wire.Format
	CodecPrefs     []byte
	CodecPriority  CodecPriority

	EncryptionMask     uint16 // our offered cipher/keyrotate bitmask (spec §4.9)
	PeerEncryptionMask uint16 // peer's offered bitmask, stashed from NEW/ACCEPT's IEEncryption IE
	EncKey             []byte // ecx: key used to encrypt our outbound frames
	DecKey             []byte // dcx: key used to decrypt inbound frames
	MyDecKey           []byte // mydcx: key used to decrypt our own saved retransmit queue

	// EncKeyInstalledAt is when EncKey/DecKey were last (re)installed,
	// either at auth or by a mid-call RTKEY rotation. A Pending frame
	// encrypted before this time must be decrypted with MyDecKey and
	// re-encrypted under the current EncKey before retransmission
	// (spec §4.9 "Key rotation").
	EncKeyInstalledAt time.Time

	Queue  *reliable.Queue
	Jitter *jitter.Buffer
	TSPred *wire.TimestampPredictor

	// LastInTimestamp is the most recent full frame's 32-bit timestamp
	// seen on this call, used to reconstruct full timestamps from mini
	// frames' truncated low bits (spec §4.2 invariant 9).
	LastInTimestamp uint32

	Validated bool // completed the call-token handshake (spec §4.7)
	Trunk     bool

	DestroyInitiated bool

	CreatedAt    time.Time
	LastActivity time.Time

	// Owner is the PBX channel handle this slot delivers frames to; the
	// engine package sets it, callstate never interprets it.
	Owner any
}

// NewCallSlot creates a slot in StateInitial with its reliability and
// jitter sub-objects wired up.
func NewCallSlot(scallno uint16, peerAddr string, trunk bool, retryPolicy reliable.RetryPolicy, jitterCfg jitter.Config, frameDurMs uint32, now time.Time) *CallSlot {
	return &CallSlot{
		ScallNo:      scallno,
		PeerAddr:     peerAddr,
		Trunk:        trunk,
		State:        StateInitial,
		Queue:        reliable.NewQueue(retryPolicy),
		Jitter:       jitter.New(jitterCfg),
		TSPred:       wire.NewTimestampPredictor(frameDurMs),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Lock and Unlock expose the slot's own lock to dispatch so a worker
// can hold it across an entire frame's processing without callstate
// needing to know about workers (spec §5: "each CallSlot has its own
// lock; workers take only that lock").
func (s *CallSlot) Lock()   { s.mu.Lock() }
func (s *CallSlot) Unlock() { s.mu.Unlock() }

// TryLock attempts the lock without blocking, used by dispatch's
// deadlock-avoidance fallback when a fixed lock order can't be
// established ahead of time.
func (s *CallSlot) TryLock() bool { return s.mu.TryLock() }

// CallNo identifies this slot for dispatch's ascending-order locking
// (spec §4.1 "deadlock-avoidance back-off").
func (s *CallSlot) CallNo() uint16 { return s.ScallNo }

// touch marks the slot active at now, for idle/expiry bookkeeping
// elsewhere.
func (s *CallSlot) touch(now time.Time) {
	s.LastActivity = now
}

// MarkMediaFlowing advances the UP sub-state on the first VOICE/VIDEO/
// non-control IAX frame, resolving the spec's Open Question #3.
func (s *CallSlot) MarkMediaFlowing() {
	if s.State == StateUp {
		s.UpSub = UpMediaFlowing
	}
}
