// Package engine is the module's facade: a single Engine value owns
// every subsystem (wire codec, call-number table, per-call state
// machines, reliable delivery, jitter buffers, the worker dispatcher,
// trunking, the peer/user registry, encryption) and is the only type
// the PBX constructs directly (spec §9 "Global mutable state" design
// note — one Engine per process, or one per test case, rather than
// package-level globals). Everything below this facade is reached
// only through Engine's methods; no subsystem package reaches back
// into another's internals except through the narrow types engine.go
// passes between them.
package engine

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iax2core/engine/callno"
	"github.com/iax2core/engine/calltoken"
	"github.com/iax2core/engine/callstate"
	"github.com/iax2core/engine/config"
	"github.com/iax2core/engine/crypto"
	"github.com/iax2core/engine/dispatch"
	"github.com/iax2core/engine/media"
	"github.com/iax2core/engine/registry"
	"github.com/iax2core/engine/trunk"
	"github.com/iax2core/engine/wire"
)

var log = logrus.WithField("package", "engine")

// Engine is one running IAX2 protocol instance: one bound UDP socket,
// one call-number table, one worker pool, one trunk scheduler, one
// peer/user registry. Constructed once via New and driven by Start/Stop;
// all per-call and per-peer state reachable from it is protected by its
// own lock (CallSlot, Peer/User ref-counting) per spec §5.
type Engine struct {
	opts    *config.Options
	channel ChannelAPI

	conn net.PacketConn

	pool       *dispatch.Pool
	dispatcher *dispatch.Dispatcher

	calls    *callno.Manager
	guard    *calltoken.Guard
	upgrades *calltoken.UpgradeTracker

	peers   *registry.PeerTable
	users   *registry.UserTable
	regBook *registrationBook

	rotations *rotationBook
	keystore  *crypto.KeyStore

	trunks *trunk.Scheduler

	// sendQueue serializes every outbound write onto the socket from
	// whichever worker or scheduler goroutine produced it (spec §5
	// "one transmit taskprocessor serializes outbound writes").
	sendQueue chan outboundDatagram

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type outboundDatagram struct {
	addr net.Addr
	data []byte
}

// New constructs an Engine from opts (nil selects config.NewOptions's
// defaults) and a ChannelAPI implementation supplied by the PBX. It
// does not bind a socket yet — call Start for that — mirroring the
// teacher's separation between Tox construction (New) and its
// iteration/network loop startup.
func New(opts *config.Options, channel ChannelAPI) (*Engine, error) {
	if opts == nil {
		opts = config.NewOptions()
	}
	if channel == nil {
		return nil, ErrNilChannel
	}

	e := &Engine{
		opts:      opts,
		channel:   channel,
		calls:     callno.NewManager(opts.TotalCallNumbers, callno.PeerLimits{MaxValidated: opts.MaxCallNumbers, MaxNonvalidated: opts.MaxCallNumbersNonvalidated}),
		guard:     calltoken.NewGuard(opts.CallTokenServerSecret),
		upgrades:  calltoken.NewUpgradeTracker(),
		peers:     registry.NewPeerTable(),
		users:     registry.NewUserTable(),
		regBook:   newRegistrationBook(),
		rotations: newRotationBook(),
		keystore:  crypto.NewKeyStore(),
	}
	e.trunks = trunk.NewScheduler(e.flushTrunk)
	e.pool = dispatch.NewPool(opts.IaxThreadCount, opts.IaxMaxThreadCount)
	e.dispatcher = dispatch.NewDispatcher(e.pool, e.handleDatagram)

	return e, nil
}

// Peers exposes the peer directory so the PBX can load static/realtime
// peers before or during Start (spec §4.6 "Peers may be static
// (config), realtime ..., or dynamic").
func (e *Engine) Peers() *registry.PeerTable { return e.peers }

// Users exposes the user directory for the same reason.
func (e *Engine) Users() *registry.UserTable { return e.users }

// KeyStore exposes the RSA key store so the PBX can register the
// `inkeys`/`outkey` material its configuration names, before or during
// Start (spec §4.4 step 2 "verify RSA signature ... with the user's
// trusted public keys").
func (e *Engine) KeyStore() *crypto.KeyStore { return e.keystore }

// RTPBridge returns a media.Bridge that packetizes scallno's negotiated
// format into RTP, for a channel driver that wants frames RTP-shaped
// rather than raw IAX2 payload at the PBX boundary (spec §B domain
// stack wiring). Most channel drivers never call this — DeliverVoice's
// VoiceFrame already carries everything a driver needs to encode its
// own media path.
func (e *Engine) RTPBridge(scallno uint16) (*media.Bridge, error) {
	entry, ok := e.calls.Table().Get(scallno)
	if !ok {
		return nil, ErrUnknownCall
	}
	slot, ok := entry.Owner.(*callstate.CallSlot)
	if !ok || slot == nil {
		return nil, ErrUnknownCall
	}
	slot.Lock()
	format := slot.Format
	slot.Unlock()
	return media.NewBridge(format)
}

// Start binds the UDP socket and launches the network receive loop,
// the transmit taskprocessor, and the scheduler loop (spec §5's three
// long-lived goroutines: network thread, transmit taskprocessor,
// scheduler thread — the dispatcher's worker pool is already running
// from New). The receive-loop shape (non-blocking ReadFrom with a
// short deadline, looped under a cancellable context) follows the
// teacher's transport.UDPTransport.processPackets.
func (e *Engine) Start() error {
	addr := net.JoinHostPort(e.opts.BindAddr, portString(e.opts.BindPort))
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return err
	}
	e.conn = conn
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.sendQueue = make(chan outboundDatagram, 256)

	e.wg.Add(3)
	go e.receiveLoop()
	go e.transmitLoop()
	go e.schedulerLoop()

	log.WithField("addr", conn.LocalAddr().String()).Info("engine started")
	return nil
}

// Stop cancels the network/transmit/scheduler goroutines, joins them,
// and stops the worker pool and trunk scheduler (spec §5 "On module
// shutdown: cancel the network thread; signal all workers to stop;
// join all threads").
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	if e.conn != nil {
		_ = e.conn.Close()
	}
	e.wg.Wait()
	e.pool.Stop()
	log.Info("engine stopped")
}

func (e *Engine) receiveLoop() {
	defer e.wg.Done()
	buf := make([]byte, 65536)
	for {
		select {
		case <-e.ctx.Done():
			return
		default:
		}
		_ = e.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, addr, err := e.conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-e.ctx.Done():
				return
			default:
				continue
			}
		}
		raw := make([]byte, n)
		copy(raw, buf[:n])
		e.dispatcher.Receive(addr.String(), raw)
	}
}

func (e *Engine) transmitLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case dg := <-e.sendQueue:
			if _, err := e.conn.WriteTo(dg.data, dg.addr); err != nil {
				log.WithError(err).WithField("addr", dg.addr.String()).Warn("engine: send failed")
			}
		}
	}
}

// schedulerLoop fires the engine's timed callbacks: call retransmit
// ticking (owned per-slot via callstate.CallSlot.Queue, driven here),
// the trunk aggregation tick, key rotation, and qualify/registration
// polling; VNAK resends are driven by the arriving VNAK frame instead.
// A single ticker at the trunk's tick granularity drives all
// of them; each slot's own due-time bookkeeping decides whether it has
// anything to do on a given tick (spec §5 "one scheduler thread fires
// timed callbacks").
func (e *Engine) schedulerLoop() {
	defer e.wg.Done()
	interval := e.opts.TrunkFreq
	if interval <= 0 {
		interval = trunk.DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.ctx.Done():
			return
		case now := <-ticker.C:
			e.trunks.Tick(now)
			e.tickRetransmits(now)
			e.tickKeyRotation(now)
			e.tickQualify(now)
			e.tickRegistrations(now)
		}
	}
}

// forEachSlot walks every bound call number's slot. The call-number
// table's Owner field holds the *callstate.CallSlot for every bound
// scallno; fn is invoked without any lock held so it can take the
// slot's own lock itself.
func (e *Engine) forEachSlot(fn func(scallno uint16, slot *callstate.CallSlot)) {
	for scallno := callno.MinCallNo; scallno < uint16(callno.TableSize); scallno++ {
		entry, ok := e.calls.Table().Get(scallno)
		if !ok {
			continue
		}
		slot, ok := entry.Owner.(*callstate.CallSlot)
		if !ok || slot == nil {
			continue
		}
		fn(scallno, slot)
	}
}

// tickRetransmits walks every live call slot, retransmitting due
// frames and destroying any call whose retry budget is exhausted
// (spec §4.5 "After max_retries, the call is destroyed with
// ETIMEDOUT").
func (e *Engine) tickRetransmits(now time.Time) {
	e.forEachSlot(func(scallno uint16, slot *callstate.CallSlot) {
		slot.Lock()
		due, expired := slot.Queue.Tick(now)
		for _, p := range due {
			e.reencryptIfRotated(slot, p, now)
		}
		addr := slot.PeerAddr
		var owner any
		var trunk, validated, destroy bool
		if len(expired) > 0 {
			slot.CompleteTeardown(now)
			owner, trunk, validated, destroy = slot.Owner, slot.Trunk, slot.Validated, true
		}
		slot.Unlock()

		for _, p := range due {
			e.send(addr, p.Data)
		}
		if destroy {
			e.disarmRotation(scallno)
			e.calls.Release(addr, scallno, trunk, validated)
			if owner != nil {
				e.channel.CallEnded(owner, causeDestinationOutOfOrder)
			}
		}
	})
}

// flushTrunk is trunk.Scheduler's FlushFunc: it serializes a completed
// meta-trunk frame and hands it to the transmit taskprocessor.
func (e *Engine) flushTrunk(addr string, mf *wire.MetaFrame) {
	data, err := mf.Serialize()
	if err != nil {
		log.WithError(err).Warn("engine: failed to serialize trunk frame")
		return
	}
	e.send(addr, data)
}

// send enqueues data for addr onto the single transmit taskprocessor,
// resolving addr lazily since callstate/callno only ever carry
// addresses as strings (spec §5 "single-writer taskprocessor").
func (e *Engine) send(addr string, data []byte) {
	resolved, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		log.WithError(err).WithField("addr", addr).Warn("engine: failed to resolve peer address")
		return
	}
	select {
	case e.sendQueue <- outboundDatagram{addr: resolved, data: data}:
	default:
		log.WithField("addr", addr).Warn("engine: transmit queue full, dropping datagram")
	}
}

func portString(p uint16) string {
	return strconv.FormatUint(uint64(p), 10)
}

const causeDestinationOutOfOrder = 41 // DESTINATION_OUT_OF_ORDER (spec §7 "Transient errors")
