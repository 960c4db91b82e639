// Package trunk implements trunking: aggregation of many calls to the
// same remote host into one meta-frame per tick, instead of one UDP
// datagram per call per media frame (spec §4.8).
package trunk

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iax2core/engine/wire"
)

var log = logrus.WithField("package", "trunk")

const (
	// DefaultTrunkData is the initial/growth-increment size of a
	// TrunkPeer's scratch buffer (spec §4.8 "Buffer growth").
	DefaultTrunkData = 4096
	// DefaultTrunkMaxSize bounds total buffered bytes per tick.
	DefaultTrunkMaxSize = 128000
	// MaxTrunkMTU triggers an early flush before the scheduled tick to
	// stay under Ethernet MTU (spec §4.8 "Early flush").
	MaxTrunkMTU = 1240
	// IdleReap is how long an idle TrunkPeer survives before reaping.
	IdleReap = 5 * time.Second
)

// FlushFunc is called by Append (early flush) or Scheduler.Tick
// (regular flush) with one remote host's aggregated frame, ready to
// send as-is.
type FlushFunc func(addr string, frame *wire.MetaFrame)

// TrunkPeer aggregates pending trunk entries for one remote host
// between ticks.
type TrunkPeer struct {
	Addr            string
	HasTimestamps   bool
	entries         []wire.TrunkEntry
	bufferedBytes   int
	lastTx          time.Time
	txTimeBase      time.Time
	tickCallCount   int
}

// NewTrunkPeer creates an aggregation buffer for addr.
func NewTrunkPeer(addr string, hasTimestamps bool, now time.Time) *TrunkPeer {
	return &TrunkPeer{Addr: addr, HasTimestamps: hasTimestamps, lastTx: now, txTimeBase: now}
}

// Append adds one call's media entry to the peer's pending buffer
// (spec §4.8 "Aggregation"). It returns a non-nil frame if the entry
// pushed the buffer past MaxTrunkMTU and an early flush was required;
// the caller must send that frame immediately rather than waiting for
// the next scheduled tick.
func (p *TrunkPeer) Append(callNo uint16, ts16 uint16, payload []byte, now time.Time) *wire.MetaFrame {
	p.lastTx = now
	p.tickCallCount++

	entry := wire.TrunkEntry{CallNo: callNo, Payload: payload}
	if p.HasTimestamps {
		entry.Timestamp = ts16
	}
	p.entries = append(p.entries, entry)

	entrySize := 4 + len(payload) // wire.MetaFrame entry header: callno(16)+len(16)
	if p.HasTimestamps {
		entrySize += 2
	}
	p.bufferedBytes += entrySize

	if p.bufferedBytes > DefaultTrunkMaxSize {
		log.WithField("addr", p.Addr).Warn("trunk: buffer exceeded trunkmaxsize, dropping entry")
		p.entries = p.entries[:len(p.entries)-1]
		p.bufferedBytes -= entrySize
		return nil
	}

	if p.bufferedBytes >= MaxTrunkMTU {
		return p.drain(now)
	}
	return nil
}

// drain builds a meta-trunk frame from everything buffered and resets
// the peer for the next tick.
func (p *TrunkPeer) drain(now time.Time) *wire.MetaFrame {
	if len(p.entries) == 0 {
		return nil
	}
	mf := &wire.MetaFrame{
		Cmd:            wire.MetaTrunk,
		HasEntryStamps: p.HasTimestamps,
		Timestamp:      uint32(now.Sub(p.txTimeBase).Milliseconds()),
		Entries:        p.entries,
	}
	p.entries = nil
	p.bufferedBytes = 0
	p.tickCallCount = 0
	return mf
}

// Idle reports whether the peer has received nothing since before
// IdleReap relative to now (spec §4.8 "Lifecycle").
func (p *TrunkPeer) Idle(now time.Time) bool {
	return now.Sub(p.lastTx) > IdleReap
}
