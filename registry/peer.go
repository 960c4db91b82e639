// Package registry implements the peer/user tables, outbound
// registration state machine, and qualify-poke reachability tracking
// (spec §4.6).
package registry

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iax2core/engine/calltoken"
)

var log = logrus.WithField("package", "registry")

// Origin records where a Peer/User record came from (spec §4.6 "Peers
// may be static (config), realtime (database-loaded on demand), or
// dynamic (registered over the wire)"). Realtime lookups themselves
// are an external collaborator (spec §1 "realtime database lookups");
// registry only tracks the classification and, for Realtime entries,
// whether they should be cached per rtcachefriends.
type Origin int

const (
	OriginStatic Origin = iota
	OriginRealtime
	OriginDynamic
)

// Peer is a known remote that may call or register (spec §3 Data
// Model "Peer").
type Peer struct {
	refs int32 // reference count (spec §5): held while a lookup result is in use

	Name       string
	Secret     string
	RSAKeyName string

	DefaultAddr string
	CurrentAddr string

	RefreshInterval time.Duration
	EncryptionMask  uint16
	MaxCallNo       int

	CallTokenPolicy calltoken.Policy

	Origin        Origin
	CacheRealtime bool

	MaxMs            int // 0 disables qualify
	QualifyFreqOK    time.Duration
	QualifyFreqNotOK time.Duration
	HistoricMs       float64
	Reachable        bool

	ACL []string

	FailCount int
}

// Hold increments the reference count; callers must call Release once
// done (spec §5 "lookup returns a held reference; callers must release
// it").
func (p *Peer) Hold() *Peer {
	atomic.AddInt32(&p.refs, 1)
	return p
}

// Release decrements the reference count.
func (p *Peer) Release() {
	atomic.AddInt32(&p.refs, -1)
}

// RefCount reports the current reference count, for tests/metrics.
func (p *Peer) RefCount() int32 {
	return atomic.LoadInt32(&p.refs)
}
