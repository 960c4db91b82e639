package engine

import (
	"sync"
	"time"

	"github.com/iax2core/engine/registry"
	"github.com/iax2core/engine/wire"
)

// registrationBook and qualifyBook hold the scheduling-only state the
// registry package deliberately keeps out of Peer/Registration
// themselves (spec §4.6): one QualifyState per configured peer and the
// set of outbound Registrations this instance maintains toward remote
// registrars.
type registrationBook struct {
	mu    sync.Mutex
	regs  []*registry.Registration
	quals map[string]*registry.QualifyState
}

func newRegistrationBook() *registrationBook {
	return &registrationBook{quals: make(map[string]*registry.QualifyState)}
}

// RegisterWith adds an outbound registration toward a remote registrar
// (spec §4.6 "Outbound registration"), driven every scheduler tick
// thereafter.
func (e *Engine) RegisterWith(addr, username, secret string, refresh time.Duration) {
	e.regBook.mu.Lock()
	defer e.regBook.mu.Unlock()
	e.regBook.regs = append(e.regBook.regs, registry.NewRegistration(addr, username, secret, refresh))
}

// qualifyStateFor returns (creating if needed) the QualifyState for a
// peer name.
func (e *Engine) qualifyStateFor(p *registry.Peer) *registry.QualifyState {
	e.regBook.mu.Lock()
	defer e.regBook.mu.Unlock()
	q, ok := e.regBook.quals[p.Name]
	if !ok {
		q = registry.NewQualifyState(p.QualifyFreqOK, p.QualifyFreqNotOK)
		e.regBook.quals[p.Name] = q
	}
	return q
}

// tickQualify sends a POKE to any peer whose qualify interval has
// elapsed and whose MaxMs qualify setting is enabled (spec §4.6
// "Qualify").
func (e *Engine) tickQualify(now time.Time) {
	e.peers.Range(func(p *registry.Peer) {
		if p.MaxMs <= 0 {
			return
		}
		q := e.qualifyStateFor(p)
		if !q.Due(now) {
			return
		}
		q.Sent(now)
		e.sendPoke(p.CurrentAddr)
	})
}

// tickRegistrations (re-)sends REGREQ for every outbound registration
// whose refresh is due (spec §4.6 "Outbound registration").
func (e *Engine) tickRegistrations(now time.Time) {
	e.regBook.mu.Lock()
	due := make([]*registry.Registration, 0, len(e.regBook.regs))
	for _, r := range e.regBook.regs {
		if r.Due(now) {
			due = append(due, r)
		}
	}
	e.regBook.mu.Unlock()

	for _, r := range due {
		e.sendRegReq(r)
		r.Sent(now)
	}
}

func (e *Engine) sendPoke(addr string) {
	if addr == "" {
		return
	}
	ff := &wire.FullFrame{
		Type:     wire.FrameTypeIAX,
		Subclass: int64(wire.CmdPoke),
	}
	data, err := ff.Serialize()
	if err != nil {
		log.WithError(err).Warn("engine: failed to serialize poke")
		return
	}
	e.send(addr, data)
}

func (e *Engine) sendRegReq(r *registry.Registration) {
	ies := wire.IESet{wire.NewStringIE(wire.IEUsername, r.Username)}
	ff := &wire.FullFrame{
		Type:     wire.FrameTypeIAX,
		Subclass: int64(wire.CmdRegReq),
		IEs:      ies,
	}
	data, err := ff.Serialize()
	if err != nil {
		log.WithError(err).Warn("engine: failed to serialize regreq")
		return
	}
	e.send(r.Address, data)
}
