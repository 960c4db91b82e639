package registry

import "time"

// DefaultQualifyFreqOK and DefaultQualifyFreqNotOK are the POKE
// scheduling intervals once a peer is, respectively, known reachable
// or known unreachable (spec §4.6 "Qualify").
const (
	DefaultQualifyFreqOK    = 60 * time.Second
	DefaultQualifyFreqNotOK = 10 * time.Second
)

// historicSmoothing is the exponential-smoothing factor applied to a
// peer's round-trip history on every successful POKE/PONG exchange.
const historicSmoothing = 0.5

// QualifyState tracks outbound POKE scheduling and reachability for a
// single peer. It is kept separate from Peer itself so the registry
// tables stay plain data while the qualify loop owns its own mutable
// per-peer scheduling state.
type QualifyState struct {
	freqOK    time.Duration
	freqNotOK time.Duration

	lastPoke time.Time
	pending  bool
	sentAt   time.Time

	historicMs float64
	reachable  bool
}

// NewQualifyState creates a state with peer-specific or default
// qualify intervals; a zero freq falls back to the package default.
func NewQualifyState(freqOK, freqNotOK time.Duration) *QualifyState {
	if freqOK <= 0 {
		freqOK = DefaultQualifyFreqOK
	}
	if freqNotOK <= 0 {
		freqNotOK = DefaultQualifyFreqNotOK
	}
	return &QualifyState{freqOK: freqOK, freqNotOK: freqNotOK, reachable: true}
}

// interval is the current POKE period: tighter while the peer is
// believed unreachable so recovery is detected quickly.
func (q *QualifyState) interval() time.Duration {
	if q.reachable {
		return q.freqOK
	}
	return q.freqNotOK
}

// Due reports whether a POKE should be sent now. A POKE already
// in flight is never re-sent; the caller is expected to call Timeout
// once the wait has gone on too long.
func (q *QualifyState) Due(now time.Time) bool {
	if q.pending {
		return false
	}
	return now.Sub(q.lastPoke) >= q.interval()
}

// Sent records that a POKE was just transmitted.
func (q *QualifyState) Sent(now time.Time) {
	q.pending = true
	q.sentAt = now
	q.lastPoke = now
}

// Pong records a PONG reply and folds its round-trip time into the
// smoothed historic latency, marking the peer reachable.
func (q *QualifyState) Pong(now time.Time) (rttMs float64) {
	rttMs = float64(now.Sub(q.sentAt).Milliseconds())
	if rttMs < 0 {
		rttMs = 0
	}
	if q.historicMs == 0 {
		q.historicMs = rttMs
	} else {
		q.historicMs = historicSmoothing*rttMs + (1-historicSmoothing)*q.historicMs
	}
	q.pending = false
	q.reachable = true
	return rttMs
}

// Timeout marks the outstanding POKE as lost, flipping the peer to
// unreachable so subsequent polling tightens to freqNotOK.
func (q *QualifyState) Timeout() {
	q.pending = false
	q.reachable = false
}

// Reachable reports the peer's current believed reachability.
func (q *QualifyState) Reachable() bool {
	return q.reachable
}

// HistoricMs reports the smoothed round-trip latency estimate.
func (q *QualifyState) HistoricMs() float64 {
	return q.historicMs
}

// ExceedsMaxMs reports whether the smoothed latency has exceeded a
// peer's configured maxms ceiling, at which point it should be treated
// as unreachable even though POKE/PONG is still succeeding.
func (q *QualifyState) ExceedsMaxMs(maxMs int) bool {
	return maxMs > 0 && q.historicMs > float64(maxMs)
}
