// Package calltoken implements the call-token anti-spoof handshake
// that precedes call-number allocation for senders that must prove
// they actually receive traffic at the address they claim (spec §4.7).
//
// The guard is deliberately stateless on the server side: the token
// embeds everything needed to revalidate it (timestamp plus a keyed
// hash), so no per-sender record is held until a token has actually
// been proven valid.
package calltoken

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "calltoken")

// MaxCallTokenDelay bounds how old a token's embedded timestamp may be
// when it's echoed back (spec §4.7 default 10s).
const MaxCallTokenDelay = 10 * time.Second

// Policy is a peer's call-token requirement (spec §4.7).
type Policy int

const (
	PolicyRequired Policy = iota
	PolicyOptional
	PolicyAuto
	PolicyNo
)

var (
	// ErrTokenMismatch indicates the echoed token's hash doesn't match
	// what the guard would have generated for its embedded timestamp.
	ErrTokenMismatch = errors.New("calltoken: hash does not match")
	// ErrTokenExpired indicates the token's timestamp is too old or in
	// the future.
	ErrTokenExpired = errors.New("calltoken: timestamp outside valid window")
	// ErrMalformedToken indicates the token string isn't in the
	// "<unix_time>?<hex sha1>" shape.
	ErrMalformedToken = errors.New("calltoken: malformed token string")
)

// Guard issues and validates call tokens using a server-wide secret.
// It holds no per-sender state; AUTO-policy upgrade bookkeeping (the
// only state this handshake needs across packets) lives in UpgradeTracker.
type Guard struct {
	secret []byte
	now    func() time.Time
}

// NewGuard creates a Guard keyed by secret (the operator's
// calltokenoptional/... server secret, out of config scope here).
func NewGuard(secret []byte) *Guard {
	return &Guard{secret: secret, now: time.Now}
}

// Issue builds a fresh token for a sender at addr:port, embedding the
// current time (spec §4.7 step 1: "<unix_time>?<sha1(addr||port||time||server_secret)>").
func (g *Guard) Issue(addr string, port uint16) string {
	t := g.now().Unix()
	return fmt.Sprintf("%d?%s", t, hex.EncodeToString(g.sign(addr, port, t)))
}

// Validate checks an echoed token against addr:port, failing with
// ErrMalformedToken, ErrTokenExpired, or ErrTokenMismatch. Only on nil
// error has the sender proven it receives at addr:port.
func (g *Guard) Validate(token, addr string, port uint16) error {
	parts := strings.SplitN(token, "?", 2)
	if len(parts) != 2 {
		return ErrMalformedToken
	}
	t, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ErrMalformedToken
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return ErrMalformedToken
	}

	now := g.now()
	issued := time.Unix(t, 0)
	if now.Before(issued) {
		return ErrTokenExpired
	}
	if now.Sub(issued) > MaxCallTokenDelay {
		return ErrTokenExpired
	}

	got := g.sign(addr, port, t)
	if !hmac.Equal(got, want) {
		return ErrTokenMismatch
	}
	return nil
}

func (g *Guard) sign(addr string, port uint16, t int64) []byte {
	h := sha1.New()
	h.Write([]byte(addr))
	h.Write([]byte{byte(port >> 8), byte(port)})
	h.Write([]byte(strconv.FormatInt(t, 10)))
	h.Write(g.secret)
	return h.Sum(nil)
}
