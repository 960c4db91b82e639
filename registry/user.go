package registry

import (
	"sync/atomic"

	"github.com/iax2core/engine/calltoken"
	"github.com/iax2core/engine/wire"
)

// User is a known identity that may authenticate inbound (spec §3 Data
// Model "User").
type User struct {
	refs int32

	Name       string
	Secret     string
	RSAKeyName string

	Contexts []string
	ACL      []string

	Capability wire.Format
	CodecPrefs []byte

	// EncryptionMask overrides the instance-wide encryption offer for
	// calls authenticating as this user, mirroring Peer.EncryptionMask's
	// per-identity override (spec §4.9 "Negotiation").
	EncryptionMask uint16

	AuthMethods     uint16
	AuthReqCount    int
	MaxAuthReq      int
	CallTokenPolicy calltoken.Policy
}

// Hold/Release mirror Peer's reference counting (spec §5).
func (u *User) Hold() *User {
	atomic.AddInt32(&u.refs, 1)
	return u
}

func (u *User) Release() {
	atomic.AddInt32(&u.refs, -1)
}

func (u *User) RefCount() int32 {
	return atomic.LoadInt32(&u.refs)
}

// MatchScore scores how well this user matches an inbound NEW's
// asserted username and source address, implementing spec §4.4 step 1
// "pick the best-scoring match (exact-name > ACL-only > secret-only >
// nothing)".
type MatchScore int

const (
	MatchNone MatchScore = iota
	MatchSecretOnly
	MatchACLOnly
	MatchExactName
)

// Score evaluates how well u matches an inbound NEW asserting username
// from addr, given whether addr passes u's ACL.
func (u *User) Score(username string, aclOK bool) MatchScore {
	switch {
	case username != "" && username == u.Name:
		return MatchExactName
	case aclOK && len(u.ACL) > 0:
		return MatchACLOnly
	case u.Secret != "":
		return MatchSecretOnly
	default:
		return MatchNone
	}
}
