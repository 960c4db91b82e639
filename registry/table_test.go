package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerTableLookupReturnsHeldReference(t *testing.T) {
	tbl := NewPeerTable()
	tbl.Put(&Peer{Name: "alice", CurrentAddr: "198.51.100.7:4569"})

	p := tbl.Lookup("alice")
	require.NotNil(t, p)
	assert.EqualValues(t, 1, p.RefCount())
	p.Release()
	assert.EqualValues(t, 0, p.RefCount())

	assert.Nil(t, tbl.Lookup("nobody"))
}

func TestPeerTableFindByAddr(t *testing.T) {
	tbl := NewPeerTable()
	tbl.Put(&Peer{Name: "alice", CurrentAddr: "198.51.100.7:4569", Origin: OriginDynamic})
	tbl.Put(&Peer{Name: "bob", CurrentAddr: "198.51.100.8:4569", Origin: OriginDynamic})

	p := tbl.FindByAddr("198.51.100.8:4569")
	require.NotNil(t, p)
	assert.Equal(t, "bob", p.Name)
	p.Release()

	assert.Nil(t, tbl.FindByAddr("203.0.113.1:4569"))
}

func TestPeerTableRemove(t *testing.T) {
	tbl := NewPeerTable()
	tbl.Put(&Peer{Name: "alice"})
	tbl.Remove("alice")
	assert.Nil(t, tbl.Lookup("alice"))
}

func TestUserTableBestPicksHighestScore(t *testing.T) {
	tbl := NewUserTable()
	tbl.Put(&User{Name: "carol", Secret: "x"})
	tbl.Put(&User{Name: "dave", ACL: []string{"198.51.100.0/24"}})
	tbl.Put(&User{Name: "eve"})

	best := tbl.Best("dave", func(u *User) bool { return u.Name == "dave" })
	require.NotNil(t, best)
	assert.Equal(t, "dave", best.Name)
	best.Release()
}

func TestUserTableBestReturnsNilWhenNoMatch(t *testing.T) {
	tbl := NewUserTable()
	tbl.Put(&User{Name: "eve"})
	assert.Nil(t, tbl.Best("nobody", nil))
}
