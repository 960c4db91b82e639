package callstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iax2core/engine/wire"
)

func TestDispatchNewFromInitial(t *testing.T) {
	s := newTestSlot()
	action, err := s.Dispatch(wire.CmdNew, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, ActionSendAuthReq, action)
}

func TestDispatchNewOutOfState(t *testing.T) {
	s := newTestSlot()
	s.State = StateUp
	action, err := s.Dispatch(wire.CmdNew, time.Unix(0, 0))
	assert.ErrorIs(t, err, ErrBadState)
	assert.Equal(t, ActionSendReject, action)
}

func TestDispatchAcceptEntersUp(t *testing.T) {
	s := newTestSlot()
	s.State = StateWaitAccept
	action, err := s.Dispatch(wire.CmdAccept, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, ActionSendAck, action)
	assert.Equal(t, StateUp, s.State)
}

func TestDispatchHangupBeginsTeardown(t *testing.T) {
	s := newTestSlot()
	s.State = StateUp
	action, err := s.Dispatch(wire.CmdHangup, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, ActionSendAck, action)
	assert.Equal(t, StateTerminating, s.State)
}

func TestDispatchPingRepliesPong(t *testing.T) {
	s := newTestSlot()
	s.State = StateUp
	action, err := s.Dispatch(wire.CmdPing, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, ActionSendPong, action)
}

func TestDispatchUnknownCommandRepliesUnsupport(t *testing.T) {
	s := newTestSlot()
	action, err := s.Dispatch(wire.IAXCommand(250), time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, ActionSendUnsupport, action)
}

func TestDispatchDialplanForwardsToPBX(t *testing.T) {
	s := newTestSlot()
	action, err := s.Dispatch(wire.CmdDpReq, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, ActionForwardToPBX, action)
}

func TestTransferLifecycle(t *testing.T) {
	s := newTestSlot()
	s.BeginTransfer(42)
	assert.Equal(t, TransferBegin, s.Transfer)
	assert.Equal(t, uint32(42), s.TransferID)

	s.AcceptTransfer()
	assert.Equal(t, TransferReady, s.Transfer)

	s.CompleteFullTransfer("10.0.0.9:4569", 77)
	assert.Equal(t, TransferReleased, s.Transfer)
	assert.Equal(t, "10.0.0.9:4569", s.PeerAddr)
	assert.Equal(t, uint16(77), s.DCallNo)
}

func TestTeardownLifecycle(t *testing.T) {
	s := newTestSlot()
	s.State = StateUp
	s.BeginTeardown(time.Unix(0, 0))
	assert.Equal(t, StateTerminating, s.State)
	assert.False(t, s.IsDead())

	s.CompleteTeardown(time.Unix(1, 0))
	assert.True(t, s.IsDead())
}
