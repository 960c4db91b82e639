package callstate

// BeginTransfer starts a native call transfer as the requesting side,
// recording the shared transfer id both legs will use to correlate
// TXREQ/TXACC/TXREADY/TXMEDIA|TXREL (spec §4.4 "Transfers").
func (s *CallSlot) BeginTransfer(transferID uint32) {
	s.TransferID = transferID
	s.Transfer = TransferBegin
}

// AcceptTransfer moves a TXREQ recipient to TransferReady after it
// replies TXACC.
func (s *CallSlot) AcceptTransfer() {
	s.Transfer = TransferReady
}

// CompleteMediaTransfer finishes a media-only redirect (TXMEDIA): the
// call keeps its original signaling path but media now flows to the
// transfer target directly.
func (s *CallSlot) CompleteMediaTransfer(newAddr string, newCallNo uint16) {
	s.Transfer = TransferMedia
	// Signaling stays with the original peer; only the media
	// destination changes, tracked by the caller via the call-number
	// table's transfer index (package callno).
	_ = newAddr
	_ = newCallNo
}

// CompleteFullTransfer finishes a TXREL: the whole call, signaling
// included, hands off to the new peer address and call number.
func (s *CallSlot) CompleteFullTransfer(newAddr string, newCallNo uint16) {
	s.PeerAddr = newAddr
	s.DCallNo = newCallNo
	s.Transfer = TransferReleased
}

// AbandonTransfer resets transfer state after a TXREJ or timeout,
// leaving the call itself untouched.
func (s *CallSlot) AbandonTransfer() {
	s.Transfer = TransferNone
	s.TransferID = 0
}
