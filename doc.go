// Package engine implements an IAX2 (Inter-Asterisk eXchange v2,
// RFC 5456) protocol core: call signaling over a single multiplexed
// UDP socket, sliding-window reliable delivery of full frames, jitter
// buffering and timestamp reconstruction for mini/video-mini frames,
// trunked meta-frame aggregation, AES-128-CBC encryption with key
// rotation, MD5/RSA/plaintext authentication, call-token anti-spoof
// admission, and a peer/user registry with qualify and registration
// state machines.
//
// The engine never touches audio or video payload beyond framing it;
// encoding, transcoding, and dialplan logic are the PBX's concern,
// reached only through the ChannelAPI callback surface in channel.go.
//
// Package layout mirrors the protocol's own separation of concerns:
// wire (codec), callno (call-number table), callstate (per-call state
// machine), reliable (retransmit queue), jitter (playout buffer),
// dispatch (worker pool and frame reordering), registry (peers/users),
// calltoken (anti-spoof handshake), trunk (meta-frame aggregation),
// crypto (encryption and session keys), media (RTP shaping at the PBX
// boundary), config (operator-supplied options).
package engine
