// Package media bridges jitter-buffer-released IAX2 voice frames to
// RTP, for PBX channel drivers that want media handed off in RTP
// shape rather than as raw IAX2 mini-frame payloads (spec §1's
// channel callback surface explicitly allows reshaping media on its
// way out; SPEC_FULL.md §B wires the teacher's pion/rtp dependency
// here). Nothing in this package decodes audio: a voice frame's
// payload stays the opaque bytes IAX2 carried it as, exactly per
// spec §1 scope.
package media
