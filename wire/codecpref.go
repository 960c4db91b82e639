package wire

// Codec preference lists travel in IECodecPrefs as an ASCII string where
// each byte is a codec bitfield-index offset by a fixed differential.
// original_source/channels/iax2/codec_pref.c uses a differential of 'A';
// spec.md is explicit that interop requires 'A'+1 (a historical off-by-one
// baked into deployed implementations) — SPEC_FULL.md §D.1 records this as
// the authoritative choice for this engine.
const codecPrefDifferential = int('A') + 1

// maxCodecPrefEntries bounds a preference list the way the fixed-size
// order[] array in the original implementation does.
const maxCodecPrefEntries = 32

// EncodeCodecPrefs converts an ordered list of codec bitfield indices into
// the wire string form.
func EncodeCodecPrefs(order []byte) string {
	if len(order) > maxCodecPrefEntries {
		order = order[:maxCodecPrefEntries]
	}
	buf := make([]byte, len(order))
	for i, idx := range order {
		buf[i] = byte(int(idx) + codecPrefDifferential)
	}
	return string(buf)
}

// DecodeCodecPrefs converts a wire-form preference string back into an
// ordered list of codec bitfield indices.
func DecodeCodecPrefs(s string) []byte {
	if len(s) > maxCodecPrefEntries {
		s = s[:maxCodecPrefEntries]
	}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = byte(int(s[i]) - codecPrefDifferential)
	}
	return out
}
