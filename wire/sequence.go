package wire

// SequenceNumber is a 16-bit per-origin-station counter, compared with
// serial-number arithmetic (RFC 1982 style) so wraparound at 2^16 is
// tolerated (§3).
type SequenceNumber uint16

// NewerThan reports whether s is strictly newer than other, modulo 2^16.
func (s SequenceNumber) NewerThan(other SequenceNumber) bool {
	return int16(s-other) > 0
}

// Distance returns the signed distance from other to s, modulo 2^16, in
// [-32768, 32768). A negative result means s is behind other.
func (s SequenceNumber) Distance(other SequenceNumber) int {
	return int(int16(s - other))
}

// Next returns s+1, wrapping at 2^16.
func (s SequenceNumber) Next() SequenceNumber { return s + 1 }
