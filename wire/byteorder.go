package wire

// htons/htonl mirror the teacher's bgp package helpers: small, inlineable
// big-endian encoders used throughout the hand-rolled wire codec instead
// of reaching for encoding/binary.BigEndian at every call site.

func htons(h uint16) [2]byte {
	return [2]byte{byte(h >> 8), byte(h)}
}

func htonl(h uint32) [4]byte {
	return [4]byte{byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h)}
}

func ntohs(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func ntohl(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
