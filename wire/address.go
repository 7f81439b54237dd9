package wire

import "fmt"

// AddressLen is the wire size of an Address: 1 byte station type, 1 byte
// flags (bit 0: initial configuration), 6 bytes link-layer address.
const AddressLen = 8

// StationType is the eight-bit station-type field of an Address (§3).
type StationType uint8

const (
	StationUnknown StationType = iota
	StationPedestrian
	StationCyclist
	StationMoped
	StationMotorcycle
	StationPassengerCar
	StationBus
	StationHeavyTruck
	StationTrailer
	StationSpecialVehicle
	StationTram
	StationRoadSideUnit StationType = 15
)

// LLAddr is a 48-bit link-layer (MAC) address.
type LLAddr [6]byte

func (a LLAddr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

// Address is the station identifier: a 48-bit link-layer address plus an
// eight-bit station-type and one initial-configuration bit (§3).
type Address struct {
	StationType        StationType
	InitiallyConfigured bool
	LLAddr              LLAddr
}

// ParseAddress decodes an Address from the first AddressLen bytes of b.
func ParseAddress(b []byte) (Address, error) {
	if len(b) < AddressLen {
		return Address{}, NewMalformed("address: short buffer", 0)
	}

	a := Address{
		StationType:         StationType(b[0]),
		InitiallyConfigured: b[1]&0x01 != 0,
	}
	copy(a.LLAddr[:], b[2:8])
	return a, nil
}

// Emit encodes a into the first AddressLen bytes of b.
func (a Address) Emit(b []byte) {
	b[0] = byte(a.StationType)
	b[1] = 0
	if a.InitiallyConfigured {
		b[1] |= 0x01
	}
	copy(b[2:8], a.LLAddr[:])
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%d", a.LLAddr, a.StationType)
}
