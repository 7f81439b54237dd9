/*
 * VC5 load balancer. Copyright (C) 2021-present David Coles
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

// Package radio defines the boundary between the forwarding engine and
// the physical medium: the Device interface the core polls, the token
// types that hand buffer ownership across that boundary, and the
// Ethernet/802.11p framing helpers for the media variants named in §6.
// Peripheral lifecycle (channel, power, MCS, device open/close) is an
// external collaborator's responsibility, never the core's.
package radio

import (
	"encoding/binary"
	"net"

	"github.com/veloce-go/geonet/coreerr"
)

// GeoNetworkingEthertype is the link-layer ethertype carrying
// GeoNetworking frames directly over Ethernet (§6).
const GeoNetworkingEthertype = 0x8947

// Medium identifies the physical transport a Device operates over.
type Medium uint8

const (
	MediumEthernet Medium = iota
	Medium80211p
	MediumPC5
)

func (m Medium) String() string {
	switch m {
	case MediumEthernet:
		return "ethernet"
	case Medium80211p:
		return "802.11p"
	case MediumPC5:
		return "pc5"
	default:
		return "unknown"
	}
}

// Capabilities describes a Device's fixed properties.
type Capabilities struct {
	Medium Medium
	MTU    int
}

// RxToken is a single-use handle over one received frame. Consume
// transfers ownership of the underlying buffer to the caller; it may
// be called at most once.
type RxToken interface {
	Consume() ([]byte, error)
}

// TxToken is a single-use handle granting permission to transmit one
// frame of up to the Device's MTU. Consume hands frame to the device
// and may be called at most once.
type TxToken interface {
	Consume(frame []byte) error
}

// Device is the operations the core consumes from a radio peripheral
// (§6): non-blocking polls for a receivable frame and for permission
// to transmit, plus the medium's fixed capabilities. Configuration
// (channel, power, MCS) and the device's open/close lifecycle are out
// of scope — an embedder constructs a Device already bound to a live
// peripheral.
type Device interface {
	Receive(now int64) (RxToken, TxToken, bool)
	Transmit(now int64) (TxToken, bool)
	Capabilities() Capabilities
}

// EthernetFrame builds dst|src|ethertype|payload for the Ethernet
// medium variant (§6: "dst_mac | src_mac | ethertype=0x8947 |
// basic_hdr | common_hdr | ext_hdr | [secured_envelope] | payload").
func EthernetFrame(dst, src net.HardwareAddr, payload []byte) ([]byte, error) {
	if len(dst) != 6 || len(src) != 6 {
		return nil, coreerr.New(coreerr.Malformed, "radio: hardware address must be 6 bytes")
	}

	frame := make([]byte, 14+len(payload))
	copy(frame[0:6], dst)
	copy(frame[6:12], src)
	binary.BigEndian.PutUint16(frame[12:14], GeoNetworkingEthertype)
	copy(frame[14:], payload)
	return frame, nil
}

// ParseEthernetFrame splits an Ethernet-framed GeoNetworking packet
// back into its addresses and payload, rejecting anything not carrying
// GeoNetworkingEthertype.
func ParseEthernetFrame(frame []byte) (dst, src net.HardwareAddr, payload []byte, err error) {
	if len(frame) < 14 {
		return nil, nil, nil, coreerr.New(coreerr.Malformed, "radio: frame shorter than an Ethernet header")
	}

	ethertype := binary.BigEndian.Uint16(frame[12:14])
	if ethertype != GeoNetworkingEthertype {
		return nil, nil, nil, coreerr.New(coreerr.Unsupported, "radio: unrecognized ethertype")
	}

	dst = net.HardwareAddr(append([]byte(nil), frame[0:6]...))
	src = net.HardwareAddr(append([]byte(nil), frame[6:12]...))
	payload = append([]byte(nil), frame[14:]...)
	return dst, src, payload, nil
}

// llcSNAPHeader is the fixed OUI=00:00:00 SNAP header that precedes a
// GeoNetworking ethertype on the 802.11p medium (§6).
var llcSNAPHeader = [8]byte{0xaa, 0xaa, 0x03, 0x00, 0x00, 0x00, 0x89, 0x47}

// Dot11pFrame wraps payload in the LLC-SNAP envelope used over
// IEEE 802.11p (§6: "llc_snap(oui=00:00:00, ethertype=0x8947)").
// The QoS MAC header itself is the 802.11p adapter's responsibility,
// not this package's — it carries no GeoNetworking-specific content.
func Dot11pFrame(payload []byte) []byte {
	frame := make([]byte, len(llcSNAPHeader)+len(payload))
	copy(frame, llcSNAPHeader[:])
	copy(frame[len(llcSNAPHeader):], payload)
	return frame
}

// ParseDot11pFrame strips the LLC-SNAP envelope, rejecting anything
// whose OUI/ethertype doesn't match GeoNetworking.
func ParseDot11pFrame(frame []byte) ([]byte, error) {
	if len(frame) < len(llcSNAPHeader) {
		return nil, coreerr.New(coreerr.Malformed, "radio: frame shorter than an LLC-SNAP header")
	}
	var got [8]byte
	copy(got[:], frame[:8])
	if got != llcSNAPHeader {
		return nil, coreerr.New(coreerr.Unsupported, "radio: unrecognized LLC-SNAP header")
	}
	return append([]byte(nil), frame[8:]...), nil
}
