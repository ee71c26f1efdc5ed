package tracker

import (
	"encoding/binary"
	"errors"
	"net"
)

// CompactPeer packs one tracker peer into the 6-byte compact wire form: a
// 4-byte IPv4 address followed by a 2-byte big-endian port. Being
// array-valued (no pointers), it is safe to use as a map key for peer
// deduplication.
type CompactPeer struct {
	IP   [net.IPv4len]byte
	Port uint16
}

// NewCompactPeer packs p into its compact form. A non-IPv4 address collapses
// to the zero IP.
func NewCompactPeer(p Peer) CompactPeer {
	var cp CompactPeer
	copy(cp.IP[:], p.IP.To4())
	cp.Port = p.Port
	return cp
}

// Peer unpacks the compact form back into a tracker.Peer.
func (p CompactPeer) Peer() Peer {
	ip := make(net.IP, net.IPv4len)
	copy(ip, p.IP[:])
	return Peer{IP: ip, Port: p.Port}
}

// MarshalBinary encodes p as its 6-byte wire form.
func (p CompactPeer) MarshalBinary() ([]byte, error) {
	b := make([]byte, 6)
	copy(b[:4], p.IP[:])
	binary.BigEndian.PutUint16(b[4:], p.Port)
	return b, nil
}

// UnmarshalBinary decodes a 6-byte wire form into p.
func (p *CompactPeer) UnmarshalBinary(data []byte) error {
	if len(data) != 6 {
		return errors.New("tracker: invalid compact peer length")
	}
	copy(p.IP[:], data[:4])
	p.Port = binary.BigEndian.Uint16(data[4:])
	return nil
}

// DecodePeersCompact splits the compact peer-list wire form (spec.md §4.5)
// into individual Peers, 6 bytes each.
func DecodePeersCompact(b []byte) ([]Peer, error) {
	if len(b)%6 != 0 {
		return nil, errors.New("tracker: invalid peer list length")
	}
	peers := make([]Peer, 0, len(b)/6)
	for i := 0; i+6 <= len(b); i += 6 {
		var cp CompactPeer
		if err := cp.UnmarshalBinary(b[i : i+6]); err != nil {
			return nil, err
		}
		peers = append(peers, cp.Peer())
	}
	return peers, nil
}
