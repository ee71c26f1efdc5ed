package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompactPeer(t *testing.T) {
	cp := CompactPeer{
		IP:   [4]byte{1, 2, 3, 4},
		Port: 5,
	}
	b, err := cp.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	var cp2 CompactPeer
	err = cp2.UnmarshalBinary(b)
	if err != nil {
		t.Fatal(err)
	}
	if cp != cp2 {
		t.FailNow()
	}
}

// Scenario E from spec.md §8: compact peers blob.
func TestDecodePeersCompact(t *testing.T) {
	blob := []byte{10, 0, 0, 1, 0x1A, 0xE1, 192, 168, 1, 2, 0x1A, 0xE1}
	peers, err := DecodePeersCompact(blob)
	if err != nil {
		t.Fatal(err)
	}
	if assert.Len(t, peers, 2) {
		assert.Equal(t, "10.0.0.1:6881", peers[0].String())
		assert.Equal(t, "192.168.1.2:6881", peers[1].String())
	}
}

func TestDecodePeersCompactInvalidLength(t *testing.T) {
	_, err := DecodePeersCompact([]byte{1, 2, 3})
	assert.Error(t, err)
}
