package memprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cenkalti/torrentfs/internal/torrentfs"
)

func TestSeedThenReadPiece(t *testing.T) {
	p := New()
	var ih [20]byte
	p.Seed(ih, [][]byte{[]byte("abcd"), []byte("efgh")})

	s, err := p.AddTorrent(ih, nil)
	require.NoError(t, err)

	assert.True(t, p.HavePiece(s, 0))
	assert.True(t, p.HavePiece(s, 1))
	assert.False(t, p.HavePiece(s, 2))

	ch, err := p.ReadPiece(s, 1)
	require.NoError(t, err)
	result := <-ch
	require.NoError(t, result.Err)
	assert.Equal(t, "efgh", string(result.Bytes))
}

func TestSessionsAreIsolatedPerTorrent(t *testing.T) {
	p := New()
	var ihA, ihB [20]byte
	ihA[0] = 1
	ihB[0] = 2
	p.Seed(ihA, [][]byte{[]byte("aaaa")})

	sA, err := p.AddTorrent(ihA, nil)
	require.NoError(t, err)
	sB, err := p.AddTorrent(ihB, nil)
	require.NoError(t, err)

	assert.True(t, p.HavePiece(sA, 0))
	assert.False(t, p.HavePiece(sB, 0))
}

func TestReadPieceUnknownIndexErrors(t *testing.T) {
	p := New()
	var ih [20]byte
	s, err := p.AddTorrent(ih, nil)
	require.NoError(t, err)

	ch, err := p.ReadPiece(s, 0)
	require.NoError(t, err)
	result := <-ch
	assert.Error(t, result.Err)
}

func TestDeadlineCallsAreNoOps(t *testing.T) {
	p := New()
	var ih [20]byte
	s, err := p.AddTorrent(ih, nil)
	require.NoError(t, err)

	p.SetPieceDeadline(s, 0, 1)
	p.ClearDeadlines(s)
	assert.Nil(t, p.Poll(0))
}

var _ torrentfs.PieceProvider = (*Provider)(nil)
