// Package memprovider is an in-memory torrentfs.PieceProvider: every piece
// of every added torrent lives in a caller-supplied byte slice, delivered
// with an optional simulated bandwidth cap. It exists for tests (the CLI
// does not use it), standing in for the real peer swarm/disk cache this module deliberately
// leaves out of scope (spec.md §1's Non-goals).
//
// Grounded on the teacher's torrent/session_metrics.go rate accounting
// style; the cap itself is github.com/juju/ratelimit, the same token-bucket
// library used for the teacher's upload/download rate limiting.
package memprovider

import (
	"fmt"
	"sync"
	"time"

	"github.com/juju/ratelimit"

	"github.com/cenkalti/torrentfs/internal/metainfo"
	"github.com/cenkalti/torrentfs/internal/torrentfs"
)

// Provider serves pieces straight out of memory, optionally rate-limited.
type Provider struct {
	mu        sync.Mutex
	byTorr    map[string]*entry
	bySession map[torrentfs.Session]string
	bucket    *ratelimit.Bucket
}

type entry struct {
	pieces [][]byte
	have   map[uint32]bool
}

// New returns a Provider with no bandwidth cap.
func New() *Provider {
	return &Provider{
		byTorr:    make(map[string]*entry),
		bySession: make(map[torrentfs.Session]string),
	}
}

// NewRateLimited returns a Provider capped at bytesPerSecond, refilled
// continuously, per ratelimit.NewBucketWithRate.
func NewRateLimited(bytesPerSecond float64, capacity int64) *Provider {
	p := New()
	p.bucket = ratelimit.NewBucketWithRate(bytesPerSecond, capacity)
	return p
}

// Seed registers the piece contents for a torrent, ahead of AddTorrent, so
// tests can populate deterministic data before a stream reads it.
func (p *Provider) Seed(infoHash [20]byte, pieces [][]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	have := make(map[uint32]bool, len(pieces))
	for i := range pieces {
		have[uint32(i)] = true
	}
	p.byTorr[key(infoHash)] = &entry{pieces: pieces, have: have}
}

func key(infoHash [20]byte) string { return string(infoHash[:]) }

// AddTorrent registers an empty entry for infoHash if Seed has not already
// done so, and returns a fresh Session correlating subsequent calls with that
// torrent. m is not stored.
func (p *Provider) AddTorrent(infoHash [20]byte, m *metainfo.Metainfo) (torrentfs.Session, error) {
	s, err := torrentfs.NewSession()
	if err != nil {
		return s, err
	}
	p.mu.Lock()
	k := key(infoHash)
	if _, ok := p.byTorr[k]; !ok {
		p.byTorr[k] = &entry{have: make(map[uint32]bool)}
	}
	p.bySession[s] = k
	p.mu.Unlock()
	return s, nil
}

// SetPieceDeadline is a no-op: every seeded piece is already available, so
// read-ahead ranking has nothing to schedule.
func (p *Provider) SetPieceDeadline(s torrentfs.Session, pieceIndex uint32, deadlineRank int64) {}

// ClearDeadlines is a no-op for the same reason.
func (p *Provider) ClearDeadlines(s torrentfs.Session) {}

// HavePiece reports whether pieceIndex was seeded for s's torrent.
func (p *Provider) HavePiece(s torrentfs.Session, pieceIndex uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entryFor(s)
	return e != nil && e.have[pieceIndex]
}

// entryFor looks up the entry bound to s by AddTorrent. Callers must hold mu.
func (p *Provider) entryFor(s torrentfs.Session) *entry {
	k, ok := p.bySession[s]
	if !ok {
		return nil
	}
	return p.byTorr[k]
}

// ReadPiece delivers the seeded piece's bytes on the returned channel,
// throttled through the bandwidth bucket if one was configured.
func (p *Provider) ReadPiece(s torrentfs.Session, pieceIndex uint32) (<-chan torrentfs.PieceResult, error) {
	p.mu.Lock()
	var data []byte
	found := false
	if e := p.entryFor(s); e != nil && int(pieceIndex) < len(e.pieces) && e.have[pieceIndex] {
		data = e.pieces[pieceIndex]
		found = true
	}
	p.mu.Unlock()

	ch := make(chan torrentfs.PieceResult, 1)
	if !found {
		ch <- torrentfs.PieceResult{Err: fmt.Errorf("memprovider: no piece %d", pieceIndex)}
		return ch, nil
	}
	go func() {
		if p.bucket != nil {
			time.Sleep(p.bucket.Take(int64(len(data))))
		}
		ch <- torrentfs.PieceResult{Bytes: data}
	}()
	return ch, nil
}

// Poll always reports no events: this provider never changes state on its
// own between AddTorrent/Seed calls.
func (p *Provider) Poll(timeout time.Duration) []torrentfs.PieceEvent { return nil }

var _ torrentfs.PieceProvider = (*Provider)(nil)
