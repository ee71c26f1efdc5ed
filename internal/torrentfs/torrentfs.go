// Package torrentfs declares the collaborator interfaces spec.md §6 lists as
// abstract capabilities the core consumes: byte source, type oracle, piece
// provider, random. The tracker transport is declared beside its consumer,
// as tracker.TransportClient in internal/tracker. Components reach their
// external collaborators (piece provider, type oracle, random) through these
// interfaces, the same separation the teacher draws between its torrent
// package and its storage/peer collaborators.
package torrentfs

import (
	"crypto/rand"
	"os"
	"time"

	"github.com/gofrs/uuid"

	"github.com/cenkalti/torrentfs/internal/metainfo"
)

// ByteSource is the collaborator that owns the raw bytes of a .torrent file.
type ByteSource interface {
	Size() (uint64, error)
	ReadAll(buf []byte) (uint64, error)
	Ctime() (int64, error)
}

// FileByteSource is the default ByteSource: a file on disk, read through
// os.Stat/os.ReadFile rather than kept open, matching the short-lived,
// one-shot way the CLI touches a .torrent file.
type FileByteSource struct {
	Path string
}

// Size reports the file's length in bytes.
func (f FileByteSource) Size() (uint64, error) {
	fi, err := os.Stat(f.Path)
	if err != nil {
		return 0, err
	}
	return uint64(fi.Size()), nil
}

// ReadAll reads the whole file into buf, which must be at least Size() long.
func (f FileByteSource) ReadAll(buf []byte) (uint64, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, err
	}
	return uint64(copy(buf, b)), nil
}

// Ctime reports the file's modification time as a Unix timestamp: stat(2)
// exposes no true creation time on most platforms, so mtime is the closest
// standing-in value, same as os.FileInfo itself only offers ModTime.
func (f FileByteSource) Ctime() (int64, error) {
	fi, err := os.Stat(f.Path)
	if err != nil {
		return 0, err
	}
	return fi.ModTime().Unix(), nil
}

var _ ByteSource = FileByteSource{}

// DefaultCreationDate fills m.CreationDate from src.Ctime when the torrent
// file itself declared no "creation date", per spec.md §3's "defaults to
// host's reported creation time of the backing file."
func DefaultCreationDate(m *metainfo.Metainfo, src ByteSource) error {
	if m.HasCreation {
		return nil
	}
	ctime, err := src.Ctime()
	if err != nil {
		return err
	}
	m.CreationDate = ctime
	m.HasCreation = true
	return nil
}

// TypeHandle is an opaque file/directory type token handed back by a
// TypeOracle, displayed to callers but never interpreted by the core.
type TypeHandle string

// TypeOracle resolves a type handle for a file (keyed by name, typically
// its extension) or for any directory.
type TypeOracle interface {
	TypeOfFile(name string) TypeHandle
	TypeOfDirectory() TypeHandle
}

// Session correlates a piece provider's bookkeeping for one added torrent. It
// wraps a uuid so repeated runs against the same provider are
// log-correlatable.
type Session struct {
	id uuid.UUID
}

// String renders the session's correlation id.
func (s Session) String() string { return s.id.String() }

// NewSession mints a Session from a fresh random UUID v4.
func NewSession() (Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Session{}, err
	}
	return Session{id: id}, nil
}

// PieceEvent reports a state change observed by Poll.
type PieceEvent struct {
	Session     Session
	PieceIndex  uint32
	Have        bool
	Err         error
}

// PieceProvider is the collaborator that owns torrent data acquisition.
// internal/filestream drives it to turn piece indices into bytes; it never
// reaches into peer wire protocol or disk cache details itself.
type PieceProvider interface {
	AddTorrent(infoHash [20]byte, m *metainfo.Metainfo) (Session, error)
	SetPieceDeadline(s Session, pieceIndex uint32, deadlineRank int64)
	HavePiece(s Session, pieceIndex uint32) bool
	ReadPiece(s Session, pieceIndex uint32) (<-chan PieceResult, error)
	Poll(timeout time.Duration) []PieceEvent
	ClearDeadlines(s Session)
}

// PieceResult is delivered on the channel ReadPiece returns: exactly one of
// Bytes or Err is meaningful.
type PieceResult struct {
	Bytes []byte
	Err   error
}

// Random is the collaborator that fills a buffer with entropy; CryptoRandom
// (crypto/rand) is the implementation this module provides.
type Random interface {
	Fill(buf []byte) error
}

// CryptoRandom is the production Random: crypto/rand.Read.
type CryptoRandom struct{}

// Fill implements Random.
func (CryptoRandom) Fill(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}

var _ Random = CryptoRandom{}
