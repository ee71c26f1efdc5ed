// Package filestream implements the read-only File Stream of spec.md §4.6:
// a Seek/Read view over one leaf file of a torrent, backed by an abstract
// PieceProvider instead of a local disk cache.
//
// Grounded on internal/filesection/section.go's Sections.ReadAt byte-range
// assembly (same "walk fragments, copy covering slices" shape) and
// internal/piecepicker's deadline-ranked piece selection for read-ahead
// hinting.
package filestream

import (
	"fmt"
	"io"
	"time"

	"github.com/rcrowley/go-metrics"

	"github.com/cenkalti/torrentfs/internal/filesection"
	"github.com/cenkalti/torrentfs/internal/piece"
	"github.com/cenkalti/torrentfs/internal/torrentfs"
)

// ErrorKind enumerates the ways a stream operation can fail.
type ErrorKind int

const (
	OutOfRange ErrorKind = iota
	ReadOnly
)

func (k ErrorKind) String() string {
	switch k {
	case OutOfRange:
		return "out of range"
	case ReadOnly:
		return "read only"
	default:
		return "unknown stream error"
	}
}

// Error reports why a FileStream operation failed.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string {
	return fmt.Sprintf("filestream: %s", e.Kind)
}

// Whence selects the reference point for Seek, mirroring io.Seeker's
// integer constants with spec.md's named variants.
type Whence int

const (
	FromBeginning Whence = iota
	FromCurrent
	FromEnd
)

// Config tunes the soft read timeout described in spec.md §5: a read call
// pokes the provider every PokeInterval until Budget elapses, at which point
// it returns whatever bytes have been copied so far.
type Config struct {
	PokeInterval time.Duration
	Budget       time.Duration
	ReadAhead    int
}

// DefaultConfig matches spec.md §5's recommended defaults.
func DefaultConfig() Config {
	return Config{
		PokeInterval: 100 * time.Millisecond,
		Budget:       60 * time.Second,
		ReadAhead:    4,
	}
}

// FileStream is a single-reader, read-only view over one file of a torrent.
// Concurrent calls to Read/Seek on the same stream are undefined, matching
// spec.md §4.6's concurrency note.
type FileStream struct {
	session    torrentfs.Session
	provider   torrentfs.PieceProvider
	layout     *piece.Layout
	fileIndex  int
	length     int64
	pos        int64
	cfg        Config
	deadlineAt int64 // monotonically increasing deadline-rank counter
	meter      metrics.Meter
}

// New opens a FileStream over fileIndex of layout, backed by provider under
// session. It immediately hints read-ahead for the first cfg.ReadAhead
// pieces covering the file, per spec.md §4.6's construction-time hint.
func New(provider torrentfs.PieceProvider, session torrentfs.Session, layout *piece.Layout, fileIndex int, length int64, cfg Config) *FileStream {
	fs := &FileStream{
		session:   session,
		provider:  provider,
		layout:    layout,
		fileIndex: fileIndex,
		length:    length,
		cfg:       cfg,
		meter:     metrics.NewMeter(),
	}
	fs.hintReadAhead(0)
	return fs
}

// Meter exposes the stream's read-throughput meter, registered by callers
// under a name of their choosing (e.g. in a metrics.Registry keyed by
// file path), mirroring the teacher's torrent/session_metrics.go counters.
func (fs *FileStream) Meter() metrics.Meter { return fs.meter }

// Seek repositions pos per whence. A seek landing outside [0, length] fails
// with OutOfRange and leaves pos unchanged.
func (fs *FileStream) Seek(offset int64, whence Whence) (int64, error) {
	var target int64
	switch whence {
	case FromBeginning:
		target = offset
	case FromCurrent:
		target = fs.pos + offset
	case FromEnd:
		target = fs.length - offset
	default:
		return fs.pos, &Error{Kind: OutOfRange}
	}
	if target < 0 || target > fs.length {
		return fs.pos, &Error{Kind: OutOfRange}
	}
	fs.pos = target
	fs.hintReadAhead(fs.pos)
	return fs.pos, nil
}

// Write always fails: the stream is read-only.
func (fs *FileStream) Write(p []byte) (int, error) {
	return 0, &Error{Kind: ReadOnly}
}

// pieceBuffer adapts one fetched piece's bytes to filesection.ReadWriterAt,
// the backing interface filesection.Section expects: a stream is read-only,
// so WriteAt always fails.
type pieceBuffer []byte

func (b pieceBuffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b pieceBuffer) WriteAt(p []byte, off int64) (int, error) {
	return 0, &Error{Kind: ReadOnly}
}

// Read fills buf with up to len(buf) bytes starting at pos, advancing pos by
// the number of bytes copied. It maps pos through the file's PieceLayout,
// fetching pieces one at a time (stopping, and returning what was gathered so
// far, at the first piece a provider timeout strands), then assembles the
// covering slices into buf in one filesection.Sections.ReadAt call, the same
// multi-section byte-range assembly internal/filesection uses for on-disk
// storage, here backed by in-memory fetched pieces instead of files. A
// provider timeout yields a short read: whatever was gathered before the
// budget elapsed, with a nil error (io.EOF only at true end of file).
func (fs *FileStream) Read(buf []byte) (int, error) {
	if fs.pos >= fs.length {
		return 0, io.EOF
	}
	remaining := fs.length - fs.pos
	want := int64(len(buf))
	if want > remaining {
		want = remaining
	}

	frags := fs.layout.FileFragments(fs.fileIndex)
	deadline := time.Now().Add(fs.cfg.Budget)
	var sections filesection.Sections
	var gathered int64
	for gathered < want {
		frag, fragOffset, ok := fragmentCovering(frags, fs.pos+gathered)
		if !ok {
			break
		}
		data, err := fs.fetchPiece(frag.PieceIndex, deadline)
		if err != nil {
			break
		}
		avail := int64(frag.Length) - fragOffset
		take := want - gathered
		if take > avail {
			take = avail
		}
		sections = append(sections, filesection.Section{
			File:   pieceBuffer(data),
			Offset: int64(frag.OffsetInPiece) + fragOffset,
			Length: take,
		})
		gathered += take
	}

	if gathered == 0 {
		return 0, nil
	}
	if err := sections.ReadAt(buf[:gathered], 0); err != nil {
		return 0, err
	}

	fs.pos += gathered
	fs.meter.Mark(gathered)
	return int(gathered), nil
}

// fragmentCovering finds the FileFragment (and the offset within it) that
// covers absolute file position pos.
func fragmentCovering(frags []piece.FileFragment, pos int64) (piece.FileFragment, int64, bool) {
	var base int64
	for _, f := range frags {
		if pos < base+int64(f.Length) {
			return f, pos - base, true
		}
		base += int64(f.Length)
	}
	return piece.FileFragment{}, 0, false
}

// fetchPiece blocks on the provider until deadline (the end of the calling
// Read's cfg.Budget), poking it every cfg.PokeInterval, per spec.md §5's
// soft-timeout model.
func (fs *FileStream) fetchPiece(pieceIndex uint32, deadline time.Time) ([]byte, error) {
	if fs.provider.HavePiece(fs.session, pieceIndex) {
		return fs.readPieceNow(pieceIndex)
	}

	ticker := time.NewTicker(fs.cfg.PokeInterval)
	defer ticker.Stop()
	for {
		if fs.provider.HavePiece(fs.session, pieceIndex) {
			return fs.readPieceNow(pieceIndex)
		}
		if time.Now().After(deadline) {
			return nil, &Error{Kind: OutOfRange}
		}
		<-ticker.C
	}
}

func (fs *FileStream) readPieceNow(pieceIndex uint32) ([]byte, error) {
	ch, err := fs.provider.ReadPiece(fs.session, pieceIndex)
	if err != nil {
		return nil, err
	}
	result := <-ch
	if result.Err != nil {
		return nil, result.Err
	}
	return result.Bytes, nil
}

// hintReadAhead registers deadlines, in increasing rank, for the pieces
// covering [from, from+hint), earlier pieces getting earlier deadlines.
func (fs *FileStream) hintReadAhead(from int64) {
	frags := fs.layout.FileFragments(fs.fileIndex)
	frag, fragOffset, ok := fragmentCovering(frags, from)
	if !ok {
		return
	}
	_ = fragOffset
	seen := map[uint32]bool{}
	count := 0
	startIdx := indexOfFragment(frags, frag)
	for i := startIdx; i < len(frags) && count < fs.cfg.ReadAhead; i++ {
		pi := frags[i].PieceIndex
		if seen[pi] {
			continue
		}
		seen[pi] = true
		fs.deadlineAt++
		fs.provider.SetPieceDeadline(fs.session, pi, fs.deadlineAt)
		count++
	}
}

func indexOfFragment(frags []piece.FileFragment, target piece.FileFragment) int {
	for i, f := range frags {
		if f == target {
			return i
		}
	}
	return 0
}
