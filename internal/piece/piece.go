// Package piece computes the dual piece/file layout views described by
// spec.md §4.4: for every file, the ordered list of piece fragments that
// cover it; for every piece, the ordered list of file fragments it covers.
//
// The walk is adapted from the teacher's NewPieces (a running
// fileIndex/fileOffset/pieceOffset walk that wrote filesection.Sections
// directly into disk-backed Pieces); here the same walk produces the two
// read-only fragment views the spec requires instead of writable sections.
package piece

import (
	"fmt"

	"github.com/cenkalti/torrentfs/internal/metainfo"
)

// ErrorKind enumerates the ways building a Layout can fail.
type ErrorKind int

const (
	PieceCountMismatch ErrorKind = iota
	FinalPieceOutOfRange
)

func (k ErrorKind) String() string {
	switch k {
	case PieceCountMismatch:
		return "piece count mismatch"
	case FinalPieceOutOfRange:
		return "final piece out of range"
	default:
		return "unknown piece error"
	}
}

// Error reports why Build failed.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string { return fmt.Sprintf("piece: %s", e.Kind) }

// FileFragment is one piece-sized slice of a file's bytes, per spec.md §3's
// per-file PieceLayout view.
type FileFragment struct {
	PieceIndex    uint32
	OffsetInPiece uint32
	Length        uint32
}

// PieceFragment is one file-sized slice of a piece's bytes, per spec.md §3's
// per-piece PieceLayout view.
type PieceFragment struct {
	FileIndex    int
	OffsetInFile int64
	Length       uint32
}

// Layout holds both fragment views, indexed by file index (0 in single-file
// mode) and by piece index respectively.
type Layout struct {
	PerFile  [][]FileFragment
	PerPiece [][]PieceFragment
}

// FileFragments returns the ordered piece fragments covering file fileIndex.
func (l *Layout) FileFragments(fileIndex int) []FileFragment {
	if fileIndex < 0 || fileIndex >= len(l.PerFile) {
		return nil
	}
	return l.PerFile[fileIndex]
}

// PieceFragments returns the ordered file fragments covering pieceIndex.
func (l *Layout) PieceFragments(pieceIndex uint32) []PieceFragment {
	if int(pieceIndex) >= len(l.PerPiece) {
		return nil
	}
	return l.PerPiece[pieceIndex]
}

// Build computes the piece layout for info, validating the piece-count and
// final-piece-length invariants of spec.md §4.4 along the way.
func Build(info *metainfo.Info) (*Layout, error) {
	pieceLength := int64(info.PieceLength)
	numPieces := int64(info.NumPieces)

	expected := ceilDiv(info.TotalLength, pieceLength)
	if expected != numPieces {
		return nil, &Error{Kind: PieceCountMismatch}
	}

	finalLen := info.TotalLength - (numPieces-1)*pieceLength
	if finalLen <= 0 || finalLen > pieceLength {
		return nil, &Error{Kind: FinalPieceOutOfRange}
	}

	lengths := fileLengths(info)

	layout := &Layout{
		PerFile:  make([][]FileFragment, len(lengths)),
		PerPiece: make([][]PieceFragment, info.NumPieces),
	}

	var pieceIndex uint32
	var pieceOffset uint32

	for fi, length := range lengths {
		var fileOffset int64
		for fileOffset < length {
			spaceInPiece := int64(info.PieceLength - pieceOffset)
			n := length - fileOffset
			if n > spaceInPiece {
				n = spaceInPiece
			}

			layout.PerFile[fi] = append(layout.PerFile[fi], FileFragment{
				PieceIndex:    pieceIndex,
				OffsetInPiece: pieceOffset,
				Length:        uint32(n),
			})
			layout.PerPiece[pieceIndex] = append(layout.PerPiece[pieceIndex], PieceFragment{
				FileIndex:    fi,
				OffsetInFile: fileOffset,
				Length:       uint32(n),
			})

			fileOffset += n
			pieceOffset += uint32(n)
			if pieceOffset == info.PieceLength {
				pieceIndex++
				pieceOffset = 0
			}
		}
	}

	return layout, nil
}

func fileLengths(info *metainfo.Info) []int64 {
	if !info.MultiFile() {
		return []int64{info.Length}
	}
	lengths := make([]int64, len(info.Files))
	for i, fe := range info.Files {
		lengths[i] = fe.Length
	}
	return lengths
}

func ceilDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
