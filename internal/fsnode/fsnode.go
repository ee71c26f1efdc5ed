// Package fsnode implements the read-only Directory View Adapter of
// spec.md §4.7: DirectoryNode/FileNode views over a built fstree.Tree,
// opening FileStreams on demand and uniformly rejecting mutation.
//
// Grounded on original_source/src/manager/lvfs_bits_Torrent.cpp's anonymous
// Entry/Dir classes: title is the last path segment, location is the joined
// path, properties mirror size/ctime/mtime/atime/permissions, and opening a
// Dir as a file fails — reproduced here by DirectoryNode having no Open
// method; only FileNode can be opened.
package fsnode

import (
	"errors"
	"time"

	"github.com/cenkalti/torrentfs/internal/filestream"
	"github.com/cenkalti/torrentfs/internal/fstree"
	"github.com/cenkalti/torrentfs/internal/piece"
	"github.com/cenkalti/torrentfs/internal/torrentfs"
)

// ErrNotSupported is returned by structural mutations (rename, remove, copy,
// entry-create): the tree is fixed once built.
var ErrNotSupported = errors.New("fsnode: not supported")

// ErrReadOnly names the read-only failure. No fsnode method returns it: Write
// on a FileNode's stream fails with a *filestream.Error of kind
// filestream.ReadOnly.
var ErrReadOnly = errors.New("fsnode: read only")

// Properties mirrors the C++ Entry's exposed stat fields. Ctime/Mtime/Atime
// all equal the metainfo's creation time: a .torrent file carries no richer
// per-file timestamps.
type Properties struct {
	Size        int64
	Ctime       time.Time
	Mtime       time.Time
	Atime       time.Time
	Permissions uint32
}

// DefaultPermissions is used for every node: the metainfo format carries no
// permission bits of its own.
const DefaultPermissions = 0o444

// Node is the common read-only view shared by DirectoryNode and FileNode.
type Node struct {
	location string
	title    string
	typ      torrentfs.TypeHandle
	props    Properties
}

func (n *Node) Location() string            { return n.location }
func (n *Node) Title() string                { return n.title }
func (n *Node) Type() torrentfs.TypeHandle   { return n.typ }
func (n *Node) Properties() Properties       { return n.props }
func (n *Node) Rename(string) error          { return ErrNotSupported }
func (n *Node) Remove() error                { return ErrNotSupported }
func (n *Node) Copy(string) error            { return ErrNotSupported }
func (n *Node) CreateEntry(string) error     { return ErrNotSupported }

// DirectoryNode iterates over children in the tree's fixed, sorted order.
type DirectoryNode struct {
	Node
	tree     *fstree.Node
	view     *View
	override []Entry
}

// Children returns the directory's entries, sorted byte-lexicographically by
// name, as already guaranteed by fstree.Node.Children. A synthetic root
// (single-file torrents, see New) carries an explicit override instead of
// delegating to a backing fstree.Node.
func (d *DirectoryNode) Children() []Entry {
	if d.override != nil {
		return d.override
	}
	kids := d.tree.Children()
	out := make([]Entry, 0, len(kids))
	for _, k := range kids {
		out = append(out, d.view.nodeFor(k))
	}
	return out
}

// FileNode opens a FileStream on demand; each call to Open returns an
// independent stream over the same underlying file.
type FileNode struct {
	Node
	tree *fstree.Node
	view *View
}

// Open returns a fresh FileStream positioned at offset 0.
func (f *FileNode) Open() *filestream.FileStream {
	return filestream.New(f.view.provider, f.view.session, f.view.layout, f.tree.FileIndex, f.tree.Length, f.view.cfg)
}

// Entry is the common interface satisfied by both node kinds, letting
// callers walk a mixed listing without a type switch on every entry.
type Entry interface {
	Location() string
	Title() string
	Type() torrentfs.TypeHandle
	Properties() Properties
}

var (
	_ Entry = (*DirectoryNode)(nil)
	_ Entry = (*FileNode)(nil)
)

// View adapts a built fstree.Tree and piece.Layout into fsnode views, backed
// by a PieceProvider session. Construction-time parse failures are recorded
// on lastErr rather than panicking: the adapter degrades to an inert, empty
// tree whose Root is nil and whose LastError returns the failure, matching
// spec.md §7's "failed to parse" observable state.
type View struct {
	Root         *DirectoryNode
	provider     torrentfs.PieceProvider
	session      torrentfs.Session
	layout       *piece.Layout
	oracle       torrentfs.TypeOracle
	cfg          filestream.Config
	lastErr      error
	creationTime time.Time
}

// LastError returns the last construction-time failure observed by the view,
// or nil if the tree built successfully.
func (v *View) LastError() error { return v.lastErr }

// New builds a View over tree/layout, or an inert view carrying buildErr as
// its LastError when buildErr is non-nil (the caller is expected to have
// already attempted fstree.Build/piece.Build and may be forwarding their
// failure here). creationTime (typically metainfo.Metainfo.CreationDate,
// defaulted via torrentfs.DefaultCreationDate when the torrent declared
// none) becomes every node's Ctime/Mtime/Atime.
func New(tree *fstree.Tree, layout *piece.Layout, provider torrentfs.PieceProvider, session torrentfs.Session, oracle torrentfs.TypeOracle, cfg filestream.Config, buildErr error, creationTime time.Time) *View {
	v := &View{provider: provider, session: session, layout: layout, oracle: oracle, cfg: cfg, creationTime: creationTime}
	if buildErr != nil {
		v.lastErr = buildErr
		return v
	}
	root := v.nodeFor(tree.Root)
	dir, ok := root.(*DirectoryNode)
	if !ok {
		// Single-file torrents root at a file; wrap it in a synthetic
		// directory so callers always get a DirectoryNode as Root,
		// matching spec.md §4.4's single-file-name-as-root convention.
		dir = &DirectoryNode{
			Node:     Node{location: "", title: "", typ: oracle.TypeOfDirectory(), props: v.properties(0)},
			view:     v,
			override: []Entry{root},
		}
	}
	v.Root = dir
	return v
}

// properties builds a node's Properties, stamping Ctime/Mtime/Atime with the
// view's creationTime: a .torrent file carries no richer per-file timestamps.
func (v *View) properties(size int64) Properties {
	return Properties{
		Size:        size,
		Ctime:       v.creationTime,
		Mtime:       v.creationTime,
		Atime:       v.creationTime,
		Permissions: DefaultPermissions,
	}
}

func (v *View) nodeFor(n *fstree.Node) Entry {
	base := Node{
		location: n.Location,
		title:    n.Name,
		props:    v.properties(n.Length),
	}
	if n.Kind == fstree.KindDirectory {
		base.typ = v.oracle.TypeOfDirectory()
		return &DirectoryNode{Node: base, tree: n, view: v}
	}
	base.typ = v.oracle.TypeOfFile(n.Name)
	return &FileNode{Node: base, tree: n, view: v}
}
