// Package fstree converts a validated metainfo.Info into a sorted directory
// tree keyed by path segment, mirroring the teacher's use of an ordered
// container for deterministic child lookup (see internal/piecepicker's use
// of github.com/google/btree for priority order; here the order is
// byte-lexicographic name order instead).
package fstree

import (
	"fmt"
	"strings"

	"github.com/google/btree"

	"github.com/cenkalti/torrentfs/internal/metainfo"
)

// DefaultMaxLocationLength bounds the informational location string built
// for every node. Exceeding it yields a LocationOverflow error.
const DefaultMaxLocationLength = 4096

// Kind tags whether a Node is a leaf file or an interior directory.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

// ErrorKind enumerates the ways building a tree can fail.
type ErrorKind int

const (
	PathCollision ErrorKind = iota
	LocationOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case PathCollision:
		return "path collision"
	case LocationOverflow:
		return "location overflow"
	default:
		return "unknown fstree error"
	}
}

// Error reports why building a DirectoryTree failed, and at which location.
type Error struct {
	Kind     ErrorKind
	Location string
}

func (e *Error) Error() string {
	return fmt.Sprintf("fstree: %s: %s", e.Kind, e.Location)
}

// Node is one entry of a DirectoryTree: either a leaf file or an interior
// directory holding children sorted by byte-lexicographic name.
type Node struct {
	Name     string
	Location string
	Kind     Kind

	// Meaningful when Kind == KindFile.
	FileIndex int // index into metainfo.Info.Files; 0 and ignored in single-file mode
	Length    int64

	children *btree.BTree
}

// childEntry is the btree.Item wrapper ordering children by Name.
type childEntry struct {
	node *Node
}

var _ btree.Item = childEntry{}

func (c childEntry) Less(than btree.Item) bool {
	return c.node.Name < than.(childEntry).node.Name
}

// Children returns this directory's children in sorted name order. It
// returns nil for a file node.
func (n *Node) Children() []*Node {
	if n.Kind != KindDirectory || n.children == nil {
		return nil
	}
	out := make([]*Node, 0, n.children.Len())
	n.children.Ascend(func(it btree.Item) bool {
		out = append(out, it.(childEntry).node)
		return true
	})
	return out
}

// Child looks up an immediate child by exact name, returning nil if absent.
func (n *Node) Child(name string) *Node {
	if n.Kind != KindDirectory || n.children == nil {
		return nil
	}
	item := n.children.Get(childEntry{node: &Node{Name: name}})
	if item == nil {
		return nil
	}
	return item.(childEntry).node
}

func (n *Node) insert(child *Node) {
	n.children.ReplaceOrInsert(childEntry{node: child})
}

// Tree is a built DirectoryTree, rooted at the entry named info.Name.
type Tree struct {
	Root *Node
}

// Options configures Build.
type Options struct {
	// MaxLocationLength bounds every node's Location string. Zero means
	// DefaultMaxLocationLength.
	MaxLocationLength int
}

// Build converts info.Files (or info.Length in single-file mode) into a
// sorted DirectoryTree, per spec.md §4.4. Path segments are validated by the
// metainfo validator already; Build additionally rejects name collisions
// between siblings and locations that overflow the bounded buffer.
func Build(info *metainfo.Info) (*Tree, error) {
	return BuildWithOptions(info, Options{})
}

// BuildWithOptions is Build with an explicit location-length bound.
func BuildWithOptions(info *metainfo.Info, opts Options) (*Tree, error) {
	maxLoc := opts.MaxLocationLength
	if maxLoc <= 0 {
		maxLoc = DefaultMaxLocationLength
	}

	rootLocation := "/" + info.Name
	if len(rootLocation) >= maxLoc {
		return nil, &Error{Kind: LocationOverflow, Location: rootLocation}
	}

	if !info.MultiFile() {
		root := &Node{
			Name:     info.Name,
			Location: rootLocation,
			Kind:     KindFile,
			Length:   info.Length,
		}
		return &Tree{Root: root}, nil
	}

	root := &Node{
		Name:     info.Name,
		Location: rootLocation,
		Kind:     KindDirectory,
		children: btree.New(32),
	}

	for idx, fe := range info.Files {
		dir := root
		loc := rootLocation
		for _, seg := range fe.Path[:len(fe.Path)-1] {
			loc = loc + "/" + seg
			if len(loc) >= maxLoc {
				return nil, &Error{Kind: LocationOverflow, Location: loc}
			}
			child := dir.Child(seg)
			switch {
			case child == nil:
				child = &Node{Name: seg, Location: loc, Kind: KindDirectory, children: btree.New(32)}
				dir.insert(child)
			case child.Kind != KindDirectory:
				return nil, &Error{Kind: PathCollision, Location: loc}
			}
			dir = child
		}

		name := fe.Path[len(fe.Path)-1]
		loc = loc + "/" + name
		if len(loc) >= maxLoc {
			return nil, &Error{Kind: LocationOverflow, Location: loc}
		}
		if dir.Child(name) != nil {
			return nil, &Error{Kind: PathCollision, Location: loc}
		}
		dir.insert(&Node{
			Name:      name,
			Location:  loc,
			Kind:      KindFile,
			FileIndex: idx,
			Length:    fe.Length,
		})
	}

	return &Tree{Root: root}, nil
}

// Walk is a small convenience (exercised by this package's tests): it
// calls fn for every node in the tree in a depth-first, sorted order,
// stopping early if fn returns false.
func Walk(n *Node, fn func(path string, n *Node) bool) bool {
	return walk(n.Name, n, fn)
}

func walk(path string, n *Node, fn func(path string, n *Node) bool) bool {
	if !fn(path, n) {
		return false
	}
	for _, c := range n.Children() {
		if !walk(path+"/"+c.Name, c, fn) {
			return false
		}
	}
	return true
}

// String renders a node's subtree as an indented listing, used for the
// CLI's "tree" subcommand.
func (n *Node) String() string {
	var b strings.Builder
	var write func(prefix string, node *Node)
	write = func(prefix string, node *Node) {
		b.WriteString(prefix)
		b.WriteString(node.Name)
		if node.Kind == KindDirectory {
			b.WriteString("/")
		}
		b.WriteString("\n")
		for _, c := range node.Children() {
			write(prefix+"  ", c)
		}
	}
	write("", n)
	return b.String()
}
