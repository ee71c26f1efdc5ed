package fstree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cenkalti/torrentfs/internal/metainfo"
)

func TestBuildSingleFile(t *testing.T) {
	info := &metainfo.Info{Name: "hello", Length: 5}
	tree, err := Build(info)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, KindFile, tree.Root.Kind)
	assert.Equal(t, "hello", tree.Root.Name)
	assert.Equal(t, int64(5), tree.Root.Length)
	assert.Equal(t, "/hello", tree.Root.Location)
}

// Scenario B from spec.md §8.
func TestBuildMultiFile(t *testing.T) {
	info := &metainfo.Info{
		Name: "root",
		Files: []metainfo.FileEntry{
			{Length: 10, Path: []string{"a", "b.txt"}},
			{Length: 7, Path: []string{"a", "c.txt"}},
			{Length: 3, Path: []string{"d.txt"}},
		},
	}
	tree, err := Build(info)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, KindDirectory, tree.Root.Kind)
	assert.Equal(t, "root", tree.Root.Name)

	children := tree.Root.Children()
	if assert.Len(t, children, 2) {
		assert.Equal(t, "a", children[0].Name)
		assert.Equal(t, "d.txt", children[1].Name)
	}

	a := tree.Root.Child("a")
	if assert.NotNil(t, a) {
		assert.Equal(t, KindDirectory, a.Kind)
		aChildren := a.Children()
		if assert.Len(t, aChildren, 2) {
			assert.Equal(t, "b.txt", aChildren[0].Name)
			assert.Equal(t, int64(10), aChildren[0].Length)
			assert.Equal(t, 0, aChildren[0].FileIndex)
			assert.Equal(t, "c.txt", aChildren[1].Name)
			assert.Equal(t, 1, aChildren[1].FileIndex)
		}
		assert.Equal(t, "/root/a/b.txt", aChildren[0].Location)
	}

	d := tree.Root.Child("d.txt")
	if assert.NotNil(t, d) {
		assert.Equal(t, KindFile, d.Kind)
		assert.Equal(t, int64(3), d.Length)
		assert.Equal(t, 2, d.FileIndex)
		assert.Equal(t, "/root/d.txt", d.Location)
	}
}

func TestChildrenSortedLexicographically(t *testing.T) {
	info := &metainfo.Info{
		Name: "root",
		Files: []metainfo.FileEntry{
			{Length: 1, Path: []string{"z"}},
			{Length: 1, Path: []string{"a"}},
			{Length: 1, Path: []string{"m"}},
		},
	}
	tree, err := Build(info)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	children := tree.Root.Children()
	var names []string
	for _, c := range children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a", "m", "z"}, names)
}

func TestFileDirectoryNameCollisionRejected(t *testing.T) {
	info := &metainfo.Info{
		Name: "root",
		Files: []metainfo.FileEntry{
			{Length: 1, Path: []string{"a"}},
			{Length: 1, Path: []string{"a", "b"}},
		},
	}
	_, err := Build(info)
	var fe *Error
	if assert.ErrorAs(t, err, &fe) {
		assert.Equal(t, PathCollision, fe.Kind)
	}
}

func TestDuplicateLeafNameRejected(t *testing.T) {
	info := &metainfo.Info{
		Name: "root",
		Files: []metainfo.FileEntry{
			{Length: 1, Path: []string{"a", "b"}},
			{Length: 2, Path: []string{"a", "b"}},
		},
	}
	_, err := Build(info)
	var fe *Error
	if assert.ErrorAs(t, err, &fe) {
		assert.Equal(t, PathCollision, fe.Kind)
	}
}

func TestLocationOverflow(t *testing.T) {
	longSeg := strings.Repeat("x", DefaultMaxLocationLength)
	info := &metainfo.Info{
		Name: "root",
		Files: []metainfo.FileEntry{
			{Length: 1, Path: []string{longSeg}},
		},
	}
	_, err := BuildWithOptions(info, Options{MaxLocationLength: 16})
	var fe *Error
	if assert.ErrorAs(t, err, &fe) {
		assert.Equal(t, LocationOverflow, fe.Kind)
	}
}

func TestWalkVisitsAllNodes(t *testing.T) {
	info := &metainfo.Info{
		Name: "root",
		Files: []metainfo.FileEntry{
			{Length: 1, Path: []string{"a", "b"}},
			{Length: 1, Path: []string{"c"}},
		},
	}
	tree, err := Build(info)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var paths []string
	Walk(tree.Root, func(path string, n *Node) bool {
		paths = append(paths, path)
		return true
	})
	assert.Equal(t, []string{"root", "root/a", "root/a/b", "root/c"}, paths)
}
